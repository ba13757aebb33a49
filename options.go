package levitation

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Option configures optional behavior of a run.
type Option func(*options)

// options holds the optional configuration for a run.
type options struct {
	out io.Writer
	in  io.Reader
	log zerolog.Logger
}

// defaultOptions returns options with sensible defaults: the import stream
// on stdout, the dump on stdin, logging disabled.
func defaultOptions() options {
	return options{
		out: os.Stdout,
		in:  os.Stdin,
		log: zerolog.Nop(),
	}
}

// WithOutput directs the import stream somewhere other than stdout, such as
// a pipe to a running `git fast-import`.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithInput sets the stream the dump is read from when Config.Parts is
// empty. If not provided, stdin is used.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.in = r
	}
}

// WithLogger sets a logger for run diagnostics. If not provided, nothing is
// logged.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}
