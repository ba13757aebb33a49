// Package levitation converts MediaWiki full-history XML dumps into git
// fast-import streams, one commit per revision.
//
// Example usage:
//
//	cfg := levitation.DefaultConfig()
//	cfg.Parts = []string{"dump-part-000.xml", "dump-part-001.xml"}
//	sum, err := levitation.Run(context.Background(), cfg,
//	    levitation.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !sum.Complete() {
//	    log.Printf("partial conversion: %d revisions skipped", sum.SkippedRevisions)
//	}
//
// The stream written to the configured output is consumed by
// `git fast-import` running in the target repository. Conversion state lives
// in a working directory, so interrupted runs resume where they left off.
package levitation

import (
	"context"

	"github.com/nesciens/levitation/internal/app"
	"github.com/nesciens/levitation/internal/progress"
)

// Config holds the configuration for a conversion run.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = app.Config

// Summary reports what a run accomplished. Inspect Complete() to tell a
// clean conversion from a partial one.
type Summary = app.Summary

// DefaultCommitter is the committer identity used when none is configured.
const DefaultCommitter = app.DefaultCommitter

// Run converts the configured dump into a fast-import stream. It blocks
// until the conversion finishes, the context is canceled, or an
// unrecoverable error occurs. The returned summary is valid in all three
// cases.
func Run(ctx context.Context, cfg Config, opts ...Option) (Summary, error) {
	if err := validateModuleVersions(); err != nil {
		return Summary{}, err
	}
	cfg.SetDefaults()
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p, err := app.New(cfg, o.out, o.in, progress.NewFileRepository(cfg.WorkDir), o.log)
	if err != nil {
		return Summary{}, err
	}
	return p.Run(ctx)
}

// DefaultConfig returns a Config with sensible default values. The zero
// Config is not usable: resume would be off and the page limit unset.
func DefaultConfig() Config {
	cfg := Config{Resume: true}
	cfg.SetDefaults()
	return cfg
}

// Clean removes all conversion state under cfg's working directory. Call it
// once a conversion has fully completed and the repository is packed; a
// working directory in use by another process is refused.
func Clean(cfg Config) error {
	cfg.SetDefaults()
	return app.Clean(cfg.WorkDir, cfg.MarksPath)
}
