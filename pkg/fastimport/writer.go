package fastimport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Identity is a name/email pair with the instant it acted. The instant's
// zone offset is rendered into the stream, so callers control the recorded
// timezone by choosing the time's location.
type Identity struct {
	Name  string
	Email string
	When  time.Time
}

// FileModify records one regular-file modification in a commit, referencing
// a previously emitted blob by mark.
type FileModify struct {
	Path     string
	BlobMark uint64
}

// Commit describes one commit command. A zero From makes a root commit;
// backends reject mark zero, so no valid parent is shadowed.
type Commit struct {
	Ref       string
	Mark      uint64
	Author    Identity
	Committer Identity
	Message   string
	From      uint64
	Files     []FileModify
}

// Writer serializes import commands onto an io.Writer. Output is buffered;
// call Flush before handing the underlying stream to anyone else. Writer is
// not safe for concurrent use.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a stream writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Feature writes a feature line, failing the backend up front when it lacks
// a capability the stream depends on. arg may be empty.
func (w *Writer) Feature(name, arg string) error {
	if arg == "" {
		_, err := fmt.Fprintf(w.w, "feature %s\n", name)
		return err
	}
	_, err := fmt.Fprintf(w.w, "feature %s=%s\n", name, arg)
	return err
}

// Blob emits the text of one revision under the given mark.
func (w *Writer) Blob(mark uint64, text string) error {
	if _, err := fmt.Fprintf(w.w, "blob\nmark :%d\n", mark); err != nil {
		return err
	}
	return w.data(text)
}

// Commit emits one commit command.
func (w *Writer) Commit(c Commit) error {
	if _, err := fmt.Fprintf(w.w, "commit %s\nmark :%d\n", c.Ref, c.Mark); err != nil {
		return err
	}
	if err := w.identity("author", c.Author); err != nil {
		return err
	}
	if err := w.identity("committer", c.Committer); err != nil {
		return err
	}
	if err := w.data(c.Message); err != nil {
		return err
	}
	if c.From != 0 {
		if _, err := fmt.Fprintf(w.w, "from :%d\n", c.From); err != nil {
			return err
		}
	}
	for _, f := range c.Files {
		if _, err := fmt.Fprintf(w.w, "M 100644 :%d %s\n", f.BlobMark, quotePath(f.Path)); err != nil {
			return err
		}
	}
	return nil
}

// Reset detaches the ref from its current tip. A commit that names no
// parent would otherwise continue the branch silently; a reset first makes
// the next such commit a new root.
func (w *Writer) Reset(ref string) error {
	_, err := fmt.Fprintf(w.w, "reset %s\n", ref)
	return err
}

// Checkpoint asks the backend to move everything received so far into
// stable storage.
func (w *Writer) Checkpoint() error {
	_, err := io.WriteString(w.w, "checkpoint\n")
	return err
}

// Progress emits a progress message for the backend to echo.
func (w *Writer) Progress(msg string) error {
	_, err := fmt.Fprintf(w.w, "progress %s\n", msg)
	return err
}

// Done terminates the stream. Pair with Feature("done", "") so the backend
// treats a truncated stream as an error instead of a quiet success.
func (w *Writer) Done() error {
	_, err := io.WriteString(w.w, "done\n")
	return err
}

// Flush writes buffered commands through to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// data writes a counted data block. The count excludes the separating
// newline after the payload.
func (w *Writer) data(s string) error {
	if _, err := fmt.Fprintf(w.w, "data %d\n", len(s)); err != nil {
		return err
	}
	if _, err := io.WriteString(w.w, s); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) identity(role string, id Identity) error {
	epoch := id.When.Unix()
	_, offset := id.When.Zone()
	_, err := fmt.Fprintf(w.w, "%s %s <%s> %d %s\n",
		role, sanitizeName(id.Name), sanitizeEmail(id.Email), epoch, formatOffset(offset))
	return err
}

// sanitizeName drops the bytes the ident grammar reserves. Backends reject
// names containing angle brackets or newlines outright.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\n':
			return -1
		}
		return r
	}, name)
}

func sanitizeEmail(email string) string {
	return sanitizeName(email)
}

// formatOffset renders a zone offset in seconds as the signed hhmm form,
// truncating any sub-minute remainder.
func formatOffset(sec int) string {
	sign := "+"
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	return fmt.Sprintf("%s%02d%02d", sign, sec/3600, sec%3600/60)
}

// quotePath C-quotes a path only when the grammar requires it. Unquoted
// paths run to end of line, so spaces are fine as-is.
func quotePath(p string) string {
	if strings.HasPrefix(p, "\"") || strings.ContainsAny(p, "\n\\") {
		return strconv.Quote(p)
	}
	return p
}
