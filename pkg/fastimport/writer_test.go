package fastimport

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBlob(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Blob(3, "hello"); err != nil {
		t.Fatalf("Blob: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := "blob\nmark :3\ndata 5\nhello\n"
	if buf.String() != want {
		t.Fatalf("stream = %q, want %q", buf.String(), want)
	}
}

func TestCommit(t *testing.T) {
	when := time.Unix(1234567890, 0).In(time.FixedZone("", 3600))
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.Commit(Commit{
		Ref:       "refs/heads/master",
		Mark:      500,
		Author:    Identity{Name: "Alice", Email: "alice@example.org", When: when.UTC()},
		Committer: Identity{Name: "Importer", Email: "importer@example.org", When: when},
		Message:   "edit summary",
		From:      499,
		Files:     []FileModify{{Path: "0/43/61/66/Caf.C3.A9.mediawiki", BlobMark: 3}},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := "commit refs/heads/master\n" +
		"mark :500\n" +
		"author Alice <alice@example.org> 1234567890 +0000\n" +
		"committer Importer <importer@example.org> 1234567890 +0100\n" +
		"data 12\n" +
		"edit summary\n" +
		"from :499\n" +
		"M 100644 :3 0/43/61/66/Caf.C3.A9.mediawiki\n"
	if buf.String() != want {
		t.Fatalf("stream = %q, want %q", buf.String(), want)
	}
}

func TestRootCommitHasNoFrom(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.Commit(Commit{
		Ref:       "refs/heads/master",
		Mark:      1,
		Author:    Identity{Name: "A", Email: "a@x", When: time.Unix(0, 0).UTC()},
		Committer: Identity{Name: "C", Email: "c@x", When: time.Unix(0, 0).UTC()},
		Message:   "m",
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	w.Flush()
	if strings.Contains(buf.String(), "from :") {
		t.Fatalf("root commit carries a from line:\n%s", buf.String())
	}
}

func TestIdentitySanitized(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	id := Identity{Name: "Bad <Actor>\n", Email: "bad@example.org", When: time.Unix(0, 0).UTC()}
	if err := w.identity("author", id); err != nil {
		t.Fatalf("identity: %v", err)
	}
	w.Flush()
	want := "author Bad Actor <bad@example.org> 0 +0000\n"
	if buf.String() != want {
		t.Fatalf("identity line = %q, want %q", buf.String(), want)
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		sec  int
		want string
	}{
		{0, "+0000"},
		{3600, "+0100"},
		{-18000, "-0500"},
		{19800, "+0530"},
		{-3660, "-0101"},
	}
	for _, tt := range tests {
		if got := formatOffset(tt.sec); got != tt.want {
			t.Errorf("formatOffset(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestControlCommands(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Feature("done", "")
	w.Feature("export-marks", "/tmp/marks.git")
	w.Reset("refs/heads/master")
	w.Progress("part 1/3 done")
	w.Checkpoint()
	w.Done()
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := "feature done\n" +
		"feature export-marks=/tmp/marks.git\n" +
		"reset refs/heads/master\n" +
		"progress part 1/3 done\n" +
		"checkpoint\n" +
		"done\n"
	if buf.String() != want {
		t.Fatalf("stream = %q, want %q", buf.String(), want)
	}
}

func TestQuotePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0/41/Alpha.mediawiki", "0/41/Alpha.mediawiki"},
		{"has space/x", "has space/x"},
		{"\"leading quote", `"\"leading quote"`},
		{"new\nline", `"new\nline"`},
	}
	for _, tt := range tests {
		if got := quotePath(tt.in); got != tt.want {
			t.Errorf("quotePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
