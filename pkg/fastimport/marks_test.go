package fastimport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleMarks = `:1 9d2cfb9f64cb4e3fbd0b0aef8e7b6d014ad6b0cf
:2 3f786850e387550fdab836ed7e6dc881de23001b
:4611686018427387904 89e6c98d92887913cadf06b2adb97f26cde4849b
`

func TestParseMarks(t *testing.T) {
	m, err := ParseMarks(strings.NewReader(sampleMarks))
	if err != nil {
		t.Fatalf("ParseMarks: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
	if !m.Has(1) || !m.Has(2) {
		t.Fatal("blob marks missing from table")
	}
	if m.Has(3) {
		t.Fatal("Has reported a mark that was never written")
	}
	sha, ok := m.SHA(2)
	if !ok || sha != "3f786850e387550fdab836ed7e6dc881de23001b" {
		t.Fatalf("SHA(2) = %q ok=%v", sha, ok)
	}
	if m.Max() != 1<<62 {
		t.Fatalf("Max = %d, want %d", m.Max(), uint64(1)<<62)
	}
}

func TestMaxBelow(t *testing.T) {
	m, err := ParseMarks(strings.NewReader(sampleMarks))
	if err != nil {
		t.Fatalf("ParseMarks: %v", err)
	}
	if got := m.MaxBelow(1 << 62); got != 2 {
		t.Fatalf("MaxBelow = %d, want 2", got)
	}
	if got := m.MaxBelow(1); got != 0 {
		t.Fatalf("MaxBelow(1) = %d, want 0", got)
	}
}

func TestParseMarksMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no colon", "1 abc\n"},
		{"no sha", ":1\n"},
		{"bad number", ":x abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMarks(strings.NewReader(tt.in)); err == nil {
				t.Fatalf("ParseMarks accepted %q", tt.in)
			}
		})
	}
}

func TestLoadMarksMissingFile(t *testing.T) {
	m, err := LoadMarks(filepath.Join(t.TempDir(), "marks.git"))
	if err != nil {
		t.Fatalf("LoadMarks: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("Len = %d, want 0", m.Len())
	}
}

func TestLoadMarksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.git")
	if err := os.WriteFile(path, []byte(sampleMarks), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := LoadMarks(path)
	if err != nil {
		t.Fatalf("LoadMarks: %v", err)
	}
	if !m.Has(1) {
		t.Fatal("mark 1 missing after load")
	}
}
