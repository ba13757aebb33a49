package fastimport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Marks is an in-memory view of the table a backend maintains through its
// export-marks feature: one line per mark, each naming the object id the
// mark resolved to. An importer consults it on startup to learn which marks
// from earlier runs the backend still remembers.
type Marks struct {
	ids map[uint64]string
	max uint64
}

// LoadMarks reads a mark table from path. A missing file yields an empty
// table, which is the normal state before the first run.
func LoadMarks(path string) (*Marks, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Marks{ids: make(map[uint64]string)}, nil
		}
		return nil, err
	}
	defer f.Close()
	m, err := ParseMarks(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseMarks reads a mark table in the ":idnum SHA" line format.
func ParseMarks(r io.Reader) (*Marks, error) {
	m := &Marks{ids: make(map[uint64]string)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		idnum, sha, ok := strings.Cut(text, " ")
		if !ok || !strings.HasPrefix(idnum, ":") {
			return nil, fmt.Errorf("fastimport: marks line %d: malformed %q", line, text)
		}
		mark, err := strconv.ParseUint(idnum[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fastimport: marks line %d: %w", line, err)
		}
		m.ids[mark] = sha
		if mark > m.max {
			m.max = mark
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Has reports whether the backend remembers the mark.
func (m *Marks) Has(mark uint64) bool {
	_, ok := m.ids[mark]
	return ok
}

// SHA returns the object id a mark resolved to.
func (m *Marks) SHA(mark uint64) (string, bool) {
	sha, ok := m.ids[mark]
	return sha, ok
}

// Len returns the number of marks in the table.
func (m *Marks) Len() int {
	return len(m.ids)
}

// Max returns the highest mark in the table, zero when empty.
func (m *Marks) Max() uint64 {
	return m.max
}

// MaxBelow returns the highest mark strictly below ceil, zero when none
// exists. Callers that partition the mark space can recover one partition's
// counter without being confused by the other's.
func (m *Marks) MaxBelow(ceil uint64) uint64 {
	var max uint64
	for mark := range m.ids {
		if mark < ceil && mark > max {
			max = mark
		}
	}
	return max
}
