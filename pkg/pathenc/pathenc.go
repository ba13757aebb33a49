// Package pathenc maps page titles to repository file paths.
//
// Titles may contain any Unicode, but tree paths must be unambiguous and
// safe on case-insensitive filesystems, so every byte outside a small safe
// set is escaped as a dot followed by two uppercase hex digits. The escaping
// is injective and reversible: distinct titles always map to distinct paths,
// and Unescape recovers the exact title. Leading bytes of the escaped title
// additionally fan the tree out into hex shard directories so that a dump
// with millions of pages does not produce one directory with millions of
// entries.
package pathenc

import (
	"fmt"
	"strconv"
	"strings"
)

// Suffix is appended to every page file name.
const Suffix = ".mediawiki"

const hexUpper = "0123456789ABCDEF"

// isSafe reports whether b may appear unescaped in a path element. The dot
// is deliberately unsafe so that it always introduces an escape group.
func isSafe(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= '0' && b <= '9') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z')
}

// Escape returns the filesystem-safe form of a page title.
func Escape(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for i := 0; i < len(title); i++ {
		c := title[i]
		if isSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('.')
		b.WriteByte(hexUpper[c>>4])
		b.WriteByte(hexUpper[c&0x0F])
	}
	return b.String()
}

// Unescape reverses Escape. It rejects strings Escape cannot have produced.
func Unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '.' {
			if !isSafe(c) {
				return "", fmt.Errorf("pathenc: unescaped byte %#x at %d", c, i)
			}
			b.WriteByte(c)
			i++
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("pathenc: truncated escape at %d", i)
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("pathenc: bad escape %q at %d", s[i:i+3], i)
		}
		b.WriteByte(hi<<4 | lo)
		i += 3
	}
	return b.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// PagePath builds the repository path for a page title: the decimal
// namespace directory, depth levels of shard directories named after the
// leading bytes of the escaped title, and the escaped title itself with
// Suffix appended. Paths use forward slashes on every platform because they
// name entries in the import stream, not the local filesystem.
func PagePath(ns int32, title string, depth int) string {
	esc := Escape(title)
	if depth > len(esc) {
		depth = len(esc)
	}
	elems := make([]string, 0, depth+2)
	elems = append(elems, strconv.FormatInt(int64(ns), 10))
	for i := 0; i < depth; i++ {
		elems = append(elems, shard(esc[i]))
	}
	elems = append(elems, esc+Suffix)
	return strings.Join(elems, "/")
}

func shard(b byte) string {
	const hexLower = "0123456789abcdef"
	return string([]byte{hexLower[b>>4], hexLower[b&0x0F]})
}
