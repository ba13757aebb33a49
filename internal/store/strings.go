package store

import (
	"encoding/binary"
	"unicode/utf8"
)

const (
	// stringCap is the maximum stored string length in bytes. Longer values
	// are trimmed at a rune boundary so the stored prefix stays valid UTF-8.
	stringCap = 255

	// TextRecordSize is the size of a comment or user name record: a flag
	// byte, a length byte and the string bytes.
	TextRecordSize = 1 + 1 + stringCap

	// TitleRecordSize additionally carries the page's namespace key between
	// the flag and length bytes.
	TitleRecordSize = 1 + 4 + 1 + stringCap
)

// trimString returns the longest prefix of s that fits in stringCap bytes
// without splitting a UTF-8 sequence.
func trimString(s string) string {
	if len(s) <= stringCap {
		return s
	}
	cut := stringCap
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func encodeText(rec []byte, s string) {
	s = trimString(s)
	rec[0] = FlagPresent
	rec[1] = byte(len(s))
	copy(rec[2:], s)
}

func decodeText(rec []byte) string {
	n := int(rec[1])
	return string(rec[2 : 2+n])
}

func encodeTitle(rec []byte, ns int32, title string) {
	title = trimString(title)
	rec[0] = FlagPresent
	binary.LittleEndian.PutUint32(rec[1:5], uint32(ns))
	rec[5] = byte(len(title))
	copy(rec[6:], title)
}

func decodeTitle(rec []byte) (ns int32, title string) {
	ns = int32(binary.LittleEndian.Uint32(rec[1:5]))
	n := int(rec[5])
	return ns, string(rec[6 : 6+n])
}
