package store

import (
	"encoding/binary"
	"net/netip"

	"github.com/nesciens/levitation/internal/domain"
)

// Flag bits carried in the first byte of every record. FlagPresent doubles
// as the record's existence marker: a zeroed slot reads back as absent.
const (
	FlagPresent uint8 = 1 << iota
	FlagMinor
	FlagAnonymous
	FlagDeleted
)

// MetaRecordSize is the on-disk size of one revision metadata record.
const MetaRecordSize = 45

// RevisionMeta is the fixed-size per-revision record, direct-addressed by
// revision id. It carries everything the commit phase needs except the
// variable-length strings, which live in their own record files.
type RevisionMeta struct {
	Flags    uint8
	PageID   uint32
	ParentID uint32

	// Epoch is the revision timestamp in Unix seconds.
	Epoch int64

	// ZoneOffset is the committer's UTC offset in seconds at the revision
	// instant, resolved when the record is stored so that replays render
	// identical commits regardless of the host's current zone rules.
	ZoneOffset int32

	// Mark is the fast-import mark of the blob holding the revision text.
	Mark uint64

	// Author holds the registered user id in the first eight bytes, or the
	// 16-byte IP address when FlagAnonymous is set.
	Author [16]byte
}

// NewRevisionMeta builds the record for rev. The blob mark is assigned by
// the caller; the zone offset is taken from rev.Time's location.
func NewRevisionMeta(rev *domain.Revision, mark uint64) RevisionMeta {
	m := RevisionMeta{
		Flags:    FlagPresent,
		PageID:   rev.Page.ID,
		ParentID: rev.ParentID,
		Epoch:    rev.Time.Unix(),
		Mark:     mark,
	}
	_, off := rev.Time.Zone()
	m.ZoneOffset = int32(off)
	if rev.Minor {
		m.Flags |= FlagMinor
	}
	m.setAuthor(rev.Author)
	return m
}

func (m *RevisionMeta) setAuthor(a domain.Author) {
	switch {
	case a.Deleted:
		m.Flags |= FlagDeleted
	case a.Anonymous():
		m.Flags |= FlagAnonymous
		m.Author = a.IP.As16()
	default:
		binary.LittleEndian.PutUint64(m.Author[:8], a.ID)
	}
}

func (m RevisionMeta) Minor() bool     { return m.Flags&FlagMinor != 0 }
func (m RevisionMeta) Anonymous() bool { return m.Flags&FlagAnonymous != 0 }
func (m RevisionMeta) Deleted() bool   { return m.Flags&FlagDeleted != 0 }

// AuthorID returns the registered user id. Only meaningful when neither
// FlagAnonymous nor FlagDeleted is set.
func (m RevisionMeta) AuthorID() uint64 {
	return binary.LittleEndian.Uint64(m.Author[:8])
}

// AuthorIP returns the stored address of an anonymous edit, unmapped back to
// IPv4 when it was stored as a 4-in-6 address.
func (m RevisionMeta) AuthorIP() netip.Addr {
	return netip.AddrFrom16(m.Author).Unmap()
}

func (m RevisionMeta) encode(rec []byte) {
	rec[0] = m.Flags | FlagPresent
	binary.LittleEndian.PutUint32(rec[1:5], m.PageID)
	binary.LittleEndian.PutUint32(rec[5:9], m.ParentID)
	binary.LittleEndian.PutUint64(rec[9:17], uint64(m.Epoch))
	binary.LittleEndian.PutUint32(rec[17:21], uint32(m.ZoneOffset))
	binary.LittleEndian.PutUint64(rec[21:29], m.Mark)
	copy(rec[29:45], m.Author[:])
}

func decodeMeta(rec []byte) RevisionMeta {
	var m RevisionMeta
	m.Flags = rec[0]
	m.PageID = binary.LittleEndian.Uint32(rec[1:5])
	m.ParentID = binary.LittleEndian.Uint32(rec[5:9])
	m.Epoch = int64(binary.LittleEndian.Uint64(rec[9:17]))
	m.ZoneOffset = int32(binary.LittleEndian.Uint32(rec[17:21]))
	m.Mark = binary.LittleEndian.Uint64(rec[21:29])
	copy(m.Author[:], rec[29:45])
	return m
}
