package mwdump

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nesciens/levitation/internal/domain"
)

// xmlnsPrefix matches any 0.x revision of the export schema. The schema is
// stable across those versions for every element this reader touches.
const xmlnsPrefix = "http://www.mediawiki.org/xml/export-0."

// timeLayout is the fixed UTC form MediaWiki writes timestamps in.
const timeLayout = "2006-01-02T15:04:05Z"

type readerState int

const (
	stateDocument readerState = iota // before the root element
	stateDump                        // inside <mediawiki>, between pages
	statePage                        // inside <page>
)

// pageHeader accumulates the leaf elements that precede a page's revisions.
// Fields stay raw text until the first revision needs them, so a malformed
// header degrades into per-revision skip errors instead of killing the run.
type pageHeader struct {
	title  string
	ns     string
	nsSeen bool
	id     string
}

// Reader decodes an export stream into revisions, one Next call at a time.
// It holds only the current page's header and the revision being decoded,
// never a whole page. Reader is not safe for concurrent use.
type Reader struct {
	dec  *xml.Decoder
	zone *time.Location

	site   domain.Siteinfo
	nstoid map[string]int32

	state   readerState
	header  pageHeader
	page    *domain.Page
	prevRev uint32
}

// NewReader creates a Reader over a decompressed dump stream. zone selects
// the location revision timestamps are rendered in, so the offset in force
// at each instant travels with the revision; nil means the host's local
// zone.
func NewReader(r io.Reader, zone *time.Location) *Reader {
	if zone == nil {
		zone = time.Local
	}
	return &Reader{
		dec:    xml.NewDecoder(r),
		zone:   zone,
		site:   domain.Siteinfo{Domain: domain.DefaultDomain, Namespaces: map[int32]string{}},
		nstoid: map[string]int32{},
	}
}

// Site returns the dump's header data: the site domain and the namespace
// table. It is complete once the first revision has been returned and must
// not be called concurrently with Next.
func (r *Reader) Site() domain.Siteinfo { return r.site }

// Next returns the next revision in the dump. It returns io.EOF at the end
// of the stream, and a *domain.SkipError for a single revision whose fields
// could not be decoded; in that case the reader has already advanced past
// the bad element and Next may be called again. Any other error is terminal
// for the stream.
func (r *Reader) Next(ctx context.Context) (*domain.Revision, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if r.state == stateDocument {
					return nil, fmt.Errorf("%w: empty input", domain.ErrBadDump)
				}
				return nil, io.EOF
			}
			if r.state == stateDocument {
				return nil, fmt.Errorf("%w: %v", domain.ErrBadDump, err)
			}
			return nil, fmt.Errorf("mwdump: decode: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			if ee, ok := tok.(xml.EndElement); ok && ee.Name.Local == "page" {
				r.resetPage()
			}
			continue
		}

		switch r.state {
		case stateDocument:
			if se.Name.Local != "mediawiki" || !strings.HasPrefix(se.Name.Space, xmlnsPrefix) {
				return nil, fmt.Errorf("%w: root element is <%s> in namespace %q",
					domain.ErrBadDump, se.Name.Local, se.Name.Space)
			}
			r.state = stateDump

		case stateDump:
			switch se.Name.Local {
			case "siteinfo":
				if err := r.decodeSiteinfo(&se); err != nil {
					return nil, err
				}
			case "page":
				r.state = statePage
			default:
				if err := r.dec.Skip(); err != nil {
					return nil, fmt.Errorf("mwdump: decode: %w", err)
				}
			}

		case statePage:
			switch se.Name.Local {
			case "title":
				if err := r.dec.DecodeElement(&r.header.title, &se); err != nil {
					return nil, fmt.Errorf("mwdump: decode: %w", err)
				}
			case "ns":
				if err := r.dec.DecodeElement(&r.header.ns, &se); err != nil {
					return nil, fmt.Errorf("mwdump: decode: %w", err)
				}
				r.header.nsSeen = true
			case "id":
				// Revision ids live inside <revision>, so an id seen here
				// is the page's own. Only the first one counts.
				var id string
				if err := r.dec.DecodeElement(&id, &se); err != nil {
					return nil, fmt.Errorf("mwdump: decode: %w", err)
				}
				if r.header.id == "" {
					r.header.id = id
				}
			case "revision":
				return r.readRevision(&se)
			default:
				if err := r.dec.Skip(); err != nil {
					return nil, fmt.Errorf("mwdump: decode: %w", err)
				}
			}
		}
	}
}

func (r *Reader) resetPage() {
	r.state = stateDump
	r.header = pageHeader{}
	r.page = nil
	r.prevRev = 0
}

// revisionXML captures one <revision> element with every leaf as raw text,
// so a malformed field surfaces as a skippable conversion error with the
// decoder already positioned past the element.
type revisionXML struct {
	ID          string          `xml:"id"`
	ParentID    string          `xml:"parentid"`
	Timestamp   string          `xml:"timestamp"`
	Contributor *contributorXML `xml:"contributor"`
	Minor       *struct{}       `xml:"minor"`
	Comment     string          `xml:"comment"`
	Text        string          `xml:"text"`
}

type contributorXML struct {
	Deleted  string `xml:"deleted,attr"`
	Username string `xml:"username"`
	ID       string `xml:"id"`
	IP       string `xml:"ip"`
}

func (r *Reader) readRevision(se *xml.StartElement) (*domain.Revision, error) {
	var rx revisionXML
	if err := r.dec.DecodeElement(&rx, se); err != nil {
		return nil, fmt.Errorf("mwdump: decode: %w", err)
	}

	if r.page == nil {
		if err := r.resolvePage(); err != nil {
			return nil, r.skip(&rx, err)
		}
	}

	return r.convert(&rx)
}

// skip wraps a field-level failure in the recoverable error type. The page
// and revision ids ride along when they could still be parsed.
func (r *Reader) skip(rx *revisionXML, err error) *domain.SkipError {
	e := &domain.SkipError{Err: err}
	if r.page != nil {
		e.PageID = r.page.ID
	}
	if id, perr := strconv.ParseUint(rx.ID, 10, 32); perr == nil {
		e.RevisionID = uint32(id)
	}
	return e
}

func (r *Reader) convert(rx *revisionXML) (*domain.Revision, error) {
	id64, err := strconv.ParseUint(rx.ID, 10, 32)
	if err != nil {
		return nil, r.skip(rx, fmt.Errorf("revision id %q: %w", rx.ID, err))
	}
	id := uint32(id64)

	var parent uint32
	if rx.ParentID != "" {
		p64, err := strconv.ParseUint(rx.ParentID, 10, 32)
		if err != nil {
			return nil, r.skip(rx, fmt.Errorf("parent id %q: %w", rx.ParentID, err))
		}
		parent = uint32(p64)
	} else {
		// Old schemas carry no <parentid>; within a page the previous
		// revision is the parent.
		parent = r.prevRev
	}

	ts, err := time.Parse(timeLayout, rx.Timestamp)
	if err != nil {
		return nil, r.skip(rx, fmt.Errorf("timestamp %q: %w", rx.Timestamp, err))
	}

	author, err := parseAuthor(rx.Contributor)
	if err != nil {
		return nil, r.skip(rx, err)
	}

	rev := &domain.Revision{
		ID:       id,
		Page:     r.page,
		ParentID: parent,
		Time:     ts.In(r.zone),
		Minor:    rx.Minor != nil,
		Author:   author,
		Comment:  rx.Comment,
		Text:     rx.Text,
	}
	r.prevRev = id
	return rev, nil
}

func parseAuthor(c *contributorXML) (domain.Author, error) {
	switch {
	case c == nil:
		return domain.Author{}, errors.New("revision has no contributor")
	case c.Deleted == "deleted":
		return domain.Author{Deleted: true}, nil
	case c.IP != "":
		addr, err := netip.ParseAddr(c.IP)
		if err != nil {
			return domain.Author{}, fmt.Errorf("contributor ip %q: %w", c.IP, err)
		}
		return domain.Author{IP: addr}, nil
	case c.Username != "":
		var uid uint64
		if c.ID != "" {
			v, err := strconv.ParseUint(c.ID, 10, 64)
			if err != nil {
				return domain.Author{}, fmt.Errorf("contributor id %q: %w", c.ID, err)
			}
			uid = v
		}
		return domain.Author{ID: uid, Name: c.Username}, nil
	default:
		return domain.Author{}, errors.New("contributor has neither name nor ip")
	}
}

func (r *Reader) resolvePage() error {
	if r.header.id == "" {
		return errors.New("page has no id")
	}
	id64, err := strconv.ParseUint(r.header.id, 10, 32)
	if err != nil {
		return fmt.Errorf("page id %q: %w", r.header.id, err)
	}

	ns, title := r.splitTitle()
	r.page = &domain.Page{ID: uint32(id64), Namespace: ns, Title: title}
	return nil
}

// splitTitle separates the namespace from the page title. The <ns> element
// is authoritative when present; older schemas only carry the prefixed
// title, which is matched against the siteinfo namespace table the way the
// site itself resolves titles.
func (r *Reader) splitTitle() (int32, string) {
	full := r.header.title

	if r.header.nsSeen {
		if ns, err := strconv.ParseInt(r.header.ns, 10, 32); err == nil {
			name := r.site.Namespaces[int32(ns)]
			if name != "" && strings.HasPrefix(full, name+":") {
				return int32(ns), full[len(name)+1:]
			}
			return int32(ns), full
		}
	}

	if prefix, rest, found := strings.Cut(full, ":"); found {
		if ns, ok := r.nstoid[prefix]; ok {
			return ns, rest
		}
	}
	return 0, full
}

type siteinfoXML struct {
	Base       string `xml:"base"`
	Namespaces []struct {
		Key  string `xml:"key,attr"`
		Name string `xml:",chardata"`
	} `xml:"namespaces>namespace"`
}

func (r *Reader) decodeSiteinfo(se *xml.StartElement) error {
	var sx siteinfoXML
	if err := r.dec.DecodeElement(&sx, se); err != nil {
		return fmt.Errorf("mwdump: decode: %w", err)
	}

	if u, err := url.Parse(sx.Base); err == nil && u.Hostname() != "" {
		r.site.Domain = u.Hostname()
	}
	for _, ns := range sx.Namespaces {
		key, err := strconv.ParseInt(ns.Key, 10, 32)
		if err != nil {
			continue
		}
		r.site.Namespaces[int32(key)] = ns.Name
		r.nstoid[ns.Name] = int32(key)
	}
	return nil
}
