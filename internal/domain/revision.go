package domain

import (
	"net/netip"
	"time"
)

// Author identifies who made a revision. Exactly one of the three forms is
// populated: a registered user (ID and Name), an anonymous editor (IP), or a
// deleted contributor (Deleted).
type Author struct {
	// ID is the registered user identifier. Zero for anonymous and deleted
	// contributors.
	ID uint64

	// Name is the registered user's display name.
	Name string

	// IP is the address literal of an anonymous edit. Both dotted-decimal
	// and IPv6 colon forms occur in dumps.
	IP netip.Addr

	// Deleted marks a contributor whose identity was suppressed in the dump.
	Deleted bool
}

// Anonymous reports whether the author is an unregistered editor addressed
// by IP literal. Anonymous authors never enter the user name index.
func (a Author) Anonymous() bool { return a.IP.IsValid() }

// Revision is one historical version of a page's content. Revisions are
// processed in the exact order they appear in the dump for their page and do
// not outlive the pass that consumes them; only derived index records persist.
type Revision struct {
	// ID is the revision identifier, globally unique across the dump.
	ID uint32

	// Page is the owning page. All revisions yielded for one page share the
	// same Page value.
	Page *Page

	// ParentID is the previous revision of the same page, or 0 for the
	// page's first revision.
	ParentID uint32

	// Time is the revision instant. The reader attaches the zone whose
	// offset applies at that instant so commits can be rendered in local
	// time later without re-deriving it.
	Time time.Time

	// Minor is the minor-edit flag.
	Minor bool

	// Author is the revision's contributor.
	Author Author

	// Comment is the edit summary. May be empty.
	Comment string

	// Text is the full page content at this revision.
	Text string
}
