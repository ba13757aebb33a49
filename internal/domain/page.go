package domain

// Page represents a titled, namespaced container for an ordered revision
// history. A page's identifier never repeats across a dump, and all of its
// revisions appear contiguously in the input.
type Page struct {
	// ID is the dump-wide unique page identifier.
	ID uint32

	// Namespace is the namespace key the page belongs to (0 is the main
	// namespace, talk/user/etc. are positive, virtual namespaces negative).
	Namespace int32

	// Title is the page title without its namespace prefix. It may contain
	// arbitrary Unicode and is only made filesystem-safe at path-derivation
	// time.
	Title string
}

// Siteinfo carries the per-dump header data the pipeline needs: the wiki's
// host name (used to synthesize author e-mail addresses) and the namespace
// table declared by the dump.
type Siteinfo struct {
	// Domain is the host part of the site's base URL, or "unknown.invalid"
	// when the dump does not declare one.
	Domain string

	// Namespaces maps namespace keys to their local names. The main
	// namespace has key 0 and an empty name.
	Namespaces map[int32]string
}

// DefaultDomain is used for author e-mail synthesis when the dump carries no
// usable <base> element.
const DefaultDomain = "unknown.invalid"
