package ports

import (
	"context"

	"github.com/nesciens/levitation/internal/domain"
)

// RevisionReader yields the revisions of one dump part in input order.
// Implementations must return io.EOF at the end of the part and a
// *domain.SkipError for a single undecodable revision, after which the
// reader has already advanced and may be called again.
type RevisionReader interface {
	// Next returns the next revision in the part.
	Next(ctx context.Context) (*domain.Revision, error)

	// Site returns the dump header data seen so far: the site domain and
	// the namespace table.
	Site() domain.Siteinfo
}
