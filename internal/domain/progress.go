package domain

import "time"

// Progress is the durable resume state of a conversion. It is loaded before
// a run to decide which input parts can be skipped, and written only after a
// part's effects are durably confirmed by the backend, so an interrupted run
// never records more than it finished.
type Progress struct {
	// Parts lists the input parts whose blobs and index records are
	// complete and durable, in completion order.
	Parts []string `json:"parts"`

	// NextMark is the next unissued blob mark. Marks already recorded in
	// the metadata store stay authoritative; this only seeds the counter.
	NextMark uint64 `json:"next_mark"`

	// Domain is the site host discovered in the dump header, kept so a
	// commits-only run can still synthesize author addresses.
	Domain string `json:"domain,omitempty"`

	// Skipped is the total number of undecodable revisions skipped across
	// all recorded parts.
	Skipped int `json:"skipped,omitempty"`

	// UpdatedAt is the time of the last completed part.
	UpdatedAt time.Time `json:"updated_at"`
}

// PartDone reports whether a part is already fully applied.
func (p Progress) PartDone(part string) bool {
	for _, done := range p.Parts {
		if done == part {
			return true
		}
	}
	return false
}

// FinishPart records a part as fully applied. Recording the same part twice
// keeps a single entry.
func (p *Progress) FinishPart(part string) {
	if !p.PartDone(part) {
		p.Parts = append(p.Parts, part)
	}
	p.UpdatedAt = time.Now()
}
