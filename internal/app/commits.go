package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nesciens/levitation/internal/domain"
	"github.com/nesciens/levitation/internal/store"
	"github.com/nesciens/levitation/pkg/fastimport"
	"github.com/nesciens/levitation/pkg/pathenc"
)

// runCommits replays the index into per-page commit chains. It reads only
// the record files, never the dump: a blobs-only invocation followed by a
// commits run later yields the same repository as one combined run.
func (p *Pipeline) runCommits(ctx context.Context) error {
	if err := p.w.Progress("levitation: commits"); err != nil {
		return err
	}

	pageIDs, groups, err := p.groupByPage()
	if err != nil {
		return err
	}
	if len(pageIDs) == 0 {
		p.log.Info().Msg("index is empty, nothing to commit")
		return nil
	}
	p.log.Info().Int("pages", len(pageIDs)).Msg("building commits")

	mark := commitMarkBase
	for _, pageID := range pageIDs {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if err := p.commitPage(pageID, groups[pageID], &mark); err != nil {
			return err
		}
	}
	return p.w.Progress(fmt.Sprintf("levitation: %d commits", p.summary.Commits))
}

// groupByPage scans the metadata records once and groups revision ids by
// page, pages ordered by ascending id and revisions in id order within each.
// The ordering is a function of the store alone, so repeated commit phases
// over the same index emit identical streams.
func (p *Pipeline) groupByPage() ([]uint32, map[uint32][]uint32, error) {
	maxRev, ok, err := p.store.MaxRevisionID()
	if err != nil || !ok {
		return nil, nil, err
	}

	groups := make(map[uint32][]uint32)
	for rev := uint32(0); ; rev++ {
		meta, ok, err := p.store.GetMeta(rev)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			groups[meta.PageID] = append(groups[meta.PageID], rev)
		}
		if rev == maxRev {
			break
		}
	}

	pageIDs := make([]uint32, 0, len(groups))
	for id := range groups {
		pageIDs = append(pageIDs, id)
	}
	sort.Slice(pageIDs, func(i, j int) bool { return pageIDs[i] < pageIDs[j] })
	return pageIDs, groups, nil
}

// commitPage emits one page's history as a chain of commits rooted in a
// fresh parentless commit. A structural fault truncates the chain at the
// fault and flags the page, or aborts the run when strict.
func (p *Pipeline) commitPage(pageID uint32, revs []uint32, mark *uint64) error {
	page, ok, err := p.store.GetPage(pageID)
	if err != nil {
		return err
	}
	if !ok {
		fault := &domain.ChainError{PageID: pageID, Orphans: revs, Reason: "no title record"}
		if p.cfg.Strict {
			return fault
		}
		p.flagIncomplete(pageID, fault)
		return nil
	}

	metas := make(map[uint32]store.RevisionMeta, len(revs))
	for _, id := range revs {
		meta, ok, err := p.store.GetMeta(id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("meta record of revision %d vanished mid-run", id)
		}
		metas[id] = meta
	}

	chain, fault := linkChain(pageID, revs, metas)
	if fault != nil && p.cfg.Strict {
		return fault
	}

	if len(chain) > 0 {
		// The ref may already point at another page's chain, or at a tip
		// imported by an earlier invocation. Detach it so the first commit
		// below starts a new root instead of extending that history.
		if err := p.w.Reset(p.cfg.Branch); err != nil {
			return err
		}
	}

	path := pathenc.PagePath(page.Namespace, page.Title, p.cfg.Depth)
	var parent uint64
	for _, id := range chain {
		c, err := p.buildCommit(page, path, id, metas[id], *mark, parent)
		if err != nil {
			return err
		}
		if err := p.w.Commit(c); err != nil {
			return err
		}
		parent = *mark
		*mark--
		p.summary.Commits++
	}

	if fault != nil {
		p.flagIncomplete(pageID, fault)
	}
	return nil
}

// linkChain orders a page's revisions into their parent chain, starting at
// the revision with no parent and following child pointers. Revisions whose
// parent is missing from the group, second claimants of an already-claimed
// parent, and everything dangling behind such faults come back as orphans.
func linkChain(pageID uint32, revs []uint32, metas map[uint32]store.RevisionMeta) ([]uint32, *domain.ChainError) {
	present := make(map[uint32]bool, len(revs))
	for _, id := range revs {
		present[id] = true
	}

	// revs ascends, so the first claimant of a root or parent slot is the
	// lowest revision id and the outcome does not depend on map order.
	child := make(map[uint32]uint32, len(revs))
	var root uint32
	haveRoot := false
	reason := ""
	flag := func(r string) {
		if reason == "" {
			reason = r
		}
	}

	for _, id := range revs {
		m := metas[id]
		switch {
		case m.ParentID == 0:
			if haveRoot {
				flag(fmt.Sprintf("revisions %d and %d both claim to start the page", root, id))
				continue
			}
			root, haveRoot = id, true
		case !present[m.ParentID]:
			flag(fmt.Sprintf("parent %d of revision %d is not part of the page", m.ParentID, id))
		default:
			if prev, taken := child[m.ParentID]; taken {
				flag(fmt.Sprintf("revisions %d and %d share parent %d", prev, id, m.ParentID))
				continue
			}
			child[m.ParentID] = id
		}
	}

	if !haveRoot {
		return nil, &domain.ChainError{PageID: pageID, Orphans: revs, Reason: "no first revision"}
	}

	chain := make([]uint32, 0, len(revs))
	inChain := make(map[uint32]bool, len(revs))
	for id := root; ; {
		chain = append(chain, id)
		inChain[id] = true
		next, ok := child[id]
		if !ok {
			break
		}
		id = next
	}

	if len(chain) == len(revs) && reason == "" {
		return chain, nil
	}
	if reason == "" {
		reason = "revision cycle"
	}
	orphans := make([]uint32, 0, len(revs)-len(chain))
	for _, id := range revs {
		if !inChain[id] {
			orphans = append(orphans, id)
		}
	}
	return chain, &domain.ChainError{PageID: pageID, Orphans: orphans, Reason: reason}
}

// buildCommit assembles the commit for one stored revision. The author is
// synthesized from the stored contributor; the committer is the configured
// identity acting at the revision instant, rendered with the zone offset
// recorded when the revision was indexed.
func (p *Pipeline) buildCommit(page domain.Page, path string, revID uint32, m store.RevisionMeta, mark, parent uint64) (fastimport.Commit, error) {
	comment, _, err := p.store.GetComment(revID)
	if err != nil {
		return fastimport.Commit{}, err
	}
	author, err := p.authorIdentity(m)
	if err != nil {
		return fastimport.Commit{}, err
	}

	when := time.Unix(m.Epoch, 0)
	author.When = when.UTC()
	committer := p.committer
	committer.When = when.In(time.FixedZone("", int(m.ZoneOffset)))

	return fastimport.Commit{
		Ref:       p.cfg.Branch,
		Mark:      mark,
		Author:    author,
		Committer: committer,
		Message:   commitMessage(comment, page.ID, revID, m.Minor()),
		From:      parent,
		Files:     []fastimport.FileModify{{Path: path, BlobMark: m.Mark}},
	}, nil
}

// authorIdentity synthesizes the author for a stored revision. Addresses
// follow the uid-N / ip-LITERAL / deleted scheme under a git. subdomain of
// the wiki's host, so they cannot collide with real mailboxes there.
func (p *Pipeline) authorIdentity(m store.RevisionMeta) (fastimport.Identity, error) {
	host := p.state.Domain
	if host == "" {
		host = domain.DefaultDomain
	}
	switch {
	case m.Anonymous():
		ip := m.AuthorIP().String()
		return fastimport.Identity{Name: ip, Email: fmt.Sprintf("ip-%s@git.%s", ip, host)}, nil
	case m.Deleted():
		return fastimport.Identity{Name: "[deleted user]", Email: "deleted@git." + host}, nil
	default:
		name, ok, err := p.store.GetUser(m.AuthorID())
		if err != nil {
			return fastimport.Identity{}, err
		}
		if !ok {
			return fastimport.Identity{}, fmt.Errorf("no name record for user %d", m.AuthorID())
		}
		return fastimport.Identity{Name: name, Email: fmt.Sprintf("uid-%d@git.%s", m.AuthorID(), host)}, nil
	}
}

// commitMessage renders the edit comment followed by the machine-readable
// trailers. The trailers are always present, so tools reading the converted
// repository can rely on them.
func commitMessage(comment string, pageID, revID uint32, minor bool) string {
	return fmt.Sprintf("%s\n\nPage-Id: %d\nRevision-Id: %d\nMinor: %t\n", comment, pageID, revID, minor)
}
