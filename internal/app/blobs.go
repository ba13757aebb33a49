package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nesciens/levitation/internal/domain"
	"github.com/nesciens/levitation/internal/partwatch"
	"github.com/nesciens/levitation/internal/ports"
	"github.com/nesciens/levitation/pkg/mwdump"
	"github.com/nesciens/levitation/pkg/recfile"
)

// stdinPart names the part read from the input stream. Runs fed on a pipe
// cannot be resumed by name, so this part is never recorded as complete.
const stdinPart = "-"

// errPageBudget stops the part loop once the page limit is spent.
var errPageBudget = errors.New("page limit reached")

// runBlobs converts every pending part into blobs and index records. With
// follow enabled it keeps watching the parts directory until the context is
// canceled.
func (p *Pipeline) runBlobs(ctx context.Context) error {
	if len(p.cfg.Parts) == 0 {
		p.summary.RemainingParts = 1
		err := p.convertPart(ctx, stdinPart, p.in, false)
		if err == nil || errors.Is(err, errPageBudget) {
			p.summary.RemainingParts = 0
			return nil
		}
		return err
	}

	p.summary.RemainingParts = len(p.cfg.Parts)
	for _, part := range p.cfg.Parts {
		if err := p.processPart(ctx, part); err != nil {
			if errors.Is(err, errPageBudget) {
				p.log.Info().Int("pages", p.pages).Msg("page limit reached, stopping early")
				return nil
			}
			return err
		}
		p.summary.RemainingParts--
	}

	if !p.cfg.Follow {
		return nil
	}

	w := partwatch.New(partwatch.Config{
		Dir:          filepath.Dir(p.cfg.Parts[0]),
		PollInterval: p.cfg.PollInterval,
	}, p.log)
	w.MarkSeen(p.cfg.Parts...)
	w.MarkSeen(p.state.Parts...)
	err := w.Run(ctx, func(path string) error {
		return p.processPart(ctx, path)
	})
	if errors.Is(err, errPageBudget) {
		p.log.Info().Int("pages", p.pages).Msg("page limit reached, stopping early")
		return nil
	}
	return err
}

// processPart converts a single named part, honoring resume and the page
// limit.
func (p *Pipeline) processPart(ctx context.Context, part string) error {
	if p.cfg.Resume && p.state.PartDone(part) {
		p.log.Info().Str("part", part).Msg("part already imported, skipping")
		p.summary.PartsSkipped++
		return nil
	}
	if p.pageBudgetSpent() {
		return errPageBudget
	}
	f, err := os.Open(part)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.convertPart(ctx, part, f, true)
}

// convertPart streams one part through the reader/emitter pair and, when it
// completed in full, records it in the progress state. The order matters:
// the backend checkpoint and the index sync land before the progress write,
// so a crash can lose work but never record work that was lost.
func (p *Pipeline) convertPart(ctx context.Context, part string, src io.Reader, record bool) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	p.log.Info().Str("part", part).Msg("importing part")
	if err := p.w.Progress("levitation: blobs: " + part); err != nil {
		return err
	}

	r := mwdump.NewReader(src, p.cfg.Zone)
	complete, err := p.depositBlobs(ctx, r)
	if err != nil {
		return err
	}
	if d := r.Site().Domain; d != "" && d != domain.DefaultDomain {
		p.state.Domain = d
	}

	if err := p.w.Checkpoint(); err != nil {
		return err
	}
	if err := p.w.Flush(); err != nil {
		return err
	}
	if err := p.store.Sync(); err != nil {
		return err
	}

	if complete && record {
		p.state.FinishPart(part)
		p.summary.Parts++
	}
	p.state.NextMark = p.nextMark
	if err := p.progress.Save(ctx, p.state); err != nil {
		return err
	}
	if !complete {
		p.log.Warn().Str("part", part).Msg("part interrupted by the page limit, left pending")
		return errPageBudget
	}
	return nil
}

// depositBlobs drains the reader into the store and the import stream. The
// reader decodes on one goroutine while blobs are emitted on another; a
// single-slot channel between them keeps at most two revision texts alive.
// It reports whether the part was read to its end, as opposed to being cut
// off by the page limit.
func (p *Pipeline) depositBlobs(ctx context.Context, r ports.RevisionReader) (bool, error) {
	revs := make(chan *domain.Revision, 1)
	var skipped, pages int
	complete := true

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(revs)
		var pageID uint32
		for {
			rev, err := r.Next(ctx)
			if err != nil {
				var skip *domain.SkipError
				if errors.As(err, &skip) {
					skipped++
					p.log.Warn().
						Uint32("page", skip.PageID).
						Uint32("revision", skip.RevisionID).
						Err(skip.Err).
						Msg("skipping undecodable revision")
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			if rev.Page.ID != pageID {
				if p.cfg.MaxPages >= 0 && p.pages+pages >= p.cfg.MaxPages {
					complete = false
					return nil
				}
				pages++
				pageID = rev.Page.ID
			}
			select {
			case revs <- rev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		var page *domain.Page
		for rev := range revs {
			if rev.Page != page {
				page = rev.Page
				p.log.Debug().
					Uint32("page", page.ID).
					Str("title", page.Title).
					Msg("importing page")
				if err := p.putRecord(page.ID, p.store.PutPage(page)); err != nil {
					return err
				}
			}
			if err := p.emitRevision(rev); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return false, err
	}
	p.pages += pages
	p.summary.Pages += pages
	p.summary.SkippedRevisions += skipped
	p.state.Skipped += skipped
	return complete, nil
}

// emitRevision indexes one revision and deposits its text as a blob. A
// revision already indexed by an earlier, interrupted run keeps its mark;
// its blob is emitted again only when the backend's table does not know it.
func (p *Pipeline) emitRevision(rev *domain.Revision) error {
	meta, ok, err := p.store.GetMeta(rev.ID)
	if err != nil {
		return err
	}
	if ok {
		if meta.Mark >= p.nextMark {
			p.nextMark = meta.Mark + 1
		}
		if p.marks.Has(meta.Mark) {
			return nil
		}
		return p.w.Blob(meta.Mark, rev.Text)
	}

	mark := p.nextMark
	if err := p.putRecord(rev.Page.ID, p.store.PutRevision(rev, mark)); err != nil {
		return err
	}
	p.nextMark++
	p.summary.Revisions++
	return p.w.Blob(mark, rev.Text)
}

// putRecord applies the structural error policy to a store write: a record
// conflict flags the page and is swallowed unless the run is strict.
func (p *Pipeline) putRecord(pageID uint32, err error) error {
	if err == nil {
		return nil
	}
	var conflict *recfile.ConflictError
	if errors.As(err, &conflict) && !p.cfg.Strict {
		p.flagIncomplete(pageID, err)
		return nil
	}
	return fmt.Errorf("page %d: %w", pageID, err)
}
