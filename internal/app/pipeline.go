package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nesciens/levitation/internal/domain"
	"github.com/nesciens/levitation/internal/ports"
	"github.com/nesciens/levitation/internal/progress"
	"github.com/nesciens/levitation/internal/store"
	"github.com/nesciens/levitation/pkg/fastimport"
)

// Default configuration values. Page limit, shard depth and committer
// identity keep the defaults the tool has always shipped with.
const (
	DefaultWorkDir      = ".levitation"
	DefaultMarksFile    = "marks.git"
	DefaultMaxPages     = 100
	DefaultDepth        = 3
	DefaultBranch       = "refs/heads/master"
	DefaultCommitter    = "Levitation <levitation@scytale.name>"
	DefaultPollInterval = 30 * time.Second
)

// commitMarkBase is the first (highest) commit mark. Blob marks count up
// from one and commit marks count down from here, so the two spaces cannot
// collide within any dump that fits on a disk.
const commitMarkBase = uint64(1) << 62

// Config contains the knobs of a conversion run.
type Config struct {
	// Parts are the dump part paths, converted in order. Empty means a
	// single part is read from the input stream instead.
	Parts []string

	// WorkDir holds the record files, the progress file, the mark table
	// and the lock file.
	WorkDir string

	// MarksPath is the backend's mark table. Empty means marks.git under
	// WorkDir.
	MarksPath string

	// MaxPages bounds the pages imported by this invocation; -1 means
	// unlimited.
	MaxPages int

	// Depth is the number of shard directories between the namespace
	// directory and the page file.
	Depth int

	// Branch is the ref the commits are built on.
	Branch string

	// Committer is the committer identity in "Name <email>" form.
	Committer string

	// OnlyBlobs stops after the blob phase. Useful while further parts are
	// still being fetched.
	OnlyBlobs bool

	// Resume skips parts recorded complete in an earlier invocation.
	Resume bool

	// Strict aborts the run on structural errors instead of flagging the
	// affected page and continuing.
	Strict bool

	// Overwrite discards all recorded state before the run.
	Overwrite bool

	// Follow keeps watching the parts directory and converts new parts as
	// they appear, until the context is canceled.
	Follow bool

	// PollInterval is the follow-mode sweep interval.
	PollInterval time.Duration

	// Zone is the location revision instants are rendered in, so commit
	// times carry the offset in force at each instant. Nil means the host
	// zone.
	Zone *time.Location
}

// SetDefaults fills unset fields with default values.
func (c *Config) SetDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.MarksPath == "" {
		c.MarksPath = filepath.Join(c.WorkDir, DefaultMarksFile)
	}
	if c.MaxPages == 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	if c.Committer == "" {
		c.Committer = DefaultCommitter
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Zone == nil {
		c.Zone = time.Local
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxPages == 0 || c.MaxPages < -1 {
		return fmt.Errorf("%w: max-pages must be positive or -1", domain.ErrInvalidConfig)
	}
	if c.Depth < 0 {
		return fmt.Errorf("%w: deepness must not be negative", domain.ErrInvalidConfig)
	}
	if strings.ContainsAny(c.Branch, " \n") {
		return fmt.Errorf("%w: branch %q is not a valid ref name", domain.ErrInvalidConfig, c.Branch)
	}
	if _, err := fastimport.ParseIdent(c.Committer); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.Follow && len(c.Parts) == 0 {
		return fmt.Errorf("%w: follow mode needs part paths to derive the watch directory", domain.ErrInvalidConfig)
	}
	return nil
}

// Summary reports what a run accomplished. The command uses it to pick the
// exit status: a run that skipped revisions or left page histories
// incomplete succeeded only partially.
type Summary struct {
	// Parts counts input parts fully applied by this invocation.
	Parts int

	// PartsSkipped counts parts skipped because an earlier invocation
	// already applied them.
	PartsSkipped int

	// RemainingParts counts configured parts not reached, either because
	// the run was interrupted or because the page limit was hit.
	RemainingParts int

	// Pages counts pages whose revisions were deposited in this invocation.
	Pages int

	// Revisions counts revisions deposited as blobs in this invocation.
	Revisions int

	// SkippedRevisions counts undecodable revisions that were skipped.
	SkippedRevisions int

	// Commits counts commit objects emitted by the commit phase.
	Commits int

	// IncompletePages lists pages whose history could not be fully built,
	// in ascending order.
	IncompletePages []uint32
}

// Complete reports whether the run converted everything it saw: nothing
// skipped and no page history truncated.
func (s Summary) Complete() bool {
	return s.SkippedRevisions == 0 && len(s.IncompletePages) == 0
}

// Pipeline converts dump parts into a fast-import stream. It owns the
// record files and the progress state for the duration of one run; a second
// instance against the same working directory is refused.
type Pipeline struct {
	cfg      Config
	out      io.Writer
	in       io.Reader
	progress ports.ProgressStore
	log      zerolog.Logger

	w         *fastimport.Writer
	store     *store.Store
	marks     *fastimport.Marks
	state     domain.Progress
	committer fastimport.Identity

	nextMark   uint64
	pages      int
	summary    Summary
	incomplete map[uint32]bool
}

// New creates a pipeline writing the import stream to out. in supplies the
// dump when no parts are configured. The progress store keeps the resume
// state between invocations.
func New(cfg Config, out io.Writer, in io.Reader, ps ports.ProgressStore, log zerolog.Logger) (*Pipeline, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:        cfg,
		out:        out,
		in:         in,
		progress:   ps,
		log:        log,
		incomplete: make(map[uint32]bool),
	}, nil
}

// Run executes the conversion: the blob phase over all pending parts, then
// (unless configured blobs-only) the commit phase over the complete index.
// The returned summary is valid even when Run fails; the error then tells
// why the run stopped early.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	lock, err := progress.Lock(p.cfg.WorkDir)
	if err != nil {
		return p.summary, err
	}
	defer lock.Unlock()

	if p.cfg.Overwrite {
		p.log.Info().Str("workdir", p.cfg.WorkDir).Msg("discarding recorded state")
		if err := removeState(p.cfg.WorkDir, p.cfg.MarksPath); err != nil {
			return p.summary, fmt.Errorf("overwrite: %w", err)
		}
	}

	st, err := store.Open(p.cfg.WorkDir)
	if err != nil {
		return p.summary, err
	}
	defer st.Close()
	p.store = st

	if p.state, err = p.progress.Load(ctx); err != nil {
		return p.summary, fmt.Errorf("load progress: %w", err)
	}
	if p.marks, err = fastimport.LoadMarks(p.cfg.MarksPath); err != nil {
		return p.summary, fmt.Errorf("load marks: %w", err)
	}

	// Seed the blob mark counter. The backend's table can be ahead of the
	// progress file when the previous run died between a checkpoint and
	// the progress write.
	p.nextMark = p.state.NextMark
	if p.nextMark == 0 {
		p.nextMark = 1
	}
	if m := p.marks.MaxBelow(commitMarkBase); m >= p.nextMark {
		p.nextMark = m + 1
	}

	// Validate found it parseable already.
	p.committer, _ = fastimport.ParseIdent(p.cfg.Committer)

	p.w = fastimport.NewWriter(p.out)
	if err := p.prologue(); err != nil {
		return p.summary, err
	}

	if err := p.runBlobs(ctx); err != nil {
		return p.finish(err)
	}

	if !p.cfg.OnlyBlobs {
		if err := p.runCommits(ctx); err != nil {
			return p.finish(err)
		}
	}

	if err := p.w.Done(); err != nil {
		return p.finish(err)
	}
	return p.finish(p.w.Flush())
}

// prologue emits the stream header: the done feature so the backend treats
// a truncated stream as an error, and the mark table directives that let
// marks survive across invocations.
func (p *Pipeline) prologue() error {
	if err := p.w.Feature("done", ""); err != nil {
		return err
	}
	if err := p.w.Feature("import-marks-if-exists", p.cfg.MarksPath); err != nil {
		return err
	}
	return p.w.Feature("export-marks", p.cfg.MarksPath)
}

// finish completes the summary and logs it. The error passes through so
// callers can tell a full run from an interrupted one.
func (p *Pipeline) finish(err error) (Summary, error) {
	for id := range p.incomplete {
		p.summary.IncompletePages = append(p.summary.IncompletePages, id)
	}
	sort.Slice(p.summary.IncompletePages, func(i, j int) bool {
		return p.summary.IncompletePages[i] < p.summary.IncompletePages[j]
	})

	evt := p.log.Info()
	if err != nil {
		evt = p.log.Error().Err(err)
	}
	evt.Int("parts", p.summary.Parts).
		Int("parts_skipped", p.summary.PartsSkipped).
		Int("parts_remaining", p.summary.RemainingParts).
		Int("pages", p.summary.Pages).
		Int("revisions", p.summary.Revisions).
		Int("revisions_skipped", p.summary.SkippedRevisions).
		Int("commits", p.summary.Commits).
		Int("pages_incomplete", len(p.summary.IncompletePages)).
		Msg("run finished")
	return p.summary, err
}

// flagIncomplete records a page whose stored records or chain could not be
// fully used, per the non-strict error policy.
func (p *Pipeline) flagIncomplete(pageID uint32, err error) {
	p.log.Error().Uint32("page", pageID).Err(err).Msg("page history incomplete")
	p.incomplete[pageID] = true
}

// pageBudgetSpent reports whether this invocation's page limit is used up.
func (p *Pipeline) pageBudgetSpent() bool {
	return p.cfg.MaxPages >= 0 && p.pages >= p.cfg.MaxPages
}

// ctxErr surfaces a pending cancellation between pipeline steps.
func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
