// Package store keeps the per-revision and per-page metadata collected by
// the blob phase in flat, direct-addressed record files under the working
// directory. The commit phase later replays these records into commits
// without touching the dump again, and an interrupted run can re-store the
// same records because writes with identical content are accepted.
package store

import (
	"fmt"
	"path/filepath"

	"github.com/nesciens/levitation/internal/domain"
	"github.com/nesciens/levitation/pkg/recfile"
)

// Record file names under the working directory. Meta and comment records
// are keyed by revision id, user records by user id, title records by page
// id.
const (
	MetaFile    = "meta.rec"
	CommentFile = "comment.rec"
	UserFile    = "user.rec"
	TitleFile   = "title.rec"
)

// FileNames lists the record files a working directory may hold.
func FileNames() []string {
	return []string{MetaFile, CommentFile, UserFile, TitleFile}
}

// Store bundles the four record files.
type Store struct {
	meta    *recfile.File
	comment *recfile.File
	user    *recfile.File
	title   *recfile.File
}

// Open opens or creates the record files under dir.
func Open(dir string) (*Store, error) {
	s := &Store{}
	for _, rf := range []struct {
		file **recfile.File
		name string
		size int
	}{
		{&s.meta, MetaFile, MetaRecordSize},
		{&s.comment, CommentFile, TextRecordSize},
		{&s.user, UserFile, TextRecordSize},
		{&s.title, TitleFile, TitleRecordSize},
	} {
		f, err := recfile.Open(filepath.Join(dir, rf.name), rf.size)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open %s: %w", rf.name, err)
		}
		*rf.file = f
	}
	return s, nil
}

// PutRevision stores everything the commit phase will need for rev: the
// fixed metadata record, the edit comment when there is one, and the author
// name when the author is a registered user. The page title is stored
// separately by PutPage. Storing a revision twice is allowed only with
// identical content.
func (s *Store) PutRevision(rev *domain.Revision, mark uint64) error {
	if err := s.PutMeta(rev.ID, NewRevisionMeta(rev, mark)); err != nil {
		return err
	}
	if rev.Comment != "" {
		if err := s.putText(s.comment, uint64(rev.ID), rev.Comment); err != nil {
			return fmt.Errorf("comment of revision %d: %w", rev.ID, err)
		}
	}
	if !rev.Author.Deleted && !rev.Author.Anonymous() {
		if err := s.putUser(rev.Author.ID, rev.Author.Name); err != nil {
			return fmt.Errorf("name of user %d: %w", rev.Author.ID, err)
		}
	}
	return nil
}

// PutMeta stores the metadata record for a revision id.
func (s *Store) PutMeta(revID uint32, m RevisionMeta) error {
	rec := make([]byte, MetaRecordSize)
	m.encode(rec)
	if err := s.meta.Put(uint64(revID), rec); err != nil {
		return fmt.Errorf("meta of revision %d: %w", revID, err)
	}
	return nil
}

// GetMeta reads the metadata record for a revision id.
func (s *Store) GetMeta(revID uint32) (RevisionMeta, bool, error) {
	rec := make([]byte, MetaRecordSize)
	ok, err := s.meta.Get(uint64(revID), rec)
	if err != nil || !ok {
		return RevisionMeta{}, ok, err
	}
	return decodeMeta(rec), true, nil
}

// GetComment returns the stored edit comment for a revision id.
func (s *Store) GetComment(revID uint32) (string, bool, error) {
	return s.getText(s.comment, uint64(revID))
}

// GetUser returns the stored name for a registered user id. Anonymous and
// deleted authors have no user record.
func (s *Store) GetUser(userID uint64) (string, bool, error) {
	return s.getText(s.user, userID)
}

// PutPage records a page's namespace key and bare title.
func (s *Store) PutPage(p *domain.Page) error {
	rec := make([]byte, TitleRecordSize)
	encodeTitle(rec, p.Namespace, p.Title)
	if err := s.title.Put(uint64(p.ID), rec); err != nil {
		return fmt.Errorf("title of page %d: %w", p.ID, err)
	}
	return nil
}

// GetPage returns the stored page record.
func (s *Store) GetPage(pageID uint32) (domain.Page, bool, error) {
	rec := make([]byte, TitleRecordSize)
	ok, err := s.title.Get(uint64(pageID), rec)
	if err != nil || !ok {
		return domain.Page{}, ok, err
	}
	ns, title := decodeTitle(rec)
	return domain.Page{ID: pageID, Namespace: ns, Title: title}, true, nil
}

// MaxRevisionID returns the highest revision id that may have a record. The
// commit phase scans ids from zero up to it, skipping absent slots.
func (s *Store) MaxRevisionID() (uint32, bool, error) {
	id, ok, err := s.meta.MaxID()
	return uint32(id), ok, err
}

// MaxPageID returns the highest page id that may have a title record.
func (s *Store) MaxPageID() (uint32, bool, error) {
	id, ok, err := s.title.MaxID()
	return uint32(id), ok, err
}

// Sync flushes all record files to stable storage.
func (s *Store) Sync() error {
	for _, f := range []*recfile.File{s.meta, s.comment, s.user, s.title} {
		if err := f.Sync(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all record files and returns the first error seen.
func (s *Store) Close() error {
	var first error
	for _, f := range []*recfile.File{s.meta, s.comment, s.user, s.title} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Store) putText(f *recfile.File, id uint64, text string) error {
	rec := make([]byte, TextRecordSize)
	encodeText(rec, text)
	return f.Put(id, rec)
}

// putUser stores a registered user's name the first time the id is seen.
// Old dumps reuse id 0 for several system accounts; the first name seen
// stands for all of them.
func (s *Store) putUser(id uint64, name string) error {
	rec := make([]byte, TextRecordSize)
	ok, err := s.user.Get(id, rec)
	if err != nil || ok {
		return err
	}
	encodeText(rec, name)
	return s.user.Put(id, rec)
}

func (s *Store) getText(f *recfile.File, id uint64) (string, bool, error) {
	rec := make([]byte, TextRecordSize)
	ok, err := f.Get(id, rec)
	if err != nil || !ok {
		return "", ok, err
	}
	return decodeText(rec), true, nil
}
