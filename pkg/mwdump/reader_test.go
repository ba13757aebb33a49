package mwdump

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nesciens/levitation/internal/domain"
)

const dumpHeader = `<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.10/" xml:lang="en">
  <siteinfo>
    <sitename>Example</sitename>
    <base>https://wiki.example.org/wiki/Main_Page</base>
    <generator>MediaWiki 1.31.0</generator>
    <namespaces>
      <namespace key="-1" case="first-letter">Special</namespace>
      <namespace key="0" case="first-letter" />
      <namespace key="1" case="first-letter">Talk</namespace>
      <namespace key="2" case="first-letter">User</namespace>
    </namespaces>
  </siteinfo>`

func wrap(pages string) string {
	return dumpHeader + pages + "\n</mediawiki>\n"
}

func nextRevision(t *testing.T, r *Reader) *domain.Revision {
	t.Helper()
	rev, err := r.Next(context.Background())
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	return rev
}

func nextSkip(t *testing.T, r *Reader) *domain.SkipError {
	t.Helper()
	rev, err := r.Next(context.Background())
	if err == nil {
		t.Fatalf("expected skip error, got revision %d", rev.ID)
	}
	var skip *domain.SkipError
	if !errors.As(err, &skip) {
		t.Fatalf("expected *domain.SkipError, got %v", err)
	}
	return skip
}

func wantEOF(t *testing.T, r *Reader) {
	t.Helper()
	if _, err := r.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReaderFullDump(t *testing.T) {
	in := wrap(`
  <page>
    <title>Main Page</title>
    <ns>0</ns>
    <id>1</id>
    <revision>
      <id>10</id>
      <timestamp>2004-05-01T12:00:00Z</timestamp>
      <contributor><username>Alice</username><id>7</id></contributor>
      <comment>created</comment>
      <text xml:space="preserve">first text</text>
    </revision>
    <revision>
      <id>11</id>
      <parentid>10</parentid>
      <timestamp>2004-05-02T08:30:00Z</timestamp>
      <contributor><ip>192.0.2.7</ip></contributor>
      <minor/>
      <text xml:space="preserve">second text</text>
    </revision>
  </page>
  <page>
    <title>Talk:Main Page</title>
    <ns>1</ns>
    <id>2</id>
    <revision>
      <id>12</id>
      <timestamp>2004-06-01T00:00:00Z</timestamp>
      <contributor deleted="deleted"/>
      <text>talk text</text>
    </revision>
  </page>`)

	r := NewReader(strings.NewReader(in), time.UTC)

	r1 := nextRevision(t, r)
	if r1.ID != 10 || r1.ParentID != 0 {
		t.Fatalf("expected revision 10 parent 0, got %d parent %d", r1.ID, r1.ParentID)
	}
	if r1.Page.ID != 1 || r1.Page.Namespace != 0 || r1.Page.Title != "Main Page" {
		t.Fatalf("unexpected page: %+v", r1.Page)
	}
	if r1.Author.ID != 7 || r1.Author.Name != "Alice" || r1.Author.Anonymous() || r1.Author.Deleted {
		t.Fatalf("unexpected author: %+v", r1.Author)
	}
	if r1.Comment != "created" || r1.Text != "first text" || r1.Minor {
		t.Fatalf("unexpected fields: comment %q text %q minor %v", r1.Comment, r1.Text, r1.Minor)
	}
	if want := time.Date(2004, 5, 1, 12, 0, 0, 0, time.UTC); !r1.Time.Equal(want) {
		t.Fatalf("expected time %v, got %v", want, r1.Time)
	}

	r2 := nextRevision(t, r)
	if r2.ID != 11 || r2.ParentID != 10 {
		t.Fatalf("expected revision 11 parent 10, got %d parent %d", r2.ID, r2.ParentID)
	}
	if r2.Page != r1.Page {
		t.Fatal("expected revisions of one page to share the page value")
	}
	if !r2.Author.Anonymous() || r2.Author.IP.String() != "192.0.2.7" {
		t.Fatalf("expected anonymous author 192.0.2.7, got %+v", r2.Author)
	}
	if !r2.Minor || r2.Comment != "" {
		t.Fatalf("expected minor revision without comment, got minor %v comment %q", r2.Minor, r2.Comment)
	}

	r3 := nextRevision(t, r)
	if r3.Page == r1.Page {
		t.Fatal("expected a fresh page value after the page boundary")
	}
	if r3.Page.ID != 2 || r3.Page.Namespace != 1 || r3.Page.Title != "Main Page" {
		t.Fatalf("expected talk namespace with stripped prefix, got %+v", r3.Page)
	}
	if r3.ParentID != 0 {
		t.Fatalf("expected first revision of new page to have parent 0, got %d", r3.ParentID)
	}
	if !r3.Author.Deleted {
		t.Fatalf("expected deleted author, got %+v", r3.Author)
	}

	wantEOF(t, r)
	wantEOF(t, r) // EOF is sticky

	site := r.Site()
	if site.Domain != "wiki.example.org" {
		t.Fatalf("expected domain wiki.example.org, got %q", site.Domain)
	}
	if site.Namespaces[1] != "Talk" || site.Namespaces[0] != "" || site.Namespaces[-1] != "Special" {
		t.Fatalf("unexpected namespace table: %v", site.Namespaces)
	}
}

func TestReaderSkipsBadRevisions(t *testing.T) {
	in := wrap(`
  <page>
    <title>Broken</title>
    <ns>0</ns>
    <id>5</id>
    <revision>
      <id>50</id>
      <timestamp>not-a-time</timestamp>
      <contributor><username>Bob</username><id>3</id></contributor>
      <text>a</text>
    </revision>
    <revision>
      <id>51</id>
      <timestamp>2004-05-01T12:00:00Z</timestamp>
      <contributor><ip>999.0.2.7</ip></contributor>
      <text>b</text>
    </revision>
    <revision>
      <id>52</id>
      <timestamp>2004-05-01T13:00:00Z</timestamp>
      <text>c</text>
    </revision>
    <revision>
      <id>53</id>
      <parentid>52</parentid>
      <timestamp>2004-05-01T14:00:00Z</timestamp>
      <contributor><username>Bob</username><id>3</id></contributor>
      <text>d</text>
    </revision>
  </page>`)

	r := NewReader(strings.NewReader(in), time.UTC)

	for _, want := range []uint32{50, 51, 52} {
		skip := nextSkip(t, r)
		if skip.RevisionID != want || skip.PageID != 5 {
			t.Fatalf("expected skip of revision %d page 5, got revision %d page %d",
				want, skip.RevisionID, skip.PageID)
		}
	}

	rev := nextRevision(t, r)
	if rev.ID != 53 || rev.ParentID != 52 {
		t.Fatalf("expected revision 53 parent 52 after skips, got %d parent %d", rev.ID, rev.ParentID)
	}
	wantEOF(t, r)
}

func TestReaderPageWithoutID(t *testing.T) {
	in := wrap(`
  <page>
    <title>No Id</title>
    <ns>0</ns>
    <revision>
      <id>60</id>
      <timestamp>2004-05-01T12:00:00Z</timestamp>
      <contributor><username>Alice</username><id>7</id></contributor>
      <text>x</text>
    </revision>
  </page>
  <page>
    <title>Fine</title>
    <ns>0</ns>
    <id>9</id>
    <revision>
      <id>61</id>
      <timestamp>2004-05-01T12:00:00Z</timestamp>
      <contributor><username>Alice</username><id>7</id></contributor>
      <text>y</text>
    </revision>
  </page>`)

	r := NewReader(strings.NewReader(in), time.UTC)

	skip := nextSkip(t, r)
	if skip.RevisionID != 60 || skip.PageID != 0 {
		t.Fatalf("expected skip of revision 60 with unknown page, got %+v", skip)
	}

	rev := nextRevision(t, r)
	if rev.ID != 61 || rev.Page.ID != 9 {
		t.Fatalf("expected revision 61 of page 9, got %d of %d", rev.ID, rev.Page.ID)
	}
	wantEOF(t, r)
}

func TestReaderParentFallback(t *testing.T) {
	// Old export schemas carry neither <ns> nor <parentid>; the previous
	// revision in the page is the implied parent, and the namespace comes
	// from the title prefix.
	in := wrap(`
  <page>
    <title>User:Mallory</title>
    <id>3</id>
    <revision>
      <id>30</id>
      <timestamp>2004-05-01T12:00:00Z</timestamp>
      <contributor><ip>2001:db8::1</ip></contributor>
      <text>a</text>
    </revision>
    <revision>
      <id>31</id>
      <timestamp>2004-05-01T13:00:00Z</timestamp>
      <contributor><ip>2001:db8::1</ip></contributor>
      <text>b</text>
    </revision>
  </page>`)

	r := NewReader(strings.NewReader(in), time.UTC)

	r1 := nextRevision(t, r)
	if r1.ParentID != 0 {
		t.Fatalf("expected parent 0, got %d", r1.ParentID)
	}
	if r1.Page.Namespace != 2 || r1.Page.Title != "Mallory" {
		t.Fatalf("expected namespace 2 title Mallory, got %+v", r1.Page)
	}
	if r1.Author.IP.String() != "2001:db8::1" {
		t.Fatalf("expected IPv6 author, got %+v", r1.Author)
	}

	r2 := nextRevision(t, r)
	if r2.ParentID != 30 {
		t.Fatalf("expected implied parent 30, got %d", r2.ParentID)
	}
	wantEOF(t, r)
}

func TestReaderTitleColonNotNamespace(t *testing.T) {
	in := wrap(`
  <page>
    <title>2001: A Space Odyssey</title>
    <ns>0</ns>
    <id>4</id>
    <revision>
      <id>40</id>
      <timestamp>2004-05-01T12:00:00Z</timestamp>
      <contributor><username>Alice</username><id>7</id></contributor>
      <text>film</text>
    </revision>
  </page>`)

	r := NewReader(strings.NewReader(in), time.UTC)

	rev := nextRevision(t, r)
	if rev.Page.Namespace != 0 || rev.Page.Title != "2001: A Space Odyssey" {
		t.Fatalf("expected whole title in main namespace, got %+v", rev.Page)
	}
	wantEOF(t, r)
}

func TestReaderZoneAttached(t *testing.T) {
	in := wrap(`
  <page>
    <title>Zoned</title>
    <ns>0</ns>
    <id>6</id>
    <revision>
      <id>70</id>
      <timestamp>2004-05-01T12:00:00Z</timestamp>
      <contributor><username>Alice</username><id>7</id></contributor>
      <text>z</text>
    </revision>
  </page>`)

	zone := time.FixedZone("", 2*3600)
	r := NewReader(strings.NewReader(in), zone)

	rev := nextRevision(t, r)
	if got := rev.Time.Format("2006-01-02T15:04:05-07:00"); got != "2004-05-01T14:00:00+02:00" {
		t.Fatalf("expected zoned time 2004-05-01T14:00:00+02:00, got %s", got)
	}
	if !rev.Time.Equal(time.Date(2004, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("zone must not shift the instant")
	}
}

func TestReaderRejectsNonDump(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"wrong root", `<export><page/></export>`},
		{"wrong namespace", `<mediawiki xmlns="http://example.com/other"><page/></mediawiki>`},
		{"not xml", "\x00\x01garbage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tc.in), time.UTC)
			_, err := r.Next(context.Background())
			if !errors.Is(err, domain.ErrBadDump) {
				t.Fatalf("expected ErrBadDump, got %v", err)
			}
		})
	}
}

func TestReaderContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReader(strings.NewReader(wrap("")), time.UTC)
	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
