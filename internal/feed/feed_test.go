package feed

import (
	"strings"
	"testing"
	"time"

	"peerfeed/internal/domain"
)

func record(id, title string, date time.Time) domain.PublicationRecord {
	return domain.PublicationRecord{
		PublicationStub: domain.PublicationStub{
			ID:        id,
			Title:     title,
			UpdatedAt: date,
		},
	}
}

var meta = domain.FeedMetadata{
	Title:       "Test Feed",
	Link:        "https://example.org/feed",
	Description: "A test feed",
	Language:    "en-gb",
	Category:    "Science",
}

func TestMergeFirstSeenWins(t *testing.T) {
	t.Parallel()

	prior := []domain.PublicationRecord{
		record("10.1000/abc", "X", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	fresh := []domain.PublicationRecord{
		record("10.1000/abc", "Y", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)),
		record("10.1000/def", "Z", time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)),
	}

	merged := Merge(prior, fresh)
	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}

	count := 0
	for _, rec := range merged {
		if rec.Identifier() == "10.1000/abc" {
			count++
			if rec.Title != "X" {
				t.Fatalf("first-seen title not retained: got %q", rec.Title)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one entry for duplicated identifier, got %d", count)
	}
}

func TestAssembleOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.PublicationRecord{
		record("a", "Oldest", time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)),
		record("b", "Newest", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)),
		record("c", "Middle", time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	doc := Assemble(records, nil, meta, now, 0)

	for i := 1; i < len(doc.Records); i++ {
		if doc.Records[i].Date().After(doc.Records[i-1].Date()) {
			t.Fatalf("records out of order at %d: %v after %v",
				i, doc.Records[i].Date(), doc.Records[i-1].Date())
		}
	}
	if doc.Records[0].Title != "Newest" || doc.Records[2].Title != "Oldest" {
		t.Fatalf("unexpected order: %q .. %q", doc.Records[0].Title, doc.Records[2].Title)
	}
	if !doc.LastBuild.Equal(now) {
		t.Fatalf("unexpected last build: %v", doc.LastBuild)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sameDay := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.PublicationRecord{
		record("a", "First Tie", sameDay),
		record("b", "Second Tie", sameDay),
	}

	first := Assemble(records, nil, meta, now, 0)
	second := Assemble(records, nil, meta, now, 0)

	for i := range first.Records {
		if first.Records[i].Identifier() != second.Records[i].Identifier() {
			t.Fatalf("order not deterministic at %d", i)
		}
	}
	// Stable sort keeps ties in input order.
	if first.Records[0].Title != "First Tie" {
		t.Fatalf("tie order changed: %q", first.Records[0].Title)
	}
}

func TestAssembleRetentionCap(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var records []domain.PublicationRecord
	for i := 0; i < 5; i++ {
		records = append(records, record(
			string(rune('a'+i)),
			"Title",
			time.Date(2020+i, 1, 1, 0, 0, 0, 0, time.UTC),
		))
	}

	doc := Assemble(records, nil, meta, now, 3)
	if len(doc.Records) != 3 {
		t.Fatalf("expected 3 records after cap, got %d", len(doc.Records))
	}
	// The newest three survive.
	if doc.Records[0].Date().Year() != 2024 {
		t.Fatalf("expected newest record from 2024, got %d", doc.Records[0].Date().Year())
	}
	if doc.Records[2].Date().Year() != 2022 {
		t.Fatalf("expected oldest surviving record from 2022, got %d", doc.Records[2].Date().Year())
	}
}

func TestDescriptionRendersReference(t *testing.T) {
	t.Parallel()

	rec := domain.PublicationRecord{
		PublicationStub: domain.PublicationStub{
			ID:    "AB12",
			DOI:   "10.1000/abc",
			Title: "A Study",
			Year:  2023,
			Authors: []domain.Author{
				{Name: "Ada Lovelace", ORCID: "https://orcid.org/0000-0001"},
				{Name: "Grace Hopper"},
			},
		},
		Enrichment: domain.Enrichment{
			Journal:     "Journal of Laboratory Automation",
			JournalAbbr: "J. Lab. Autom.",
			Volume:      "12",
			Pages:       "101-110",
		},
	}

	got := Description(rec)

	for _, want := range []string{
		"<h5>A Study</h5>",
		"in <em>Journal of Laboratory Automation</em><br>",
		`<a href="https://orcid.org/0000-0001" target="_blank" rel="noopener">Ada Lovelace</a>, Grace Hopper`,
		"<em>J. Lab. Autom.</em> <strong>2023</strong>, 12, 101&ndash;110",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("description missing %q:\n%s", want, got)
		}
	}
}

func TestDescriptionFallsBackToDOILink(t *testing.T) {
	t.Parallel()

	rec := domain.PublicationRecord{
		PublicationStub: domain.PublicationStub{
			ID:    "AB12",
			DOI:   "10.1000/abc",
			Title: "A Study",
			Year:  2023,
		},
		Enrichment: domain.Enrichment{JournalAbbr: "J. Lab. Autom."},
	}

	got := Description(rec)
	if !strings.Contains(got, `<a href="https://doi.org/10.1000/abc"`) {
		t.Fatalf("expected doi link in description:\n%s", got)
	}
}

func TestDescriptionKeepsStoredHTML(t *testing.T) {
	t.Parallel()

	rec := domain.PublicationRecord{
		PublicationStub: domain.PublicationStub{ID: "AB12", Title: "Changed Title"},
		Description:     "<h5>Original</h5>",
	}

	if got := Description(rec); got != "<h5>Original</h5>" {
		t.Fatalf("stored description not kept verbatim: %q", got)
	}
}
