package domain

import "time"

// Author is a single credited author, optionally with an ORCID profile URL.
type Author struct {
	Name  string
	ORCID string
}

// PublicationStub is a publication as extracted from the listing page,
// before any metadata lookup. Immutable once created.
type PublicationStub struct {
	ID             string
	DOI            string
	PubMed         string
	Title          string
	Authors        []Author
	JournalURL     string
	PublicationURL string
	Year           int
	UpdatedAt      time.Time
	Accepted       bool
}

// Identifier returns the natural key used for feed deduplication.
func (s PublicationStub) Identifier() string {
	if s.ID != "" {
		return s.ID
	}
	return s.DOI
}

// Enrichment holds the fields a metadata lookup can add to a stub.
// Absent fields stay empty; that is a valid, fully usable state.
type Enrichment struct {
	Journal     string
	JournalAbbr string
	Volume      string
	Pages       string
	Abstract    string
	Issued      time.Time
}

// PublicationRecord is a stub plus its enrichment. Records restored from a
// previously written feed carry the rendered Description verbatim so that
// re-serializing them is byte-stable.
type PublicationRecord struct {
	PublicationStub
	Enrichment
	Description string
}

// Date returns the timestamp used for feed ordering: the listing's
// updated-at when known, otherwise the enrichment's issued date.
func (r PublicationRecord) Date() time.Time {
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.Issued
}

// FeedMetadata is the channel-level part of the output document, fixed by
// configuration.
type FeedMetadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	Category    string
}

// FeedDocument is the assembled output: channel metadata plus records
// ordered newest-first with unique identifiers.
type FeedDocument struct {
	FeedMetadata
	LastBuild time.Time
	Records   []PublicationRecord
}
