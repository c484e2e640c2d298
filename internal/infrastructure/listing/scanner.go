package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"peerfeed/internal/domain"
	"peerfeed/internal/ports"
)

const (
	containerTag    = "peeriodical"
	publicationBase = "https://peeriodicals.com/peeriodical"
	updatedLayout   = "2006-01-02T15:04:05.000000Z"
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/70.0.3538.77 Safari/537.36"
)

// ParseError reports that the listing page structure was unrecognizable.
// Missing optional fields on individual entries never produce one; only an
// absent container or an undecodable payload does.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse listing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse listing: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Scanner fetches the configured listing page and extracts publication stubs.
type Scanner struct {
	url    string
	slug   string
	client *http.Client
}

var _ ports.ListingSource = (*Scanner)(nil)

// NewScanner wires an HTTP client; a nil client gets a 20 s timeout default.
func NewScanner(listingURL string, client *http.Client) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scanner{
		url:    listingURL,
		slug:   slugFromURL(listingURL),
		client: client,
	}
}

// Fetch retrieves the listing page and returns its stubs in page order.
func (s *Scanner) Fetch(ctx context.Context) ([]domain.PublicationStub, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned %s", resp.Status)
	}

	return s.Parse(resp.Body)
}

// Parse extracts publication stubs from the listing page HTML. It is a pure
// function of its input; Fetch feeds it the live page and tests feed it
// fixtures.
func (s *Scanner) Parse(r io.Reader) ([]domain.PublicationStub, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Reason: "unreadable html", Err: err}
	}

	container := doc.Find(containerTag).First()
	if container.Length() == 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("<%s> container not found", containerTag)}
	}

	payload, ok := extractPayload(container)
	if !ok {
		return nil, &ParseError{Reason: "container carries no publication payload"}
	}

	var listing listingPayload
	if err := json.Unmarshal([]byte(payload), &listing); err != nil {
		return nil, &ParseError{Reason: "undecodable publication payload", Err: err}
	}

	stubs := make([]domain.PublicationStub, 0, len(listing.Publications))
	seen := map[string]struct{}{}
	for _, pub := range listing.Publications {
		stub := s.toStub(pub)
		if stub.Identifier() == "" {
			continue
		}
		if _, ok := seen[stub.Identifier()]; ok {
			continue
		}
		seen[stub.Identifier()] = struct{}{}
		stubs = append(stubs, stub)
	}

	return stubs, nil
}

// listingPayload mirrors the JSON the listing page embeds in its container
// element. Every field except the identifiers is optional; decoding defaults
// anything absent to its zero value.
type listingPayload struct {
	Name         string               `json:"name"`
	Publications []listingPublication `json:"publications"`
}

type listingPublication struct {
	Title             string          `json:"title"`
	URL               string          `json:"url"`
	PubpeerID         string          `json:"pubpeer_id"`
	PublishedAt       json.Number     `json:"published_at"`
	UpdatedAt         string          `json:"updated_at"`
	EditorialDecision json.RawMessage `json:"editorial_decision"`
	Authors           []listingAuthor `json:"authors"`
	Identifiers       []listingIdent  `json:"identifiers"`
}

type listingAuthor struct {
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

type listingIdent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (s *Scanner) toStub(pub listingPublication) domain.PublicationStub {
	stub := domain.PublicationStub{
		ID:         pub.PubpeerID,
		Title:      html.UnescapeString(strings.TrimSpace(pub.Title)),
		JournalURL: pub.URL,
		Authors:    make([]domain.Author, 0, len(pub.Authors)),
		Accepted:   acceptedFrom(pub.EditorialDecision),
	}

	for _, a := range pub.Authors {
		stub.Authors = append(stub.Authors, domain.Author{
			Name:  html.UnescapeString(a.DisplayName),
			ORCID: a.ORCID,
		})
	}

	for _, id := range pub.Identifiers {
		switch strings.ToUpper(id.Type) {
		case "DOI":
			stub.DOI = id.Value
		case "PUBMED":
			stub.PubMed = id.Value
		}
	}

	if year, err := pub.PublishedAt.Int64(); err == nil {
		stub.Year = int(year)
	}

	if parsed, err := time.Parse(updatedLayout, pub.UpdatedAt); err == nil {
		stub.UpdatedAt = parsed
	}

	if stub.ID != "" {
		stub.PublicationURL = fmt.Sprintf("%s/%s/publications/%s", publicationBase, s.slug, stub.ID)
	} else {
		stub.PublicationURL = pub.URL
	}

	return stub
}

// extractPayload pulls the JSON blob off the container element. The page
// ships it as an escaped attribute value; net/html has already unescaped
// entities by the time goquery hands it over. Falls back to the element
// text for older page revisions.
func extractPayload(sel *goquery.Selection) (string, bool) {
	if len(sel.Nodes) > 0 {
		for _, attr := range sel.Nodes[0].Attr {
			if strings.Contains(attr.Val, `"publications"`) {
				return attr.Val, true
			}
		}
	}

	text := strings.TrimSpace(sel.Text())
	if strings.Contains(text, `"publications"`) {
		return text, true
	}

	return "", false
}

// acceptedFrom reads the editorial decision, which the page serializes
// either as a bool or as a quoted string. No decision means not accepted.
func acceptedFrom(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var decision bool
	if err := json.Unmarshal(raw, &decision); err == nil {
		return decision
	}

	return bytes.Contains(bytes.ToLower(raw), []byte("true"))
}

func slugFromURL(listingURL string) string {
	parsed, err := url.Parse(listingURL)
	if err != nil {
		return ""
	}
	return path.Base(parsed.Path)
}
