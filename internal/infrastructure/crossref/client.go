package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"peerfeed/internal/domain"
	"peerfeed/internal/ports"
)

// DefaultAPIBase is the CrossRef works endpoint. The client takes it as a
// constructor argument so tests can substitute an httptest server.
const DefaultAPIBase = "https://api.crossref.org/works/"

// LookupError reports a transport-level lookup failure: unreachable service
// or a non-2xx status other than not-found. Callers skip enrichment for the
// affected record and continue.
type LookupError struct {
	DOI    string
	Status string
	Err    error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crossref lookup %s: %v", e.DOI, e.Err)
	}
	return fmt.Sprintf("crossref lookup %s: %s", e.DOI, e.Status)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Client queries the CrossRef works API for publication metadata.
type Client struct {
	apiBase string
	mailto  string
	client  *http.Client
}

var _ ports.MetadataEnricher = (*Client)(nil)

// NewClient builds a lookup client. The mailto address identifies the
// caller to the CrossRef polite pool; empty is allowed but discouraged.
func NewClient(apiBase, mailto string, client *http.Client) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		apiBase: strings.TrimSuffix(apiBase, "/") + "/",
		mailto:  mailto,
		client:  client,
	}
}

// Enrich looks up the stub's DOI and merges the returned metadata into a
// record. A stub without a DOI, or one CrossRef does not know, yields a
// record with empty enrichment and no error. Only transport failures
// surface, as *LookupError.
func (c *Client) Enrich(ctx context.Context, stub domain.PublicationStub) (domain.PublicationRecord, error) {
	record := domain.PublicationRecord{PublicationStub: stub}
	if stub.DOI == "" {
		return record, nil
	}

	apiURL := c.apiBase + stub.DOI
	if c.mailto != "" {
		apiURL += "?mailto=" + url.QueryEscape(c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return record, &LookupError{DOI: stub.DOI, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return record, &LookupError{DOI: stub.DOI, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return record, nil
	}
	if resp.StatusCode != http.StatusOK {
		return record, &LookupError{DOI: stub.DOI, Status: resp.Status}
	}

	var cr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return record, &LookupError{DOI: stub.DOI, Err: fmt.Errorf("decode response: %w", err)}
	}

	record.Enrichment = enrichmentFrom(cr.Message)
	return record, nil
}

func (c *Client) userAgent() string {
	if c.mailto == "" {
		return "peerfeed/1.0"
	}
	return fmt.Sprintf("peerfeed/1.0 (mailto:%s)", c.mailto)
}

// CrossRef works API JSON structures.
type worksResponse struct {
	Status  string       `json:"status"`
	Message worksMessage `json:"message"`
}

type worksMessage struct {
	ContainerTitle      []string     `json:"container-title"`
	ShortContainerTitle []string     `json:"short-container-title"`
	Volume              string       `json:"volume"`
	Page                string       `json:"page"`
	Abstract            string       `json:"abstract"`
	Issued              crossrefDate `json:"issued"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// enrichmentFrom maps response fields, defaulting anything absent. Journal
// and its abbreviation backfill each other when only one is present.
func enrichmentFrom(msg worksMessage) domain.Enrichment {
	e := domain.Enrichment{
		Volume:   msg.Volume,
		Pages:    msg.Page,
		Abstract: strings.TrimSpace(msg.Abstract),
	}

	if len(msg.ContainerTitle) > 0 {
		e.Journal = msg.ContainerTitle[0]
	}
	if len(msg.ShortContainerTitle) > 0 {
		e.JournalAbbr = msg.ShortContainerTitle[0]
	}
	if e.Journal == "" {
		e.Journal = e.JournalAbbr
	}
	if e.JournalAbbr == "" {
		e.JournalAbbr = e.Journal
	}

	e.Issued = dateFromParts(msg.Issued.DateParts)

	return e
}

// dateFromParts converts CrossRef date-parts to a time, tolerating
// year-only and year-month values.
func dateFromParts(parts [][]int) time.Time {
	if len(parts) == 0 || len(parts[0]) == 0 {
		return time.Time{}
	}

	p := parts[0]
	year, month, day := p[0], 1, 1
	if len(p) > 1 {
		month = p[1]
	}
	if len(p) > 2 {
		day = p[2]
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
