package feedstore

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmcdole/gofeed"

	"peerfeed/internal/domain"
	"peerfeed/internal/feed"
	"peerfeed/internal/ports"
)

// pubDateLayout matches the format the feed has always carried; keeping it
// stable makes rewrites of unchanged items byte-identical.
const pubDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// Store reads and atomically rewrites the RSS document at a fixed path.
type Store struct {
	path string
}

var _ ports.FeedStore = (*Store)(nil)

// NewStore binds the store to the output path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load parses the previously written document back into records. A missing
// file is not an error; it yields an empty prior sequence. An existing but
// unparseable file is an error, so a bad read never leads to clobbering.
func (s *Store) Load(ctx context.Context) ([]domain.PublicationRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open feed %s: %w", s.path, err)
	}
	defer f.Close()

	parsed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.path, err)
	}

	records := make([]domain.PublicationRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.GUID == "" {
			continue
		}

		rec := domain.PublicationRecord{
			PublicationStub: domain.PublicationStub{
				ID:             item.GUID,
				Title:          item.Title,
				PublicationURL: item.Link,
				Accepted:       true,
			},
			Description: item.Description,
		}
		if item.PublishedParsed != nil {
			rec.UpdatedAt = item.PublishedParsed.UTC()
		}

		records = append(records, rec)
	}

	return records, nil
}

// Write serializes the document and moves it into place via a temp file in
// the same directory, so a reader never observes a partial feed.
func (s *Store) Write(ctx context.Context, doc domain.FeedDocument) error {
	payload, err := Render(doc)
	if err != nil {
		return fmt.Errorf("render feed: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".peerfeed-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(payload)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write feed: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace feed %s: %w", s.path, err)
	}

	return nil
}

// RSS 2.0 document structure.
type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	AtomLink      atomLink  `xml:"atom:link"`
	Language      string    `xml:"language"`
	Category      string    `xml:"category"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Description cdata   `xml:"description"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// Render serializes the document to RSS 2.0 bytes. Exported so tests can
// compare output without touching the filesystem.
func Render(doc domain.FeedDocument) ([]byte, error) {
	out := rssDoc{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         doc.Title,
			Link:          doc.Link,
			AtomLink:      atomLink{Href: doc.Link, Rel: "self", Type: "application/rss+xml"},
			Language:      doc.Language,
			Category:      doc.Category,
			Description:   doc.Description,
			LastBuildDate: doc.LastBuild.UTC().Format(pubDateLayout),
			Items:         make([]rssItem, 0, len(doc.Records)),
		},
	}

	for _, rec := range doc.Records {
		out.Channel.Items = append(out.Channel.Items, rssItem{
			Title:       rec.Title,
			Link:        rec.PublicationURL,
			GUID:        rssGUID{IsPermaLink: "false", Value: rec.Identifier()},
			PubDate:     rec.Date().UTC().Format(pubDateLayout),
			Description: cdata{Text: feed.Description(rec)},
		})
	}

	body, err := xml.MarshalIndent(out, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal rss: %w", err)
	}

	return append([]byte(xml.Header), append(body, '\n')...), nil
}
