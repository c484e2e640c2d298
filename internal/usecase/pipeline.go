package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"peerfeed/internal/domain"
	"peerfeed/internal/feed"
	"peerfeed/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source   ports.ListingSource
	Enricher ports.MetadataEnricher
	Store    ports.FeedStore
	Meta     domain.FeedMetadata
	MaxItems int
	Logger   *slog.Logger
	Now      func() time.Time
}

// Pipeline implements the fetch→enrich→assemble→write workflow.
type Pipeline struct {
	source   ports.ListingSource
	enricher ports.MetadataEnricher
	store    ports.FeedStore
	meta     domain.FeedMetadata
	maxItems int
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:   deps.Source,
		enricher: deps.Enricher,
		store:    deps.Store,
		meta:     deps.Meta,
		maxItems: deps.MaxItems,
		logger:   deps.Logger,
		now:      now,
	}
}

// Run executes one complete pass. A listing fetch or parse failure aborts
// before any write, leaving the existing document untouched. A per-record
// lookup failure is logged and the record kept unenriched. A write failure
// is fatal.
func (p *Pipeline) Run(ctx context.Context) error {
	prior, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load prior feed: %w", err)
	}

	stubs, err := p.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	known := make(map[string]struct{}, len(prior))
	for _, rec := range prior {
		known[rec.Identifier()] = struct{}{}
	}

	var fresh []domain.PublicationRecord
	for _, stub := range stubs {
		if !stub.Accepted {
			continue
		}
		if _, ok := known[stub.Identifier()]; ok {
			continue
		}

		record, err := p.enricher.Enrich(ctx, stub)
		if err != nil {
			// Lookup failures are recoverable: the stub still enters the
			// feed, just without enrichment.
			p.warn("metadata lookup failed, keeping record unenriched",
				"identifier", stub.Identifier(), "error", err)
			record = domain.PublicationRecord{PublicationStub: stub}
		}

		fresh = append(fresh, record)
	}

	doc := feed.Assemble(prior, fresh, p.meta, p.now().UTC(), p.maxItems)

	if err := p.store.Write(ctx, doc); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}

	p.info("feed written",
		"prior", len(prior), "discovered", len(stubs), "new", len(fresh), "total", len(doc.Records))
	return nil
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
