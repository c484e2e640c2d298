package ports

import (
	"context"

	"peerfeed/internal/domain"
)

// ListingSource fetches the listing page and extracts publication stubs.
type ListingSource interface {
	Fetch(ctx context.Context) ([]domain.PublicationStub, error)
}

// MetadataEnricher turns a stub into a record by querying a bibliographic
// lookup service. A stub the service does not know still yields a valid
// record with empty enrichment.
type MetadataEnricher interface {
	Enrich(ctx context.Context, stub domain.PublicationStub) (domain.PublicationRecord, error)
}

// FeedStore reads back and overwrites the feed document at its fixed path.
type FeedStore interface {
	Load(ctx context.Context) ([]domain.PublicationRecord, error)
	Write(ctx context.Context, doc domain.FeedDocument) error
}
