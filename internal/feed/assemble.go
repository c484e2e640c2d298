// Package feed assembles publication records into the output document:
// union by identifier with first-seen wins, newest-first ordering, and a
// configurable retention cap.
package feed

import (
	"sort"
	"time"

	"peerfeed/internal/domain"
)

// Merge unions prior and fresh records by identifier. Prior records take
// precedence (first-seen wins); fresh records keep their page order.
func Merge(prior, fresh []domain.PublicationRecord) []domain.PublicationRecord {
	merged := make([]domain.PublicationRecord, 0, len(prior)+len(fresh))
	seen := map[string]struct{}{}

	for _, rec := range prior {
		if _, ok := seen[rec.Identifier()]; ok {
			continue
		}
		seen[rec.Identifier()] = struct{}{}
		merged = append(merged, rec)
	}

	for _, rec := range fresh {
		if _, ok := seen[rec.Identifier()]; ok {
			continue
		}
		seen[rec.Identifier()] = struct{}{}
		merged = append(merged, rec)
	}

	return merged
}

// Assemble builds the output document: merged records sorted newest-first,
// truncated to maxItems (zero means keep everything), with channel metadata
// and the run timestamp attached. Deterministic given identical inputs and
// the same now.
func Assemble(prior, fresh []domain.PublicationRecord, meta domain.FeedMetadata, now time.Time, maxItems int) domain.FeedDocument {
	records := Merge(prior, fresh)

	// Stable sort keeps merge order for equal dates, so repeated runs over
	// unchanged inputs produce identical documents.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date().After(records[j].Date())
	})

	if maxItems > 0 && len(records) > maxItems {
		records = records[:maxItems]
	}

	return domain.FeedDocument{
		FeedMetadata: meta,
		LastBuild:    now,
		Records:      records,
	}
}
