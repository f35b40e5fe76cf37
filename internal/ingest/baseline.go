package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"contenthub/ingestor/internal/models"
)

// isoLayouts lists the accepted ISO-8601 forms, zoned and zone-less.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses ISO-8601 date-time text. Zone-less values are
// interpreted as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// baselineFrom derives the dedup cutoff from the most recent stored
// records. It returns nil when storage is empty or when the newest record's
// published_at is empty or unparsable: one bad historical value must never
// block ingestion, so the filter falls open and treats every candidate as
// new.
func baselineFrom(records []models.Record) *time.Time {
	if len(records) == 0 {
		return nil
	}
	ts, err := ParseTimestamp(records[0].PublishedAt)
	if err != nil {
		log.Warn().
			Int64("record_id", records[0].ID).
			Str("published_at", records[0].PublishedAt).
			Msg("Most recent record has no usable timestamp, ingesting without baseline")
		return nil
	}
	return &ts
}

// filterNew keeps candidates published strictly after the baseline,
// preserving input order. With no baseline every candidate is kept.
// Equal-to-baseline is excluded so the newest stored item is not
// re-ingested on every run. A candidate whose timestamp does not parse can
// never be proven newer and is dropped; note that direct ingestion instead
// defaults a missing timestamp and keeps the item. The two entry points
// intentionally carry distinct policies.
func filterNew(baseline *time.Time, items []FetchedItem) []FetchedItem {
	if baseline == nil {
		return items
	}

	kept := make([]FetchedItem, 0, len(items))
	for _, item := range items {
		ts, err := ParseTimestamp(item.PublishedAt)
		if err != nil {
			log.Debug().
				Str("title", item.Title).
				Str("published_at", item.PublishedAt).
				Msg("Dropping fetched item without comparable timestamp")
			continue
		}
		if ts.After(*baseline) {
			kept = append(kept, item)
		}
	}
	return kept
}
