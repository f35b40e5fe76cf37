package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"contenthub/ingestor/internal/models"
	"contenthub/ingestor/internal/storage"
)

// FetchedItem is one candidate produced by the fetch collaborator.
// PublishedAt is ISO-8601 text; items that cannot be compared against the
// baseline are dropped by the dedup filter.
type FetchedItem struct {
	Title       string
	Content     string
	Keywords    []string
	PublishedAt string
}

// FetchFunc is the external fetch collaborator: given a page budget it
// produces a batch of candidates. The whole fetch completes before any
// persistence starts, so cancelling it leaves no partial state.
type FetchFunc func(ctx context.Context, pages int) ([]FetchedItem, error)

// Service composes baseline derivation, fetching, dedup filtering,
// validation and batch persistence into the ingestion flows, and exposes
// the read path.
type Service struct {
	store *storage.Store
	fetch FetchFunc
	pages int
}

// NewService creates an ingestion service. fetch may be nil when only
// direct ingestion and reads are needed.
func NewService(store *storage.Store, fetch FetchFunc, pages int) *Service {
	if pages <= 0 {
		pages = 1
	}
	return &Service{
		store: store,
		fetch: fetch,
		pages: pages,
	}
}

// IngestDirect normalizes caller-supplied candidates and persists the
// survivors as one atomic batch. Invalid candidates are dropped and
// counted, not fatal individually; if nothing survives the call fails with
// ErrNoIngestibleData, since an empty outcome on this caller-initiated path
// signals a malformed request.
func (s *Service) IngestDirect(ctx context.Context, items []RawItem) ([]models.Record, error) {
	valid := make([]models.NewRecord, 0, len(items))
	dropped := 0
	for i, raw := range items {
		rec, err := Normalize(raw)
		if err != nil {
			dropped++
			log.Debug().Err(err).Int("index", i).Msg("Dropping invalid candidate")
			continue
		}
		valid = append(valid, rec)
	}
	if dropped > 0 {
		log.Info().
			Int("dropped", dropped).
			Int("accepted", len(valid)).
			Msg("Validation dropped candidates from direct batch")
	}

	if len(valid) == 0 {
		return nil, ErrNoIngestibleData
	}

	return s.store.CreateBatch(ctx, valid)
}

// IngestFromSource runs one incremental ingestion cycle: derive the
// baseline from the most recent limit stored records, fetch a batch from
// the source, keep only candidates strictly newer than the baseline, and
// persist them atomically. An empty filtered set returns ([], nil) —
// "nothing new since last run" is the expected common case for a scheduled
// run, unlike the direct path.
func (s *Service) IngestFromSource(ctx context.Context, limit int) ([]models.Record, error) {
	if s.fetch == nil {
		return nil, fmt.Errorf("%w: no fetch source configured", ErrFetchFailed)
	}
	if limit <= 0 {
		limit = 1
	}

	recent, err := s.store.RecentRecords(ctx, limit)
	if err != nil {
		return nil, err
	}
	baseline := baselineFrom(recent)

	fetched, err := s.fetch(ctx, s.pages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	fresh := filterNew(baseline, fetched)
	log.Info().
		Int("fetched", len(fetched)).
		Int("fresh", len(fresh)).
		Msg("Filtered fetched batch against baseline")

	if len(fresh) == 0 {
		return []models.Record{}, nil
	}

	batch := make([]models.NewRecord, 0, len(fresh))
	for _, item := range fresh {
		rec, err := Normalize(rawFromFetched(item))
		if err != nil {
			log.Debug().Err(err).Str("title", item.Title).Msg("Dropping invalid fetched item")
			continue
		}
		batch = append(batch, rec)
	}
	if len(batch) == 0 {
		return []models.Record{}, nil
	}

	return s.store.CreateBatch(ctx, batch)
}

// Recent returns up to limit stored records, most recent publication first,
// with keywords attached. Read-only.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.Record, error) {
	return s.store.RecentRecords(ctx, limit)
}

// rawFromFetched maps a fetched candidate into the validator's input shape.
func rawFromFetched(item FetchedItem) RawItem {
	keywords := make([]any, 0, len(item.Keywords))
	for _, kw := range item.Keywords {
		keywords = append(keywords, kw)
	}
	publishedAt := item.PublishedAt
	return RawItem{
		Title:       item.Title,
		Content:     item.Content,
		Keywords:    keywords,
		PublishedAt: &publishedAt,
	}
}
