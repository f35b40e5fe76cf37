package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reddot-watch/feedfetcher"
	"github.com/rs/zerolog/log"

	"contenthub/ingestor/internal/ingest"
)

const (
	maxKeywordsPerItem = 10
	minKeywordLength   = 3
	feedFetchTimeout   = 2 * time.Minute
	concurrentFetches  = 4
)

// Source produces ingestion candidates from a configured set of feed URLs.
// It satisfies the fetch collaborator contract: the whole fetch completes
// (or fails) before the caller touches storage.
type Source struct {
	fetcher *feedfetcher.FeedFetcher
	feeds   []string
}

// New creates a source over the given feed URLs.
func New(feeds []string) *Source {
	fetcher := feedfetcher.NewFeedFetcher(feedfetcher.Config{
		UserAgent:            "contenthub-ingestor/1.0",
		RequestTimeout:       15 * time.Second,
		MaxItems:             100,
		MaxHeadingLength:     200,
		MaxAge:               48 * time.Hour,
		FutureDriftTolerance: 12 * time.Hour,
	})

	return &Source{
		fetcher: fetcher,
		feeds:   feeds,
	}
}

// Fetch implements ingest.FetchFunc. pages caps how many configured feeds
// are pulled in one run. Feeds are fetched concurrently, but the output
// keeps a deterministic order: configured feed order first, per-feed item
// order within. Any feed failure fails the whole fetch; the caller decides
// whether to retry a later run.
func (s *Source) Fetch(ctx context.Context, pages int) ([]ingest.FetchedItem, error) {
	feeds := s.feeds
	if pages > 0 && pages < len(feeds) {
		feeds = feeds[:pages]
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}

	results := make([][]ingest.FetchedItem, len(feeds))
	errs := make([]error, len(feeds))

	sem := make(chan struct{}, concurrentFetches)
	var wg sync.WaitGroup
	for i, url := range feeds {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			feedCtx, cancel := context.WithTimeout(ctx, feedFetchTimeout)
			defer cancel()

			log.Debug().Str("url", url).Msg("Fetching feed")
			items, err := s.fetcher.FetchAndProcess(feedCtx, url)
			if err != nil {
				errs[i] = fmt.Errorf("feed %s: %w", url, err)
				return
			}

			converted := make([]ingest.FetchedItem, 0, len(items))
			for _, item := range items {
				converted = append(converted, ingest.FetchedItem{
					Title:       item.Headline,
					Content:     item.Content,
					Keywords:    extractKeywords(item.Headline+" "+item.Content, maxKeywordsPerItem, minKeywordLength),
					PublishedAt: item.PublishedAt.UTC().Format(time.RFC3339),
				})
			}
			results[i] = converted

			log.Info().
				Str("url", url).
				Int("items", len(converted)).
				Msg("Feed fetched")
		}(i, url)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var all []ingest.FetchedItem
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all, nil
}
