package ingest

import (
	"fmt"
	"strings"

	"contenthub/ingestor/internal/models"
)

// RawItem is one caller-supplied candidate for direct ingestion.
// PublishedAt is optional and defaults to "" (unknown). Keywords may carry
// arbitrary JSON values; only entries that are non-empty strings after
// trimming survive normalization.
type RawItem struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Keywords    []any   `json:"keywords"`
	PublishedAt *string `json:"published_at"`
}

// Normalize turns one raw candidate into a creation unit or rejects it with
// ErrMissingField. Title and content are trimmed and must be non-empty.
// Non-string keyword entries are silently dropped, not an error. No format
// validation is applied to published_at here; malformed values are stored
// as-is and absorbed at comparison time.
func Normalize(raw RawItem) (models.NewRecord, error) {
	title := strings.TrimSpace(raw.Title)
	content := strings.TrimSpace(raw.Content)
	if title == "" {
		return models.NewRecord{}, fmt.Errorf("%w: title", ErrMissingField)
	}
	if content == "" {
		return models.NewRecord{}, fmt.Errorf("%w: content", ErrMissingField)
	}

	keywords := make([]string, 0, len(raw.Keywords))
	for _, value := range raw.Keywords {
		name, ok := value.(string)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		keywords = append(keywords, name)
	}

	publishedAt := ""
	if raw.PublishedAt != nil && *raw.PublishedAt != "" {
		publishedAt = *raw.PublishedAt
	}

	return models.NewRecord{
		Title:       title,
		Content:     content,
		Keywords:    keywords,
		PublishedAt: publishedAt,
	}, nil
}
