package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"contenthub/ingestor/internal/models"
)

// KeywordResolver maps keyword names to persisted keyword rows inside a
// single transaction. Resolved names are cached for the lifetime of the
// resolver, so a name seen twice within one batch yields one row. A resolver
// is scoped to one CreateBatch call and must not outlive its transaction.
type KeywordResolver struct {
	tx    *sqlx.Tx
	cache map[string]models.Keyword
}

// NewKeywordResolver creates a resolver bound to the given transaction.
func NewKeywordResolver(tx *sqlx.Tx) *KeywordResolver {
	return &KeywordResolver{
		tx:    tx,
		cache: make(map[string]models.Keyword),
	}
}

// Resolve returns one keyword per input name, preserving order, creating
// rows for names not seen before. Matching is case-sensitive. Empty or
// whitespace-only names are skipped; the validator is expected to have
// excluded them already.
func (r *KeywordResolver) Resolve(ctx context.Context, names []string) ([]models.Keyword, error) {
	keywords := make([]models.Keyword, 0, len(names))

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}

		if kw, ok := r.cache[name]; ok {
			keywords = append(keywords, kw)
			continue
		}

		var kw models.Keyword
		err := r.tx.GetContext(ctx, &kw, "SELECT id, name FROM keywords WHERE name = ?", name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, insErr := r.tx.ExecContext(ctx, "INSERT INTO keywords (name) VALUES (?)", name)
			if insErr != nil {
				return nil, fmt.Errorf("failed to insert keyword %q: %w", name, insErr)
			}
			id, idErr := res.LastInsertId()
			if idErr != nil {
				return nil, fmt.Errorf("failed to read id of keyword %q: %w", name, idErr)
			}
			kw = models.Keyword{ID: id, Name: name}
		case err != nil:
			return nil, fmt.Errorf("failed to look up keyword %q: %w", name, err)
		}

		r.cache[name] = kw
		keywords = append(keywords, kw)
	}

	return keywords, nil
}
