package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"

	"contenthub/ingestor/internal/database"
	"contenthub/ingestor/internal/models"
)

// ErrBatchFailed marks a storage-level failure during batch persistence.
// When returned, the whole batch has been rolled back; no partial rows
// survive.
var ErrBatchFailed = errors.New("record batch persistence failed")

// Store persists and reads records with their keyword associations.
type Store struct {
	db *database.DB
}

// NewStore creates a new store instance.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// RecentRecords returns up to limit records in descending recency order:
// published_at text DESC (lexicographic order on ISO-8601 text tracks
// chronology; records with empty published_at sort last), ties broken by
// newest insertion first. Keywords are hydrated in stored order.
func (s *Store) RecentRecords(ctx context.Context, limit int) ([]models.Record, error) {
	query, args, err := sq.Select("id", "title", "content", "published_at", "created_at").
		From("records").
		OrderBy("published_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent records query: %w", err)
	}

	var records []models.Record
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}

	if err := s.attachKeywords(ctx, records); err != nil {
		return nil, err
	}

	return records, nil
}

// attachKeywords loads the keyword lists for the given records in one query.
func (s *Store) attachKeywords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(records))
	for i := range records {
		records[i].Keywords = []models.Keyword{}
		ids = append(ids, records[i].ID)
	}

	query, args, err := sq.Select("rk.record_id", "k.id", "k.name").
		From("record_keywords rk").
		Join("keywords k ON k.id = rk.keyword_id").
		Where(sq.Eq{"rk.record_id": ids}).
		OrderBy("rk.record_id", "rk.position").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build keyword hydration query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query record keywords: %w", err)
	}
	defer rows.Close()

	byRecord := make(map[int64][]models.Keyword, len(records))
	for rows.Next() {
		var recordID int64
		var kw models.Keyword
		if err := rows.Scan(&recordID, &kw.ID, &kw.Name); err != nil {
			return fmt.Errorf("failed to scan record keyword row: %w", err)
		}
		byRecord[recordID] = append(byRecord[recordID], kw)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate record keyword rows: %w", err)
	}

	for i := range records {
		if kws, ok := byRecord[records[i].ID]; ok {
			records[i].Keywords = kws
		}
	}

	return nil
}

// CreateBatch persists all records and their keyword associations as one
// atomic unit. A single transaction spans the batch; keyword resolution
// state is shared across the batch so one name never creates two rows. On
// any storage failure the transaction is rolled back and the returned error
// wraps ErrBatchFailed.
func (s *Store) CreateBatch(ctx context.Context, items []models.NewRecord) ([]models.Record, error) {
	if len(items) == 0 {
		return []models.Record{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", ErrBatchFailed, err)
	}
	defer tx.Rollback()

	resolver := NewKeywordResolver(tx)
	created := make([]models.Record, 0, len(items))
	now := time.Now().UTC()

	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO records (title, content, published_at, created_at) VALUES (?, ?, ?, ?)",
			item.Title, item.Content, item.PublishedAt, now)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to insert record %q: %w", ErrBatchFailed, item.Title, err)
		}
		recordID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read id of record %q: %w", ErrBatchFailed, item.Title, err)
		}

		keywords, err := resolver.Resolve(ctx, item.Keywords)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBatchFailed, err)
		}

		// A record may list the same keyword twice; the association table
		// keys on (record_id, keyword_id), so only the first occurrence
		// gets a row.
		seen := make(map[int64]struct{}, len(keywords))
		attached := make([]models.Keyword, 0, len(keywords))
		for _, kw := range keywords {
			if _, dup := seen[kw.ID]; dup {
				continue
			}
			seen[kw.ID] = struct{}{}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO record_keywords (record_id, keyword_id, position) VALUES (?, ?, ?)",
				recordID, kw.ID, len(attached)); err != nil {
				return nil, fmt.Errorf("%w: failed to associate keyword %q with record %q: %w",
					ErrBatchFailed, kw.Name, item.Title, err)
			}
			attached = append(attached, kw)
		}

		created = append(created, models.Record{
			ID:          recordID,
			Title:       item.Title,
			Content:     item.Content,
			PublishedAt: item.PublishedAt,
			CreatedAt:   now,
			Keywords:    attached,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transaction: %w", ErrBatchFailed, err)
	}

	log.Debug().
		Int("records", len(created)).
		Msg("Record batch committed")

	return created, nil
}

// CountRecords returns the total number of stored records.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM records"); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
