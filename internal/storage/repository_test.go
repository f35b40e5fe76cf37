package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"contenthub/ingestor/internal/database"
	"contenthub/ingestor/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	cfg := database.NewConfig(filepath.Join(t.TempDir(), "test.db"))
	db, err := database.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestCreateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hydrated records with identities", func(t *testing.T) {
		store := NewStore(newTestDB(t))

		created, err := store.CreateBatch(ctx, []models.NewRecord{
			{Title: "one", Content: "c1", Keywords: []string{"alpha", "beta"}, PublishedAt: "2024-01-01T00:00:00"},
			{Title: "two", Content: "c2", Keywords: []string{"beta"}, PublishedAt: "2024-01-02T00:00:00"},
		})
		require.NoError(t, err)
		require.Len(t, created, 2)

		require.NotZero(t, created[0].ID)
		require.NotZero(t, created[1].ID)
		require.NotEqual(t, created[0].ID, created[1].ID)

		require.Equal(t, "alpha", created[0].Keywords[0].Name)
		require.Equal(t, "beta", created[0].Keywords[1].Name)

		// "beta" resolved once for the whole batch
		require.Equal(t, created[0].Keywords[1].ID, created[1].Keywords[0].ID)
	})

	t.Run("empty batch creates nothing", func(t *testing.T) {
		store := NewStore(newTestDB(t))

		created, err := store.CreateBatch(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, created)
	})

	t.Run("mid-batch failure rolls back the whole batch", func(t *testing.T) {
		db := newTestDB(t)
		store := NewStore(db)

		// Simulate a storage-layer failure on the second record.
		_, err := db.Exec(`
			CREATE TRIGGER fail_on_boom BEFORE INSERT ON records
			WHEN NEW.title = 'boom'
			BEGIN
				SELECT RAISE(ABORT, 'forced failure');
			END`)
		require.NoError(t, err)

		_, err = store.CreateBatch(ctx, []models.NewRecord{
			{Title: "ok", Content: "c", Keywords: []string{"kept"}},
			{Title: "boom", Content: "c"},
			{Title: "also ok", Content: "c"},
		})
		require.ErrorIs(t, err, ErrBatchFailed)

		count, err := store.CountRecords(ctx)
		require.NoError(t, err)
		require.Zero(t, count)

		// The keyword created before the failure must be gone too.
		var keywordCount int64
		require.NoError(t, db.Get(&keywordCount, "SELECT COUNT(*) FROM keywords"))
		require.Zero(t, keywordCount)
	})

	t.Run("duplicate keyword within one record stored once", func(t *testing.T) {
		store := NewStore(newTestDB(t))

		created, err := store.CreateBatch(ctx, []models.NewRecord{
			{Title: "dup", Content: "c", Keywords: []string{"k", "k"}},
		})
		require.NoError(t, err)
		require.Len(t, created[0].Keywords, 1)
	})
}

func TestKeywordResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("same name resolves to one identity", func(t *testing.T) {
		db := newTestDB(t)

		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		resolver := NewKeywordResolver(tx)
		keywords, err := resolver.Resolve(ctx, []string{"go", "sqlite", "go"})
		require.NoError(t, err)
		require.Len(t, keywords, 3)
		require.Equal(t, keywords[0].ID, keywords[2].ID)
		require.NoError(t, tx.Commit())

		var count int64
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM keywords"))
		require.EqualValues(t, 2, count)
	})

	t.Run("existing keyword reused across batches", func(t *testing.T) {
		db := newTestDB(t)
		store := NewStore(db)

		first, err := store.CreateBatch(ctx, []models.NewRecord{
			{Title: "a", Content: "c", Keywords: []string{"shared"}},
		})
		require.NoError(t, err)

		second, err := store.CreateBatch(ctx, []models.NewRecord{
			{Title: "b", Content: "c", Keywords: []string{"shared"}},
		})
		require.NoError(t, err)

		require.Equal(t, first[0].Keywords[0].ID, second[0].Keywords[0].ID)

		var count int64
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM keywords"))
		require.EqualValues(t, 1, count)
	})

	t.Run("empty names are skipped", func(t *testing.T) {
		db := newTestDB(t)

		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		resolver := NewKeywordResolver(tx)
		keywords, err := resolver.Resolve(ctx, []string{"", "  ", "real"})
		require.NoError(t, err)
		require.Len(t, keywords, 1)
		require.Equal(t, "real", keywords[0].Name)
	})
}

func TestRecentRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("descending recency with insertion-order tie-break", func(t *testing.T) {
		store := NewStore(newTestDB(t))

		_, err := store.CreateBatch(ctx, []models.NewRecord{
			{Title: "oldest", Content: "c", PublishedAt: "2024-01-01T00:00:00"},
			{Title: "tied-first", Content: "c", PublishedAt: "2024-01-02T00:00:00"},
			{Title: "tied-second", Content: "c", PublishedAt: "2024-01-02T00:00:00"},
			{Title: "no-date", Content: "c", PublishedAt: ""},
		})
		require.NoError(t, err)

		records, err := store.RecentRecords(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 4)

		require.Equal(t, "tied-second", records[0].Title) // newest insertion wins the tie
		require.Equal(t, "tied-first", records[1].Title)
		require.Equal(t, "oldest", records[2].Title)
		require.Equal(t, "no-date", records[3].Title) // empty timestamps sort last
	})

	t.Run("limit respected", func(t *testing.T) {
		store := NewStore(newTestDB(t))

		_, err := store.CreateBatch(ctx, []models.NewRecord{
			{Title: "a", Content: "c", PublishedAt: "2024-01-01T00:00:00"},
			{Title: "b", Content: "c", PublishedAt: "2024-01-02T00:00:00"},
		})
		require.NoError(t, err)

		records, err := store.RecentRecords(ctx, 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "b", records[0].Title)
	})

	t.Run("keywords hydrated in stored order", func(t *testing.T) {
		store := NewStore(newTestDB(t))

		_, err := store.CreateBatch(ctx, []models.NewRecord{
			{Title: "a", Content: "c", Keywords: []string{"zulu", "alpha", "mike"}},
		})
		require.NoError(t, err)

		records, err := store.RecentRecords(ctx, 1)
		require.NoError(t, err)
		require.Len(t, records[0].Keywords, 3)
		require.Equal(t, "zulu", records[0].Keywords[0].Name)
		require.Equal(t, "alpha", records[0].Keywords[1].Name)
		require.Equal(t, "mike", records[0].Keywords[2].Name)
	})

	t.Run("empty storage returns empty list", func(t *testing.T) {
		store := NewStore(newTestDB(t))

		records, err := store.RecentRecords(ctx, 10)
		require.NoError(t, err)
		require.Empty(t, records)
	})
}
