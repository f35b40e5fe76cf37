package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"contenthub/ingestor/internal/models"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", input: "2024-01-02T03:04:05Z", want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "zone-less", input: "2024-01-02T03:04:05", want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "date only", input: "2024-01-02", want: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestBaselineFrom(t *testing.T) {
	t.Run("empty storage has no baseline", func(t *testing.T) {
		require.Nil(t, baselineFrom(nil))
	})

	t.Run("empty published_at has no baseline", func(t *testing.T) {
		require.Nil(t, baselineFrom([]models.Record{{ID: 1, PublishedAt: ""}}))
	})

	t.Run("unparsable published_at has no baseline", func(t *testing.T) {
		require.Nil(t, baselineFrom([]models.Record{{ID: 1, PublishedAt: "not-a-date"}}))
	})

	t.Run("most recent record defines the baseline", func(t *testing.T) {
		got := baselineFrom([]models.Record{
			{ID: 2, PublishedAt: "2024-01-02T00:00:00"},
			{ID: 1, PublishedAt: "2024-01-01T00:00:00"},
		})
		require.NotNil(t, got)
		require.True(t, got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	})
}

func TestFilterNew(t *testing.T) {
	baselineTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	candidates := []FetchedItem{
		{Title: "equal", PublishedAt: "2024-01-01T00:00:00"},
		{Title: "newer", PublishedAt: "2024-01-02T00:00:00"},
		{Title: "older", PublishedAt: "2023-12-31T00:00:00"},
		{Title: "broken", PublishedAt: "not-a-date"},
		{Title: "missing", PublishedAt: ""},
	}

	t.Run("nil baseline keeps everything in order", func(t *testing.T) {
		got := filterNew(nil, candidates)
		require.Equal(t, candidates, got)
	})

	t.Run("strictly newer survives, equal and unparsable do not", func(t *testing.T) {
		got := filterNew(&baselineTime, candidates)
		require.Len(t, got, 1)
		require.Equal(t, "newer", got[0].Title)
	})

	t.Run("order preserved", func(t *testing.T) {
		ordered := []FetchedItem{
			{Title: "c", PublishedAt: "2024-01-04T00:00:00"},
			{Title: "a", PublishedAt: "2024-01-02T00:00:00"},
			{Title: "b", PublishedAt: "2024-01-03T00:00:00"},
		}
		got := filterNew(&baselineTime, ordered)
		require.Equal(t, []string{"c", "a", "b"}, []string{got[0].Title, got[1].Title, got[2].Title})
	})
}
