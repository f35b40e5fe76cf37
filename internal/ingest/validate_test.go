package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"contenthub/ingestor/internal/models"
)

func strPtr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawItem
		want    models.NewRecord
		wantErr error
	}{
		{
			name: "trims and keeps valid keywords",
			raw: RawItem{
				Title:       " A ",
				Content:     " B ",
				Keywords:    []any{"", " k ", 5},
				PublishedAt: nil,
			},
			want: models.NewRecord{
				Title:       "A",
				Content:     "B",
				Keywords:    []string{"k"},
				PublishedAt: "",
			},
		},
		{
			name:    "whitespace title rejected",
			raw:     RawItem{Title: "  ", Content: "x"},
			wantErr: ErrMissingField,
		},
		{
			name:    "empty content rejected",
			raw:     RawItem{Title: "x", Content: ""},
			wantErr: ErrMissingField,
		},
		{
			name: "published_at kept as-is even when malformed",
			raw: RawItem{
				Title:       "t",
				Content:     "c",
				PublishedAt: strPtr("not-a-date"),
			},
			want: models.NewRecord{
				Title:       "t",
				Content:     "c",
				Keywords:    []string{},
				PublishedAt: "not-a-date",
			},
		},
		{
			name: "non-string keywords dropped silently",
			raw: RawItem{
				Title:    "t",
				Content:  "c",
				Keywords: []any{3.14, true, nil, map[string]any{"x": 1}, "go"},
			},
			want: models.NewRecord{
				Title:       "t",
				Content:     "c",
				Keywords:    []string{"go"},
				PublishedAt: "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
