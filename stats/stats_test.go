package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/types"
)

var thresholds = config.Virality{MinViews: 1_000_000, MinLikes: 150_000, MinComments: 5_000}

func TestIsViral(t *testing.T) {
	tests := []struct {
		name  string
		stats *types.VideoStats
		want  bool
	}{
		{"all thresholds met exactly", &types.VideoStats{Views: 1_000_000, Likes: 150_000, Comments: 5_000}, true},
		{"all thresholds exceeded", &types.VideoStats{Views: 2_000_000, Likes: 300_000, Comments: 9_000}, true},
		{"views below", &types.VideoStats{Views: 999_999, Likes: 300_000, Comments: 9_000}, false},
		{"likes below", &types.VideoStats{Views: 2_000_000, Likes: 149_999, Comments: 9_000}, false},
		{"comments below", &types.VideoStats{Views: 2_000_000, Likes: 300_000, Comments: 4_999}, false},
		{"zero stats", &types.VideoStats{}, false},
		{"nil stats", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsViral(tt.stats, thresholds))
		})
	}
}

func TestIsViral_ZeroThresholds(t *testing.T) {
	assert.True(t, IsViral(&types.VideoStats{}, config.Virality{}))
}

// newFakeService points a real youtube.Service at an httptest server.
func newFakeService(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)
	return New(svc)
}

func TestVideoStats(t *testing.T) {
	c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("id"))
		assert.Equal(t, "statistics", r.URL.Query().Get("part"))
		// The Data API encodes uint64 counters as JSON strings.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"statistics": map[string]any{
					"viewCount":    "1200000",
					"likeCount":    "160000",
					"commentCount": "7000",
				},
			}},
		})
	})

	stats, err := c.VideoStats(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, &types.VideoStats{Views: 1_200_000, Likes: 160_000, Comments: 7_000}, stats)
	assert.True(t, IsViral(stats, thresholds))
}

func TestVideoStats_NotFound(t *testing.T) {
	c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})

	_, err := c.VideoStats(context.Background(), "missing")
	assert.Error(t, err)
}

func TestVideoMetadata(t *testing.T) {
	c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"snippet": map[string]any{
					"title":       "Original Title",
					"description": "Original description",
					"tags":        []string{"one", "two"},
				},
			}},
		})
	})

	meta, err := c.VideoMetadata(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Original Title", meta.Title)
	assert.Equal(t, "Original description", meta.Description)
	assert.Equal(t, []string{"one", "two"}, meta.Tags)
}

func TestVideoMetadata_EmptyFieldsFallBack(t *testing.T) {
	c := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"snippet": map[string]any{"title": "Only Title"}}},
		})
	})

	meta, err := c.VideoMetadata(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Only Title", meta.Title)
	assert.Equal(t, DefaultMetadata("abc123").Description, meta.Description)
	assert.Equal(t, []string{"shorts", "viral", "trending"}, meta.Tags)
}

func TestDefaultMetadata(t *testing.T) {
	meta := DefaultMetadata("abc123")
	assert.Contains(t, meta.Title, "abc123")
	assert.Contains(t, meta.Description, "abc123")
	assert.NotEmpty(t, meta.Tags)
}
