package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/schedule"
	"viral-shorts-pipeline/types"
)

func newTestYouTube(t *testing.T, handler http.HandlerFunc) (*YouTube, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)

	stateFile := filepath.Join(t.TempDir(), "youtube_schedule.json")
	alloc, err := schedule.New(stateFile, []int{10, 18})
	require.NoError(t, err)

	y := NewYouTube(svc, alloc, config.Upload{CategoryID: "22", DefaultLanguage: "en"})
	y.now = func() time.Time {
		return time.Date(2025, 4, 3, 9, 0, 0, 0, time.UTC)
	}
	return y, stateFile
}

func testVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edited_abc123.mp4")
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0644))
	return path
}

func TestYouTubePublish_CommitsCursorOnSuccess(t *testing.T) {
	y, stateFile := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "yt123"})
	})

	id, slot, err := y.Publish(context.Background(), testVideoFile(t), &types.VideoMetadata{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "yt123", id)
	assert.Equal(t, "2025-04-03T10:00:00Z", schedule.Format(slot))

	data, err := os.ReadFile(stateFile)
	require.NoError(t, err)
	var st struct {
		LastScheduled string `json:"last_scheduled"`
	}
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "2025-04-03T10:00:00Z", st.LastScheduled)
}

func TestYouTubePublish_FailureLeavesCursorUntouched(t *testing.T) {
	y, stateFile := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "backend error"}})
	})

	_, _, err := y.Publish(context.Background(), testVideoFile(t), &types.VideoMetadata{Title: "t"})
	require.Error(t, err)
	assert.NoFileExists(t, stateFile, "failed upload must not advance the scheduler cursor")
}

func TestYouTubePublish_MissingFile(t *testing.T) {
	y, stateFile := newTestYouTube(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when the video file is missing")
	})

	_, _, err := y.Publish(context.Background(), "/does/not/exist.mp4", &types.VideoMetadata{Title: "t"})
	require.Error(t, err)
	assert.NoFileExists(t, stateFile)
}
