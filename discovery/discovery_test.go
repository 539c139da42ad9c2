package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/types"
)

var thresholds = config.Virality{MinViews: 1_000_000, MinLikes: 150_000, MinComments: 5_000}

type fakeFeed struct {
	urls     []string
	advances int
}

func (f *fakeFeed) Advance(ctx context.Context) (string, error) {
	f.advances++
	if len(f.urls) == 0 {
		return "https://www.youtube.com/shorts/filler", nil
	}
	url := f.urls[0]
	if len(f.urls) > 1 {
		f.urls = f.urls[1:]
	}
	return url, nil
}

func (f *fakeFeed) Close() error { return nil }

type fakeStats struct {
	byID    map[string]*types.VideoStats
	fetched []string
}

func (f *fakeStats) VideoStats(ctx context.Context, id string) (*types.VideoStats, error) {
	f.fetched = append(f.fetched, id)
	vs, ok := f.byID[id]
	if !ok {
		return nil, errors.New("stats unavailable")
	}
	return vs, nil
}

type fakeLedger map[string]bool

func (f fakeLedger) IsProcessed(id string) bool { return f[id] }

var viralStats = &types.VideoStats{Views: 2_000_000, Likes: 300_000, Comments: 9_000}
var dullStats = &types.VideoStats{Views: 100, Likes: 3, Comments: 0}

func TestExtractVideoID(t *testing.T) {
	assert.Equal(t, "RVh0pQyM-gs", ExtractVideoID("https://www.youtube.com/shorts/RVh0pQyM-gs"))
	assert.Equal(t, "abc123", ExtractVideoID("https://www.youtube.com/shorts/abc123?feature=share"))
	assert.Equal(t, "", ExtractVideoID("https://www.youtube.com/watch?v=abc123"))
	assert.Equal(t, "", ExtractVideoID(""))
}

func TestDiscover_FirstViralWins(t *testing.T) {
	feed := &fakeFeed{urls: []string{
		"https://www.youtube.com/shorts/dull1",
		"https://www.youtube.com/shorts/hot42",
		"https://www.youtube.com/shorts/hot99",
	}}
	sf := &fakeStats{byID: map[string]*types.VideoStats{
		"dull1": dullStats,
		"hot42": viralStats,
		"hot99": viralStats,
	}}
	e := NewEngine(feed, sf, fakeLedger{}, thresholds)

	id, err := e.Discover(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "hot42", id)
	assert.Equal(t, 2, feed.advances, "loop must stop at the first viral candidate")
}

func TestDiscover_ExhaustsAttemptBudget(t *testing.T) {
	feed := &fakeFeed{urls: []string{"https://www.youtube.com/shorts/dull1"}}
	sf := &fakeStats{byID: map[string]*types.VideoStats{"dull1": dullStats}}
	e := NewEngine(feed, sf, fakeLedger{}, thresholds)

	_, err := e.Discover(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 7, feed.advances, "exactly maxAttempts advancements")
}

func TestDiscover_SkipsProcessedWithoutStatsFetch(t *testing.T) {
	feed := &fakeFeed{urls: []string{
		"https://www.youtube.com/shorts/seen1",
		"https://www.youtube.com/shorts/hot42",
	}}
	sf := &fakeStats{byID: map[string]*types.VideoStats{
		"seen1": viralStats,
		"hot42": viralStats,
	}}
	e := NewEngine(feed, sf, fakeLedger{"seen1": true}, thresholds)

	id, err := e.Discover(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "hot42", id)
	assert.NotContains(t, sf.fetched, "seen1", "processed candidates are skipped before the stats fetch")
}

func TestDiscover_MalformedURLContinues(t *testing.T) {
	feed := &fakeFeed{urls: []string{
		"https://www.youtube.com/",
		"https://www.youtube.com/shorts/hot42",
	}}
	sf := &fakeStats{byID: map[string]*types.VideoStats{"hot42": viralStats}}
	e := NewEngine(feed, sf, fakeLedger{}, thresholds)

	id, err := e.Discover(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "hot42", id)
	assert.Equal(t, 2, feed.advances)
}

func TestDiscover_StatsFailureTreatedAsNotViral(t *testing.T) {
	feed := &fakeFeed{urls: []string{
		"https://www.youtube.com/shorts/broken",
		"https://www.youtube.com/shorts/hot42",
	}}
	sf := &fakeStats{byID: map[string]*types.VideoStats{"hot42": viralStats}}
	e := NewEngine(feed, sf, fakeLedger{}, thresholds)

	id, err := e.Discover(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "hot42", id)
}

func TestDiscover_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(&fakeFeed{}, &fakeStats{}, fakeLedger{}, thresholds)
	_, err := e.Discover(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
}
