// Package discovery walks the Shorts feed until it finds a video that
// clears the virality thresholds and has not been processed before.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/stats"
	"viral-shorts-pipeline/types"
)

// ErrNotFound is returned when the attempt budget runs out without an
// eligible candidate.
var ErrNotFound = errors.New("no viral unprocessed video found")

var shortsIDPattern = regexp.MustCompile(`shorts/([^/?&]+)`)

// ExtractVideoID pulls the video ID out of a Shorts URL, e.g.
// https://www.youtube.com/shorts/RVh0pQyM-gs. Returns "" when the URL
// does not point at a short.
func ExtractVideoID(url string) string {
	m := shortsIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// StatsFetcher returns the public counters for a candidate video.
type StatsFetcher interface {
	VideoStats(ctx context.Context, id string) (*types.VideoStats, error)
}

// ProcessedChecker reports whether a candidate already went through
// the pipeline.
type ProcessedChecker interface {
	IsProcessed(id string) bool
}

// Engine is the discovery loop: advance the feed, skip processed
// candidates, gate on virality, first hit wins.
type Engine struct {
	feed   Feed
	stats  StatsFetcher
	ledger ProcessedChecker
	min    config.Virality
}

func NewEngine(feed Feed, sf StatsFetcher, ledger ProcessedChecker, min config.Virality) *Engine {
	return &Engine{feed: feed, stats: sf, ledger: ledger, min: min}
}

// Discover performs up to maxAttempts feed advancements and returns
// the first viral, unprocessed video ID. Unextractable URLs, already
// processed candidates and stats-fetch failures each consume an
// attempt and continue the loop.
func (e *Engine) Discover(ctx context.Context, maxAttempts int) (string, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		location, err := e.feed.Advance(ctx)
		if err != nil {
			log.Printf("[discover] Feed advance failed (attempt %d of %d): %v", attempt, maxAttempts, err)
			continue
		}

		id := ExtractVideoID(location)
		if id == "" {
			log.Printf("[discover] No video ID in URL %q (attempt %d of %d)", location, attempt, maxAttempts)
			continue
		}

		if e.ledger.IsProcessed(id) {
			log.Printf("[discover] Video %s already processed, skipping (attempt %d of %d)", id, attempt, maxAttempts)
			continue
		}

		vs, err := e.stats.VideoStats(ctx, id)
		if err != nil {
			// Conservative: an unreadable candidate is treated as not viral.
			log.Printf("[discover] Stats fetch for %s failed, skipping: %v", id, err)
			continue
		}

		if stats.IsViral(vs, e.min) {
			log.Printf("[discover] ✅ Found viral video %s: %d views, %d likes, %d comments", id, vs.Views, vs.Likes, vs.Comments)
			return id, nil
		}
		log.Printf("[discover] Video %s not viral (attempt %d of %d)", id, attempt, maxAttempts)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNotFound, maxAttempts)
}
