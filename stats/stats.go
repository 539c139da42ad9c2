// Package stats talks to the YouTube Data API for video counters and
// descriptive metadata, and holds the virality gate.
package stats

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/youtube/v3"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/types"
)

// Client fetches per-video statistics and snippets.
type Client struct {
	svc *youtube.Service
}

func New(svc *youtube.Service) *Client {
	return &Client{svc: svc}
}

// VideoStats fetches the public counters for a video ID.
func (c *Client) VideoStats(ctx context.Context, id string) (*types.VideoStats, error) {
	resp, err := c.svc.Videos.List([]string{"statistics"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list statistics: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no video found for ID %s", id)
	}
	st := resp.Items[0].Statistics
	if st == nil {
		return nil, fmt.Errorf("video %s has no statistics", id)
	}
	stats := &types.VideoStats{
		Views:    st.ViewCount,
		Likes:    st.LikeCount,
		Comments: st.CommentCount,
	}
	log.Printf("[stats] Video %s: %d views, %d likes, %d comments", id, stats.Views, stats.Likes, stats.Comments)
	return stats, nil
}

// VideoMetadata fetches title, description and tags for a video ID.
func (c *Client) VideoMetadata(ctx context.Context, id string) (*types.VideoMetadata, error) {
	resp, err := c.svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list snippet: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no video found for ID %s", id)
	}
	sn := resp.Items[0].Snippet
	if sn == nil {
		return nil, fmt.Errorf("video %s has no snippet", id)
	}
	meta := DefaultMetadata(id)
	if sn.Title != "" {
		meta.Title = sn.Title
	}
	if sn.Description != "" {
		meta.Description = sn.Description
	}
	if len(sn.Tags) > 0 {
		meta.Tags = sn.Tags
	}
	return meta, nil
}

// DefaultMetadata is the fallback record used when the snippet fetch
// fails or returns empty fields.
func DefaultMetadata(id string) *types.VideoMetadata {
	return &types.VideoMetadata{
		Title:       fmt.Sprintf("Viral Short: %s", id),
		Description: fmt.Sprintf("This is a viral YouTube Short with ID %s. Enjoy the video!", id),
		Tags:        []string{"shorts", "viral", "trending"},
	}
}

// IsViral reports whether the counters meet every configured
// threshold. Nil stats never qualify.
func IsViral(s *types.VideoStats, min config.Virality) bool {
	if s == nil {
		return false
	}
	return s.Views >= min.MinViews &&
		s.Likes >= min.MinLikes &&
		s.Comments >= min.MinComments
}
