// Package publish submits edited videos to the two publish targets:
// YouTube (scheduled via the Data API) and Instagram (Graph API, with
// the media hosted on Cloudinary).
package publish

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/schedule"
	"viral-shorts-pipeline/types"
)

// NewYouTubeService builds an authenticated Data API client from env
// credentials (YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET,
// YOUTUBE_REFRESH_TOKEN).
func NewYouTubeService(ctx context.Context) (*youtube.Service, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeReadonlyScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, conf.TokenSource(ctx, token))))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return svc, nil
}

// YouTube uploads edited videos as private, scheduled submissions.
// Each upload allocates the next cadence slot and commits the
// scheduler cursor only after the insert succeeded, so a failed
// upload retries the same slot on the next run.
type YouTube struct {
	svc   *youtube.Service
	alloc *schedule.Allocator
	cfg   config.Upload
	now   func() time.Time
}

func NewYouTube(svc *youtube.Service, alloc *schedule.Allocator, cfg config.Upload) *YouTube {
	return &YouTube{svc: svc, alloc: alloc, cfg: cfg, now: time.Now}
}

// Publish uploads videoFile and returns the remote video ID and the
// slot it will go public at.
func (y *YouTube) Publish(ctx context.Context, videoFile string, meta *types.VideoMetadata) (string, time.Time, error) {
	slot, err := y.alloc.NextSlot(y.now())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("allocate slot: %w", err)
	}
	log.Printf("[youtube] Scheduling video for next slot: %s", schedule.Format(slot))

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           y.cfg.CategoryID,
			DefaultLanguage:      y.cfg.DefaultLanguage,
			DefaultAudioLanguage: y.cfg.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			// Must stay private for PublishAt scheduling to apply.
			PrivacyStatus:           "private",
			PublishAt:               schedule.Format(slot),
			SelfDeclaredMadeForKids: y.cfg.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[youtube] Uploading %q (%.1f MB)", meta.Title, float64(fi.Size())/1024/1024)
	}

	call := y.svc.Videos.Insert([]string{"snippet", "status"}, video).Context(ctx)
	call.NotifySubscribers(y.cfg.NotifySubscribers)
	call.Media(f)
	uploaded, err := call.Do()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("youtube upload: %w", err)
	}
	if uploaded.Id == "" {
		return "", time.Time{}, fmt.Errorf("youtube upload returned no video ID")
	}

	if err := y.alloc.Commit(slot); err != nil {
		// The video is live but the cursor did not advance; the next
		// allocation would reuse this slot.
		return "", time.Time{}, fmt.Errorf("video %s uploaded but cursor not persisted: %w", uploaded.Id, err)
	}

	log.Printf("[youtube] ✅ Video %s scheduled, goes public at %s", uploaded.Id, schedule.Format(slot))
	return uploaded.Id, slot, nil
}
