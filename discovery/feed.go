package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Feed walks an endless short-form feed and reports where it landed.
type Feed interface {
	// Advance navigates to a new candidate and returns the resulting URL.
	Advance(ctx context.Context) (string, error)
	Close() error
}

// ShortsFeed drives a headless Chrome over the YouTube Shorts feed.
// Each Advance re-opens the feed URL, which lands on a fresh short,
// then reads the browser location after the page settles.
type ShortsFeed struct {
	feedURL string
	settle  time.Duration

	browserCtx context.Context
	cancels    []context.CancelFunc
}

// NewShortsFeed starts a headless browser session. Callers must Close
// it when the run ends.
func NewShortsFeed(feedURL string, settle time.Duration, width, height int) (*ShortsFeed, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.WindowSize(width, height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	f := &ShortsFeed{
		feedURL:    feedURL,
		settle:     settle,
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}

	// Spin the browser up eagerly so a broken Chrome install fails the
	// run before discovery starts.
	if err := chromedp.Run(browserCtx); err != nil {
		f.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return f, nil
}

func (f *ShortsFeed) Advance(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var location string
	err := chromedp.Run(f.browserCtx,
		chromedp.Navigate(f.feedURL),
		chromedp.Sleep(f.settle),
		chromedp.Location(&location),
	)
	if err != nil {
		return "", fmt.Errorf("advance feed: %w", err)
	}
	return location, nil
}

func (f *ShortsFeed) Close() error {
	for _, cancel := range f.cancels {
		cancel()
	}
	return nil
}
