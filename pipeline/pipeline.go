// Package pipeline composes discovery and publishing: the
// orchestrator drives one candidate through retrieve → edit →
// publish → archive, and the controller repeats the whole sequence
// for a fixed number of iterations.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"viral-shorts-pipeline/ledger"
	"viral-shorts-pipeline/stats"
	"viral-shorts-pipeline/types"
)

// Retriever downloads the source media for a candidate.
type Retriever interface {
	Download(ctx context.Context, id string) (string, error)
}

// MetadataSource fetches the descriptive metadata for a candidate.
type MetadataSource interface {
	VideoMetadata(ctx context.Context, id string) (*types.VideoMetadata, error)
}

// Compositor renders the edited output file.
type Compositor interface {
	Compose(ctx context.Context, inputPath, outputPath string) error
}

// YouTubeTarget submits a scheduled upload and returns the remote ID
// and the allocated publish instant.
type YouTubeTarget interface {
	Publish(ctx context.Context, videoFile string, meta *types.VideoMetadata) (string, time.Time, error)
}

// InstagramTarget publishes a video with a caption and returns the
// remote post ID.
type InstagramTarget interface {
	Publish(ctx context.Context, videoFile, caption string) (string, error)
}

// Ledger is the idempotency store the orchestrator marks as it goes.
type Ledger interface {
	MarkMetadata(id string, meta *types.VideoMetadata, root ledger.Root) (string, error)
	MoveToArchive(id, videoPath string, meta *types.VideoMetadata) (string, error)
}

// Config holds the explicit toggles for the two publish targets. A
// disabled target is trivially satisfied: the run can still archive.
type Config struct {
	EnableYouTube   bool
	EnableInstagram bool
}

// Orchestrator runs the publish side of one iteration as a
// single-direction state machine. Any failed stage aborts the run;
// nothing already published is rolled back.
type Orchestrator struct {
	retriever Retriever
	metadata  MetadataSource
	editor    Compositor
	youtube   YouTubeTarget
	instagram InstagramTarget
	ledger    Ledger
	cfg       Config
}

func NewOrchestrator(r Retriever, m MetadataSource, e Compositor, yt YouTubeTarget, ig InstagramTarget, led Ledger, cfg Config) *Orchestrator {
	return &Orchestrator{
		retriever: r,
		metadata:  m,
		editor:    e,
		youtube:   yt,
		instagram: ig,
		ledger:    led,
		cfg:       cfg,
	}
}

// Publish drives one candidate through all stages. The returned
// RunState always reflects how far the run got; on error its
// FailedStage names the stage that aborted it.
func (o *Orchestrator) Publish(ctx context.Context, id string) (*types.RunState, error) {
	run := &types.RunState{
		RunID:     uuid.NewString()[:8],
		VideoID:   id,
		Stage:     types.StageIdle,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	fail := func(stage types.Stage, err error) (*types.RunState, error) {
		run.Stage = types.StageFailed
		run.FailedStage = stage
		run.Error = err.Error()
		return run, fmt.Errorf("%s: %w", stage, err)
	}

	// Retrieve. Fatal: without the source there is nothing to do.
	run.Stage = types.StageRetrieving
	downloaded, err := o.retriever.Download(ctx, id)
	if err != nil {
		return fail(types.StageRetrieving, err)
	}
	run.DownloadedFile = downloaded

	// Metadata is best effort; the collaborator fallbacks cover it.
	meta, err := o.metadata.VideoMetadata(ctx, id)
	if err != nil {
		log.Printf("[pipeline] Metadata fetch for %s failed, using defaults: %v", id, err)
		meta = stats.DefaultMetadata(id)
	}
	run.Metadata = meta
	if _, err := o.ledger.MarkMetadata(id, meta, ledger.Working); err != nil {
		// The working marker is an optimization against re-discovery,
		// not a correctness requirement.
		log.Printf("[pipeline] Warning: could not write working marker for %s: %v", id, err)
	}

	// Edit. Fatal on missing templates or a compositing failure.
	run.Stage = types.StageEditing
	edited := filepath.Join(filepath.Dir(downloaded), "edited_"+filepath.Base(downloaded))
	if err := o.editor.Compose(ctx, downloaded, edited); err != nil {
		return fail(types.StageEditing, err)
	}
	run.EditedFile = edited

	// YouTube: scheduled slot upload. The target commits the scheduler
	// cursor itself, only after its insert succeeded.
	run.Stage = types.StagePublishingYouTube
	if o.cfg.EnableYouTube {
		ytID, slot, err := o.youtube.Publish(ctx, edited, meta)
		if err != nil {
			return fail(types.StagePublishingYouTube, err)
		}
		run.YouTubeID = ytID
		run.YouTubeURL = fmt.Sprintf("https://www.youtube.com/watch?v=%s", ytID)
		run.PublishAt = slot.UTC().Format(time.RFC3339)
	}

	run.Stage = types.StagePublishingInstagram
	if o.cfg.EnableInstagram {
		igID, err := o.instagram.Publish(ctx, edited, captionFor(meta))
		if err != nil {
			return fail(types.StagePublishingInstagram, err)
		}
		run.InstagramID = igID
	}

	// Archive only once every enabled stage succeeded.
	run.Stage = types.StageArchiving
	archived, err := o.ledger.MoveToArchive(id, edited, meta)
	if err != nil {
		return fail(types.StageArchiving, err)
	}
	run.ArchivedFile = archived
	run.Stage = types.StageArchived
	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	log.Printf("[pipeline] ✅ Run %s complete: video %s archived at %s", run.RunID, id, archived)
	return run, nil
}

func captionFor(meta *types.VideoMetadata) string {
	if meta == nil || meta.Title == "" {
		return "My Instagram Post"
	}
	return meta.Title
}

// Discoverer yields the next viral, unprocessed candidate.
type Discoverer interface {
	Discover(ctx context.Context, maxAttempts int) (string, error)
}

// Publisher runs the publish side for one candidate.
type Publisher interface {
	Publish(ctx context.Context, id string) (*types.RunState, error)
}

// Controller executes discover-then-publish for a fixed number of
// iterations, stopping the whole run at the first failure.
type Controller struct {
	discoverer  Discoverer
	publisher   Publisher
	maxAttempts int
	pause       time.Duration
}

func NewController(d Discoverer, p Publisher, maxAttempts int, pause time.Duration) *Controller {
	return &Controller{discoverer: d, publisher: p, maxAttempts: maxAttempts, pause: pause}
}

// Run performs up to iterations full pipeline passes, pausing between
// them. The first failed iteration aborts the run.
func (c *Controller) Run(ctx context.Context, iterations int) error {
	for i := 1; i <= iterations; i++ {
		log.Printf("[pipeline] === Starting iteration %d of %d ===", i, iterations)

		id, err := c.discoverer.Discover(ctx, c.maxAttempts)
		if err != nil {
			return fmt.Errorf("iteration %d: discover: %w", i, err)
		}

		if _, err := c.publisher.Publish(ctx, id); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}

		if i < iterations {
			select {
			case <-time.After(c.pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
