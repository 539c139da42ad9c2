package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/discovery"
	"viral-shorts-pipeline/edit"
	"viral-shorts-pipeline/ledger"
	"viral-shorts-pipeline/pipeline"
	"viral-shorts-pipeline/publish"
	"viral-shorts-pipeline/retrieve"
	"viral-shorts-pipeline/schedule"
	"viral-shorts-pipeline/stats"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("❌ Pipeline failed: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		noYouTube   bool
		noInstagram bool
	)

	cmd := &cobra.Command{
		Use:   "viral-shorts-pipeline [iterations]",
		Short: "Discover viral Shorts, re-edit them and republish on a daily cadence",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iterations := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("iterations must be a positive integer, got %q", args[0])
				}
				iterations = n
			}
			return run(cmd, configPath, iterations, pipeline.Config{
				EnableYouTube:   !noYouTube,
				EnableInstagram: !noInstagram,
			})
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config")
	cmd.Flags().BoolVar(&noYouTube, "no-youtube", false, "skip the YouTube publish stage")
	cmd.Flags().BoolVar(&noInstagram, "no-instagram", false, "skip the Instagram publish stage")
	return cmd
}

func run(cmd *cobra.Command, configPath string, iterations int, toggles pipeline.Config) error {
	// Local dev reads secrets from .env; CI injects them directly.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, dir := range []string{cfg.Paths.Downloads, cfg.Paths.Shorts} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("🎬 Starting pipeline: %d iteration(s), youtube=%t instagram=%t",
		iterations, toggles.EnableYouTube, toggles.EnableInstagram)

	svc, err := publish.NewYouTubeService(ctx)
	if err != nil {
		return fmt.Errorf("youtube auth: %w", err)
	}
	statsClient := stats.New(svc)
	store := ledger.New(cfg.Paths.Downloads, cfg.Paths.Shorts)

	feed, err := discovery.NewShortsFeed(
		cfg.Discovery.FeedURL,
		time.Duration(cfg.Discovery.PageSettleSec)*time.Second,
		cfg.Discovery.WindowWidth,
		cfg.Discovery.WindowHeight,
	)
	if err != nil {
		return fmt.Errorf("start feed: %w", err)
	}
	defer feed.Close()

	engine := discovery.NewEngine(feed, statsClient, store, cfg.Virality)

	alloc, err := schedule.New(cfg.Schedule.StateFile, cfg.Schedule.SlotsUTC)
	if err != nil {
		return err
	}

	var youtubeTarget pipeline.YouTubeTarget
	if toggles.EnableYouTube {
		youtubeTarget = publish.NewYouTube(svc, alloc, cfg.Upload)
	}

	var instagramTarget pipeline.InstagramTarget
	if toggles.EnableInstagram {
		objectStore, err := publish.NewCloudinaryFromEnv()
		if err != nil {
			return fmt.Errorf("cloudinary: %w", err)
		}
		instagramTarget = publish.NewInstagram(cfg.Instagram.CredentialsFile, objectStore)
	}

	orch := pipeline.NewOrchestrator(
		retrieve.New(cfg.Paths.Downloads, retrieve.ResolveCredential(cfg.Download)),
		statsClient,
		edit.New(cfg.Edit),
		youtubeTarget,
		instagramTarget,
		store,
		toggles,
	)

	controller := pipeline.NewController(engine, orch,
		cfg.Discovery.MaxAttempts,
		time.Duration(cfg.Pipeline.PauseSec)*time.Second,
	)

	if err := controller.Run(ctx, iterations); err != nil {
		return err
	}
	log.Println("✅ Pipeline complete")
	return nil
}
