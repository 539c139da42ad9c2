// Package edit re-cuts a downloaded short: the source is scaled down
// and centered, a feedback template overlay loops on top of it, and a
// voice-over matched to the video duration is mixed in.
package edit

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"viral-shorts-pipeline/config"
)

// Editor drives ffmpeg/ffprobe to produce the edited output file.
type Editor struct {
	cfg     config.Edit
	ffmpeg  string
	ffprobe string
}

func New(cfg config.Edit) *Editor {
	return &Editor{cfg: cfg, ffmpeg: "ffmpeg", ffprobe: "ffprobe"}
}

// Compose renders inputPath into outputPath with the overlay and
// voice-over applied. It fails when no template asset exists or when
// ffmpeg exits non-zero; a missing voice-over is not fatal.
func (e *Editor) Compose(ctx context.Context, inputPath, outputPath string) error {
	templates, err := listTemplates(e.cfg.TemplatesDir)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	if len(templates) == 0 {
		return fmt.Errorf("no template videos found in %s", e.cfg.TemplatesDir)
	}
	template := templates[rand.Intn(len(templates))]
	log.Printf("[edit] Selected feedback template: %s", template)

	duration, err := e.probeDuration(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("probe duration: %w", err)
	}
	height, err := e.probeHeight(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("probe height: %w", err)
	}

	voice := pickVoice(e.cfg.VoicesDir, duration)

	args := e.composeArgs(inputPath, template, voice, outputPath, duration, height)
	log.Printf("[edit] Rendering %s (%.1fs)", outputPath, duration)

	cmd := exec.CommandContext(ctx, e.ffmpeg, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg compose: %w", err)
	}
	log.Printf("[edit] ✅ Edited video ready: %s", outputPath)
	return nil
}

// composeArgs builds the full ffmpeg invocation. The main clip is
// scaled to cfg.MainScale and padded back to its original canvas; the
// looped template is scaled to a fraction of the frame height, faded
// in after a delay and overlaid top-left; the voice-over is mixed
// over the source audio when present.
func (e *Editor) composeArgs(input, template, voice, output string, duration float64, height int) []string {
	scale := e.cfg.MainScale
	overlayHeight := int(float64(height) * e.cfg.OverlayHeight)

	args := []string{"-y",
		"-i", input,
		"-stream_loop", "-1", "-i", template,
	}
	if voice != "" {
		args = append(args, "-i", voice)
	}

	var filter strings.Builder
	fmt.Fprintf(&filter,
		"[0:v]scale=iw*%.2f:ih*%.2f,pad=iw/%.2f:ih/%.2f:(ow-iw)/2:(oh-ih)/2[main];",
		scale, scale, scale, scale)
	fmt.Fprintf(&filter,
		"[1:v]scale=-2:%d,format=yuva420p,colorchannelmixer=aa=%.2f,fade=t=in:st=0:d=%.2f:alpha=1,setpts=PTS-STARTPTS+%.2f/TB[tpl];",
		overlayHeight, e.cfg.OverlayOpacity, e.cfg.OverlayFadeSec, e.cfg.OverlayDelaySec)
	filter.WriteString("[main][tpl]overlay=0:0[outv]")
	if voice != "" {
		filter.WriteString(";[0:a][2:a]amix=inputs=2:duration=first:dropout_transition=0[outa]")
	}

	args = append(args, "-filter_complex", filter.String(), "-map", "[outv]")
	if voice != "" {
		args = append(args, "-map", "[outa]")
	} else {
		args = append(args, "-map", "0:a?")
	}

	return append(args,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		output,
	)
}

// pickVoice selects the voice-over for a clip: a video between N and
// N+1 seconds long gets "<N>s.mp3", falling back to default.mp3, and
// to no voice track when even that is missing.
func pickVoice(voicesDir string, durationSec float64) string {
	exact := filepath.Join(voicesDir, fmt.Sprintf("%ds.mp3", int(durationSec)))
	if _, err := os.Stat(exact); err == nil {
		return exact
	}
	fallback := filepath.Join(voicesDir, "default.mp3")
	if _, err := os.Stat(fallback); err == nil {
		log.Printf("[edit] Voice file %s not found, falling back to default.mp3", exact)
		return fallback
	}
	log.Printf("[edit] No voice file for %.0fs and no default.mp3 in %s — proceeding without voice-over", durationSec, voicesDir)
	return ""
}

// listTemplates returns the overlay candidates in dir.
func listTemplates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".mp4", ".mov", ".gif":
			templates = append(templates, filepath.Join(dir, entry.Name()))
		}
	}
	return templates, nil
}

func (e *Editor) probeDuration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, e.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}

func (e *Editor) probeHeight(ctx context.Context, path string) (int, error) {
	out, err := exec.CommandContext(ctx, e.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=height",
		"-of", "csv=p=0",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(out)))
}
