// Package retrieve downloads the source media for a candidate video
// by shelling out to yt-dlp.
package retrieve

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"viral-shorts-pipeline/config"
	"viral-shorts-pipeline/types"
)

// ResolveCredential picks the auth material for downloads once, in
// order of preference: non-empty cookie file, browser cookies,
// visitor token, none.
func ResolveCredential(cfg config.Download) types.Credential {
	if cfg.CookiesFile != "" {
		if fi, err := os.Stat(cfg.CookiesFile); err == nil && fi.Size() > 0 {
			return types.Credential{Kind: types.CredentialCookieFile, CookieFile: cfg.CookiesFile}
		}
	}
	if cfg.UseBrowserCookies {
		return types.Credential{Kind: types.CredentialBrowserCookies, Browser: cfg.Browser}
	}
	if cfg.VisitorData != "" {
		return types.Credential{Kind: types.CredentialVisitorToken, VisitorData: cfg.VisitorData}
	}
	return types.Credential{Kind: types.CredentialNone}
}

// Downloader fetches videos into a working directory. The merged
// output is always an MP4 named after the video ID.
type Downloader struct {
	outputDir string
	cred      types.Credential
	binary    string
}

func New(outputDir string, cred types.Credential) *Downloader {
	return &Downloader{outputDir: outputDir, cred: cred, binary: "yt-dlp"}
}

// Download fetches the video and returns the path of the merged file.
func (d *Downloader) Download(ctx context.Context, id string) (string, error) {
	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", d.outputDir, err)
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
	log.Printf("[download] Fetching %s", url)

	cmd := exec.CommandContext(ctx, d.binary, d.args(id)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	out := filepath.Join(d.outputDir, id+".mp4")
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("yt-dlp finished but %s is missing: %w", out, err)
	}
	log.Printf("[download] Saved %s", out)
	return out, nil
}

func (d *Downloader) args(id string) []string {
	args := []string{
		"--no-playlist",
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", filepath.Join(d.outputDir, "%(id)s.%(ext)s"),
	}
	switch d.cred.Kind {
	case types.CredentialCookieFile:
		args = append(args, "--cookies", d.cred.CookieFile)
	case types.CredentialBrowserCookies:
		args = append(args, "--cookies-from-browser", d.cred.Browser)
	case types.CredentialVisitorToken:
		args = append(args, "--extractor-args", "youtube:visitor_data="+d.cred.VisitorData)
	}
	return append(args, fmt.Sprintf("https://www.youtube.com/watch?v=%s", id))
}
