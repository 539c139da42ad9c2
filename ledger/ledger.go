// Package ledger is the idempotency bookkeeping for the pipeline: one
// JSON metadata marker per video ID, kept under a working root while a
// video is in flight and under an archive root once it shipped.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"viral-shorts-pipeline/types"
)

// Root selects which storage location a marker is written to.
type Root int

const (
	Working Root = iota
	Archive
)

// Store answers "was this video already processed?" via a marker
// existence check. The check is advisory: it is only safe when a
// single pipeline process runs against the storage roots.
type Store struct {
	workingDir string
	archiveDir string
}

func New(workingDir, archiveDir string) *Store {
	return &Store{workingDir: workingDir, archiveDir: archiveDir}
}

// IsProcessed reports whether a marker for id exists in either root.
func (s *Store) IsProcessed(id string) bool {
	if _, err := os.Stat(s.markerPath(Working, id)); err == nil {
		return true
	}
	if _, err := os.Stat(s.markerPath(Archive, id)); err == nil {
		return true
	}
	return false
}

// MarkMetadata writes the metadata marker for id into the given root,
// creating the root if needed. Repeated calls overwrite: the latest
// write fully replaces prior content.
func (s *Store) MarkMetadata(id string, meta *types.VideoMetadata, root Root) (string, error) {
	dir := s.rootDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ledger: create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	path := s.markerPath(root, id)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("ledger: write marker: %w", err)
	}
	return path, nil
}

// MoveToArchive completes a run: the edited video moves into the
// archive root, the archive marker is written, and the working marker
// is removed. The archive marker is written before the working marker
// goes away so IsProcessed never reports false in between.
func (s *Store) MoveToArchive(id, videoPath string, meta *types.VideoMetadata) (string, error) {
	if err := os.MkdirAll(s.archiveDir, 0755); err != nil {
		return "", fmt.Errorf("ledger: create %s: %w", s.archiveDir, err)
	}
	target := filepath.Join(s.archiveDir, filepath.Base(videoPath))
	if err := os.Rename(videoPath, target); err != nil {
		return "", fmt.Errorf("ledger: archive video: %w", err)
	}
	if _, err := s.MarkMetadata(id, meta, Archive); err != nil {
		return "", err
	}
	// Best effort: a leftover working marker only means an extra skip.
	_ = os.Remove(s.markerPath(Working, id))
	return target, nil
}

func (s *Store) rootDir(root Root) string {
	if root == Archive {
		return s.archiveDir
	}
	return s.workingDir
}

func (s *Store) markerPath(root Root, id string) string {
	return filepath.Join(s.rootDir(root), id+".json")
}
