// Package archive persists check artifacts when tracking mode is enabled:
// comparison images and analysis JSON under timestamped directories, plus an
// optional Postgres store with embedding search over past detections.
package archive

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/bdougie/badbits/internal/collage"
	"github.com/bdougie/badbits/internal/vision"
)

// FileArchive writes check artifacts under a base output directory.
type FileArchive struct {
	outputDir string
}

// NewFileArchive ensures the output directory exists.
func NewFileArchive(outputDir string) (*FileArchive, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create output dir %s: %w", outputDir, err)
	}
	return &FileArchive{outputDir: outputDir}, nil
}

// Dir returns the base output directory.
func (a *FileArchive) Dir() string {
	return a.outputDir
}

// SaveReference stores the reference posture image at the session root.
func (a *FileArchive) SaveReference(img image.Image) (string, error) {
	path := filepath.Join(a.outputDir, "reference_posture.jpg")
	if err := collage.Save(img, path); err != nil {
		return "", err
	}
	return path, nil
}

// checkRecord is the JSON document written next to each comparison image.
type checkRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Alerts    []vision.Result `json:"alerts"`
}

// SaveCheck writes the collage and results into a timestamped directory and
// returns its path.
func (a *FileArchive) SaveCheck(takenAt time.Time, comparison image.Image, results []vision.Result) (string, error) {
	dir := filepath.Join(a.outputDir, takenAt.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: create check dir: %w", err)
	}

	if err := collage.Save(comparison, filepath.Join(dir, "comparison.jpg")); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dir, "analysis.json"))
	if err != nil {
		return "", fmt.Errorf("archive: create analysis file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(checkRecord{Timestamp: takenAt, Alerts: results}); err != nil {
		return "", fmt.Errorf("archive: encode analysis: %w", err)
	}
	return dir, nil
}
