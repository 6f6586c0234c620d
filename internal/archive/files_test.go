package archive

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bdougie/badbits/internal/vision"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	return img
}

func TestSaveReference(t *testing.T) {
	a, err := NewFileArchive(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("NewFileArchive: %v", err)
	}

	path, err := a.SaveReference(testImage())
	if err != nil {
		t.Fatalf("SaveReference: %v", err)
	}
	if filepath.Base(path) != "reference_posture.jpg" {
		t.Errorf("reference path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("reference image not written: %v", err)
	}
}

func TestSaveCheck(t *testing.T) {
	a, err := NewFileArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	takenAt := time.Date(2026, 8, 26, 14, 30, 5, 0, time.UTC)
	results := []vision.Result{
		{Habit: "posture", Active: true, Details: "Poor posture detected!", Timestamp: takenAt},
	}

	dir, err := a.SaveCheck(takenAt, testImage(), results)
	if err != nil {
		t.Fatalf("SaveCheck: %v", err)
	}
	if filepath.Base(dir) != "20260826_143005" {
		t.Errorf("check dir = %s", dir)
	}

	if _, err := os.Stat(filepath.Join(dir, "comparison.jpg")); err != nil {
		t.Errorf("comparison image missing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "analysis.json"))
	if err != nil {
		t.Fatalf("analysis.json missing: %v", err)
	}
	var record struct {
		Timestamp time.Time       `json:"timestamp"`
		Alerts    []vision.Result `json:"alerts"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("analysis.json malformed: %v", err)
	}
	if len(record.Alerts) != 1 || record.Alerts[0].Habit != "posture" || !record.Alerts[0].Active {
		t.Errorf("analysis record = %+v", record)
	}
}
