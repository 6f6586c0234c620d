// Package monitor runs the capture → analyze → notify → persist loop.
package monitor

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bdougie/badbits/internal/archive"
	"github.com/bdougie/badbits/internal/camera"
	"github.com/bdougie/badbits/internal/collage"
	"github.com/bdougie/badbits/internal/habits"
	"github.com/bdougie/badbits/internal/history"
	"github.com/bdougie/badbits/internal/notify"
	"github.com/bdougie/badbits/internal/stats"
	"github.com/bdougie/badbits/internal/vision"
)

// CheckEvent is a snapshot of one completed (or failed) check cycle, consumed
// by the dashboard.
type CheckEvent struct {
	Seq        int
	TakenAt    time.Time
	Results    []vision.Result
	Stats      stats.CheckStats
	ArchiveDir string
	Err        string
}

// Options wires the monitor's collaborators. Source, Analyzer, Registry,
// Notifier and Logger are required; History and the archives are optional.
type Options struct {
	Source    camera.Source
	Analyzer  *vision.Analyzer
	Registry  *habits.Registry
	Notifier  *notify.Dispatcher
	History   *history.DB
	Files     *archive.FileArchive
	Postgres  *archive.PostgresArchive
	Interval  time.Duration
	SessionID string
	Logger    *slog.Logger

	// Events receives one CheckEvent per cycle when set. Sends never
	// block; a slow consumer just misses snapshots.
	Events chan<- CheckEvent
}

// Monitor owns one monitoring session.
type Monitor struct {
	opts      Options
	reference image.Image
	stats     stats.CheckStats
}

// New builds a monitor from options.
func New(opts Options) *Monitor {
	return &Monitor{opts: opts}
}

// Stats returns the current session statistics.
func (m *Monitor) Stats() stats.CheckStats {
	return m.stats
}

// SetReference installs a previously captured reference image, for example
// one loaded from a prior session's archive.
func (m *Monitor) SetReference(img image.Image) {
	m.reference = img
}

// CaptureReference photographs the user's ideal posture after a console
// countdown, so the shot lands while they are sitting naturally.
func (m *Monitor) CaptureReference(ctx context.Context) error {
	fmt.Println()
	fmt.Println("=== Reference Posture Capture ===")
	fmt.Println("Sit in your best posture. Capturing in:")
	for i := 3; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}

	img, err := m.opts.Source.Capture(ctx)
	if err != nil {
		return fmt.Errorf("monitor: capture reference: %w", err)
	}
	m.reference = img
	fmt.Println("\nReference image captured!")

	if m.opts.Files != nil {
		path, err := m.opts.Files.SaveReference(img)
		if err != nil {
			return err
		}
		fmt.Printf("Reference image saved to: %s\n", path)
	}
	return nil
}

// Run executes the monitoring loop until ctx is cancelled. The reference
// image must be set or captured first.
func (m *Monitor) Run(ctx context.Context) error {
	if m.reference == nil {
		return fmt.Errorf("monitor: reference image not set")
	}

	m.stats = stats.New()
	if m.opts.History != nil {
		if err := m.opts.History.StartSession(m.opts.SessionID, m.stats.StartTime); err != nil {
			return err
		}
		defer func() {
			if err := m.opts.History.EndSession(m.opts.SessionID); err != nil {
				m.opts.Logger.Warn("monitor: end session failed", slog.String("error", err.Error()))
			}
		}()
	}

	_ = m.opts.Notifier.Send("BadBits Monitoring Started", "Posture and habit monitoring is now active!")
	m.opts.Logger.Info("monitor: started",
		slog.String("session", m.opts.SessionID),
		slog.Duration("interval", m.opts.Interval))

	seq := 0
	for {
		seq++
		m.runCheck(ctx, seq)

		select {
		case <-ctx.Done():
			m.opts.Logger.Info("monitor: stopped", slog.Int("checks", m.stats.TotalChecks))
			return nil
		case <-time.After(m.opts.Interval):
		}
	}
}

// runCheck performs one cycle. Failures are reported and the loop goes on;
// a flaky camera should not end the session.
func (m *Monitor) runCheck(ctx context.Context, seq int) {
	takenAt := time.Now()

	results, archiveDir, err := m.analyzeOnce(ctx, takenAt)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.opts.Logger.Warn("monitor: check failed", slog.Int("seq", seq), slog.String("error", err.Error()))
		m.publish(CheckEvent{Seq: seq, TakenAt: takenAt, Stats: m.stats, Err: err.Error()})
		return
	}

	m.stats = m.stats.Update(results)

	for _, r := range results {
		if !r.Active {
			continue
		}
		title, message := m.alertText(r)
		if err := m.opts.Notifier.Send(title, message); err != nil {
			m.opts.Logger.Warn("monitor: alert delivery failed",
				slog.String("habit", r.Habit), slog.String("error", err.Error()))
		}
	}

	if m.opts.History != nil {
		if err := m.opts.History.RecordCheck(m.opts.SessionID, seq, takenAt, results); err != nil {
			m.opts.Logger.Warn("monitor: history write failed", slog.String("error", err.Error()))
		}
	}
	if m.opts.Postgres != nil {
		if err := m.opts.Postgres.RecordCheck(ctx, seq, takenAt, results); err != nil {
			m.opts.Logger.Warn("monitor: archive write failed", slog.String("error", err.Error()))
		}
	}

	m.publish(CheckEvent{
		Seq:        seq,
		TakenAt:    takenAt,
		Results:    results,
		Stats:      m.stats,
		ArchiveDir: archiveDir,
	})
}

// analyzeOnce captures a frame, builds the collage, runs the model, and
// archives the artifacts when tracking is on.
func (m *Monitor) analyzeOnce(ctx context.Context, takenAt time.Time) ([]vision.Result, string, error) {
	frame, err := m.opts.Source.Capture(ctx)
	if err != nil {
		return nil, "", err
	}

	comparison := collage.Build(m.reference, frame)

	// The vision agent reads the image from disk, so the collage always
	// lands in a file; without tracking it is a temp file removed after
	// the check.
	collagePath := filepath.Join(os.TempDir(), fmt.Sprintf("badbits_check_%d.jpg", takenAt.UnixNano()))
	if err := collage.Save(comparison, collagePath); err != nil {
		return nil, "", err
	}
	defer os.Remove(collagePath)

	results, err := m.opts.Analyzer.Analyze(ctx, collagePath)
	if err != nil {
		return nil, "", err
	}

	// Fill in the habit's alert message so archives and search have text
	// to work with.
	for i, r := range results {
		if !r.Active {
			continue
		}
		if h, ok := m.opts.Registry.Get(r.Habit); ok {
			results[i].Details = h.AlertMessage()
		}
	}

	var archiveDir string
	if m.opts.Files != nil {
		archiveDir, err = m.opts.Files.SaveCheck(takenAt, comparison, results)
		if err != nil {
			m.opts.Logger.Warn("monitor: archive files failed", slog.String("error", err.Error()))
		}
	}
	return results, archiveDir, nil
}

// alertText builds the notification title and message for a detection.
func (m *Monitor) alertText(r vision.Result) (title, message string) {
	if h, ok := m.opts.Registry.Get(r.Habit); ok {
		return "BadBits Alert: " + h.DisplayName(), h.AlertMessage()
	}
	c := habits.Check{ID: r.Habit}
	return "BadBits Alert: " + c.DisplayName(), "Issue detected!"
}

func (m *Monitor) publish(ev CheckEvent) {
	if m.opts.Events == nil {
		return
	}
	select {
	case m.opts.Events <- ev:
	default:
	}
}
