// Command badbits watches your webcam for bad posture and habits and nags
// you through desktop notifications.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/bdougie/badbits/internal/archive"
	"github.com/bdougie/badbits/internal/camera"
	"github.com/bdougie/badbits/internal/config"
	"github.com/bdougie/badbits/internal/dashboard"
	"github.com/bdougie/badbits/internal/habits"
	"github.com/bdougie/badbits/internal/history"
	"github.com/bdougie/badbits/internal/monitor"
	"github.com/bdougie/badbits/internal/notify"
	"github.com/bdougie/badbits/internal/vision"
)

const appName = "BadBits"

func main() {
	cmd := &cli.Command{
		Name:   "badbits",
		Usage:  "AI-powered posture coach and habit monitor",
		Action: runMonitor,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to YAML config file",
				Sources: cli.EnvVars("BADBITS_CONFIG"),
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Time between posture checks",
			},
			&cli.StringFlag{
				Name:    "camera",
				Aliases: []string{"c"},
				Usage:   "Camera device ID to use",
			},
			&cli.StringFlag{
				Name:  "backup-cameras",
				Usage: "Comma-separated list of backup camera IDs to try if the primary fails (e.g. '1,2')",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory to save analysis results",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Ollama vision model ID",
			},
			&cli.StringFlag{
				Name:  "habits",
				Usage: "Path to a JSON file with custom habit definitions",
			},
			&cli.BoolFlag{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Save images and analysis data to disk for tracking progress",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Disable all notifications",
			},
			&cli.BoolFlag{
				Name:    "loud",
				Aliases: []string{"l"},
				Usage:   "Attention-grabbing full-screen alerts",
			},
			&cli.BoolFlag{
				Name:    "simple",
				Aliases: []string{"s"},
				Usage:   "Use simple text output instead of the dashboard",
			},
			&cli.BoolFlag{
				Name:    "posture-only",
				Aliases: []string{"p"},
				Usage:   "Monitor posture only",
			},
			&cli.BoolFlag{
				Name:    "nails-only",
				Aliases: []string{"n"},
				Usage:   "Monitor nail biting only",
			},
		},
		Commands: []*cli.Command{
			habitsCommand(),
			historyCommand(),
			archiveCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("badbits error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildConfig merges defaults, the optional config file, and CLI flags.
func buildConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, err
		}
	}

	if cmd.IsSet("interval") {
		cfg.App.Interval = cmd.Duration("interval")
	}
	if cmd.IsSet("output-dir") {
		cfg.App.OutputDir = cmd.String("output-dir")
	}
	if cmd.IsSet("model") {
		cfg.Model.ID = cmd.String("model")
	}
	if cmd.Bool("track") {
		cfg.App.Track = true
	}
	if cmd.Bool("simple") {
		cfg.App.Dashboard = false
	}
	if cmd.Bool("quiet") {
		cfg.Alerts.Quiet = true
	}
	if cmd.Bool("loud") {
		cfg.Alerts.Methods = []string{
			config.MethodDramatic, config.MethodSystem, config.MethodDesktop, config.MethodSound,
		}
	}

	if cmd.IsSet("camera") {
		id, err := strconv.Atoi(cmd.String("camera"))
		if err != nil {
			return nil, fmt.Errorf("invalid camera ID %q", cmd.String("camera"))
		}
		cfg.Camera.Device = id
	}
	if s := cmd.String("backup-cameras"); s != "" {
		backups, err := parseDeviceList(s)
		if err != nil {
			return nil, err
		}
		cfg.Camera.Backups = backups
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDeviceList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid backup camera ID %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
}

// buildRegistry assembles the habit set from defaults, the custom habits
// file, and the monitoring-mode flags.
func buildRegistry(cmd *cli.Command) (*habits.Registry, error) {
	reg := habits.Defaults()
	if path := cmd.String("habits"); path != "" {
		if err := reg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	switch {
	case cmd.Bool("posture-only"):
		reg.SetEnabled("posture", true)
		reg.SetEnabled("nail_biting", false)
	case cmd.Bool("nails-only"):
		reg.SetEnabled("posture", false)
		reg.SetEnabled("nail_biting", true)
	}
	return reg, nil
}

func runMonitor(ctx context.Context, cmd *cli.Command) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.App.LogLevel)

	reg, err := buildRegistry(cmd)
	if err != nil {
		return err
	}

	methods := cfg.Alerts.Methods
	if cfg.Alerts.Quiet {
		methods = nil
	}
	dispatcher := notify.NewDispatcher(appName, methods, logger)

	source, err := camera.Open(cfg.Camera.Devices(), cfg.Camera.WarmupFrames, cfg.Camera.Retries, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	agent, err := vision.NewAgent(ctx, cfg.Model, logger)
	if err != nil {
		return err
	}
	analyzer := vision.NewAnalyzer(vision.NewAgentQuerier(agent), reg, logger)

	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionID := uuid.NewString()

	var files *archive.FileArchive
	if cfg.App.Track {
		files, err = archive.NewFileArchive(cfg.App.OutputDir)
		if err != nil {
			return err
		}
	}

	var pgArchive *archive.PostgresArchive
	if cfg.Archive.Enabled() {
		embeddings := archive.NewEmbeddingService(cfg.Model.BaseURL, cfg.Model.Port, 4)
		defer embeddings.Close()
		pgArchive, err = archive.NewPostgresArchive(ctx, cfg.Archive, embeddings, sessionID)
		if err != nil {
			return err
		}
		defer pgArchive.Close()
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	events := make(chan monitor.CheckEvent, 8)
	m := monitor.New(monitor.Options{
		Source:    source,
		Analyzer:  analyzer,
		Registry:  reg,
		Notifier:  dispatcher,
		History:   db,
		Files:     files,
		Postgres:  pgArchive,
		Interval:  cfg.App.Interval,
		SessionID: sessionID,
		Logger:    logger,
		Events:    events,
	})

	if err := m.CaptureReference(runCtx); err != nil {
		return err
	}

	g := &errgroup.Group{}

	g.Go(func() error {
		defer close(events)
		return m.Run(runCtx)
	})

	if path := cmd.String("habits"); path != "" {
		g.Go(func() error {
			return habits.Watch(runCtx, reg, path, logger)
		})
	}

	if cfg.App.Dashboard {
		g.Go(func() error {
			p := tea.NewProgram(
				dashboard.New(reg, events, cfg.App.Interval),
				tea.WithAltScreen(),
				tea.WithContext(runCtx),
			)
			_, runErr := p.Run()
			cancel()
			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return runErr
			}
			return nil
		})
	} else {
		g.Go(func() error {
			simple := &dashboard.Simple{Out: os.Stdout, Reg: reg}
			simple.RunSimple(events)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	archiveDir := ""
	if files != nil {
		archiveDir = files.Dir()
	}
	dashboard.PrintSummary(os.Stdout, reg, m.Stats(), archiveDir)
	return nil
}

func habitsCommand() *cli.Command {
	return &cli.Command{
		Name:  "habits",
		Usage: "Inspect and export habit definitions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print the configured habit checks",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "habits", Usage: "Path to a JSON file with custom habit definitions"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					reg := habits.Defaults()
					if path := cmd.String("habits"); path != "" {
						if err := reg.MergeFile(path); err != nil {
							return err
						}
					}
					for _, h := range reg.All() {
						state := "disabled"
						if h.Enabled {
							state = "enabled"
						}
						fmt.Printf("%s %-14s [%s] %s\n", h.Emoji, h.ID, state, h.Description)
					}
					return nil
				},
			},
			{
				Name:  "save",
				Usage: "Write the current habit definitions to a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Destination file", Required: true},
					&cli.StringFlag{Name: "habits", Usage: "Path to a JSON file with custom habit definitions"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					reg := habits.Defaults()
					if path := cmd.String("habits"); path != "" {
						if err := reg.MergeFile(path); err != nil {
							return err
						}
					}
					out := cmd.String("out")
					if err := reg.SaveFile(out); err != nil {
						return err
					}
					fmt.Printf("Habits configuration saved to: %s\n", out)
					return nil
				},
			},
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Query past monitoring sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to YAML config file", Sources: cli.EnvVars("BADBITS_CONFIG")},
		},
		Commands: []*cli.Command{
			{
				Name:  "summary",
				Usage: "Per-habit alert totals across all sessions",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := buildConfig(cmd)
					if err != nil {
						return err
					}
					db, err := history.Open(cfg.History.Path)
					if err != nil {
						return err
					}
					defer db.Close()

					summaries, err := db.Summary()
					if err != nil {
						return err
					}
					if len(summaries) == 0 {
						fmt.Println("No checks recorded yet.")
						return nil
					}
					for _, s := range summaries {
						fmt.Printf("%-14s %d/%d checks (%d%%)\n", s.Habit, s.Alerts, s.Checks, s.Percent())
					}
					return nil
				},
			},
			{
				Name:  "recent",
				Usage: "Most recent alerts for one habit",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "habit", Usage: "Habit ID (e.g. posture)", Required: true},
					&cli.StringFlag{Name: "limit", Usage: "Maximum results", Value: "10"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := buildConfig(cmd)
					if err != nil {
						return err
					}
					limit, err := strconv.Atoi(cmd.String("limit"))
					if err != nil || limit < 1 {
						return fmt.Errorf("invalid limit %q", cmd.String("limit"))
					}
					db, err := history.Open(cfg.History.Path)
					if err != nil {
						return err
					}
					defer db.Close()

					alerts, err := db.RecentAlerts(cmd.String("habit"), limit)
					if err != nil {
						return err
					}
					if len(alerts) == 0 {
						fmt.Println("No alerts recorded for this habit.")
						return nil
					}
					for _, a := range alerts {
						fmt.Printf("%s  %-14s %s\n", a.TakenAt.Format("2006-01-02 15:04"), a.Habit, a.Details)
					}
					return nil
				},
			},
			{
				Name:  "search",
				Usage: "Similarity search over archived detections (requires the Postgres archive)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Usage: "Search text", Required: true},
					&cli.StringFlag{Name: "limit", Usage: "Maximum results", Value: "10"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := buildConfig(cmd)
					if err != nil {
						return err
					}
					if !cfg.Archive.Enabled() {
						return fmt.Errorf("history search requires the Postgres archive; set archive.host in the config")
					}
					limit, err := strconv.Atoi(cmd.String("limit"))
					if err != nil || limit < 1 {
						return fmt.Errorf("invalid limit %q", cmd.String("limit"))
					}

					embeddings := archive.NewEmbeddingService(cfg.Model.BaseURL, cfg.Model.Port, 2)
					defer embeddings.Close()
					pg, err := archive.NewPostgresArchive(ctx, cfg.Archive, embeddings, "")
					if err != nil {
						return err
					}
					defer pg.Close()

					hits, err := pg.SearchSimilar(ctx, cmd.String("query"), limit)
					if err != nil {
						return err
					}
					for _, h := range hits {
						fmt.Printf("%.2f  %s  %-14s %s\n", h.Similarity, h.TakenAt.Format("2006-01-02 15:04"), h.Habit, h.Details)
					}
					return nil
				},
			},
		},
	}
}

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Manage the optional Postgres archive",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to YAML config file", Sources: cli.EnvVars("BADBITS_CONFIG")},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create the archive schema and pgvector extension",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := buildConfig(cmd)
					if err != nil {
						return err
					}
					if !cfg.Archive.Enabled() {
						return fmt.Errorf("archive init requires archive settings in the config")
					}
					if err := archive.InitSchema(ctx, cfg.Archive); err != nil {
						return err
					}
					fmt.Println("Archive schema ready.")
					return nil
				},
			},
		},
	}
}
