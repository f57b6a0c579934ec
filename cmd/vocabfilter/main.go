// Command vocabfilter is the interactive vocab list filter.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/vocabfilter/internal/config"
	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/controller/controllers"
	"github.com/abelbrown/vocabfilter/internal/logging"
	"github.com/abelbrown/vocabfilter/internal/otel"
	"github.com/abelbrown/vocabfilter/internal/store"
	"github.com/abelbrown/vocabfilter/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.Data.LogDir, cfg.Log.Level); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	err = run(context.Background(), cfg)
	if err != nil {
		logging.Error("vocabfilter failed", "error", err)
	}
	logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vocabfilter: %v\n", err)
		os.Exit(1)
	}
}

// run wires the store, controllers and UI and blocks until the UI exits.
// Every resource it opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config) error {
	if cfg.UI.Trace {
		otel.EnableTrace()
	}

	// Event log + ring buffer for the debug overlay
	events, closeEvents := openEventLog(cfg.Data.EventLog)
	defer closeEvents()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "vocabfilter starting")

	if err := os.MkdirAll(filepath.Dir(cfg.Data.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.Open(cfg.Data.DBPath)
	if err != nil {
		events.Error(otel.KindStoreError, "main", err)
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()
	logging.Info("Store initialized", "path", cfg.Data.DBPath)

	if n, err := st.Seed(ctx); err != nil {
		events.Error(otel.KindStoreError, "main", err)
		return fmt.Errorf("seed database: %w", err)
	} else if n > 0 {
		events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStoreSeed, Comp: "main", Count: n})
	}

	cats, err := st.Categories(ctx)
	if err != nil {
		events.Error(otel.KindStoreError, "main", err)
		return fmt.Errorf("load categories: %w", err)
	}

	initial, err := cfg.Criteria(ctx, st)
	if err != nil {
		logging.Warn("Ignoring default category", "error", err)
	}

	filter := controller.New(initial, controller.WithEventLogger(events))
	list := controllers.NewVocabListController(st, controllers.VocabListConfig{
		Limit:            cfg.UI.Limit,
		QueriesPerSecond: cfg.UI.QueriesPerSecond,
	}, events)
	logging.Info("Filter initialized", "criteria", initial.String())

	app := ui.NewAppWithConfig(ui.AppConfig{
		Filter:     filter,
		List:       list,
		Categories: cats,
		Obs:        ui.ObsConfig{Ring: ring, Logger: events},
	})
	defer app.Close()

	logging.Info("Starting UI")
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		events.Error(otel.KindError, "main", err)
		logging.Error("Application error", "error", err)
	}

	events.Info(otel.KindShutdown, "main", "vocabfilter exiting")
	logging.Info("vocabfilter exiting normally", "criteria", filter.Snapshot().String())
	return nil
}

// openEventLog opens the JSONL event log for appending. An empty path or an
// open failure yields a logger that discards events.
func openEventLog(path string) (*otel.Logger, func()) {
	if path == "" {
		l := otel.NewNullLogger()
		return l, l.Close
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logging.Warn("Event log disabled", "error", err)
		l := otel.NewNullLogger()
		return l, l.Close
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Warn("Event log disabled", "error", err)
		l := otel.NewNullLogger()
		return l, l.Close
	}
	l := otel.NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}
}
