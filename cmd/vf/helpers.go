package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abelbrown/vocabfilter/internal/config"
	"github.com/abelbrown/vocabfilter/internal/store"
)

// loadConfig loads the config file or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// openDB opens the configured store or fatals.
func openDB(cfg *config.Config) *store.Store {
	if err := os.MkdirAll(filepath.Dir(cfg.Data.DBPath), 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	st, err := store.Open(cfg.Data.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// exitOnErr reports err and exits 1. Callers release their resources
// before calling it, since os.Exit skips deferred calls.
func exitOnErr(cmd string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "vf %s: %v\n", cmd, err)
	os.Exit(1)
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
