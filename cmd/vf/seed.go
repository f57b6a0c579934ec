package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/abelbrown/vocabfilter/internal/store"
)

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	err := seed(context.Background(), st, cfg.Data.DBPath)
	st.Close()
	exitOnErr("seed", err)
}

func seed(ctx context.Context, st *store.Store, path string) error {
	n, err := st.Seed(ctx)
	if err != nil {
		return err
	}
	total, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}

	if n == 0 {
		fmt.Printf("Database already holds %s entries; nothing seeded.\n", humanize.Comma(int64(total)))
		return nil
	}
	fmt.Printf("Seeded %s entries into %s\n", humanize.Comma(int64(n)), path)
	return nil
}
