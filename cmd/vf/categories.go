package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/store"
)

func runCategories() {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	err := listCategories(context.Background(), st)
	st.Close()
	exitOnErr("categories", err)
}

func listCategories(ctx context.Context, st *store.Store) error {
	cats, err := st.Categories(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Println("No categories. Run 'vf seed' first.")
		return nil
	}

	fmt.Printf("%-4s  %-10s  %-24s  %s\n", "ID", "NAME", "LABEL", "VOCAB")
	fmt.Println(strings.Repeat("-", 50))
	for _, c := range cats {
		_, n, err := st.Query(ctx, controller.Criteria{Category: c}, 1)
		if err != nil {
			return fmt.Errorf("count %s: %w", c, err)
		}
		fmt.Printf("%-4d  %-10s  %-24s  %s\n", c.ID, c.ShortName, truncate(c.Label, 24), humanize.Comma(int64(n)))
	}
	return nil
}
