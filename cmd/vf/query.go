package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abelbrown/vocabfilter/internal/config"
	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/model"
	"github.com/abelbrown/vocabfilter/internal/otel"
	"github.com/abelbrown/vocabfilter/internal/store"
)

const queryUsage = `usage: vf query [flags] [step...]

Each step is either a field assignment or an action, applied in order:

  reading=たべ  meaning=water  category=food  jlpt=3  wk=10
  common-first=true  short-reading-first=false
  commit-reading  commit-meaning  commit-category  clear-category
  toggle-common-first  toggle-short-reading-first  commit-levels

Assignments write the filter state; only actions re-run the query.
With no steps the initial criteria are queried once.

Flags:
`

// step is one query script entry.
type step struct {
	set    bool // assignment when true, action otherwise
	field  controller.Field
	value  string
	action controller.Action
}

func (s step) String() string {
	if s.set {
		return s.field.String() + "=" + s.value
	}
	return s.action.String()
}

// parseSteps parses "field=value" assignments and action names.
func parseSteps(args []string) ([]step, error) {
	steps := make([]step, 0, len(args))
	for _, arg := range args {
		if name, value, ok := strings.Cut(arg, "="); ok {
			f, err := controller.ParseField(name)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step{set: true, field: f, value: value})
			continue
		}
		a, err := controller.ParseAction(arg)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step{action: a})
	}
	return steps, nil
}

// setField writes value to field f through the state's typed setter and
// reports whether the stored value changed.
func setField(ctx context.Context, st *controller.FilterState, f controller.Field, value string, r config.CategoryResolver) (bool, error) {
	switch f {
	case controller.FieldReadingText:
		return st.SetReadingText(value), nil
	case controller.FieldMeaningText:
		return st.SetMeaningText(value), nil
	case controller.FieldCategory:
		if value == "" || strings.EqualFold(value, "any") {
			return st.SetCategory(nil), nil
		}
		c, err := r.CategoryByName(ctx, value)
		if err != nil {
			return false, err
		}
		return st.SetCategory(c), nil
	case controller.FieldJLPTLevel:
		n, err := parseLevel(value, config.MaxJLPTLevel)
		if err != nil {
			return false, fmt.Errorf("jlpt: %w", err)
		}
		return st.SetJLPTLevel(n), nil
	case controller.FieldWKLevel:
		n, err := parseLevel(value, config.MaxWKLevel)
		if err != nil {
			return false, fmt.Errorf("wk: %w", err)
		}
		return st.SetWKLevel(n), nil
	case controller.FieldCommonFirst:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("common-first: %w", err)
		}
		return st.SetCommonFirst(b), nil
	case controller.FieldShortReadingFirst:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("short-reading-first: %w", err)
		}
		return st.SetShortReadingFirst(b), nil
	}
	return false, fmt.Errorf("%w: %v", controller.ErrUnknownField, f)
}

// parseLevel parses a level bound; "any" and "0" mean LevelAny.
func parseLevel(s string, max int) (int, error) {
	if strings.EqualFold(s, "any") {
		return controller.LevelAny, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s), "N"))
	if err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("level %d out of range 0..%d", n, max)
	}
	return n, nil
}

// queryOptions are the parsed flags of vf query.
type queryOptions struct {
	limit    int
	defaults bool
	trace    bool
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	var opts queryOptions
	fs.IntVar(&opts.limit, "limit", 20, "Max rows printed per query")
	fs.BoolVar(&opts.defaults, "defaults", false, "Start from the [filter] section of the config")
	fs.BoolVar(&opts.trace, "trace", false, "Write filter and query events to stderr as JSONL")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, queryUsage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	steps, err := parseSteps(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "vf query: %v\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	st := openDB(cfg)
	var events *otel.Logger
	if opts.trace {
		events = otel.NewLogger(os.Stderr)
	}

	err = runSteps(context.Background(), os.Stdout, cfg, st, events, steps, opts)
	events.Close()
	st.Close()
	exitOnErr("query", err)
}

// runSteps applies steps to a fresh filter controller and prints the
// results of every refresh the steps trigger.
func runSteps(ctx context.Context, w io.Writer, cfg *config.Config, st *store.Store, events *otel.Logger, steps []step, opts queryOptions) error {
	var initial controller.Criteria
	if opts.defaults {
		var err error
		initial, err = cfg.Criteria(ctx, st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	fc := controller.New(initial, controller.WithEventLogger(events))

	var pending []controller.Criteria
	subs := []controller.Subscription{
		fc.OnFilterChanged(func() {
			pending = append(pending, fc.Snapshot())
		}),
		fc.State().OnFieldChanged(func(ch controller.FieldChange) {
			fmt.Fprintf(w, "  ~ %s -> %s\n", ch.Field, ch.Criteria)
		}),
	}
	defer func() {
		for _, sub := range subs {
			fc.Unsubscribe(sub)
		}
	}()

	if len(steps) == 0 {
		return printResults(ctx, w, st, fc.Snapshot(), opts.limit)
	}

	for _, s := range steps {
		if s.set {
			fmt.Fprintf(w, "» %s\n", s)
			changed, err := setField(ctx, fc.State(), s.field, s.value, st)
			if err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
			if !changed {
				fmt.Fprintln(w, "  (unchanged)")
			}
			continue
		}

		eff := fc.Apply(s.action)
		fmt.Fprintf(w, "» %s%s\n", s, describeEffects(eff))
		for _, c := range pending {
			if err := printResults(ctx, w, st, c, opts.limit); err != nil {
				return err
			}
		}
		pending = pending[:0]
	}
	return nil
}

func describeEffects(eff controller.Effects) string {
	var parts []string
	for _, f := range eff.Changed {
		parts = append(parts, f.String())
	}
	out := ""
	if len(parts) > 0 {
		out = " (changed: " + strings.Join(parts, ", ") + ")"
	}
	if eff.Notified {
		out += " -> filter changed"
	}
	return out
}

// activeFields names the constraining fields of c, or "none".
func activeFields(c controller.Criteria) string {
	active := c.Active()
	if len(active) == 0 {
		return "none"
	}
	names := make([]string, len(active))
	for i, f := range active {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}

// categoryTags renders the short names of v's categories, e.g. "[food verbs]".
func categoryTags(ctx context.Context, st *store.Store, v model.Vocab) (string, error) {
	if len(v.CategoryIDs) == 0 {
		return "", nil
	}
	names := make([]string, 0, len(v.CategoryIDs))
	for _, id := range v.CategoryIDs {
		c, err := st.CategoryByID(ctx, id)
		if err != nil {
			return "", err
		}
		names = append(names, c.String())
	}
	return "[" + strings.Join(names, " ") + "]", nil
}

func printResults(ctx context.Context, w io.Writer, st *store.Store, c controller.Criteria, limit int) error {
	start := time.Now()
	items, total, err := st.Query(ctx, c, limit)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	dur := time.Since(start)

	fmt.Fprintf(w, "\nCriteria: %s\n", c)
	fmt.Fprintf(w, "Constrained by: %s\n", activeFields(c))
	fmt.Fprintf(w, "%s %s (showing %d) in %s\n", humanize.Comma(int64(total)), plural(total, "match", "matches"), len(items), dur.Round(time.Microsecond))
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, v := range items {
		mark := " "
		if v.IsCommon {
			mark = "●"
		}
		reading := ""
		if v.KanjiWriting != "" {
			reading = v.KanaWriting
		}
		tags, err := categoryTags(ctx, st, v)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %-8s %-10s %-36s %-10s %s\n", mark, v.Writing(), reading, truncate(v.Meaning, 36), v.Levels(), tags)
	}
	fmt.Fprintln(w)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
