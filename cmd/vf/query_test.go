package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abelbrown/vocabfilter/internal/config"
	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/store"
)

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps([]string{"reading=た", "commit-reading", "JLPT=3", "Toggle-Common-First"})
	if err != nil {
		t.Fatalf("parseSteps: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("got %d steps, want 4", len(steps))
	}

	want := []string{"reading=た", "commit-reading", "jlpt=3", "toggle-common-first"}
	for i, s := range steps {
		if s.String() != want[i] {
			t.Errorf("step %d = %q, want %q", i, s, want[i])
		}
	}
	if !steps[0].set || steps[1].set {
		t.Error("assignment/action kinds mixed up")
	}
}

func TestParseStepsErrors(t *testing.T) {
	if _, err := parseSteps([]string{"colour=red"}); !errors.Is(err, controller.ErrUnknownField) {
		t.Errorf("unknown field: err = %v", err)
	}
	if _, err := parseSteps([]string{"commit-everything"}); !errors.Is(err, controller.ErrUnknownAction) {
		t.Errorf("unknown action: err = %v", err)
	}
}

func TestSetField(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()
	if _, err := s.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st := controller.NewFilterState(controller.Criteria{})
	set := func(f controller.Field, v string) bool {
		t.Helper()
		changed, err := setField(ctx, st, f, v, s)
		if err != nil {
			t.Fatalf("setField(%v, %q): %v", f, v, err)
		}
		return changed
	}

	if !set(controller.FieldReadingText, "た") || set(controller.FieldReadingText, "た") {
		t.Error("reading: want changed then unchanged")
	}
	if !set(controller.FieldCategory, "food") || st.Category() == nil || st.Category().ShortName != "food" {
		t.Error("category not resolved")
	}
	if !set(controller.FieldCategory, "any") || st.Category() != nil {
		t.Error("category=any should clear")
	}
	if !set(controller.FieldJLPTLevel, "N3") || st.JLPTLevel() != 3 {
		t.Errorf("jlpt = %d, want 3", st.JLPTLevel())
	}
	if !set(controller.FieldWKLevel, "12") || st.WKLevel() != 12 {
		t.Errorf("wk = %d, want 12", st.WKLevel())
	}
	if !set(controller.FieldShortReadingFirst, "true") || !st.ShortReadingFirst() {
		t.Error("short-reading-first not set")
	}

	if _, err := setField(ctx, st, controller.FieldJLPTLevel, "7", s); err == nil {
		t.Error("jlpt 7 should be rejected")
	}
	if _, err := setField(ctx, st, controller.FieldCommonFirst, "maybe", s); err == nil {
		t.Error("bad bool should be rejected")
	}
	if _, err := setField(ctx, st, controller.FieldCategory, "sports", s); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown category: err = %v", err)
	}
}

func TestDescribeEffects(t *testing.T) {
	eff := controller.Effects{
		Action:   controller.ActionClearCategory,
		Changed:  []controller.Field{controller.FieldCategory},
		Notified: true,
	}
	if got, want := describeEffects(eff), " (changed: category) -> filter changed"; got != want {
		t.Errorf("describeEffects = %q, want %q", got, want)
	}
	if got := describeEffects(controller.Effects{}); got != "" {
		t.Errorf("empty effects = %q", got)
	}
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestRunStepsPrintsFieldChangesAndTags(t *testing.T) {
	s := seededStore(t)
	steps, err := parseSteps([]string{"reading=たべ", "commit-reading"})
	if err != nil {
		t.Fatalf("parseSteps: %v", err)
	}

	var out bytes.Buffer
	if err := runSteps(context.Background(), &out, config.DefaultConfig(), s, nil, steps, queryOptions{limit: 5}); err != nil {
		t.Fatalf("runSteps: %v", err)
	}

	for _, want := range []string{
		`~ reading -> reading="たべ"`,
		"Constrained by: reading",
		"1 match (showing 1)",
		"食べる",
		"[food verbs]",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunStepsReturnsStepError(t *testing.T) {
	s := seededStore(t)
	steps, err := parseSteps([]string{"jlpt=9", "commit-levels"})
	if err != nil {
		t.Fatalf("parseSteps: %v", err)
	}

	var out bytes.Buffer
	err = runSteps(context.Background(), &out, config.DefaultConfig(), s, nil, steps, queryOptions{limit: 5})
	if err == nil || !strings.Contains(err.Error(), "jlpt=9") {
		t.Fatalf("err = %v, want error naming jlpt=9", err)
	}
	if strings.Contains(out.String(), "Criteria:") {
		t.Errorf("no query should run after a failed step:\n%s", out.String())
	}
}

func TestPrintResultsClosedStore(t *testing.T) {
	s := seededStore(t)
	s.Close()

	var out bytes.Buffer
	if err := printResults(context.Background(), &out, s, controller.Criteria{}, 5); err == nil {
		t.Error("query on closed store should return an error")
	}
}

func TestActiveFields(t *testing.T) {
	if got := activeFields(controller.Criteria{CommonFirst: true}); got != "none" {
		t.Errorf("ordering-only criteria = %q, want none", got)
	}
	c := controller.Criteria{ReadingText: "た", JLPTLevel: 3, WKLevel: controller.LevelAny}
	if got := activeFields(c); got != "reading, jlpt" {
		t.Errorf("activeFields = %q, want %q", got, "reading, jlpt")
	}
}
