package store

import (
	"context"
	"errors"
	"testing"

	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/model"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func category(t *testing.T, s *Store, id int64) *model.Category {
	t.Helper()
	c, err := s.CategoryByID(context.Background(), id)
	if err != nil {
		t.Fatalf("CategoryByID(%d): %v", id, err)
	}
	return c
}

func ids(items []model.Vocab) []int64 {
	out := make([]int64, len(items))
	for i, v := range items {
		out[i] = v.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpenEmpty(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	added, err := s.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if added != SampleSize {
		t.Errorf("first Seed added %d, want %d", added, SampleSize)
	}

	added, err = s.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if added != 0 {
		t.Errorf("second Seed added %d, want 0", added)
	}

	n, _ := s.Count(ctx)
	if n != SampleSize {
		t.Errorf("Count = %d, want %d", n, SampleSize)
	}
}

func TestCategoriesStableTokens(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	first, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	second, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(first) != len(sampleCategories) {
		t.Fatalf("got %d categories, want %d", len(first), len(sampleCategories))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("category %d: token changed between calls", first[i].ID)
		}
	}

	// Relabeling keeps identity.
	food := category(t, s, CatFood)
	n, err := s.SaveCategories(ctx, []model.Category{{ID: CatFood, Label: "Food", ShortName: "food"}})
	if err != nil {
		t.Fatalf("SaveCategories: %v", err)
	}
	if n != 0 {
		t.Errorf("relabel reported %d new categories", n)
	}
	if got := category(t, s, CatFood); got != food {
		t.Error("relabel replaced the token")
	}
	if food.Label != "Food" {
		t.Errorf("Label = %q, want %q", food.Label, "Food")
	}
}

func TestCategoryByName(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	for _, name := range []string{"food", "FOOD", "Food & drink", " food "} {
		c, err := s.CategoryByName(ctx, name)
		if err != nil {
			t.Errorf("CategoryByName(%q): %v", name, err)
			continue
		}
		if c.ID != CatFood {
			t.Errorf("CategoryByName(%q) = %d, want %d", name, c.ID, CatFood)
		}
	}

	if _, err := s.CategoryByName(ctx, "sports"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown name: err = %v, want ErrNotFound", err)
	}
	if _, err := s.CategoryByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestQueryConstraints(t *testing.T) {
	s := seeded(t)

	tests := []struct {
		name  string
		crit  func() controller.Criteria
		total int
	}{
		{"no constraints", func() controller.Criteria { return controller.Criteria{} }, SampleSize},
		{"reading kana", func() controller.Criteria { return controller.Criteria{ReadingText: "たべ"} }, 1},
		{"reading kanji", func() controller.Criteria { return controller.Criteria{ReadingText: "食"} }, 2},
		{"meaning case-insensitive", func() controller.Criteria { return controller.Criteria{MeaningText: "To "} }, 6},
		{"meaning percent is literal", func() controller.Criteria { return controller.Criteria{MeaningText: "%"} }, 0},
		{"meaning underscore is literal", func() controller.Criteria { return controller.Criteria{MeaningText: "_"} }, 0},
		{"category", func() controller.Criteria { return controller.Criteria{Category: category(t, s, CatFood)} }, 7},
		{"jlpt N3 and easier", func() controller.Criteria { return controller.Criteria{JLPTLevel: 3} }, 22},
		{"jlpt N5 only", func() controller.Criteria { return controller.Criteria{JLPTLevel: 5} }, 17},
		{"wk up to 5", func() controller.Criteria { return controller.Criteria{WKLevel: 5} }, 9},
		{"category and jlpt", func() controller.Criteria {
			return controller.Criteria{Category: category(t, s, CatNature), JLPTLevel: 5}
		}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := s.Query(context.Background(), tt.crit(), 0)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if total != tt.total {
				t.Errorf("total = %d, want %d", total, tt.total)
			}
			if len(items) != tt.total {
				t.Errorf("len(items) = %d, want %d", len(items), tt.total)
			}
		})
	}
}

func TestQueryOrdering(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	timeCat := category(t, s, CatTime)
	food := category(t, s, CatFood)

	tests := []struct {
		name string
		crit controller.Criteria
		want []int64
	}{
		{
			name: "long readings first",
			crit: controller.Criteria{Category: timeCat},
			want: []int64{19, 16, 17, 18, 20},
		},
		{
			name: "short readings first",
			crit: controller.Criteria{Category: timeCat, ShortReadingFirst: true},
			want: []int64{16, 17, 18, 20, 19},
		},
		{
			name: "length only",
			crit: controller.Criteria{Category: food},
			want: []int64{25, 6, 1, 4, 5, 2, 3},
		},
		{
			name: "common first",
			crit: controller.Criteria{Category: food, CommonFirst: true},
			want: []int64{6, 1, 4, 5, 2, 3, 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, _, err := s.Query(ctx, tt.crit, 0)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if got := ids(items); !equalIDs(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryLimit(t *testing.T) {
	s := seeded(t)

	items, total, err := s.Query(context.Background(), controller.Criteria{}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("len(items) = %d, want 5", len(items))
	}
	if total != SampleSize {
		t.Errorf("total = %d, want %d (count ignores limit)", total, SampleSize)
	}
}

func TestQueryAttachesCategories(t *testing.T) {
	s := seeded(t)

	items, _, err := s.Query(context.Background(), controller.Criteria{ReadingText: "たべる"}, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if !equalIDs(items[0].CategoryIDs, []int64{CatFood, CatVerbs}) {
		t.Errorf("CategoryIDs = %v", items[0].CategoryIDs)
	}
	if !items[0].IsCommon || items[0].JLPTLevel != 5 {
		t.Errorf("scalar fields not loaded: %+v", items[0])
	}
}

func TestSaveVocabRelinksCategories(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	moved := sampleVocab[0]
	moved.CategoryIDs = []int64{CatTime}
	n, err := s.SaveVocab(ctx, []model.Vocab{moved})
	if err != nil {
		t.Fatalf("SaveVocab: %v", err)
	}
	if n != 0 {
		t.Errorf("update reported %d new entries", n)
	}

	items, _, err := s.Query(ctx, controller.Criteria{Category: category(t, s, CatFood)}, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, v := range items {
		if v.ID == moved.ID {
			t.Errorf("vocab %d still linked to food", moved.ID)
		}
	}
}

func TestQueryCancelledContext(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := s.Query(ctx, controller.Criteria{}, 0); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct{ in, want string }{
		{"abc", "%abc%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\`, `%c:\\%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
