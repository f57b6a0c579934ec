package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/abelbrown/vocabfilter/internal/controller"
	"github.com/abelbrown/vocabfilter/internal/model"
)

// Query returns up to limit vocab entries matching c, plus the number of
// matches before the limit. limit <= 0 means no limit.
//
// Active constraints are ANDed:
//   - ReadingText: substring of the kana or kanji writing
//   - MeaningText: substring of the meaning (ASCII case-insensitive)
//   - Category: the vocab is tagged with that category
//   - JLPTLevel: the vocab has a JLPT level >= the bound (N3 keeps N3..N5)
//   - WKLevel: the vocab is taught at WaniKani level 1..bound
//
// Results are ordered common-first (when requested), then by reading
// length (ascending with ShortReadingFirst, descending otherwise), then ID.
//
// Thread-safe: acquires read lock.
func (s *Store) Query(ctx context.Context, c controller.Criteria, limit int) ([]model.Vocab, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := whereClause(c)

	var total int
	countSQL := "SELECT COUNT(*) FROM vocab v" + where
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := `
		SELECT v.id, v.kanji_writing, v.kana_writing, v.meaning, v.is_common, v.jlpt_level, v.wk_level
		FROM vocab v` + where + orderClause(c)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	items, err := s.queryVocab(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachCategories(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func whereClause(c controller.Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if c.ReadingText != "" {
		pat := likePattern(c.ReadingText)
		conds = append(conds, `(v.kana_writing LIKE ? ESCAPE '\' OR v.kanji_writing LIKE ? ESCAPE '\')`)
		args = append(args, pat, pat)
	}
	if c.MeaningText != "" {
		conds = append(conds, `v.meaning LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(c.MeaningText))
	}
	if c.Category != nil {
		conds = append(conds, `EXISTS (SELECT 1 FROM vocab_categories vc WHERE vc.vocab_id = v.id AND vc.category_id = ?)`)
		args = append(args, c.Category.ID)
	}
	if c.JLPTLevel != controller.LevelAny {
		conds = append(conds, `v.jlpt_level >= ?`)
		args = append(args, c.JLPTLevel)
	}
	if c.WKLevel != controller.LevelAny {
		conds = append(conds, `v.wk_level BETWEEN 1 AND ?`)
		args = append(args, c.WKLevel)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(c controller.Criteria) string {
	var keys []string
	if c.CommonFirst {
		keys = append(keys, "v.is_common DESC")
	}
	if c.ShortReadingFirst {
		keys = append(keys, "LENGTH(v.kana_writing) ASC")
	} else {
		keys = append(keys, "LENGTH(v.kana_writing) DESC")
	}
	keys = append(keys, "v.id ASC")
	return " ORDER BY " + strings.Join(keys, ", ")
}

// likePattern wraps s in % wildcards, escaping LIKE metacharacters.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// queryVocab executes a query and scans results into Vocab.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) queryVocab(ctx context.Context, query string, args ...any) ([]model.Vocab, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vocab: %w", err)
	}
	defer rows.Close()

	var items []model.Vocab
	for rows.Next() {
		var v model.Vocab
		var common int
		err := rows.Scan(&v.ID, &v.KanjiWriting, &v.KanaWriting, &v.Meaning, &common, &v.JLPTLevel, &v.WKLevel)
		if err != nil {
			return nil, err
		}
		v.IsCommon = common != 0
		items = append(items, v)
	}
	return items, rows.Err()
}

// attachCategories fills CategoryIDs for items in one query.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) attachCategories(ctx context.Context, items []model.Vocab) error {
	if len(items) == 0 {
		return nil
	}

	index := make(map[int64]int, len(items))
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i, v := range items {
		index[v.ID] = i
		placeholders[i] = "?"
		args[i] = v.ID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT vocab_id, category_id FROM vocab_categories WHERE vocab_id IN ("+
			strings.Join(placeholders, ",")+") ORDER BY vocab_id, category_id", args...)
	if err != nil {
		return fmt.Errorf("query vocab categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vid, cid int64
		if err := rows.Scan(&vid, &cid); err != nil {
			return err
		}
		if i, ok := index[vid]; ok {
			items[i].CategoryIDs = append(items[i].CategoryIDs, cid)
		}
	}
	return rows.Err()
}
