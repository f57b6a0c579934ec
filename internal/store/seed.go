package store

import (
	"context"
	"fmt"

	"github.com/abelbrown/vocabfilter/internal/logging"
	"github.com/abelbrown/vocabfilter/internal/model"
)

// Category IDs of the built-in sample dictionary.
const (
	CatFood int64 = iota + 1
	CatNature
	CatPeople
	CatTime
	CatVerbs
)

var sampleCategories = []model.Category{
	{ID: CatFood, Label: "Food & drink", ShortName: "food"},
	{ID: CatNature, Label: "Nature", ShortName: "nature"},
	{ID: CatPeople, Label: "People", ShortName: "people"},
	{ID: CatTime, Label: "Time", ShortName: "time"},
	{ID: CatVerbs, Label: "Common verbs", ShortName: "verbs"},
}

var sampleVocab = []model.Vocab{
	{ID: 1, KanjiWriting: "食べる", KanaWriting: "たべる", Meaning: "to eat", IsCommon: true, JLPTLevel: 5, WKLevel: 5, CategoryIDs: []int64{CatFood, CatVerbs}},
	{ID: 2, KanjiWriting: "飲む", KanaWriting: "のむ", Meaning: "to drink", IsCommon: true, JLPTLevel: 5, WKLevel: 6, CategoryIDs: []int64{CatFood, CatVerbs}},
	{ID: 3, KanjiWriting: "水", KanaWriting: "みず", Meaning: "water", IsCommon: true, JLPTLevel: 5, WKLevel: 2, CategoryIDs: []int64{CatFood, CatNature}},
	{ID: 4, KanjiWriting: "魚", KanaWriting: "さかな", Meaning: "fish", IsCommon: true, JLPTLevel: 5, WKLevel: 8, CategoryIDs: []int64{CatFood, CatNature}},
	{ID: 5, KanjiWriting: "卵", KanaWriting: "たまご", Meaning: "egg", IsCommon: true, JLPTLevel: 5, WKLevel: 14, CategoryIDs: []int64{CatFood}},
	{ID: 6, KanjiWriting: "果物", KanaWriting: "くだもの", Meaning: "fruit", IsCommon: true, JLPTLevel: 5, WKLevel: 20, CategoryIDs: []int64{CatFood, CatNature}},
	{ID: 7, KanjiWriting: "山", KanaWriting: "やま", Meaning: "mountain", IsCommon: true, JLPTLevel: 5, WKLevel: 1, CategoryIDs: []int64{CatNature}},
	{ID: 8, KanjiWriting: "川", KanaWriting: "かわ", Meaning: "river", IsCommon: true, JLPTLevel: 5, WKLevel: 1, CategoryIDs: []int64{CatNature}},
	{ID: 9, KanjiWriting: "森", KanaWriting: "もり", Meaning: "forest", IsCommon: true, JLPTLevel: 3, WKLevel: 7, CategoryIDs: []int64{CatNature}},
	{ID: 10, KanjiWriting: "紅葉", KanaWriting: "こうよう", Meaning: "autumn leaves", IsCommon: false, JLPTLevel: 1, WKLevel: 0, CategoryIDs: []int64{CatNature}},
	{ID: 11, KanjiWriting: "友達", KanaWriting: "ともだち", Meaning: "friend", IsCommon: true, JLPTLevel: 5, WKLevel: 9, CategoryIDs: []int64{CatPeople}},
	{ID: 12, KanjiWriting: "先生", KanaWriting: "せんせい", Meaning: "teacher; doctor", IsCommon: true, JLPTLevel: 5, WKLevel: 3, CategoryIDs: []int64{CatPeople}},
	{ID: 13, KanjiWriting: "家族", KanaWriting: "かぞく", Meaning: "family", IsCommon: true, JLPTLevel: 4, WKLevel: 11, CategoryIDs: []int64{CatPeople}},
	{ID: 14, KanjiWriting: "大人", KanaWriting: "おとな", Meaning: "adult", IsCommon: true, JLPTLevel: 5, WKLevel: 2, CategoryIDs: []int64{CatPeople}},
	{ID: 15, KanjiWriting: "", KanaWriting: "おじいさん", Meaning: "grandfather; old man", IsCommon: true, JLPTLevel: 5, WKLevel: 0, CategoryIDs: []int64{CatPeople}},
	{ID: 16, KanjiWriting: "今日", KanaWriting: "きょう", Meaning: "today", IsCommon: true, JLPTLevel: 5, WKLevel: 4, CategoryIDs: []int64{CatTime}},
	{ID: 17, KanjiWriting: "明日", KanaWriting: "あした", Meaning: "tomorrow", IsCommon: true, JLPTLevel: 5, WKLevel: 6, CategoryIDs: []int64{CatTime}},
	{ID: 18, KanjiWriting: "時間", KanaWriting: "じかん", Meaning: "time; hours", IsCommon: true, JLPTLevel: 5, WKLevel: 4, CategoryIDs: []int64{CatTime}},
	{ID: 19, KanjiWriting: "週末", KanaWriting: "しゅうまつ", Meaning: "weekend", IsCommon: true, JLPTLevel: 4, WKLevel: 13, CategoryIDs: []int64{CatTime}},
	{ID: 20, KanjiWriting: "昔", KanaWriting: "むかし", Meaning: "olden days; former times", IsCommon: true, JLPTLevel: 3, WKLevel: 17, CategoryIDs: []int64{CatTime}},
	{ID: 21, KanjiWriting: "行く", KanaWriting: "いく", Meaning: "to go", IsCommon: true, JLPTLevel: 5, WKLevel: 4, CategoryIDs: []int64{CatVerbs}},
	{ID: 22, KanjiWriting: "待つ", KanaWriting: "まつ", Meaning: "to wait", IsCommon: true, JLPTLevel: 5, WKLevel: 12, CategoryIDs: []int64{CatVerbs}},
	{ID: 23, KanjiWriting: "調べる", KanaWriting: "しらべる", Meaning: "to investigate; to look up", IsCommon: true, JLPTLevel: 4, WKLevel: 16, CategoryIDs: []int64{CatVerbs}},
	{ID: 24, KanjiWriting: "承る", KanaWriting: "うけたまわる", Meaning: "to hear; to be told (humble)", IsCommon: false, JLPTLevel: 1, WKLevel: 38, CategoryIDs: []int64{CatVerbs}},
	{ID: 25, KanjiWriting: "食卓", KanaWriting: "しょくたく", Meaning: "dining table", IsCommon: false, JLPTLevel: 0, WKLevel: 27, CategoryIDs: []int64{CatFood}},
}

// SampleSize is the number of vocab entries Seed loads.
var SampleSize = len(sampleVocab)

// Seed loads the built-in sample dictionary when the store holds no vocab.
// Returns the number of entries inserted (0 if the store was not empty).
func (s *Store) Seed(ctx context.Context) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Debug("seed skipped", "existing", n)
		return 0, nil
	}

	if _, err := s.SaveCategories(ctx, sampleCategories); err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}
	added, err := s.SaveVocab(ctx, sampleVocab)
	if err != nil {
		return 0, fmt.Errorf("seed vocab: %w", err)
	}

	logging.Info("seeded sample dictionary", "vocab", added, "categories", len(sampleCategories))
	return added, nil
}
