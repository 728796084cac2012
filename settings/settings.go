// Package settings holds the engine tuning knobs: conversion costs,
// reranker weights, history boosting and candidate limits.
//
// Defaults are embedded; a custom YAML document can be installed with
// InitCustom before the first Get call. After that the settings are an
// immutable process-wide singleton.
package settings

import (
	"fmt"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings bundles all tunable engine parameters.
type Settings struct {
	Cost       CostSettings      `yaml:"cost"`
	Reranker   RerankerSettings  `yaml:"reranker"`
	History    HistorySettings   `yaml:"history"`
	Candidates CandidateSettings `yaml:"candidates"`
	Session    SessionSettings   `yaml:"session"`
	Keymap     map[string][]string `yaml:"keymap"`

	keymapParsed []keymapEntry
}

type CostSettings struct {
	SegmentPenalty   int64 `yaml:"segment_penalty"`
	MixedScriptBonus int64 `yaml:"mixed_script_bonus"`
	KatakanaPenalty  int64 `yaml:"katakana_penalty"`
	PureKanjiBonus   int64 `yaml:"pure_kanji_bonus"`
	LatinPenalty     int64 `yaml:"latin_penalty"`
	UnknownWordCost  int16 `yaml:"unknown_word_cost"`
}

type RerankerSettings struct {
	LengthVarianceWeight int64 `yaml:"length_variance_weight"`
	StructureCostFilter  int64 `yaml:"structure_cost_filter"`
}

type HistorySettings struct {
	BoostPerUse   int64   `yaml:"boost_per_use"`
	MaxBoost      int64   `yaml:"max_boost"`
	HalfLifeHours float64 `yaml:"half_life_hours"`
	MaxUnigrams   int     `yaml:"max_unigrams"`
	MaxBigrams    int     `yaml:"max_bigrams"`
}

type CandidateSettings struct {
	NBest      int `yaml:"nbest"`
	MaxResults int `yaml:"max_results"`
}

// SessionSettings carries the auto-commit thresholds. They are empirical
// values; stable enough to ship as defaults but adjustable per install.
type SessionSettings struct {
	StabilityThreshold int `yaml:"stability_threshold"`
	MinPathSegments    int `yaml:"min_path_segments"`
}

type keymapEntry struct {
	code    uint16
	normal  string
	shifted string
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Cost: CostSettings{
			SegmentPenalty:   5000,
			MixedScriptBonus: 3000,
			KatakanaPenalty:  5000,
			PureKanjiBonus:   1000,
			LatinPenalty:     20000,
			UnknownWordCost:  10000,
		},
		Reranker: RerankerSettings{
			LengthVarianceWeight: 2000,
			StructureCostFilter:  4000,
		},
		History: HistorySettings{
			BoostPerUse:   3000,
			MaxBoost:      15000,
			HalfLifeHours: 168.0,
			MaxUnigrams:   10000,
			MaxBigrams:    10000,
		},
		Candidates: CandidateSettings{
			NBest:      20,
			MaxResults: 20,
		},
		Session: SessionSettings{
			StabilityThreshold: 3,
			MinPathSegments:    4,
		},
	}
}

var (
	customYAML []byte
	customSet  bool
	customMu   sync.Mutex

	instance *Settings
	once     sync.Once
)

// InitCustom installs a custom YAML document to be used instead of the
// defaults. Must be called before the first Get; the content is validated
// immediately so a malformed document is rejected up front.
func InitCustom(yamlContent []byte) error {
	if _, err := Parse(yamlContent); err != nil {
		return err
	}
	customMu.Lock()
	defer customMu.Unlock()
	if customSet {
		return fmt.Errorf("settings already initialized")
	}
	customYAML = yamlContent
	customSet = true
	return nil
}

// Get returns the process-wide settings singleton, initializing it on
// first use. Never mutate the returned value.
func Get() *Settings {
	once.Do(func() {
		customMu.Lock()
		content := customYAML
		customMu.Unlock()
		if content == nil {
			s := Default()
			instance = &s
			return
		}
		s, err := Parse(content)
		if err != nil {
			// InitCustom validated the document already.
			panic(fmt.Sprintf("settings: %v", err))
		}
		instance = s
	})
	return instance
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(yamlContent []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(yamlContent, &s); err != nil {
		return nil, fmt.Errorf("settings parse: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := s.parseKeymap(); err != nil {
		return nil, err
	}
	return &s, nil
}

// KeymapGet looks up a remapped key by key code and shift state.
func (s *Settings) KeymapGet(keyCode uint16, hasShift bool) (string, bool) {
	for _, e := range s.keymapParsed {
		if e.code == keyCode {
			if hasShift {
				return e.shifted, true
			}
			return e.normal, true
		}
	}
	return "", false
}

func (s *Settings) parseKeymap() error {
	s.keymapParsed = s.keymapParsed[:0]
	for key, values := range s.Keymap {
		code, err := strconv.ParseUint(key, 10, 16)
		if err != nil {
			return fmt.Errorf("settings keymap.%s: key code must be a uint16", key)
		}
		if len(values) != 2 {
			return fmt.Errorf("settings keymap.%s: value must be [normal, shifted]", key)
		}
		s.keymapParsed = append(s.keymapParsed, keymapEntry{
			code:    uint16(code),
			normal:  values[0],
			shifted: values[1],
		})
	}
	return nil
}

func (s *Settings) validate() error {
	nonNegative := map[string]int64{
		"cost.segment_penalty":           s.Cost.SegmentPenalty,
		"cost.mixed_script_bonus":        s.Cost.MixedScriptBonus,
		"cost.katakana_penalty":          s.Cost.KatakanaPenalty,
		"cost.pure_kanji_bonus":          s.Cost.PureKanjiBonus,
		"cost.latin_penalty":             s.Cost.LatinPenalty,
		"cost.unknown_word_cost":         int64(s.Cost.UnknownWordCost),
		"reranker.length_variance_weight": s.Reranker.LengthVarianceWeight,
		"reranker.structure_cost_filter":  s.Reranker.StructureCostFilter,
		"history.boost_per_use":          s.History.BoostPerUse,
		"history.max_boost":              s.History.MaxBoost,
	}
	for field, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("settings %s: must be non-negative", field)
		}
	}
	positive := map[string]int{
		"history.max_unigrams":         s.History.MaxUnigrams,
		"history.max_bigrams":          s.History.MaxBigrams,
		"candidates.nbest":             s.Candidates.NBest,
		"candidates.max_results":       s.Candidates.MaxResults,
		"session.stability_threshold":  s.Session.StabilityThreshold,
		"session.min_path_segments":    s.Session.MinPathSegments,
	}
	for field, v := range positive {
		if v <= 0 {
			return fmt.Errorf("settings %s: must be positive", field)
		}
	}
	if s.History.HalfLifeHours <= 0 {
		return fmt.Errorf("settings history.half_life_hours: must be positive")
	}
	return nil
}
