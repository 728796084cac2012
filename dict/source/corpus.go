package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/rs/zerolog/log"

	"kanalex/model"
)

var (
	kg     *tokenizer.Tokenizer
	kgErr  error
	kgOnce sync.Once
)

func analyzer() (*tokenizer.Tokenizer, error) {
	kgOnce.Do(func() {
		kg, kgErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	return kg, kgErr
}

// Base cost assigned to harvested words; the observed frequency buys the
// cost down so common corpus words outrank rare ones.
const (
	harvestBaseCost  = 8000
	harvestCostFloor = 4000
	harvestCostStep  = 200
)

// HarvestCorpus tokenizes raw Japanese text and folds the analyzer's
// (reading, surface) pairs into dictionary entries weighted by corpus
// frequency. Tokens without a reading, and pure punctuation/whitespace
// tokens, are skipped.
func HarvestCorpus(r io.Reader) ([]model.SearchResult, error) {
	t, err := analyzer()
	if err != nil {
		return nil, fmt.Errorf("corpus harvest: analyzer init: %w", err)
	}

	type key struct{ reading, surface string }
	freq := make(map[key]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, tok := range t.Tokenize(line) {
			reading, ok := tok.Reading()
			if !ok || reading == "" {
				continue
			}
			surface := tok.Surface
			if !keepToken(surface) {
				continue
			}
			freq[key{NormalizeReading(reading), surface}]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus harvest: %w", err)
	}

	byReading := make(map[string][]model.DictEntry)
	for k, n := range freq {
		cost := harvestBaseCost - n*harvestCostStep
		if cost < harvestCostFloor {
			cost = harvestCostFloor
		}
		byReading[k.reading] = append(byReading[k.reading], model.DictEntry{
			Surface: k.surface,
			Cost:    int16(cost),
		})
	}
	results := collect(byReading)
	log.Info().Int("tokens", len(freq)).Int("readings", len(results)).Msg("corpus harvested")
	return results, nil
}

func keepToken(surface string) bool {
	for _, r := range surface {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
