// Package source builds compiled dictionaries from source data: CSV
// entry lists and raw Japanese text corpora harvested through a
// morphological analyzer.
package source

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"kanalex/dict"
	"kanalex/model"
)

// ParseCSV reads dictionary rows of the form
//
//	reading,left_id,right_id,cost,surface
//
// (tab-separated also accepted). Readings are NFKC-normalized and
// folded to hiragana. Malformed rows fail the whole parse.
func ParseCSV(r io.Reader) ([]model.SearchResult, error) {
	byReading := make(map[string][]model.DictEntry)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitRow(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("dictionary source line %d: expected 5 fields, got %d", lineNo, len(fields))
		}
		leftID, err := strconv.ParseUint(fields[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("dictionary source line %d: left_id: %w", lineNo, err)
		}
		rightID, err := strconv.ParseUint(fields[2], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("dictionary source line %d: right_id: %w", lineNo, err)
		}
		cost, err := strconv.ParseInt(fields[3], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("dictionary source line %d: cost: %w", lineNo, err)
		}
		reading := NormalizeReading(fields[0])
		if reading == "" {
			return nil, fmt.Errorf("dictionary source line %d: empty reading", lineNo)
		}
		byReading[reading] = append(byReading[reading], model.DictEntry{
			Surface: fields[4],
			Cost:    int16(cost),
			LeftID:  uint16(leftID),
			RightID: uint16(rightID),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dictionary source: %w", err)
	}
	return collect(byReading), nil
}

// Merge combines entry sets from multiple sources into one dictionary.
// Duplicate (reading, surface) pairs keep the cheaper cost.
func Merge(sources ...[]model.SearchResult) *dict.TrieDictionary {
	byReading := make(map[string]map[string]model.DictEntry)
	for _, src := range sources {
		for _, r := range src {
			inner := byReading[r.Reading]
			if inner == nil {
				inner = make(map[string]model.DictEntry)
				byReading[r.Reading] = inner
			}
			for _, e := range r.Entries {
				if prev, ok := inner[e.Surface]; !ok || e.Cost < prev.Cost {
					inner[e.Surface] = e
				}
			}
		}
	}
	merged := make([]model.SearchResult, 0, len(byReading))
	for reading, inner := range byReading {
		entries := make([]model.DictEntry, 0, len(inner))
		for _, e := range inner {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Cost != entries[j].Cost {
				return entries[i].Cost < entries[j].Cost
			}
			return entries[i].Surface < entries[j].Surface
		})
		merged = append(merged, model.SearchResult{Reading: reading, Entries: entries})
	}
	d := dict.FromEntries(merged)
	readings, entries := d.Stats()
	log.Info().Int("readings", readings).Int("entries", entries).Msg("dictionary sources merged")
	return d
}

// NormalizeReading NFKC-normalizes a reading and folds katakana to
// hiragana so all sources key on the same script.
func NormalizeReading(s string) string {
	s = norm.NFKC.String(s)
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

func splitRow(line string) []string {
	if strings.ContainsRune(line, '\t') {
		return strings.Split(line, "\t")
	}
	return strings.Split(line, ",")
}

func collect(byReading map[string][]model.DictEntry) []model.SearchResult {
	results := make([]model.SearchResult, 0, len(byReading))
	for reading, entries := range byReading {
		results = append(results, model.SearchResult{Reading: reading, Entries: entries})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Reading < results[j].Reading })
	return results
}
