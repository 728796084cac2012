// Package dict provides the compiled conversion dictionary and the
// connection cost matrix used by the lattice search.
package dict

import (
	"sort"
	"strings"

	"github.com/tidwall/btree"

	"kanalex/model"
)

// Dictionary is the lookup surface the lattice builder and candidate
// pipeline need.
type Dictionary interface {
	// Lookup returns the cost-ordered entries for an exact reading,
	// or nil on miss.
	Lookup(reading string) []model.DictEntry
	// Predict walks readings starting with prefix in key order,
	// returning at most max results.
	Predict(prefix string, max int) []model.SearchResult
}

type btreeMap = btree.Map[string, []model.DictEntry]

// TrieDictionary maps readings to cost-ordered entry slices over an
// ordered in-memory tree, giving exact lookup and in-order prefix walks.
type TrieDictionary struct {
	m *btreeMap
}

// RankedEntry is a single entry paired with its reading, as returned by
// PredictRanked.
type RankedEntry struct {
	Reading string
	Entry   model.DictEntry
}

// FromEntries builds a dictionary from (reading, entries) pairs.
// Entries within each reading are sorted ascending by cost; repeated
// readings are merged.
func FromEntries(entries []model.SearchResult) *TrieDictionary {
	d := &TrieDictionary{m: new(btreeMap)}
	for _, r := range entries {
		existing, _ := d.m.Get(r.Reading)
		merged := append(existing, r.Entries...)
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].Cost < merged[j].Cost })
		d.m.Set(r.Reading, merged)
	}
	return d
}

// Lookup returns the cost-ordered entries for a reading, nil on miss.
func (d *TrieDictionary) Lookup(reading string) []model.DictEntry {
	entries, ok := d.m.Get(reading)
	if !ok {
		return nil
	}
	return entries
}

// Predict returns up to max readings starting with prefix, in key order.
func (d *TrieDictionary) Predict(prefix string, max int) []model.SearchResult {
	if max <= 0 {
		return nil
	}
	var results []model.SearchResult
	d.m.Ascend(prefix, func(reading string, entries []model.DictEntry) bool {
		if !strings.HasPrefix(reading, prefix) {
			return false
		}
		results = append(results, model.SearchResult{Reading: reading, Entries: entries})
		return len(results) < max
	})
	return results
}

// PredictRanked returns a flat, cost-ascending list of entries whose
// reading starts with prefix. Entries costing more than costCap are
// skipped and at most fetchLimit entries are collected before sorting.
func (d *TrieDictionary) PredictRanked(prefix string, fetchLimit int, costCap int16) []RankedEntry {
	if fetchLimit <= 0 {
		return nil
	}
	var results []RankedEntry
	d.m.Ascend(prefix, func(reading string, entries []model.DictEntry) bool {
		if !strings.HasPrefix(reading, prefix) {
			return false
		}
		for _, e := range entries {
			if e.Cost > costCap {
				continue
			}
			results = append(results, RankedEntry{Reading: reading, Entry: e})
			if len(results) >= fetchLimit {
				return false
			}
		}
		return true
	})
	sort.SliceStable(results, func(i, j int) bool { return results[i].Entry.Cost < results[j].Entry.Cost })
	return results
}

// Iter walks the whole dictionary in key order. The callback returns
// false to stop early.
func (d *TrieDictionary) Iter(fn func(reading string, entries []model.DictEntry) bool) {
	d.m.Scan(fn)
}

// Stats returns (reading count, total entry count).
func (d *TrieDictionary) Stats() (int, int) {
	readings := 0
	entries := 0
	d.m.Scan(func(_ string, e []model.DictEntry) bool {
		readings++
		entries += len(e)
		return true
	})
	return readings, entries
}
