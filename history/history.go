// Package history is the time-decayed store of the user's confirmed
// conversions. Unigram and bigram frequencies, weighted by recency,
// boost learned candidates in later conversions.
package history

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"kanalex/model"
	"kanalex/settings"
)

const (
	historyMagic      = "LXUD"
	historyVersion    = 1
	historyHeaderSize = 5
)

// Entry is a learned (frequency, last-used) pair.
type Entry struct {
	Frequency uint32
	LastUsed  uint64
}

type bigramKey struct {
	nextReading string
	nextSurface string
}

// UserHistory holds the decayed unigram and bigram maps. Not safe for
// concurrent mutation; callers serialise access (the session buffers
// its writes, the candidate generator only reads).
type UserHistory struct {
	// reading → surface → entry
	unigrams map[string]map[string]Entry
	// prev surface → (next reading, next surface) → entry
	bigrams map[string]map[bigramKey]Entry
}

// New returns an empty history.
func New() *UserHistory {
	return &UserHistory{
		unigrams: make(map[string]map[string]Entry),
		bigrams:  make(map[string]map[bigramKey]Entry),
	}
}

// NowEpoch returns the current time in seconds since the epoch.
// Capture it once per batch operation so every lookup in the batch sees
// the same decay.
func NowEpoch() uint64 {
	return uint64(time.Now().Unix())
}

// decay is the inverse-time weight 1/(1 + Δhours/half_life). A future
// last-used timestamp counts as "just used".
func decay(lastUsed, now uint64) float64 {
	var elapsed uint64
	if now > lastUsed {
		elapsed = now - lastUsed
	}
	hours := float64(elapsed) / 3600.0
	return 1.0 / (1.0 + hours/settings.Get().History.HalfLifeHours)
}

func (e Entry) boost(now uint64) int64 {
	h := settings.Get().History
	raw := int64(e.Frequency) * h.BoostPerUse
	if raw > h.MaxBoost {
		raw = h.MaxBoost
	}
	return int64(float64(raw) * decay(e.LastUsed, now))
}

// Record learns a confirmed conversion at the current time.
func (h *UserHistory) Record(segments []model.ConvertedSegment) {
	h.RecordAt(segments, NowEpoch())
}

// RecordAt learns a confirmed conversion with an explicit timestamp.
// WAL replay uses the frame's recorded time so replay is idempotent.
func (h *UserHistory) RecordAt(segments []model.ConvertedSegment, now uint64) {
	for _, seg := range segments {
		inner := h.unigrams[seg.Reading]
		if inner == nil {
			inner = make(map[string]Entry)
			h.unigrams[seg.Reading] = inner
		}
		e := inner[seg.Surface]
		e.Frequency++
		e.LastUsed = now
		inner[seg.Surface] = e
	}
	for i := 1; i < len(segments); i++ {
		prev := segments[i-1].Surface
		key := bigramKey{nextReading: segments[i].Reading, nextSurface: segments[i].Surface}
		inner := h.bigrams[prev]
		if inner == nil {
			inner = make(map[bigramKey]Entry)
			h.bigrams[prev] = inner
		}
		e := inner[key]
		e.Frequency++
		e.LastUsed = now
		inner[key] = e
	}
	h.evict(now)
}

// UnigramBoost is the decayed boost for a (reading, surface) pair.
func (h *UserHistory) UnigramBoost(reading, surface string, now uint64) int64 {
	inner, ok := h.unigrams[reading]
	if !ok {
		return 0
	}
	e, ok := inner[surface]
	if !ok {
		return 0
	}
	return e.boost(now)
}

// BigramBoost is the decayed boost for prev_surface → (reading, surface).
func (h *UserHistory) BigramBoost(prevSurface, nextReading, nextSurface string, now uint64) int64 {
	inner, ok := h.bigrams[prevSurface]
	if !ok {
		return 0
	}
	e, ok := inner[bigramKey{nextReading: nextReading, nextSurface: nextSurface}]
	if !ok {
		return 0
	}
	return e.boost(now)
}

// Successor is one learned bigram continuation.
type Successor struct {
	Reading string
	Surface string
	Boost   int64
}

// BigramSuccessors returns the learned continuations of a surface,
// sorted by boost descending. Predictive mode chains these into longer
// phrases.
func (h *UserHistory) BigramSuccessors(prevSurface string) []Successor {
	inner, ok := h.bigrams[prevSurface]
	if !ok {
		return nil
	}
	now := NowEpoch()
	results := make([]Successor, 0, len(inner))
	for key, e := range inner {
		b := e.boost(now)
		if b > 0 {
			results = append(results, Successor{Reading: key.nextReading, Surface: key.nextSurface, Boost: b})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Boost != results[j].Boost {
			return results[i].Boost > results[j].Boost
		}
		if results[i].Surface != results[j].Surface {
			return results[i].Surface < results[j].Surface
		}
		return results[i].Reading < results[j].Reading
	})
	return results
}

// ReorderCandidates sorts dictionary entries by boost descending,
// keeping the original (cost) order among equals.
func (h *UserHistory) ReorderCandidates(reading string, entries []model.DictEntry) []model.DictEntry {
	now := NowEpoch()
	type ranked struct {
		boost int64
		pos   int
		entry model.DictEntry
	}
	withBoost := make([]ranked, len(entries))
	for i, e := range entries {
		withBoost[i] = ranked{boost: h.UnigramBoost(reading, e.Surface, now), pos: i, entry: e}
	}
	sort.SliceStable(withBoost, func(i, j int) bool {
		if withBoost[i].boost != withBoost[j].boost {
			return withBoost[i].boost > withBoost[j].boost
		}
		return withBoost[i].pos < withBoost[j].pos
	})
	out := make([]model.DictEntry, len(entries))
	for i, r := range withBoost {
		out[i] = r.entry
	}
	return out
}

// evict drops the lowest-scoring entries once a map exceeds its cap.
// Partial selection keeps this O(n) on average instead of a full sort.
func (h *UserHistory) evict(now uint64) {
	s := settings.Get().History
	evictLowest(h.unigrams, s.MaxUnigrams, now)
	evictLowest(h.bigrams, s.MaxBigrams, now)
}

type victim[K comparable] struct {
	outer string
	inner K
	score float64
}

func evictLowest[K comparable](m map[string]map[K]Entry, max int, now uint64) {
	count := 0
	for _, inner := range m {
		count += len(inner)
	}
	if count <= max {
		return
	}
	all := make([]victim[K], 0, count)
	for outer, inner := range m {
		for key, e := range inner {
			all = append(all, victim[K]{outer: outer, inner: key, score: float64(e.Frequency) * decay(e.LastUsed, now)})
		}
	}
	toRemove := count - max
	selectLowest(all, toRemove)
	for _, v := range all[:toRemove] {
		if inner, ok := m[v.outer]; ok {
			delete(inner, v.inner)
			if len(inner) == 0 {
				delete(m, v.outer)
			}
		}
	}
}

// selectLowest partitions all so the k smallest scores occupy all[:k]
// (quickselect; order within the partitions is unspecified).
func selectLowest[K comparable](all []victim[K], k int) {
	lo, hi := 0, len(all)-1
	for lo < hi {
		pivot := all[(lo+hi)/2].score
		i, j := lo, hi
		for i <= j {
			for all[i].score < pivot {
				i++
			}
			for all[j].score > pivot {
				j--
			}
			if i <= j {
				all[i], all[j] = all[j], all[i]
				i++
				j--
			}
		}
		if k <= j {
			hi = j
		} else if k >= i {
			lo = i
		} else {
			return
		}
	}
}

// Bytes serializes the history to the LXUD checkpoint format.
func (h *UserHistory) Bytes() []byte {
	buf := make([]byte, 0, 1024)
	buf = append(buf, historyMagic...)
	buf = append(buf, historyVersion)

	unigramCount := 0
	for _, inner := range h.unigrams {
		unigramCount += len(inner)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(unigramCount))
	for reading, inner := range h.unigrams {
		for surface, e := range inner {
			buf = appendString(buf, reading)
			buf = appendString(buf, surface)
			buf = binary.LittleEndian.AppendUint32(buf, e.Frequency)
			buf = binary.LittleEndian.AppendUint64(buf, e.LastUsed)
		}
	}

	bigramCount := 0
	for _, inner := range h.bigrams {
		bigramCount += len(inner)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(bigramCount))
	for prev, inner := range h.bigrams {
		for key, e := range inner {
			buf = appendString(buf, prev)
			buf = appendString(buf, key.nextReading)
			buf = appendString(buf, key.nextSurface)
			buf = binary.LittleEndian.AppendUint32(buf, e.Frequency)
			buf = binary.LittleEndian.AppendUint64(buf, e.LastUsed)
		}
	}
	return buf
}

// FromBytes parses an LXUD checkpoint.
func FromBytes(data []byte) (*UserHistory, error) {
	if len(data) < historyHeaderSize {
		return nil, fmt.Errorf("user history: invalid header")
	}
	if string(data[:4]) != historyMagic {
		return nil, fmt.Errorf("user history: invalid magic bytes (expected %s)", historyMagic)
	}
	if data[4] != historyVersion {
		return nil, fmt.Errorf("user history: unsupported version: %d", data[4])
	}
	r := &byteReader{data: data, off: historyHeaderSize}
	h := New()

	unigramCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < unigramCount; i++ {
		reading, err := r.str()
		if err != nil {
			return nil, err
		}
		surface, err := r.str()
		if err != nil {
			return nil, err
		}
		freq, err := r.uint32()
		if err != nil {
			return nil, err
		}
		lastUsed, err := r.uint64()
		if err != nil {
			return nil, err
		}
		inner := h.unigrams[reading]
		if inner == nil {
			inner = make(map[string]Entry)
			h.unigrams[reading] = inner
		}
		inner[surface] = Entry{Frequency: freq, LastUsed: lastUsed}
	}

	bigramCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < bigramCount; i++ {
		prev, err := r.str()
		if err != nil {
			return nil, err
		}
		nextReading, err := r.str()
		if err != nil {
			return nil, err
		}
		nextSurface, err := r.str()
		if err != nil {
			return nil, err
		}
		freq, err := r.uint32()
		if err != nil {
			return nil, err
		}
		lastUsed, err := r.uint64()
		if err != nil {
			return nil, err
		}
		inner := h.bigrams[prev]
		if inner == nil {
			inner = make(map[bigramKey]Entry)
			h.bigrams[prev] = inner
		}
		inner[bigramKey{nextReading: nextReading, nextSurface: nextSurface}] = Entry{Frequency: freq, LastUsed: lastUsed}
	}
	return h, nil
}

// Save checkpoints the history atomically: write a sibling .tmp, then
// rename over the target.
func (h *UserHistory) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("user history %s: %w", path, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, h.Bytes(), 0o644); err != nil {
		return fmt.Errorf("user history %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("user history %s: %w", path, err)
	}
	return nil
}

// Open loads a checkpoint; an absent file yields an empty history.
func Open(path string) (*UserHistory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("user history %s: %w", path, err)
	}
	h, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("user history %s: %w", path, err)
	}
	return h, nil
}

// OpenWithWAL loads a checkpoint then replays any sibling WAL over it,
// recovering records written after the last successful save.
func OpenWithWAL(path string) (*UserHistory, *WAL, error) {
	h, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	wal := NewWAL(path)
	replayed, err := wal.Replay(h)
	if err != nil {
		return nil, nil, err
	}
	if replayed > 0 {
		log.Info().Int("frames", replayed).Str("path", wal.Path()).Msg("history WAL replayed")
	}
	return h, wal, nil
}

type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) take(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("user history: truncated at offset %d", r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) str() (string, error) {
	nb, err := r.take(2)
	if err != nil {
		return "", err
	}
	b, err := r.take(int(binary.LittleEndian.Uint16(nb)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}
