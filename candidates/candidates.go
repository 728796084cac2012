// Package candidates merges Viterbi N-best conversion, predictive
// prefix search, exact lookup and punctuation alternatives into the
// ordered candidate list the session shows the user.
package candidates

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"kanalex/converter"
	"kanalex/dict"
	"kanalex/history"
	"kanalex/model"
)

// Alternative forms for punctuation readings. A punctuation reading
// shows the learned predictions, then itself, then these.
var punctuationAlternatives = []struct {
	reading string
	alts    []string
}{
	{"。", []string{"．", "."}},
	{"、", []string{"，", ","}},
	{"？", []string{"?"}},
	{"！", []string{"!"}},
	{"「", []string{"｢", "["}},
	{"」", []string{"｣", "]"}},
	{"・", []string{"／", "/"}},
	{"〜", []string{"~"}},
}

// Response is the result of candidate generation: display surfaces in
// rank order plus the N-best paths behind them for segment-level
// learning.
type Response struct {
	Surfaces []string
	Paths    [][]model.ConvertedSegment
}

func alternativesFor(reading string) ([]string, bool) {
	for _, p := range punctuationAlternatives {
		if p.reading == reading {
			return p.alts, true
		}
	}
	return nil, false
}

// IsPunctuation reports whether a reading belongs to the punctuation
// candidate set.
func IsPunctuation(reading string) bool {
	_, ok := alternativesFor(reading)
	return ok
}

// predictRankedCostCap filters junk entries out of predictive results.
const predictRankedCostCap = 1000

const nbestCount = 5

// Generate produces candidates for a reading: punctuation alternatives
// for the fixed punctuation set, the full merged pipeline otherwise.
// An empty reading yields an empty response.
func Generate(d *dict.TrieDictionary, conn *dict.ConnectionMatrix, h *history.UserHistory, reading string, maxResults int) Response {
	if reading == "" {
		return Response{}
	}
	var resp Response
	if IsPunctuation(reading) {
		resp = generatePunctuation(d, h, reading, maxResults)
	} else {
		resp = generateNormal(d, conn, h, reading, maxResults)
	}
	log.Debug().Str("reading", reading).Int("surfaces", len(resp.Surfaces)).
		Int("paths", len(resp.Paths)).Msg("candidates generated")
	return resp
}

// generatePunctuation: learned predictions first, then the reading
// itself, then the fixed alternatives.
func generatePunctuation(d *dict.TrieDictionary, h *history.UserHistory, reading string, maxResults int) Response {
	var surfaces []string
	seen := make(map[string]struct{})
	push := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		surfaces = append(surfaces, s)
	}

	if h != nil {
		fetchLimit := maxResults
		if fetchLimit < 200 {
			fetchLimit = 200
		}
		ranked := d.PredictRanked(reading, fetchLimit, predictRankedCostCap)
		sortByBoost(ranked, h)
		if len(ranked) > maxResults {
			ranked = ranked[:maxResults]
		}
		for _, r := range ranked {
			push(r.Entry.Surface)
		}
	}

	push(reading)
	if alts, ok := alternativesFor(reading); ok {
		for _, alt := range alts {
			push(alt)
		}
	}
	return Response{Surfaces: surfaces}
}

// generateNormal assembles the full pipeline in order: N-best paths,
// the kana itself (promoted to the top when the user has learned it),
// ranked predictions, then exact lookup. One dedup set spans all four.
func generateNormal(d *dict.TrieDictionary, conn *dict.ConnectionMatrix, h *history.UserHistory, reading string, maxResults int) Response {
	var surfaces []string
	seen := make(map[string]struct{})
	push := func(s string) bool {
		if s == "" {
			return false
		}
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
		surfaces = append(surfaces, s)
		return true
	}

	// 1. N-best Viterbi, unbiased by history; learned preferences act on
	// the candidate list, not the search.
	var paths [][]model.ConvertedSegment
	if h != nil {
		paths = converter.ConvertNBestWithHistory(d, conn, h, reading, nbestCount)
	} else {
		paths = converter.ConvertNBest(d, conn, reading, nbestCount)
	}
	for _, path := range paths {
		var joined strings.Builder
		for _, seg := range path {
			joined.WriteString(seg.Surface)
		}
		push(joined.String())
	}

	// 2. The kana reading. A positive history boost for the hiragana
	// form promotes it to position 0 so it becomes the inline default.
	var kanaBoost int64
	if h != nil {
		kanaBoost = h.UnigramBoost(reading, reading, history.NowEpoch())
	}
	kanaPos := -1
	for i, s := range surfaces {
		if s == reading {
			kanaPos = i
			break
		}
	}
	switch {
	case kanaBoost > 0 && kanaPos > 0:
		surfaces = append(surfaces[:kanaPos], surfaces[kanaPos+1:]...)
		surfaces = append([]string{reading}, surfaces...)
	case kanaBoost > 0 && kanaPos < 0:
		seen[reading] = struct{}{}
		surfaces = append([]string{reading}, surfaces...)
	case kanaPos < 0:
		push(reading)
	}

	// 3. Predictions, history-ranked when available.
	fetchLimit := maxResults
	if h != nil && fetchLimit < 200 {
		fetchLimit = 200
	}
	ranked := d.PredictRanked(reading, fetchLimit, predictRankedCostCap)
	if h != nil {
		sortByBoost(ranked, h)
		if len(ranked) > maxResults {
			ranked = ranked[:maxResults]
		}
	}
	for _, r := range ranked {
		push(r.Entry.Surface)
	}

	// 4. Exact dictionary lookup, reordered by history when present.
	entries := d.Lookup(reading)
	if h != nil && len(entries) > 0 {
		entries = h.ReorderCandidates(reading, entries)
	}
	for _, e := range entries {
		push(e.Surface)
	}

	return Response{Surfaces: surfaces, Paths: paths}
}

func sortByBoost(ranked []dict.RankedEntry, h *history.UserHistory) {
	now := history.NowEpoch()
	sort.SliceStable(ranked, func(i, j int) bool {
		bi := h.UnigramBoost(ranked[i].Reading, ranked[i].Entry.Surface, now)
		bj := h.UnigramBoost(ranked[j].Reading, ranked[j].Entry.Surface, now)
		if bi != bj {
			return bi > bj
		}
		return ranked[i].Entry.Cost < ranked[j].Entry.Cost
	})
}

const maxChainSteps = 5

// chainPhrase follows the strongest bigram successors from a surface,
// stopping on a repeated surface so learned cycles can't spin out.
// Returns "" when no successor extends the phrase.
func chainPhrase(h *history.UserHistory, start string) string {
	result := start
	current := start
	visited := map[string]struct{}{start: {}}
	extended := false
	for i := 0; i < maxChainSteps; i++ {
		succs := h.BigramSuccessors(current)
		if len(succs) == 0 {
			break
		}
		next := succs[0].Surface
		if _, dup := visited[next]; dup {
			break
		}
		visited[next] = struct{}{}
		result += next
		current = next
		extended = true
	}
	if !extended {
		return ""
	}
	return result
}

// GeneratePredictions produces completion-style candidates: the normal
// pipeline's output, with bigram-chained multi-word phrases inserted
// ahead of it, longest first, truncated to maxResults. Without history
// there is nothing to chain, so the normal response is returned with
// its surfaces truncated to maxResults.
func GeneratePredictions(d *dict.TrieDictionary, conn *dict.ConnectionMatrix, h *history.UserHistory, reading string, maxResults int) Response {
	if reading == "" {
		return Response{}
	}
	if IsPunctuation(reading) {
		return generatePunctuation(d, h, reading, maxResults)
	}

	base := generateNormal(d, conn, h, reading, maxResults)
	if h == nil {
		if len(base.Surfaces) > maxResults {
			base.Surfaces = base.Surfaces[:maxResults]
		}
		return base
	}

	type phrase struct {
		text string
		size int
	}
	var chained []phrase
	chainedStarts := make(map[string]struct{})

	for _, path := range base.Paths {
		if len(path) == 0 {
			continue
		}
		var joined strings.Builder
		for _, seg := range path {
			joined.WriteString(seg.Surface)
		}
		joinedStr := joined.String()
		chainedStarts[joinedStr] = struct{}{}

		last := path[len(path)-1].Surface
		full := chainPhrase(h, last)
		if full == "" {
			continue
		}
		extended := joinedStr + full[len(last):]
		if extended != joinedStr {
			chained = append(chained, phrase{text: extended, size: len([]rune(extended))})
		}
	}

	for _, surface := range base.Surfaces {
		if _, done := chainedStarts[surface]; done {
			continue
		}
		if full := chainPhrase(h, surface); full != "" {
			chained = append(chained, phrase{text: full, size: len([]rune(full))})
		}
	}

	sort.SliceStable(chained, func(i, j int) bool { return chained[i].size > chained[j].size })

	var surfaces []string
	seen := make(map[string]struct{})
	push := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		surfaces = append(surfaces, s)
	}
	for _, p := range chained {
		push(p.text)
	}
	for _, s := range base.Surfaces {
		push(s)
	}
	if len(surfaces) > maxResults {
		surfaces = surfaces[:maxResults]
	}

	log.Debug().Str("reading", reading).Int("chained", len(chained)).
		Int("surfaces", len(surfaces)).Msg("prediction candidates generated")
	return Response{Surfaces: surfaces, Paths: base.Paths}
}
