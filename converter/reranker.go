package converter

import (
	"sort"

	"github.com/rs/zerolog/log"

	"kanalex/dict"
	"kanalex/history"
	"kanalex/settings"
)

// Rerank applies post-hoc ranking features to N-best Viterbi paths and
// re-sorts them ascending by cost.
//
// The Viterbi core handles dictionary cost + connection cost + segment
// penalty; the reranker adds ranking preferences on top:
//
//   - structure cost: the summed transition costs along a path — high
//     values indicate fragmentation. Paths far above the minimum are
//     dropped outright, the rest pay a quarter of it.
//   - length variance: uneven reading lengths are penalised so uniform
//     splits win when Viterbi costs are close.
//   - script cost: katakana/Latin surfaces penalised, mixed-script
//     rewarded.
func Rerank(paths []ScoredPath, conn *dict.ConnectionMatrix) []ScoredPath {
	if len(paths) <= 1 {
		return paths
	}
	s := settings.Get().Reranker

	structureCost := func(p *ScoredPath) int64 {
		var sc int64
		for i := 1; i < len(p.Segments); i++ {
			sc += connCost(conn, p.Segments[i-1].RightID, p.Segments[i].LeftID)
		}
		return sc
	}

	costs := make([]int64, len(paths))
	minSC := int64(math64Max)
	for i := range paths {
		costs[i] = structureCost(&paths[i])
		if costs[i] < minSC {
			minSC = costs[i]
		}
	}

	// Hard filter: drop paths exceeding min + threshold, unless every
	// path exceeds it (never drop the whole pool).
	threshold := minSC + s.StructureCostFilter
	anyWithin := false
	for _, sc := range costs {
		if sc <= threshold {
			anyWithin = true
			break
		}
	}
	if anyWithin {
		kept := paths[:0]
		keptCosts := costs[:0]
		for i := range paths {
			if costs[i] <= threshold {
				kept = append(kept, paths[i])
				keptCosts = append(keptCosts, costs[i])
			}
		}
		paths = kept
		costs = keptCosts
	}

	for i := range paths {
		p := &paths[i]
		p.ViterbiCost += costs[i] / 4

		// Length variance: N·Σℓ² − (Σℓ)² is N² times the variance, so
		// dividing by N² keeps the whole computation in integers.
		n := int64(len(p.Segments))
		if n >= 2 {
			var sum, sumSq int64
			for _, seg := range p.Segments {
				l := int64(runeLen(seg.Reading))
				sum += l
				sumSq += l * l
			}
			sumSqDev := n*sumSq - sum*sum
			p.ViterbiCost += sumSqDev * s.LengthVarianceWeight / (n * n)
		}

		for _, seg := range p.Segments {
			p.ViterbiCost += scriptCost(seg.Surface, runeLen(seg.Reading))
		}
	}

	sort.SliceStable(paths, func(i, j int) bool { return paths[i].ViterbiCost < paths[j].ViterbiCost })

	if len(paths) > 0 {
		log.Debug().Int("paths_out", len(paths)).Int64("best_cost", paths[0].ViterbiCost).
			Str("best_surface", paths[0].SurfaceKey()).Msg("rerank done")
	}
	return paths
}

// HistoryRerank subtracts learned unigram/bigram boosts from each
// path's cost and re-sorts. Operating on whole paths (not lattice
// nodes) keeps boosts from fragmenting the search itself. All boosts
// are computed against one timestamp so every path sees the same decay.
func HistoryRerank(paths []ScoredPath, h *history.UserHistory) []ScoredPath {
	if len(paths) == 0 {
		return paths
	}
	now := history.NowEpoch()
	for i := range paths {
		p := &paths[i]
		var boost int64
		for _, seg := range p.Segments {
			boost += h.UnigramBoost(seg.Reading, seg.Surface, now)
		}
		for j := 1; j < len(p.Segments); j++ {
			boost += h.BigramBoost(p.Segments[j-1].Surface, p.Segments[j].Reading, p.Segments[j].Surface, now)
		}
		if boost > 0 {
			log.Debug().Str("surface", p.SurfaceKey()).Int64("boost", boost).Msg("history boost applied")
		}
		p.ViterbiCost -= boost
	}
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].ViterbiCost < paths[j].ViterbiCost })
	return paths
}

const math64Max = int64(^uint64(0) >> 1)
