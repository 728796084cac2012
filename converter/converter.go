// Package converter turns kana readings into ranked mixed-script
// candidates: lattice construction, N-best Viterbi search, reranking,
// rewriting and resegmentation.
package converter

import (
	"kanalex/dict"
	"kanalex/history"
	"kanalex/model"
)

// postprocess is the shared tail of every conversion:
// rerank → history rerank → take n → katakana fallback.
//
// Only the katakana rewriter runs here; the other rewriters and the
// resegmenter are host-driven candidate sources over the same
// ScoredPath/Lattice types, applied by callers that want variant
// injection, not by the core conversion path.
func postprocess(paths []ScoredPath, conn *dict.ConnectionMatrix, h *history.UserHistory, kana string, n int) [][]model.ConvertedSegment {
	paths = Rerank(paths, conn)
	if h != nil {
		paths = HistoryRerank(paths, h)
	}
	if len(paths) > n {
		paths = paths[:n]
	}
	paths = RunRewriters([]Rewriter{KatakanaRewriter{}}, paths, kana)

	out := make([][]model.ConvertedSegment, len(paths))
	for i := range paths {
		out[i] = paths[i].Converted()
	}
	return out
}

// Convert returns the best segmentation for a kana string. Without a
// connection matrix the scoring degrades to unigram word costs.
func Convert(d dict.Dictionary, conn *dict.ConnectionMatrix, kana string) []model.ConvertedSegment {
	if kana == "" {
		return nil
	}
	l := BuildLattice(d, kana)
	paths := ViterbiNBest(l, NewDefaultCost(conn), 10)
	results := postprocess(paths, conn, nil, kana, 1)
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

// ConvertNBest returns the top n distinct segmentations. The search
// oversamples so the reranker has room to reorder.
func ConvertNBest(d dict.Dictionary, conn *dict.ConnectionMatrix, kana string, n int) [][]model.ConvertedSegment {
	if kana == "" || n <= 0 {
		return nil
	}
	l := BuildLattice(d, kana)
	paths := ViterbiNBest(l, NewDefaultCost(conn), n*3)
	return postprocess(paths, conn, nil, kana, n)
}

// ConvertWithHistory is 1-best conversion with history-aware
// reranking. Viterbi runs unbiased; boosts are applied to the N-best
// list afterwards, which surfaces learned candidates without letting
// stale history fragment the search.
func ConvertWithHistory(d dict.Dictionary, conn *dict.ConnectionMatrix, h *history.UserHistory, kana string) []model.ConvertedSegment {
	if kana == "" {
		return nil
	}
	l := BuildLattice(d, kana)
	paths := ViterbiNBest(l, NewDefaultCost(conn), 30)
	results := postprocess(paths, conn, h, kana, 1)
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

// ConvertNBestWithHistory is N-best conversion with history boosts.
// The oversample floor of 50 keeps enough diversity in the pool for
// learned candidates to be found.
func ConvertNBestWithHistory(d dict.Dictionary, conn *dict.ConnectionMatrix, h *history.UserHistory, kana string, n int) [][]model.ConvertedSegment {
	if kana == "" || n <= 0 {
		return nil
	}
	oversample := n * 3
	if oversample < 50 {
		oversample = 50
	}
	l := BuildLattice(d, kana)
	paths := ViterbiNBest(l, NewDefaultCost(conn), oversample)
	return postprocess(paths, conn, h, kana, n)
}
