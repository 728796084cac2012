package converter

import "sort"

// Rewriter generates additional candidates from an N-best list without
// mutating it. Dedup and cost-ordered insertion belong to RunRewriters,
// not to the implementations.
type Rewriter interface {
	Generate(paths []ScoredPath, reading string) []ScoredPath
}

// worstCost is the highest cost among paths, 0 when empty.
func worstCost(paths []ScoredPath) int64 {
	var worst int64
	for _, p := range paths {
		if p.ViterbiCost > worst {
			worst = p.ViterbiCost
		}
	}
	return worst
}

func bestCost(paths []ScoredPath) int64 {
	if len(paths) == 0 {
		return 0
	}
	best := paths[0].ViterbiCost
	for _, p := range paths[1:] {
		if p.ViterbiCost < best {
			best = p.ViterbiCost
		}
	}
	return best
}

// RunRewriters applies the rewriters in order, inserting each novel
// candidate at its cost-ordered position. A shared surface-key set
// guarantees a surface appears at most once across the existing paths
// and every rewriter's output.
func RunRewriters(rewriters []Rewriter, paths []ScoredPath, reading string) []ScoredPath {
	seen := make(map[string]struct{}, len(paths))
	for i := range paths {
		seen[paths[i].SurfaceKey()] = struct{}{}
	}
	for _, rw := range rewriters {
		for _, candidate := range rw.Generate(paths, reading) {
			key := candidate.SurfaceKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pos := sort.Search(len(paths), func(i int) bool {
				return paths[i].ViterbiCost >= candidate.ViterbiCost
			})
			paths = append(paths, ScoredPath{})
			copy(paths[pos+1:], paths[pos:])
			paths[pos] = candidate
		}
	}
	return paths
}

// KatakanaRewriter always offers the reading in katakana, costed past
// the worst existing path so it sits last.
type KatakanaRewriter struct{}

func (KatakanaRewriter) Generate(paths []ScoredPath, reading string) []ScoredPath {
	katakana := HiraganaToKatakana(reading)
	return []ScoredPath{singlePath(reading, katakana, worstCost(paths)+10000)}
}

// HiraganaVariantRewriter rewrites the best path with every kanji
// segment replaced by its reading, keeping katakana and hiragana
// segments as-is. Emits nothing if no segment changes.
type HiraganaVariantRewriter struct{}

func (HiraganaVariantRewriter) Generate(paths []ScoredPath, _ string) []ScoredPath {
	if len(paths) == 0 {
		return nil
	}
	best := &paths[0]
	replaced := false
	var reading, surface string
	for _, seg := range best.Segments {
		reading += seg.Reading
		if allKatakana(seg.Surface) || seg.Surface == seg.Reading {
			surface += seg.Surface
		} else {
			surface += seg.Reading
			replaced = true
		}
	}
	if !replaced {
		return nil
	}
	return []ScoredPath{singlePath(reading, surface, worstCost(paths)+5000)}
}

// PartialHiraganaRewriter softens one kanji segment at a time: for each
// of the top paths, every converted segment spawns a variant with that
// segment replaced by its reading.
type PartialHiraganaRewriter struct{}

func (PartialHiraganaRewriter) Generate(paths []ScoredPath, _ string) []ScoredPath {
	var out []ScoredPath
	for i := 0; i < len(paths) && i < 5; i++ {
		p := &paths[i]
		if len(p.Segments) <= 1 {
			continue
		}
		for segIdx, seg := range p.Segments {
			if seg.Surface == seg.Reading || allKatakana(seg.Surface) {
				continue
			}
			segments := make([]RichSegment, len(p.Segments))
			copy(segments, p.Segments)
			segments[segIdx].Surface = segments[segIdx].Reading
			out = append(out, ScoredPath{Segments: segments, ViterbiCost: p.ViterbiCost + 2000})
		}
	}
	return out
}

// KanjiVariantRewriter is the reverse of PartialHiraganaRewriter: it
// surfaces kanji alternatives the search skipped. Only 2-char hiragana
// segments are considered — single chars are almost always function
// morphemes where a kanji replacement is wrong, and 3+ char segments
// tend to carry resegmented boundaries that no longer match morphemes.
type KanjiVariantRewriter struct {
	Lattice *Lattice
}

const maxKanjiPerSegment = 3

func (rw KanjiVariantRewriter) Generate(paths []ScoredPath, _ string) []ScoredPath {
	var out []ScoredPath
	for i := 0; i < len(paths) && i < 5; i++ {
		p := &paths[i]
		if len(p.Segments) <= 1 {
			continue
		}
		charPos := 0
		for segIdx, seg := range p.Segments {
			segLen := runeLen(seg.Reading)
			segStart := charPos
			segEnd := charPos + segLen
			charPos = segEnd

			if segLen != 2 || seg.Surface != seg.Reading || !allHiragana(seg.Surface) {
				continue
			}
			if segStart >= len(rw.Lattice.NodesByStart) {
				continue
			}
			var kanjiNodes []*LatticeNode
			for _, idx := range rw.Lattice.NodesByStart[segStart] {
				node := &rw.Lattice.Nodes[idx]
				if node.End == segEnd && containsKanji(node.Surface) {
					kanjiNodes = append(kanjiNodes, node)
				}
			}
			sort.SliceStable(kanjiNodes, func(a, b int) bool { return kanjiNodes[a].Cost < kanjiNodes[b].Cost })
			if len(kanjiNodes) > maxKanjiPerSegment {
				kanjiNodes = kanjiNodes[:maxKanjiPerSegment]
			}
			for _, node := range kanjiNodes {
				segments := make([]RichSegment, len(p.Segments))
				copy(segments, p.Segments)
				segments[segIdx] = segmentFromNode(node)
				out = append(out, ScoredPath{Segments: segments, ViterbiCost: p.ViterbiCost + 2000})
			}
		}
	}
	return out
}

// NumericRewriter offers kanji, half-width and full-width numeral forms
// when the reading parses as a Japanese number. Multi-char kanji forms
// (compound numbers) rank with the best path; everything else sits past
// the worst.
type NumericRewriter struct{}

func (NumericRewriter) Generate(paths []ScoredPath, reading string) []ScoredPath {
	n, ok := parseJapaneseNumber(reading)
	if !ok {
		return nil
	}
	base := worstCost(paths) + 5000

	kanji := numberToKanji(n)
	kanjiCost := base
	if runeLen(kanji) > 1 {
		kanjiCost = bestCost(paths)
	}
	return []ScoredPath{
		singlePath(reading, kanji, kanjiCost),
		singlePath(reading, numberToHalfwidth(n), base),
		singlePath(reading, numberToFullwidth(n), base+1),
	}
}
