package converter

import (
	"kanalex/dict"
	"kanalex/settings"
)

// Viterbi N-best converges on similar segmentations, and a compound
// word's unigram cost can undercut the (content + function word) split
// the user actually wants. Resegment explores 2-way splits of the best
// path's segments using nodes already in the lattice, keeping only
// splits where at least one half is a function word.

const maxResegPaths = 10

// Resegment builds alternative paths by splitting each segment of the
// best path at every internal char boundary. New paths are scored with
// the same formula as the Viterbi default cost and deduplicated against
// the existing pool.
func Resegment(paths []ScoredPath, l *Lattice, conn *dict.ConnectionMatrix) []ScoredPath {
	if len(paths) == 0 || len(paths[0].Segments) == 0 {
		return nil
	}
	best := &paths[0]

	existing := make(map[string]struct{}, len(paths))
	for i := range paths {
		existing[paths[i].SurfaceKey()] = struct{}{}
	}

	type span struct{ start, end int }
	bounds := make([]span, 0, len(best.Segments))
	pos := 0
	for _, seg := range best.Segments {
		n := runeLen(seg.Reading)
		bounds = append(bounds, span{pos, pos + n})
		pos += n
	}

	var out []ScoredPath
	emitted := make(map[string]struct{})

	nodesCovering := func(start, end int) []int {
		if start >= len(l.NodesByStart) {
			return nil
		}
		var matches []int
		for _, idx := range l.NodesByStart[start] {
			if l.Nodes[idx].End == end {
				matches = append(matches, idx)
			}
		}
		return matches
	}

	for segIdx, b := range bounds {
		if b.end-b.start < 2 {
			continue
		}
		for mid := b.start + 1; mid < b.end; mid++ {
			leftNodes := nodesCovering(b.start, mid)
			rightNodes := nodesCovering(mid, b.end)
			for _, leftIdx := range leftNodes {
				for _, rightIdx := range rightNodes {
					left := &l.Nodes[leftIdx]
					right := &l.Nodes[rightIdx]

					leftFW := conn != nil && conn.IsFunctionWord(left.LeftID)
					rightFW := conn != nil && conn.IsFunctionWord(right.LeftID)
					if !leftFW && !rightFW {
						continue
					}

					segments := make([]RichSegment, 0, len(best.Segments)+1)
					segments = append(segments, best.Segments[:segIdx]...)
					segments = append(segments, segmentFromNode(left), segmentFromNode(right))
					segments = append(segments, best.Segments[segIdx+1:]...)

					candidate := ScoredPath{
						Segments:    segments,
						ViterbiCost: scorePath(segments, conn),
					}
					key := candidate.SurfaceKey()
					if _, dup := existing[key]; dup {
						continue
					}
					if _, dup := emitted[key]; dup {
						continue
					}
					emitted[key] = struct{}{}
					out = append(out, candidate)
					if len(out) >= maxResegPaths {
						return out
					}
				}
			}
		}
	}
	return out
}

// scorePath reproduces the Viterbi total for a segment list:
// word costs + segment penalties + BOS + transitions + EOS.
func scorePath(segments []RichSegment, conn *dict.ConnectionMatrix) int64 {
	if len(segments) == 0 {
		return 0
	}
	segPenalty := settings.Get().Cost.SegmentPenalty
	var cost int64
	for i, seg := range segments {
		penalty := segPenalty
		if conn != nil && conn.IsFunctionWord(seg.LeftID) {
			penalty /= 2
		}
		cost += int64(seg.WordCost) + penalty
		if i == 0 {
			cost += connCost(conn, 0, seg.LeftID)
		} else {
			cost += connCost(conn, segments[i-1].RightID, seg.LeftID)
		}
	}
	cost += connCost(conn, segments[len(segments)-1].RightID, 0)
	return cost
}
