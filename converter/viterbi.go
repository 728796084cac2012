package converter

import (
	"container/heap"
	"math"
	"strings"

	"kanalex/model"
)

// RichSegment is a materialised lattice node on a scored path, keeping
// the connection ids and raw word cost for rescoring.
type RichSegment struct {
	Reading  string
	Surface  string
	LeftID   uint16
	RightID  uint16
	WordCost int16
}

func segmentFromNode(n *LatticeNode) RichSegment {
	return RichSegment{
		Reading:  n.Reading,
		Surface:  n.Surface,
		LeftID:   n.LeftID,
		RightID:  n.RightID,
		WordCost: n.Cost,
	}
}

// ScoredPath is one complete segmentation with its search cost. The
// cost is adjusted in place by the rerankers.
type ScoredPath struct {
	Segments    []RichSegment
	ViterbiCost int64
}

// SurfaceKey concatenates the surfaces; the dedup key across N-best and
// rewriter output.
func (p *ScoredPath) SurfaceKey() string {
	var b strings.Builder
	for _, s := range p.Segments {
		b.WriteString(s.Surface)
	}
	return b.String()
}

// singlePath builds a one-segment path, used by rewriters.
func singlePath(reading, surface string, cost int64) ScoredPath {
	return ScoredPath{
		Segments:    []RichSegment{{Reading: reading, Surface: surface}},
		ViterbiCost: cost,
	}
}

// Converted converts a path to the outward-facing segment type.
func (p *ScoredPath) Converted() []model.ConvertedSegment {
	out := make([]model.ConvertedSegment, len(p.Segments))
	for i, s := range p.Segments {
		out[i] = model.ConvertedSegment{Reading: s.Reading, Surface: s.Surface}
	}
	return out
}

const unreachable = math.MaxInt64

// Backstop for pathological lattices; N-best normally terminates long
// before this many queue pops.
const maxAStarPops = 200000

// ViterbiNBest returns up to n distinct minimum-cost paths through the
// lattice, ascending by total cost.
//
// A forward pass computes the best cost to reach every node; the N-best
// enumeration then runs A* backwards from EOS using those forward costs
// as the (exact) heuristic. Equal-cost paths are ordered by the
// lexicographically smaller node-index sequence, so ties break the same
// way on every run.
func ViterbiNBest(l *Lattice, costFn CostFunction, n int) []ScoredPath {
	if l.CharCount == 0 || n <= 0 || len(l.Nodes) == 0 {
		return nil
	}

	// Forward DP: fwd[i] = min cost from BOS through node i inclusive.
	fwd := make([]int64, len(l.Nodes))
	for i := range fwd {
		fwd[i] = unreachable
	}
	for _, idx := range l.NodesByStart[0] {
		node := &l.Nodes[idx]
		fwd[idx] = costFn.WordCost(node) + costFn.BOSCost(node)
	}
	for pos := 1; pos < l.CharCount; pos++ {
		for _, prevIdx := range l.NodesByEnd[pos] {
			if fwd[prevIdx] == unreachable {
				continue
			}
			prev := &l.Nodes[prevIdx]
			for _, nextIdx := range l.NodesByStart[pos] {
				next := &l.Nodes[nextIdx]
				total := fwd[prevIdx] + costFn.TransitionCost(prev, next) + costFn.WordCost(next)
				if total < fwd[nextIdx] {
					fwd[nextIdx] = total
				}
			}
		}
	}

	// Backward A*: items carry the suffix cost from their head node's
	// exit to EOS; the priority adds the exact forward cost of the best
	// way to reach that head.
	pq := &pathQueue{}
	for _, idx := range l.NodesByEnd[l.CharCount] {
		if fwd[idx] == unreachable {
			continue
		}
		node := &l.Nodes[idx]
		g := costFn.EOSCost(node)
		heap.Push(pq, &pathItem{
			priority: fwd[idx] + g,
			g:        g,
			tail:     []int{idx},
		})
	}

	var results []ScoredPath
	seen := make(map[string]struct{})
	pops := 0
	for pq.Len() > 0 && len(results) < n && pops < maxAStarPops {
		pops++
		item := heap.Pop(pq).(*pathItem)
		headIdx := item.tail[len(item.tail)-1]
		head := &l.Nodes[headIdx]

		if head.Start == 0 {
			path := materialize(l, item.tail)
			key := path.SurfaceKey()
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				path.ViterbiCost = item.priority
				results = append(results, path)
			}
			continue
		}

		step := costFn.WordCost(head)
		for _, prevIdx := range l.NodesByEnd[head.Start] {
			if fwd[prevIdx] == unreachable {
				continue
			}
			prev := &l.Nodes[prevIdx]
			g := item.g + step + costFn.TransitionCost(prev, head)
			tail := make([]int, len(item.tail)+1)
			copy(tail, item.tail)
			tail[len(item.tail)] = prevIdx
			heap.Push(pq, &pathItem{priority: fwd[prevIdx] + g, g: g, tail: tail})
		}
	}
	return results
}

// materialize turns a reversed tail of node indices into a path.
func materialize(l *Lattice, tail []int) ScoredPath {
	segments := make([]RichSegment, len(tail))
	for i := range tail {
		segments[i] = segmentFromNode(&l.Nodes[tail[len(tail)-1-i]])
	}
	return ScoredPath{Segments: segments}
}

type pathItem struct {
	priority int64
	g        int64
	tail     []int
}

type pathQueue []*pathItem

func (q pathQueue) Len() int { return len(q) }

func (q pathQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	// Deterministic tie-break: the path whose node indices read
	// lexicographically smaller (in path order) wins.
	a, b := q[i].tail, q[j].tail
	la, lb := len(a), len(b)
	for k := 1; k <= la && k <= lb; k++ {
		if a[la-k] != b[lb-k] {
			return a[la-k] < b[lb-k]
		}
	}
	return la < lb
}

func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pathQueue) Push(x any) { *q = append(*q, x.(*pathItem)) }

func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
