package converter

import (
	"kanalex/dict"
	"kanalex/settings"
)

// LatticeNode is one candidate word covering the char span
// [Start, End) of the kana input.
type LatticeNode struct {
	Start   int
	End     int
	Reading string
	Surface string
	Cost    int16
	LeftID  uint16
	RightID uint16
}

// Lattice is the DAG of candidate segmentations over a kana input.
// NodesByStart and NodesByEnd group node indices by char position;
// every position 0 ≤ p < CharCount has at least one node starting at p
// thanks to the single-char fallback nodes.
type Lattice struct {
	Input        string
	CharCount    int
	Nodes        []LatticeNode
	NodesByStart [][]int
	NodesByEnd   [][]int
}

// BuildLattice looks up every substring of the kana input and adds a
// single-char fallback node per position so the lattice always has an
// exit from every position.
func BuildLattice(d dict.Dictionary, kana string) *Lattice {
	runes := []rune(kana)
	n := len(runes)
	l := &Lattice{
		Input:        kana,
		CharCount:    n,
		NodesByStart: make([][]int, n),
		NodesByEnd:   make([][]int, n+1),
	}
	if n == 0 {
		l.NodesByStart = nil
		l.NodesByEnd = nil
		return l
	}

	unknownCost := settings.Get().Cost.UnknownWordCost

	addNode := func(node LatticeNode) {
		idx := len(l.Nodes)
		l.Nodes = append(l.Nodes, node)
		l.NodesByStart[node.Start] = append(l.NodesByStart[node.Start], idx)
		l.NodesByEnd[node.End] = append(l.NodesByEnd[node.End], idx)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j <= n; j++ {
			sub := string(runes[i:j])
			for _, e := range d.Lookup(sub) {
				addNode(LatticeNode{
					Start:   i,
					End:     j,
					Reading: sub,
					Surface: e.Surface,
					Cost:    e.Cost,
					LeftID:  e.LeftID,
					RightID: e.RightID,
				})
			}
		}
		// Fallback: the char itself, so every position has an exit.
		ch := string(runes[i : i+1])
		addNode(LatticeNode{
			Start:   i,
			End:     i + 1,
			Reading: ch,
			Surface: ch,
			Cost:    unknownCost,
		})
	}
	return l
}
