package converter

import (
	"unicode/utf8"

	"kanalex/dict"
	"kanalex/settings"
)

// CostFunction scores lattice nodes and transitions. All four methods
// are total over valid nodes.
type CostFunction interface {
	WordCost(n *LatticeNode) int64
	TransitionCost(prev, next *LatticeNode) int64
	BOSCost(n *LatticeNode) int64
	EOSCost(n *LatticeNode) int64
}

// connCost is the transition cost between two connection ids, 0 when no
// matrix is loaded.
func connCost(conn *dict.ConnectionMatrix, leftID, rightID uint16) int64 {
	if conn == nil {
		return 0
	}
	return int64(conn.Cost(leftID, rightID))
}

// DefaultCost scores nodes by dictionary cost plus the segment penalty,
// with transitions taken from the connection matrix when present.
// Function words pay half the segment penalty.
type DefaultCost struct {
	conn *dict.ConnectionMatrix
}

// NewDefaultCost builds the default cost function; conn may be nil.
func NewDefaultCost(conn *dict.ConnectionMatrix) *DefaultCost {
	return &DefaultCost{conn: conn}
}

func (c *DefaultCost) WordCost(n *LatticeNode) int64 {
	penalty := settings.Get().Cost.SegmentPenalty
	if c.conn != nil && c.conn.IsFunctionWord(n.LeftID) {
		penalty /= 2
	}
	return int64(n.Cost) + penalty
}

func (c *DefaultCost) TransitionCost(prev, next *LatticeNode) int64 {
	return connCost(c.conn, prev.RightID, next.LeftID)
}

func (c *DefaultCost) BOSCost(n *LatticeNode) int64 {
	return connCost(c.conn, 0, n.LeftID)
}

func (c *DefaultCost) EOSCost(n *LatticeNode) int64 {
	return connCost(c.conn, n.RightID, 0)
}

// scriptCost is a ranking preference over surfaces: mixed kanji+kana is
// rewarded, katakana and Latin are penalised, pure kanji gets a small
// bonus. The per-class weight scales with the reading length.
func scriptCost(surface string, readingLen int) int64 {
	s := settings.Get().Cost
	l := int64(readingLen)
	switch classifyScript(surface) {
	case scriptMixed:
		return -s.MixedScriptBonus * l
	case scriptKatakana:
		return s.KatakanaPenalty * l
	case scriptLatin:
		return s.LatinPenalty * l
	case scriptKanji:
		return -s.PureKanjiBonus * l
	default:
		return 0
	}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
