package converter

import (
	"math"

	"kanalex/dict"
	"kanalex/model"
)

// ConstraintViolationCost prohibits nodes that contradict a confirmed
// prefix. Large enough to dominate any real path, small enough that
// summing a path of them cannot overflow.
const ConstraintViolationCost = math.MaxInt64 / 4

// PrefixConstraint pins the first segments of a conversion so that only
// the suffix is re-explored.
type PrefixConstraint struct {
	segments      []fixedSegment
	prefixCharEnd int
}

type fixedSegment struct {
	start   int
	end     int
	reading string
	surface string
}

// NewPrefixConstraint builds a constraint from confirmed segments, in
// order from the start of the input.
func NewPrefixConstraint(confirmed []model.ConvertedSegment) *PrefixConstraint {
	c := &PrefixConstraint{}
	pos := 0
	for _, seg := range confirmed {
		end := pos + runeLen(seg.Reading)
		c.segments = append(c.segments, fixedSegment{
			start:   pos,
			end:     end,
			reading: seg.Reading,
			surface: seg.Surface,
		})
		pos = end
	}
	c.prefixCharEnd = pos
	return c
}

func (c *PrefixConstraint) inPrefix(n *LatticeNode) bool {
	return n.Start < c.prefixCharEnd
}

func (c *PrefixConstraint) spansBoundary(n *LatticeNode) bool {
	return n.Start < c.prefixCharEnd && n.End > c.prefixCharEnd
}

func (c *PrefixConstraint) matchesFixed(n *LatticeNode) bool {
	for _, s := range c.segments {
		if n.Start == s.start && n.End == s.end && n.Reading == s.reading && n.Surface == s.surface {
			return true
		}
	}
	return false
}

// PrefixConstrainedCost wraps the default cost function and prohibits
// any node that contradicts the confirmed prefix: in-prefix nodes must
// match a fixed segment exactly, and no node may span the prefix
// boundary. Nodes entirely past the prefix score normally.
type PrefixConstrainedCost struct {
	inner      *DefaultCost
	constraint *PrefixConstraint
}

// NewPrefixConstrainedCost builds the constrained cost function; conn
// may be nil.
func NewPrefixConstrainedCost(conn *dict.ConnectionMatrix, constraint *PrefixConstraint) *PrefixConstrainedCost {
	return &PrefixConstrainedCost{inner: NewDefaultCost(conn), constraint: constraint}
}

func (c *PrefixConstrainedCost) WordCost(n *LatticeNode) int64 {
	if c.constraint.spansBoundary(n) {
		return ConstraintViolationCost
	}
	if c.constraint.inPrefix(n) {
		if c.constraint.matchesFixed(n) {
			return c.inner.WordCost(n)
		}
		return ConstraintViolationCost
	}
	return c.inner.WordCost(n)
}

func (c *PrefixConstrainedCost) TransitionCost(prev, next *LatticeNode) int64 {
	return c.inner.TransitionCost(prev, next)
}

func (c *PrefixConstrainedCost) BOSCost(n *LatticeNode) int64 {
	return c.inner.BOSCost(n)
}

func (c *PrefixConstrainedCost) EOSCost(n *LatticeNode) int64 {
	return c.inner.EOSCost(n)
}
