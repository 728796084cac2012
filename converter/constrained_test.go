package converter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanalex/model"
)

func TestPrefixConstraintSpans(t *testing.T) {
	constraint := NewPrefixConstraint([]model.ConvertedSegment{
		{Reading: "きょう", Surface: "今日"},
		{Reading: "は", Surface: "は"},
	})
	assert.Equal(t, 4, constraint.prefixCharEnd)
	require.Len(t, constraint.segments, 2)
	assert.Equal(t, fixedSegment{0, 3, "きょう", "今日"}, constraint.segments[0])
	assert.Equal(t, fixedSegment{3, 4, "は", "は"}, constraint.segments[1])
}

func TestBoundarySpanningNodeRejected(t *testing.T) {
	constraint := &PrefixConstraint{
		segments:      []fixedSegment{{0, 2, "きょ", "虚"}},
		prefixCharEnd: 2,
	}
	costFn := NewPrefixConstrainedCost(nil, constraint)
	node := &LatticeNode{Start: 1, End: 3, Reading: "ょう", Surface: "陽", Cost: 1000}
	assert.Equal(t, int64(ConstraintViolationCost), costFn.WordCost(node))
}

func TestMismatchedPrefixNodeRejected(t *testing.T) {
	constraint := NewPrefixConstraint([]model.ConvertedSegment{
		{Reading: "きょう", Surface: "今日"},
	})
	costFn := NewPrefixConstrainedCost(nil, constraint)
	// Same span, different surface.
	node := &LatticeNode{Start: 0, End: 3, Reading: "きょう", Surface: "京", Cost: 1000}
	assert.Equal(t, int64(ConstraintViolationCost), costFn.WordCost(node))
	// The fixed segment itself passes through.
	fixed := &LatticeNode{Start: 0, End: 3, Reading: "きょう", Surface: "今日", Cost: 1000}
	assert.Less(t, costFn.WordCost(fixed), int64(ConstraintViolationCost))
}

func TestEmptyConstraintMatchesUnconstrained(t *testing.T) {
	d := testDict()
	kana := "きょうは"
	l := BuildLattice(d, kana)

	unconstrained := ViterbiNBest(l, NewDefaultCost(nil), 5)
	constraint := NewPrefixConstraint(nil)
	constrained := ViterbiNBest(l, NewPrefixConstrainedCost(nil, constraint), 5)

	require.NotEmpty(t, unconstrained)
	require.NotEmpty(t, constrained)
	assert.Equal(t, unconstrained[0].SurfaceKey(), constrained[0].SurfaceKey())
}

func TestPartialConstraintFixesPrefix(t *testing.T) {
	d := testDict()
	kana := "きょうはいいてんき"
	l := BuildLattice(d, kana)

	raw := ViterbiNBest(l, NewDefaultCost(nil), 5)
	require.NotEmpty(t, raw)
	require.GreaterOrEqual(t, len(raw[0].Segments), 2)

	confirmed := []model.ConvertedSegment{
		{Reading: raw[0].Segments[0].Reading, Surface: raw[0].Segments[0].Surface},
		{Reading: raw[0].Segments[1].Reading, Surface: raw[0].Segments[1].Surface},
	}
	constraint := NewPrefixConstraint(confirmed)
	constrained := ViterbiNBest(l, NewPrefixConstrainedCost(nil, constraint), 10)

	expectedPrefix := confirmed[0].Surface + confirmed[1].Surface
	prefixLen := runeLen(confirmed[0].Reading) + runeLen(confirmed[1].Reading)

	validCount := 0
	for i := range constrained {
		if constrained[i].ViterbiCost >= ConstraintViolationCost/2 {
			continue
		}
		validCount++
		var got strings.Builder
		chars := 0
		for _, seg := range constrained[i].Segments {
			if chars >= prefixLen {
				break
			}
			got.WriteString(seg.Surface)
			chars += runeLen(seg.Reading)
		}
		assert.Equal(t, expectedPrefix, got.String())
	}
	assert.Greater(t, validCount, 0)
}
