package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanalex/dict"
	"kanalex/model"
)

// dictWithCompound includes きょうは→教派 so the compound beats the
// 今日+は split in plain Viterbi, even with the FW half-penalty on は.
func dictWithCompound() *dict.TrieDictionary {
	return dict.FromEntries([]model.SearchResult{
		{Reading: "きょう", Entries: []model.DictEntry{
			{Surface: "今日", Cost: 3000, LeftID: 100, RightID: 100},
		}},
		{Reading: "きょうは", Entries: []model.DictEntry{
			{Surface: "教派", Cost: 4000, LeftID: 102, RightID: 102},
		}},
		{Reading: "は", Entries: []model.DictEntry{
			{Surface: "は", Cost: 2000, LeftID: 200, RightID: 200},
		}},
		{Reading: "いい", Entries: []model.DictEntry{
			{Surface: "良い", Cost: 3500, LeftID: 300, RightID: 300},
		}},
		{Reading: "てんき", Entries: []model.DictEntry{
			{Surface: "天気", Cost: 4000, LeftID: 400, RightID: 400},
		}},
	})
}

func buildPaths(t *testing.T, d dict.Dictionary, kana string, conn *dict.ConnectionMatrix, n int) (*Lattice, []ScoredPath) {
	t.Helper()
	l := BuildLattice(d, kana)
	paths := ViterbiNBest(l, NewDefaultCost(conn), n)
	require.NotEmpty(t, paths)
	return l, paths
}

func TestResegmentSplitsCompoundWithFW(t *testing.T) {
	conn := zeroConnWithFW(t, 1200, 200, 200)
	d := dictWithCompound()
	l, paths := buildPaths(t, d, "きょうはいいてんき", conn, 1)

	// Precondition: the best path really contains the compound.
	hasCompound := false
	for _, s := range paths[0].Segments {
		if s.Surface == "教派" {
			hasCompound = true
		}
	}
	require.True(t, hasCompound, "best path must contain 教派 for this test to mean anything")

	newPaths := Resegment(paths, l, conn)
	require.NotEmpty(t, newPaths)

	existing := map[string]struct{}{paths[0].SurfaceKey(): {}}
	foundSplit := false
	for i := range newPaths {
		_, dup := existing[newPaths[i].SurfaceKey()]
		assert.False(t, dup, "resegmented path duplicates existing: %s", newPaths[i].SurfaceKey())
		for j := 1; j < len(newPaths[i].Segments); j++ {
			if newPaths[i].Segments[j-1].Surface == "今日" && newPaths[i].Segments[j].Surface == "は" {
				foundSplit = true
			}
		}
	}
	assert.True(t, foundSplit, "resegment should produce the 今日+は split")
}

func TestResegmentNoSplitWithoutFW(t *testing.T) {
	conn := zeroConnWithFW(t, 1200, 0, 0)
	d := dictWithCompound()
	l, paths := buildPaths(t, d, "きょうはいいてんき", conn, 5)
	assert.Empty(t, Resegment(paths, l, conn))
}

func TestResegmentDedupAgainstExisting(t *testing.T) {
	conn := zeroConnWithFW(t, 1200, 200, 200)
	d := dictWithCompound()
	l, paths := buildPaths(t, d, "きょうはいいてんき", conn, 20)

	existing := make(map[string]struct{})
	for i := range paths {
		existing[paths[i].SurfaceKey()] = struct{}{}
	}
	for _, p := range Resegment(paths, l, conn) {
		_, dup := existing[p.SurfaceKey()]
		assert.False(t, dup)
	}
}

func TestResegmentEmptyPaths(t *testing.T) {
	conn := zeroConnWithFW(t, 1200, 200, 200)
	d := testDict()
	l := BuildLattice(d, "きょう")
	assert.Empty(t, Resegment(nil, l, conn))
}

func TestResegmentCapsOutput(t *testing.T) {
	conn := zeroConnWithFW(t, 1200, 200, 200)
	d := dictWithCompound()
	l, paths := buildPaths(t, d, "きょうはいいてんき", conn, 1)
	assert.LessOrEqual(t, len(Resegment(paths, l, conn)), 10)
}

func TestScorePathMatchesViterbi(t *testing.T) {
	conn := zeroConnWithFW(t, 1200, 200, 200)
	d := testDict()
	_, paths := buildPaths(t, d, "きょうはいいてんき", conn, 5)
	best := paths[0]
	assert.Equal(t, best.ViterbiCost, scorePath(best.Segments, conn))
}
