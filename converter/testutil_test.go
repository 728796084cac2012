package converter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"kanalex/dict"
	"kanalex/history"
	"kanalex/model"
)

func newTestHistory() *history.UserHistory {
	return history.New()
}

func testDict() *dict.TrieDictionary {
	return dict.FromEntries([]model.SearchResult{
		{Reading: "きょう", Entries: []model.DictEntry{
			{Surface: "今日", Cost: 3000, LeftID: 100, RightID: 100},
			{Surface: "京", Cost: 5000, LeftID: 101, RightID: 101},
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
		{Reading: "き", Entries: []model.DictEntry{
			{Surface: "木", Cost: 4500, LeftID: 500, RightID: 500},
		}},
		{Reading: "い", Entries: []model.DictEntry{
			{Surface: "胃", Cost: 6000, LeftID: 600, RightID: 600},
		}},
		{Reading: "てん", Entries: []model.DictEntry{
			{Surface: "天", Cost: 5000, LeftID: 700, RightID: 700},
		}},
		{Reading: "です", Entries: []model.DictEntry{
			{Surface: "です", Cost: 2500, LeftID: 800, RightID: 800},
		}},
		{Reading: "ね", Entries: []model.DictEntry{
			{Surface: "ね", Cost: 2000, LeftID: 900, RightID: 900},
		}},
		{Reading: "わたし", Entries: []model.DictEntry{
			{Surface: "私", Cost: 3000, LeftID: 1000, RightID: 1000},
		}},
		{Reading: "がくせい", Entries: []model.DictEntry{
			{Surface: "学生", Cost: 4000, LeftID: 1100, RightID: 1100},
		}},
	})
}

// zeroConnWithFW builds an all-zero matrix with the given id count and
// function-word range, via the sparse triplet format.
func zeroConnWithFW(t *testing.T, numIDs, fwMin, fwMax uint16) *dict.ConnectionMatrix {
	t.Helper()
	text := fmt.Sprintf("%d %d\n0 0 0\n", numIDs, numIDs)
	m, err := dict.FromTextWithMetadata(text, fwMin, fwMax)
	require.NoError(t, err)
	return m
}

// uniformConn builds a matrix where every transition costs the same.
func uniformConn(t *testing.T, numIDs int, cost int16) *dict.ConnectionMatrix {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", numIDs, numIDs)
	for i := 0; i < numIDs*numIDs; i++ {
		fmt.Fprintf(&b, "%d\n", cost)
	}
	m, err := dict.FromText(b.String())
	require.NoError(t, err)
	return m
}

func surfacesOf(segments []model.ConvertedSegment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Surface
	}
	return out
}

func joinedSurface(segments []model.ConvertedSegment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Surface)
	}
	return b.String()
}

func seg(reading, surface string) RichSegment {
	return RichSegment{Reading: reading, Surface: surface, LeftID: 1, RightID: 1}
}
