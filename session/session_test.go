package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanalex/candidates"
	"kanalex/dict"
	"kanalex/history"
	"kanalex/model"
)

func makeTestDict() *dict.TrieDictionary {
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
			{Surface: "いい", Cost: 4000, LeftID: 301, RightID: 301},
		}},
		{Reading: "てんき", Entries: []model.DictEntry{
			{Surface: "天気", Cost: 4000, LeftID: 400, RightID: 400},
		}},
		{Reading: "い", Entries: []model.DictEntry{
			{Surface: "胃", Cost: 6000, LeftID: 600, RightID: 600},
		}},
		{Reading: "き", Entries: []model.DictEntry{
			{Surface: "木", Cost: 4500, LeftID: 500, RightID: 500},
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
	})
}

func typeText(s *InputSession, text string) []KeyResponse {
	var responses []KeyResponse
	for _, ch := range text {
		responses = append(responses, s.HandleKey(0, string(ch), 0))
	}
	return responses
}

func TestTypeAndCommit(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())

	typeText(s, "kyou")
	require.True(t, s.IsComposing())

	resp := s.HandleKey(KeyEnter, "\n", 0)
	require.True(t, resp.HasCommit)
	assert.Equal(t, "今日", resp.Commit)
	assert.Equal(t, CandidateHide, resp.Candidates.Kind)
	assert.False(t, s.IsComposing())

	records := s.TakeHistoryRecords()
	require.NotEmpty(t, records)
	assert.Equal(t, "きょう", records[0][0].Reading)
	assert.Equal(t, "今日", records[0][0].Surface)
	assert.Empty(t, s.TakeHistoryRecords(), "records drain once")
}

func TestComposedStringShowsConversion(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")
	assert.Equal(t, "今日", s.ComposedString())
}

func TestPendingRomajiAppendsToPreview(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyouh")
	// Resolved kana shows its conversion, trailing romaji stays visible.
	assert.True(t, strings.HasSuffix(s.ComposedString(), "h"))
}

func TestSpaceCyclesCandidates(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")

	resp := s.HandleKey(KeySpace, " ", 0)
	require.Equal(t, CandidateShow, resp.Candidates.Kind)
	assert.Equal(t, uint32(1), resp.Candidates.Selected)

	resp = s.HandleKey(KeySpace, " ", 0)
	assert.Equal(t, uint32(2), resp.Candidates.Selected)
}

func TestArrowKeysCycle(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")

	resp := s.HandleKey(KeyDown, "", 0)
	require.Equal(t, CandidateShow, resp.Candidates.Kind)
	assert.Equal(t, uint32(1), resp.Candidates.Selected)

	resp = s.HandleKey(KeyUp, "", 0)
	assert.Equal(t, uint32(0), resp.Candidates.Selected)
}

func TestCommitSelectedCandidate(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())
	typeText(s, "kyou")

	first := s.HandleKey(KeySpace, " ", 0)
	require.Equal(t, CandidateShow, first.Candidates.Kind)
	selected := first.Candidates.Surfaces[first.Candidates.Selected]

	resp := s.HandleKey(KeyEnter, "\n", 0)
	require.True(t, resp.HasCommit)
	assert.Equal(t, selected, resp.Commit)
}

func TestPunctuationAutoCommit(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")

	resp := s.HandleKey(0, ".", 0)
	require.True(t, resp.HasCommit)
	assert.True(t, strings.HasSuffix(resp.Commit, "。"), "commit %q should end with 。", resp.Commit)
	assert.True(t, strings.HasPrefix(resp.Commit, "今日"))
	assert.False(t, s.IsComposing())
}

func TestBackspacePopsKana(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")

	resp := s.HandleKey(KeyBackspace, "", 0)
	assert.True(t, resp.Consumed)
	assert.True(t, s.IsComposing())

	// Two more: き → empty → back to idle.
	s.HandleKey(KeyBackspace, "", 0)
	resp = s.HandleKey(KeyBackspace, "", 0)
	assert.Equal(t, CandidateHide, resp.Candidates.Kind)
	assert.False(t, s.IsComposing())
}

func TestBackspacePopsPendingFirst(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyouh")
	s.HandleKey(KeyBackspace, "", 0)
	// The pending "h" went away, きょう stays.
	assert.Equal(t, "今日", s.ComposedString())
}

func TestEscapeRecordsKanaAndHides(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())
	typeText(s, "kyou")

	resp := s.HandleKey(KeyEscape, "", 0)
	assert.True(t, resp.Consumed)
	assert.Equal(t, CandidateHide, resp.Candidates.Kind)

	records := s.TakeHistoryRecords()
	require.NotEmpty(t, records)
	assert.Equal(t, "きょう", records[0][0].Reading)
	assert.Equal(t, "きょう", records[0][0].Surface)
}

func TestUnknownKeyNotConsumedWhenIdle(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	resp := s.HandleKey(0, "1", 0)
	assert.False(t, resp.Consumed)
}

func TestModifierCommitsAndPassesThrough(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")
	resp := s.HandleKey(0, "c", FlagHasModifier)
	assert.False(t, resp.Consumed)
	assert.True(t, resp.HasCommit)
	assert.False(t, s.IsComposing())
}

func TestEisuCommitsAndSwitchesToABC(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")
	resp := s.HandleKey(KeyEisu, "", 0)
	assert.True(t, resp.SideEffects.SwitchToABC)
	assert.True(t, resp.HasCommit)
}

func TestProgrammerModeYenInsertsBackslash(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	s.SetProgrammerMode(true)
	resp := s.HandleKey(KeyYen, "¥", 0)
	require.True(t, resp.HasCommit)
	assert.Equal(t, "\\", resp.Commit)
}

func TestTabTogglesSubmodeAndFreezesPrefix(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")

	resp := s.HandleKey(KeyTab, "\t", 0)
	assert.True(t, resp.Consumed)
	assert.Equal(t, CandidateHide, resp.Candidates.Kind)
	require.NotNil(t, resp.Marked)
	assert.True(t, resp.Marked.Dashed, "English segment shows a dashed underline")
	assert.Equal(t, "今日", resp.Marked.Text)

	typeText(s, "abc")
	assert.Equal(t, "今日abc", s.ComposedString())

	// Back to Japanese; the English run freezes into the prefix too.
	s.HandleKey(KeyTab, "\t", 0)
	typeText(s, "ha")
	final := s.HandleKey(KeyEnter, "\n", 0)
	require.True(t, final.HasCommit)
	assert.Equal(t, "今日abcは", final.Commit)
}

func TestIdleTabTogglesEnglish(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	s.HandleKey(KeyTab, "\t", 0)
	typeText(s, "go")
	require.True(t, s.IsComposing())
	assert.Equal(t, "go", s.ComposedString())

	resp := s.HandleKey(KeyEnter, "\n", 0)
	require.True(t, resp.HasCommit)
	assert.Equal(t, "go", resp.Commit)
}

func TestPredictiveTabCommits(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())
	s.SetConversionMode(ModePredictive)
	typeText(s, "kyou")
	resp := s.HandleKey(KeyTab, "\t", 0)
	require.True(t, resp.HasCommit)
	assert.NotEmpty(t, resp.Commit)
	assert.False(t, s.IsComposing())
}

func TestDeferredModeEmitsAsyncRequest(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	s.SetDeferCandidates(true)

	responses := typeText(s, "kyou")
	last := responses[len(responses)-1]
	require.NotNil(t, last.AsyncRequest)
	assert.Equal(t, "きょう", last.AsyncRequest.Reading)
	// Interim display is a conversion, not raw kana.
	require.NotNil(t, last.Marked)
	assert.Equal(t, "今日", last.Marked.Text)
}

func TestReceiveCandidatesStale(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	s.SetDeferCandidates(true)

	// Idle session: anything is stale.
	assert.Nil(t, s.ReceiveCandidates("きょう", []string{"今日"}, nil))

	typeText(s, "kyou")
	// Mismatched reading: stale.
	assert.Nil(t, s.ReceiveCandidates("きょ", []string{"きょ"}, nil))

	// Matching reading: accepted.
	resp := s.ReceiveCandidates("きょう", []string{"今日", "京"}, nil)
	require.NotNil(t, resp)
	assert.Equal(t, CandidateShow, resp.Candidates.Kind)
	assert.Equal(t, []string{"今日", "京"}, resp.Candidates.Surfaces)
}

// Drives the deferred-mode loop the way a host would: every async
// request is immediately fulfilled with real generated candidates.
func serviceAsync(t *testing.T, s *InputSession, d *dict.TrieDictionary, resp KeyResponse) []KeyResponse {
	t.Helper()
	var all []KeyResponse
	for resp.AsyncRequest != nil {
		req := resp.AsyncRequest
		gen := candidates.Generate(d, nil, nil, req.Reading, 20)
		next := s.ReceiveCandidates(req.Reading, gen.Surfaces, gen.Paths)
		if next == nil {
			break
		}
		all = append(all, *next)
		resp = *next
	}
	return all
}

func TestStabilityAutoCommitDeferred(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())
	s.SetDeferCandidates(true)

	var committed []KeyResponse
	for _, ch := range "kyouhaiitenki" {
		resp := s.HandleKey(0, string(ch), 0)
		for _, r := range append([]KeyResponse{resp}, serviceAsync(t, s, d, resp)...) {
			if r.HasCommit {
				committed = append(committed, r)
			}
		}
	}

	require.NotEmpty(t, committed, "stability auto-commit should have fired")
	first := committed[0]
	assert.Equal(t, "今日", first.Commit)
	assert.Equal(t, CandidateShow, first.Candidates.Kind)
	assert.NotEmpty(t, first.Candidates.Surfaces)
	require.NotNil(t, first.AsyncRequest)
	assert.NotEmpty(t, first.AsyncRequest.Reading)
	assert.True(t, first.SideEffects.SaveHistory)

	records := s.TakeHistoryRecords()
	require.NotEmpty(t, records)
	assert.Equal(t, "きょう", records[0][0].Reading)
}

func TestStabilityAutoCommitSyncMode(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())

	var commits []string
	for _, ch := range "kyouhaiitenki" {
		resp := s.HandleKey(0, string(ch), 0)
		if resp.HasCommit {
			commits = append(commits, resp.Commit)
		}
	}
	require.NotEmpty(t, commits, "sync-mode auto-commit should fire as well")
	assert.Equal(t, "今日", commits[0])
}

func TestNoAutoCommitInPredictiveMode(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())
	s.SetConversionMode(ModePredictive)

	for _, ch := range "kyouhaiitenki" {
		resp := s.HandleKey(0, string(ch), 0)
		assert.False(t, resp.HasCommit, "predictive mode never auto-commits")
	}
}

func TestGhostTextScenario(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	s.SetConversionMode(ModeGhostText)

	typeText(s, "kyou")
	resp := s.HandleKey(KeyEnter, "\n", 0)
	require.True(t, resp.HasCommit)
	assert.Equal(t, "今日", resp.Commit)
	require.NotNil(t, resp.GhostRequest)
	assert.Equal(t, "今日", resp.GhostRequest.Context)
	assert.Equal(t, uint64(1), resp.GhostRequest.Generation)

	ghost := s.ReceiveGhostText(1, "ですね")
	require.NotNil(t, ghost)
	require.NotNil(t, ghost.GhostText)
	assert.Equal(t, "ですね", *ghost.GhostText)

	accept := s.HandleKey(KeyTab, "\t", 0)
	require.True(t, accept.HasCommit)
	assert.Equal(t, "ですね", accept.Commit)
	require.NotNil(t, accept.GhostRequest)
	assert.Equal(t, uint64(2), accept.GhostRequest.Generation)
	assert.Equal(t, "今日ですね", accept.GhostRequest.Context)
	assert.Equal(t, "今日ですね", s.CommittedContext())
}

func TestGhostTextStaleGeneration(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	s.SetConversionMode(ModeGhostText)

	typeText(s, "kyou")
	s.HandleKey(KeyEnter, "\n", 0)
	assert.Nil(t, s.ReceiveGhostText(99, "stale"))
}

func TestGhostTextClearedByOtherKeys(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	s.SetConversionMode(ModeGhostText)

	typeText(s, "kyou")
	s.HandleKey(KeyEnter, "\n", 0)
	require.NotNil(t, s.ReceiveGhostText(1, "ですね"))

	// A non-Tab key dismisses the ghost and signals the clear.
	resp := s.HandleKey(0, "k", 0)
	require.NotNil(t, resp.GhostText)
	assert.Equal(t, "", *resp.GhostText)
}

func TestGhostTextIgnoredInOtherModes(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, nil)
	typeText(s, "kyou")
	s.HandleKey(KeyEnter, "\n", 0)
	assert.Nil(t, s.ReceiveGhostText(0, "ですね"))
}

func TestCommitRecordsSubPhrases(t *testing.T) {
	d := makeTestDict()
	s := New(d, nil, history.New())
	typeText(s, "kyouha")
	resp := s.HandleKey(KeyEnter, "\n", 0)
	require.True(t, resp.HasCommit)
	assert.Equal(t, "今日は", resp.Commit)

	records := s.TakeHistoryRecords()
	// Whole pair plus the per-segment pairs of the matching N-best path.
	require.GreaterOrEqual(t, len(records), 2)
	assert.Equal(t, "今日は", records[0][0].Surface)
	assert.Len(t, records[1], 2)
	assert.Equal(t, "今日", records[1][0].Surface)
	assert.Equal(t, "は", records[1][1].Surface)
}
