// Package session is the stateful composing session the host editor
// drives: keystroke handling, romaji composition, candidate selection,
// stability auto-commit and the async candidate/ghost-text protocols.
package session

import (
	"kanalex/candidates"
	"kanalex/dict"
	"kanalex/history"
	"kanalex/model"
	"kanalex/settings"
)

// Virtual key codes tested by the session. The host picks the values;
// these are the macOS conventions.
const (
	KeyEnter     uint16 = 36
	KeyTab       uint16 = 48
	KeySpace     uint16 = 49
	KeyBackspace uint16 = 51
	KeyEscape    uint16 = 53
	KeyYen       uint16 = 93
	KeyEisu      uint16 = 102
	KeyKana      uint16 = 104
	KeyDown      uint16 = 125
	KeyUp        uint16 = 126
)

// Flag bits for HandleKey.
const (
	FlagShift       uint8 = 1
	FlagHasModifier uint8 = 2
)

const maxComposedKanaLength = 100
const maxCandidates = 20

// ConversionMode selects how candidates are generated, what Tab does,
// and whether auto-commit fires.
type ConversionMode int

const (
	// ModeStandard: full candidate generation, Tab toggles the
	// Japanese/English submode, auto-commit enabled.
	ModeStandard ConversionMode = iota
	// ModePredictive: bigram-chained completions, Tab commits, no
	// auto-commit.
	ModePredictive
	// ModeGhostText: standard generation plus ghost-text requests after
	// commit; Tab in idle accepts a displayed ghost.
	ModeGhostText
)

func (m ConversionMode) generate(d *dict.TrieDictionary, conn *dict.ConnectionMatrix, h *history.UserHistory, reading string, max int) candidates.Response {
	if m == ModePredictive {
		return candidates.GeneratePredictions(d, conn, h, reading, max)
	}
	return candidates.Generate(d, conn, h, reading, max)
}

func (m ConversionMode) tabCommits() bool {
	return m == ModePredictive || m == ModeGhostText
}

func (m ConversionMode) autoCommitEnabled() bool {
	return m == ModeStandard
}

// Dispatch returns the tag the host echoes back when it fulfils an
// async candidate request, so the right generator runs off-thread.
func (m ConversionMode) Dispatch() uint8 {
	return uint8(m)
}

// Submode within a composition: romaji→kana conversion or raw ASCII.
type submode int

const (
	submodeJapanese submode = iota
	submodeEnglish
)

// candidateState is the active candidate list and selection.
type candidateState struct {
	surfaces []string
	paths    [][]model.ConvertedSegment
	selected int
}

func (c *candidateState) clear() {
	c.surfaces = nil
	c.paths = nil
	c.selected = 0
}

func (c *candidateState) isEmpty() bool {
	return len(c.surfaces) == 0
}

// stabilityTracker counts consecutive candidate refreshes whose best
// path starts with the same first-segment reading.
type stabilityTracker struct {
	prevFirstSegReading string
	hasPrev             bool
	count               int
}

func (s *stabilityTracker) reset() {
	s.prevFirstSegReading = ""
	s.hasPrev = false
	s.count = 0
}

func (s *stabilityTracker) track(paths [][]model.ConvertedSegment) {
	if len(paths) == 0 || len(paths[0]) < 2 {
		s.reset()
		return
	}
	first := paths[0][0].Reading
	if s.hasPrev && first == s.prevFirstSegReading {
		s.count++
	} else {
		s.prevFirstSegReading = first
		s.hasPrev = true
		s.count = 1
	}
}

// frozenPrefix is text carried across submode switches, plus whether a
// programmer-mode boundary space trails it.
type frozenPrefix struct {
	text             string
	hasBoundarySpace bool
}

func (p *frozenPrefix) isEmpty() bool { return p.text == "" }

func (p *frozenPrefix) pop() {
	runes := []rune(p.text)
	if len(runes) > 0 {
		p.text = string(runes[:len(runes)-1])
	}
}

func (p *frozenPrefix) undoBoundarySpace() {
	if p.hasBoundarySpace && len(p.text) > 0 && p.text[len(p.text)-1] == ' ' {
		p.text = p.text[:len(p.text)-1]
		p.hasBoundarySpace = false
	}
}

// composition is the transient state while composing. At most one
// exists; an idle session holds none.
type composition struct {
	submode    submode
	kana       string
	pending    string
	prefix     frozenPrefix
	candidates candidateState
	stability  stabilityTracker
}

func newComposition(sub submode) *composition {
	return &composition{submode: sub}
}

// display is the marked text: the selected candidate surface in
// Japanese mode (with any pending romaji appended so the preview stays
// stable mid-word), kana+pending otherwise, behind the frozen prefix.
func (c *composition) display() string {
	var segment string
	if c.submode == submodeJapanese && c.candidates.selected < len(c.candidates.surfaces) {
		segment = c.candidates.surfaces[c.candidates.selected] + c.pending
	} else {
		segment = c.kana + c.pending
	}
	return c.prefix.text + segment
}

// displayKana ignores candidates: always prefix + kana + pending.
func (c *composition) displayKana() string {
	return c.prefix.text + c.kana + c.pending
}

// MarkedText is the composing preview; dashed marks English segments.
type MarkedText struct {
	Text   string
	Dashed bool
}

// CandidateActionKind discriminates the candidate panel action.
type CandidateActionKind int

const (
	// CandidateKeep leaves the panel as-is (e.g. deferred mode keeping
	// stale candidates visible).
	CandidateKeep CandidateActionKind = iota
	// CandidateShow shows or updates the panel.
	CandidateShow
	// CandidateHide hides the panel.
	CandidateHide
)

// CandidateAction is the panel action plus its Show payload.
type CandidateAction struct {
	Kind     CandidateActionKind
	Surfaces []string
	Selected uint32
}

// AsyncCandidateRequest asks the caller to run candidate generation off
// the keystroke path and deliver the result via ReceiveCandidates.
type AsyncCandidateRequest struct {
	Reading  string
	Dispatch uint8
}

// AsyncGhostRequest asks the caller for ghost text continuing the
// accumulated committed context.
type AsyncGhostRequest struct {
	Context    string
	Generation uint64
}

// SideEffects are orthogonal actions accompanying a response.
type SideEffects struct {
	SwitchToABC bool
	SaveHistory bool
}

// KeyResponse tells the caller what to do after a key event.
// GhostText of "" clears a displayed ghost; nil means no change.
type KeyResponse struct {
	Consumed     bool
	Commit       string
	HasCommit    bool
	Marked       *MarkedText
	Candidates   CandidateAction
	AsyncRequest *AsyncCandidateRequest
	SideEffects  SideEffects
	GhostText    *string
	GhostRequest *AsyncGhostRequest
}

func notConsumed() KeyResponse {
	return KeyResponse{}
}

func consumed() KeyResponse {
	return KeyResponse{Consumed: true}
}

func (r *KeyResponse) setCommit(text string) {
	r.Commit = text
	r.HasCommit = true
}

func (r *KeyResponse) appendCommit(text string) {
	r.Commit += text
	r.HasCommit = true
}

// withDisplayFrom keeps commit/side-effects from r and takes the
// display fields from other.
func (r KeyResponse) withDisplayFrom(other KeyResponse) KeyResponse {
	r.Marked = other.Marked
	r.Candidates = other.Candidates
	r.AsyncRequest = other.AsyncRequest
	return r
}

func sessionSettings() settings.SessionSettings {
	return settings.Get().Session
}

func cyclicIndex(current, delta, count int) int {
	if count == 0 {
		return 0
	}
	return ((current+delta)%count + count) % count
}
