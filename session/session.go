package session

import (
	"strings"

	"github.com/rs/zerolog/log"

	"kanalex/converter"
	"kanalex/dict"
	"kanalex/history"
	"kanalex/model"
	"kanalex/romaji"
)

// InputSession is the per-editor stateful IME session. A session is
// mutated by one caller at a time; the host serialises calls.
type InputSession struct {
	dict    *dict.TrieDictionary
	conn    *dict.ConnectionMatrix
	history *history.UserHistory

	comp        *composition
	idleSubmode submode

	programmerMode  bool
	deferCandidates bool
	mode            ConversionMode

	// Learning events buffered for the caller to drain and commit to
	// the history store out of band.
	historyRecords [][]model.ConvertedSegment

	ghostText        *string
	ghostGeneration  uint64
	committedContext string
}

// New builds a session over borrowed assets; conn and h may be nil.
func New(d *dict.TrieDictionary, conn *dict.ConnectionMatrix, h *history.UserHistory) *InputSession {
	return &InputSession{dict: d, conn: conn, history: h, idleSubmode: submodeJapanese}
}

func (s *InputSession) SetProgrammerMode(enabled bool) { s.programmerMode = enabled }

// SetDeferCandidates makes HandleKey return an AsyncRequest instead of
// generating candidates synchronously.
func (s *InputSession) SetDeferCandidates(enabled bool) { s.deferCandidates = enabled }

func (s *InputSession) SetConversionMode(mode ConversionMode) { s.mode = mode }

// SetHistory swaps the history reference (e.g. a freshly loaded store).
func (s *InputSession) SetHistory(h *history.UserHistory) { s.history = h }

// IsComposing reports whether a composition is active.
func (s *InputSession) IsComposing() bool { return s.comp != nil }

// ComposedString is the current marked text, empty when idle.
func (s *InputSession) ComposedString() string {
	if s.comp == nil {
		return ""
	}
	return s.comp.display()
}

// CommittedContext is the text committed so far, accumulated for
// ghost-text generation.
func (s *InputSession) CommittedContext() string { return s.committedContext }

// GhostGeneration is the current staleness counter for ghost requests.
func (s *InputSession) GhostGeneration() uint64 { return s.ghostGeneration }

// TakeHistoryRecords drains the buffered learning events. The caller
// feeds them to UserHistory.Record (and the WAL).
func (s *InputSession) TakeHistoryRecords() [][]model.ConvertedSegment {
	records := s.historyRecords
	s.historyRecords = nil
	return records
}

func (s *InputSession) submode() submode {
	if s.comp != nil {
		return s.comp.submode
	}
	return s.idleSubmode
}

// HandleKey processes one key event. flags: bit 0 = shift, bit 1 = a
// command-level modifier is held.
func (s *InputSession) HandleKey(keyCode uint16, text string, flags uint8) KeyResponse {
	log.Debug().Uint16("key", keyCode).Str("text", text).Uint8("flags", flags).Msg("handle key")
	hasModifier := flags&FlagHasModifier != 0
	hasShift := flags&FlagShift != 0

	// Any key but Tab dismisses a displayed ghost.
	hadGhost := s.ghostText != nil
	if hadGhost && keyCode != KeyTab {
		s.ghostText = nil
	}

	var resp KeyResponse
	switch {
	case keyCode == KeyEisu:
		if s.IsComposing() {
			resp = s.commitCurrentState()
		} else {
			resp = consumed()
		}
		resp.SideEffects.SwitchToABC = true

	case keyCode == KeyKana:
		// Already in Japanese mode; swallow.
		resp = consumed()

	case hasModifier:
		// Command-level chords: commit first, then let the host have
		// the key.
		if s.IsComposing() {
			resp = s.commitCurrentState()
			resp.Consumed = false
		} else {
			resp = notConsumed()
		}

	case keyCode == KeyYen && s.programmerMode && !hasShift:
		if s.IsComposing() {
			resp = s.commitCurrentState()
		} else {
			resp = consumed()
		}
		resp.appendCommit("\\")

	default:
		if s.comp == nil {
			resp = s.handleIdle(keyCode, text)
		} else {
			resp = s.handleComposing(keyCode, text)
		}
	}

	if hadGhost && keyCode != KeyTab {
		cleared := ""
		resp.GhostText = &cleared
	}
	return resp
}

// Commit flushes and commits the current composition.
func (s *InputSession) Commit() KeyResponse {
	return s.commitCurrentState()
}

// ---------------------------------------------------------------------
// Idle state
// ---------------------------------------------------------------------

func (s *InputSession) handleIdle(keyCode uint16, text string) KeyResponse {
	if keyCode == KeyTab && s.ghostText != nil && s.mode == ModeGhostText {
		return s.acceptGhostText()
	}
	if keyCode == KeyTab {
		return s.toggleSubmode()
	}

	if s.idleSubmode == submodeEnglish {
		if isPrintableASCII(text) {
			s.comp = newComposition(submodeEnglish)
			s.comp.kana += text
			return s.makeMarkedTextResponse()
		}
		return notConsumed()
	}

	if isRomajiInput(text) {
		s.comp = newComposition(submodeJapanese)
		return s.appendAndConvert(strings.ToLower(text))
	}

	// Direct table hit for non-romaji characters (punctuation).
	switch romaji.Global().Lookup(text).Kind {
	case romaji.Exact, romaji.ExactAndPrefix:
		s.comp = newComposition(submodeJapanese)
		return s.appendAndConvert(text)
	}
	return notConsumed()
}

// ---------------------------------------------------------------------
// Composing state
// ---------------------------------------------------------------------

func (s *InputSession) handleComposing(keyCode uint16, text string) KeyResponse {
	c := s.comp
	switch keyCode {
	case KeyEnter:
		if c.submode == submodeEnglish {
			resp := s.commitComposed()
			resp.Candidates = CandidateAction{Kind: CandidateHide}
			return resp
		}
		s.ensureCandidates()
		return s.commitCurrentState()

	case KeySpace:
		if c.submode == submodeEnglish {
			c.kana += " "
			return s.makeMarkedTextResponse()
		}
		s.ensureCandidates()
		if !c.candidates.isEmpty() {
			if c.candidates.selected == 0 && len(c.candidates.surfaces) > 1 {
				c.candidates.selected = 1
			} else {
				c.candidates.selected = cyclicIndex(c.candidates.selected, 1, len(c.candidates.surfaces))
			}
			return s.makeCandidateSelectionResponse()
		}
		return consumed()

	case KeyDown:
		s.ensureCandidates()
		if !c.candidates.isEmpty() {
			c.candidates.selected = cyclicIndex(c.candidates.selected, 1, len(c.candidates.surfaces))
			return s.makeCandidateSelectionResponse()
		}
		return consumed()

	case KeyUp:
		s.ensureCandidates()
		if !c.candidates.isEmpty() {
			c.candidates.selected = cyclicIndex(c.candidates.selected, -1, len(c.candidates.surfaces))
			return s.makeCandidateSelectionResponse()
		}
		return consumed()

	case KeyTab:
		if s.mode.tabCommits() {
			s.ensureCandidates()
			return s.commitCurrentState()
		}
		return s.toggleSubmode()

	case KeyBackspace:
		return s.handleBackspace()

	case KeyEscape:
		s.flush()
		if c.submode == submodeJapanese && c.kana != "" {
			// The kana will be committed unchanged; learn it as its own
			// surface.
			s.recordHistory(c.kana, c.kana)
		}
		c.candidates.clear()
		resp := consumed()
		resp.Candidates = CandidateAction{Kind: CandidateHide}
		if len(s.historyRecords) > 0 {
			resp.SideEffects.SaveHistory = true
		}
		// The host commits the marked text after Escape.
		return resp
	}
	return s.handleComposingText(text)
}

func (s *InputSession) handleComposingText(text string) KeyResponse {
	c := s.comp
	if c.submode == submodeEnglish {
		if isPrintableASCII(text) {
			c.prefix.hasBoundarySpace = false
			c.kana += text
			return s.makeMarkedTextResponse()
		}
		return consumed()
	}

	// Pending plus this key may still form a longer table sequence.
	if c.pending != "" {
		switch romaji.Global().Lookup(c.pending + text).Kind {
		case romaji.Exact, romaji.ExactAndPrefix, romaji.Prefix:
			return s.appendAndConvert(text)
		}
	}

	if isRomajiInput(text) {
		// Typing past an explicit candidate choice commits it first.
		if c.candidates.selected > 0 && c.candidates.selected < len(c.candidates.surfaces) {
			commitResp := s.commitCurrentState()
			s.comp = newComposition(submodeJapanese)
			appendResp := s.appendAndConvert(strings.ToLower(text))
			return commitResp.withDisplayFrom(appendResp)
		}
		return s.appendAndConvert(strings.ToLower(text))
	}

	// Punctuation commits the composition, then the converted mark.
	switch romaji.Global().Lookup(text).Kind {
	case romaji.Exact, romaji.ExactAndPrefix:
		resp := s.commitCurrentState()
		result := romaji.Convert("", text, true)
		if result.ComposedKana != "" {
			resp.appendCommit(result.ComposedKana)
		}
		return resp
	}

	// Unrecognized non-romaji character — take it into kana directly.
	c.kana += text
	if s.deferCandidates {
		return s.makeDeferredCandidatesResponse()
	}
	s.updateCandidates()
	return s.makeMarkedTextAndCandidatesResponse()
}

// ---------------------------------------------------------------------
// Romaji composition
// ---------------------------------------------------------------------

func (s *InputSession) appendAndConvert(input string) KeyResponse {
	c := s.comp
	// Overflow: commit what we have and start over with this keystroke.
	if len([]rune(c.kana)) >= maxComposedKanaLength {
		resp := s.commitComposed()
		s.comp = newComposition(submodeJapanese)
		s.comp.pending += input
		s.drainPending(false)
		var sub KeyResponse
		if s.deferCandidates {
			sub = s.makeDeferredCandidatesResponse()
		} else {
			if s.comp.pending == "" {
				s.updateCandidates()
			}
			sub = s.makeMarkedTextAndCandidatesResponse()
		}
		return resp.withDisplayFrom(sub)
	}

	c.prefix.hasBoundarySpace = false
	c.pending += input
	s.drainPending(false)

	if s.deferCandidates {
		if s.comp.pending == "" {
			// Kana resolved — hand generation to the caller.
			return s.makeDeferredCandidatesResponse()
		}
		return s.makeMarkedTextResponse()
	}
	if s.comp.pending == "" {
		s.updateCandidates()
	}
	return s.makeMarkedTextAndCandidatesResponse()
}

func (s *InputSession) drainPending(force bool) {
	c := s.comp
	result := romaji.Convert(c.kana, c.pending, force)
	c.kana = result.ComposedKana
	c.pending = result.PendingRomaji
}

func (s *InputSession) flush() {
	s.drainPending(true)
}

// ---------------------------------------------------------------------
// Candidate generation
// ---------------------------------------------------------------------

// ensureCandidates lazily generates candidates before keys that need
// them (commit, cycling).
func (s *InputSession) ensureCandidates() {
	if s.comp.candidates.isEmpty() && s.comp.kana != "" {
		s.updateCandidates()
	}
}

func (s *InputSession) updateCandidates() {
	c := s.comp
	c.candidates.selected = 0
	if c.kana == "" {
		c.candidates.clear()
		c.stability.reset()
		return
	}
	resp := s.mode.generate(s.dict, s.conn, s.history, c.kana, maxCandidates)
	c.candidates.surfaces = resp.Surfaces
	c.candidates.paths = resp.Paths
	c.stability.track(c.candidates.paths)
}

// makeDeferredCandidatesResponse defers full generation to the caller
// while computing a cheap 1-best interim surface so the marked text
// shows a conversion, never raw kana, while the async result is in
// flight. Stability is not reset here; it accumulates across
// keystrokes.
func (s *InputSession) makeDeferredCandidatesResponse() KeyResponse {
	c := s.comp
	reading := c.kana
	if reading != "" {
		segments := converter.Convert(s.dict, s.conn, reading)
		var surface strings.Builder
		for _, seg := range segments {
			surface.WriteString(seg.Surface)
		}
		c.candidates.surfaces = []string{surface.String()}
		c.candidates.paths = [][]model.ConvertedSegment{segments}
		c.candidates.selected = 0
	} else {
		c.candidates.clear()
	}
	resp := s.makeMarkedTextResponse()
	if reading != "" {
		resp.AsyncRequest = &AsyncCandidateRequest{Reading: reading, Dispatch: s.mode.Dispatch()}
	}
	return resp
}

// ReceiveCandidates accepts an asynchronously generated result. The
// result is stale — and nil is returned — unless the session is still
// composing in Japanese with exactly the echoed reading.
func (s *InputSession) ReceiveCandidates(reading string, surfaces []string, paths [][]model.ConvertedSegment) *KeyResponse {
	c := s.comp
	if c == nil || c.submode != submodeJapanese || c.kana != reading {
		return nil
	}
	c.candidates.surfaces = surfaces
	c.candidates.paths = paths
	c.candidates.selected = 0
	c.stability.track(c.candidates.paths)

	if auto := s.tryAutoCommit(); auto != nil {
		return auto
	}
	resp := s.makeMarkedTextAndCandidatesResponse()
	return &resp
}

// ---------------------------------------------------------------------
// Segment stability auto-commit
// ---------------------------------------------------------------------

// tryAutoCommit commits the leading segment(s) of the best path once
// the head has stayed stable across enough refreshes. Standard mode
// only.
func (s *InputSession) tryAutoCommit() *KeyResponse {
	if !s.mode.autoCommitEnabled() {
		return nil
	}
	c := s.comp
	st := sessionSettings()
	if c.stability.count < st.StabilityThreshold {
		return nil
	}
	if len(c.candidates.paths) == 0 {
		return nil
	}
	bestPath := c.candidates.paths[0]
	if len(bestPath) < st.MinPathSegments {
		return nil
	}
	if c.candidates.selected != 0 || c.pending != "" {
		return nil
	}

	// Group consecutive ASCII segments into one commit.
	commitCount := 1
	if isASCII(bestPath[0].Surface) {
		for commitCount < len(bestPath)-1 && isASCII(bestPath[commitCount].Surface) {
			commitCount++
		}
	}
	segments := bestPath[:commitCount]
	var committedReading, committedSurface strings.Builder
	for _, seg := range segments {
		committedReading.WriteString(seg.Reading)
		committedSurface.WriteString(seg.Surface)
	}
	reading := committedReading.String()
	surface := committedSurface.String()

	if !strings.HasPrefix(c.kana, reading) {
		return nil
	}

	if surface != reading {
		s.historyRecords = append(s.historyRecords, []model.ConvertedSegment{{Reading: reading, Surface: surface}})
	}
	if commitCount > 1 {
		pairs := make([]model.ConvertedSegment, commitCount)
		copy(pairs, segments)
		s.historyRecords = append(s.historyRecords, pairs)
	}

	c.kana = c.kana[len(reading):]
	c.stability.reset()

	prefixText := c.prefix.text
	c.prefix.text = ""
	c.prefix.hasBoundarySpace = false

	resp := consumed()
	resp.setCommit(prefixText + surface)
	resp.SideEffects.SaveHistory = true

	switch {
	case c.kana == "":
		c.candidates.clear()
		resp.Candidates = CandidateAction{Kind: CandidateHide}
		resp.Marked = &MarkedText{}

	case s.deferCandidates:
		// Synthesise provisional candidates from the N-best tails so
		// the panel stays open while the fresh async result arrives.
		var provisional []string
		seen := make(map[string]struct{})
		for _, path := range c.candidates.paths {
			if len(path) <= commitCount {
				continue
			}
			var remaining strings.Builder
			for _, seg := range path[commitCount:] {
				remaining.WriteString(seg.Surface)
			}
			r := remaining.String()
			if r == "" {
				continue
			}
			if _, dup := seen[r]; !dup {
				seen[r] = struct{}{}
				provisional = append(provisional, r)
			}
		}
		if _, dup := seen[c.kana]; !dup {
			provisional = append(provisional, c.kana)
		}

		c.candidates.clear()
		c.candidates.surfaces = append([]string(nil), provisional...)

		resp.Marked = &MarkedText{Text: provisional[0]}
		resp.AsyncRequest = &AsyncCandidateRequest{Reading: c.kana, Dispatch: s.mode.Dispatch()}
		resp.Candidates = CandidateAction{Kind: CandidateShow, Surfaces: provisional}

	default:
		dashed := c.submode == submodeEnglish
		resp.Marked = &MarkedText{Text: c.displayKana(), Dashed: dashed}
		s.updateCandidates()
		if len(c.candidates.surfaces) > 0 {
			resp.Marked = &MarkedText{Text: c.prefix.text + c.candidates.surfaces[0], Dashed: dashed}
			resp.Candidates = CandidateAction{
				Kind:     CandidateShow,
				Surfaces: c.candidates.surfaces,
				Selected: uint32(c.candidates.selected),
			}
		}
	}

	return &resp
}

// ---------------------------------------------------------------------
// Commit helpers
// ---------------------------------------------------------------------

func (s *InputSession) commitComposed() KeyResponse {
	resp := consumed()
	c := s.comp
	text := c.prefix.text + c.kana
	if text != "" {
		resp.setCommit(text)
	} else {
		resp.Marked = &MarkedText{}
	}
	s.resetState()
	s.noteCommitted(&resp)
	return resp
}

func (s *InputSession) commitCurrentState() KeyResponse {
	if s.comp == nil {
		return consumed()
	}
	resp := consumed()
	resp.Candidates = CandidateAction{Kind: CandidateHide}
	s.flush()

	c := s.comp
	prefixText := c.prefix.text
	c.prefix.text = ""

	if c.candidates.selected < len(c.candidates.surfaces) {
		surface := c.candidates.surfaces[c.candidates.selected]
		s.recordHistory(c.kana, surface)
		resp.SideEffects.SaveHistory = true
		resp.setCommit(prefixText + surface)
	} else if c.kana != "" || prefixText != "" {
		resp.setCommit(prefixText + c.kana)
	} else {
		resp.Marked = &MarkedText{}
	}

	s.resetState()
	s.noteCommitted(&resp)
	return resp
}

// noteCommitted accumulates committed text and, in ghost-text mode,
// attaches a generation request for what comes next.
func (s *InputSession) noteCommitted(resp *KeyResponse) {
	if !resp.HasCommit || resp.Commit == "" {
		return
	}
	s.committedContext += resp.Commit
	if s.mode == ModeGhostText {
		s.ghostGeneration++
		resp.GhostRequest = &AsyncGhostRequest{
			Context:    s.committedContext,
			Generation: s.ghostGeneration,
		}
	}
}

// recordHistory buffers a committed (reading, surface) pair, plus the
// per-segment pairs when the surface matches a multi-segment N-best
// path, so sub-phrases are learned too.
func (s *InputSession) recordHistory(reading, surface string) {
	if s.history == nil {
		return
	}
	s.historyRecords = append(s.historyRecords, []model.ConvertedSegment{{Reading: reading, Surface: surface}})

	for _, path := range s.comp.candidates.paths {
		var joined strings.Builder
		for _, seg := range path {
			joined.WriteString(seg.Surface)
		}
		if joined.String() == surface {
			if len(path) > 1 {
				pairs := make([]model.ConvertedSegment, len(path))
				copy(pairs, path)
				s.historyRecords = append(s.historyRecords, pairs)
			}
			break
		}
	}
}

func (s *InputSession) resetState() {
	s.comp = nil
	s.idleSubmode = submodeJapanese
}

// ---------------------------------------------------------------------
// Ghost text
// ---------------------------------------------------------------------

func (s *InputSession) acceptGhostText() KeyResponse {
	text := *s.ghostText
	s.ghostText = nil
	resp := consumed()
	resp.setCommit(text)
	s.committedContext += text
	s.ghostGeneration++
	resp.GhostRequest = &AsyncGhostRequest{
		Context:    s.committedContext,
		Generation: s.ghostGeneration,
	}
	return resp
}

// ReceiveGhostText accepts an async ghost-text result. Stale
// generations, a composing session, or a non-ghost mode all return nil.
func (s *InputSession) ReceiveGhostText(generation uint64, text string) *KeyResponse {
	if generation != s.ghostGeneration || s.IsComposing() || s.mode != ModeGhostText {
		return nil
	}
	s.ghostText = &text
	resp := consumed()
	echoed := text
	resp.GhostText = &echoed
	return &resp
}

// ---------------------------------------------------------------------
// Backspace
// ---------------------------------------------------------------------

func (s *InputSession) handleBackspace() KeyResponse {
	c := s.comp
	switch {
	case c.pending != "":
		c.pending = c.pending[:len(c.pending)-1]
	case c.kana != "":
		runes := []rune(c.kana)
		c.kana = string(runes[:len(runes)-1])
	case !c.prefix.isEmpty():
		c.prefix.pop()
	}

	if c.kana == "" && c.pending == "" && c.prefix.isEmpty() {
		resp := consumed()
		resp.Candidates = CandidateAction{Kind: CandidateHide}
		resp.Marked = &MarkedText{}
		s.resetState()
		return resp
	}
	if c.kana == "" && c.pending == "" {
		// Only the frozen prefix remains.
		c.candidates.clear()
		resp := consumed()
		resp.Marked = &MarkedText{Text: c.display(), Dashed: c.submode == submodeEnglish}
		resp.Candidates = CandidateAction{Kind: CandidateHide}
		return resp
	}
	if s.deferCandidates && c.submode == submodeJapanese {
		return s.makeDeferredCandidatesResponse()
	}
	if c.submode == submodeJapanese {
		s.updateCandidates()
	}
	return s.makeMarkedTextAndCandidatesResponse()
}

// ---------------------------------------------------------------------
// Submode toggle
// ---------------------------------------------------------------------

// toggleSubmode switches Japanese↔English. While composing, the current
// segment crystallises into the frozen prefix; programmer mode inserts
// a space when the scripts straddle the boundary.
func (s *InputSession) toggleSubmode() KeyResponse {
	current := s.submode()
	next := submodeJapanese
	if current == submodeJapanese {
		next = submodeEnglish
	}

	if s.comp == nil {
		s.idleSubmode = next
		return consumed()
	}

	c := s.comp
	if c.pending != "" {
		s.flush()
	}
	c.prefix.undoBoundarySpace()

	switch current {
	case submodeJapanese:
		frozen := c.kana
		if c.candidates.selected < len(c.candidates.surfaces) {
			frozen = c.candidates.surfaces[c.candidates.selected]
			s.recordHistory(c.kana, frozen)
		}
		c.prefix.text += frozen
	case submodeEnglish:
		c.prefix.text += c.kana
	}

	c.kana = ""
	c.pending = ""
	c.candidates.clear()
	c.stability.reset()

	c.prefix.hasBoundarySpace = false
	if s.programmerMode && !c.prefix.isEmpty() {
		runes := []rune(c.prefix.text)
		last := runes[len(runes)-1]
		lastIsASCII := last < 0x80
		shouldInsert := (current == submodeJapanese && next == submodeEnglish && !lastIsASCII) ||
			(current == submodeEnglish && next == submodeJapanese && lastIsASCII && last != ' ')
		if shouldInsert {
			c.prefix.text += " "
			c.prefix.hasBoundarySpace = true
		}
	}

	c.submode = next

	resp := consumed()
	if display := c.display(); display != "" {
		resp.Marked = &MarkedText{Text: display, Dashed: next == submodeEnglish}
	}
	resp.Candidates = CandidateAction{Kind: CandidateHide}
	if len(s.historyRecords) > 0 {
		resp.SideEffects.SaveHistory = true
	}
	return resp
}

// ---------------------------------------------------------------------
// Response builders
// ---------------------------------------------------------------------

func (s *InputSession) makeMarkedTextResponse() KeyResponse {
	c := s.comp
	resp := consumed()
	resp.Marked = &MarkedText{Text: c.display(), Dashed: c.submode == submodeEnglish}
	return resp
}

func (s *InputSession) makeMarkedTextAndCandidatesResponse() KeyResponse {
	c := s.comp
	resp := consumed()
	resp.Marked = &MarkedText{Text: c.display(), Dashed: c.submode == submodeEnglish}
	if !c.candidates.isEmpty() {
		resp.Candidates = CandidateAction{
			Kind:     CandidateShow,
			Surfaces: c.candidates.surfaces,
			Selected: uint32(c.candidates.selected),
		}
	}
	// Sync mode auto-commits here; deferred mode does it when the async
	// result lands in ReceiveCandidates.
	if !s.deferCandidates {
		if auto := s.tryAutoCommit(); auto != nil {
			return *auto
		}
	}
	return resp
}

func (s *InputSession) makeCandidateSelectionResponse() KeyResponse {
	c := s.comp
	resp := consumed()
	resp.Marked = &MarkedText{Text: c.display()}
	resp.Candidates = CandidateAction{
		Kind:     CandidateShow,
		Surfaces: c.candidates.surfaces,
		Selected: uint32(c.candidates.selected),
	}
	return resp
}

// ---------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------

func isRomajiInput(text string) bool {
	if text == "-" {
		return true
	}
	if text == "" {
		return false
	}
	c := text[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isPrintableASCII(text string) bool {
	if text == "" {
		return false
	}
	r := []rune(text)[0]
	return r >= 0x20 && r < 0x7F
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
