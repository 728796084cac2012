// Package romaji implements the incremental romaji→kana transducer.
//
// The conversion table is compiled into a byte trie once per process;
// the trie is immutable after first use.
package romaji

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// LookupKind classifies a romaji sequence against the table.
type LookupKind int

const (
	// None: no table key equals or extends the sequence.
	None LookupKind = iota
	// Prefix: the sequence is a proper prefix of longer keys only.
	Prefix
	// Exact: the sequence is a complete key and extends no further.
	Exact
	// ExactAndPrefix: a complete key that is also a prefix of longer keys.
	ExactAndPrefix
)

// LookupResult is the state of a romaji sequence plus its kana value for
// the Exact kinds.
type LookupResult struct {
	Kind LookupKind
	Kana string
}

// ConvertResult is the outcome of draining pending romaji.
type ConvertResult struct {
	ComposedKana  string
	PendingRomaji string
}

type node struct {
	children map[byte]*node
	kana     string
	terminal bool
}

// Trie is the compiled romaji table.
type Trie struct {
	root *node
}

var (
	global     *Trie
	globalOnce sync.Once
)

// Global returns the process-wide trie, compiling it on first use.
func Global() *Trie {
	globalOnce.Do(func() {
		global = compile(table)
	})
	return global
}

func compile(entries map[string]string) *Trie {
	t := &Trie{root: &node{children: make(map[byte]*node)}}
	for seq, kana := range entries {
		cur := t.root
		for i := 0; i < len(seq); i++ {
			b := seq[i]
			next := cur.children[b]
			if next == nil {
				next = &node{children: make(map[byte]*node)}
				cur.children[b] = next
			}
			cur = next
		}
		cur.kana = kana
		cur.terminal = true
	}
	return t
}

// Lookup classifies a romaji sequence.
func (t *Trie) Lookup(seq string) LookupResult {
	cur := t.root
	for i := 0; i < len(seq); i++ {
		next := cur.children[seq[i]]
		if next == nil {
			return LookupResult{Kind: None}
		}
		cur = next
	}
	switch {
	case cur.terminal && len(cur.children) > 0:
		return LookupResult{Kind: ExactAndPrefix, Kana: cur.kana}
	case cur.terminal:
		return LookupResult{Kind: Exact, Kana: cur.kana}
	case len(cur.children) > 0:
		return LookupResult{Kind: Prefix}
	default:
		return LookupResult{Kind: None}
	}
}

// Convert consumes pending romaji left to right, appending resolved kana
// to kana. At each step the longest exact match is committed; a leading
// doubled consonant becomes っ; with force, leftover single romaji are
// flushed as themselves.
func Convert(kana, pending string, force bool) ConvertResult {
	t := Global()
	var out strings.Builder
	out.WriteString(kana)
	p := pending

	for p != "" {
		r := t.Lookup(p)
		if !force && (r.Kind == Prefix || r.Kind == ExactAndPrefix) {
			// The sequence may still grow; wait for more input.
			break
		}
		if r.Kind == Exact || r.Kind == ExactAndPrefix {
			out.WriteString(r.Kana)
			p = ""
			continue
		}

		// Longest exact proper prefix.
		committed := false
		for l := len(p) - 1; l >= 1; l-- {
			lr := t.Lookup(p[:l])
			if lr.Kind == Exact || lr.Kind == ExactAndPrefix {
				out.WriteString(lr.Kana)
				p = p[l:]
				committed = true
				break
			}
		}
		if committed {
			continue
		}

		// Doubled consonant → sokuon, retry on the remainder.
		if len(p) >= 2 && p[0] == p[1] && isConsonant(p[0]) {
			out.WriteString("っ")
			p = p[1:]
			continue
		}

		if !force && r.Kind != None {
			break
		}
		// Flush one rune as-is (force, or a sequence the table can never
		// resolve).
		_, size := utf8.DecodeRuneInString(p)
		out.WriteString(p[:size])
		p = p[size:]
	}

	return ConvertResult{ComposedKana: out.String(), PendingRomaji: p}
}

func isConsonant(b byte) bool {
	switch b {
	case 'a', 'i', 'u', 'e', 'o', 'n':
		return false
	}
	return b >= 'a' && b <= 'z'
}
