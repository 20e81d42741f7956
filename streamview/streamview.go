// Package streamview gives phrase hooks a read-only window onto the input
// and a bounded, mutating cursor for tokenizing a declared span. Hooks never
// see the engine's own bookkeeping — only these two views.
package streamview

import (
	"regexp"

	"github.com/ava12/phrasekit/token"
)

// Stream is passed to Phrase.Starts and Phrase.Ends. It exposes the
// unconsumed text of the current row and the parser's current position, but
// nothing a hook could use to mutate parser state directly.
type Stream struct {
	unparsed  string
	node      token.Token
	lastToken token.Token
	rowNo     int
	column    int
}

// New builds the Stream the engine passes into a phrase hook for one
// arbitration attempt.
func New (unparsed string, node token.Token, lastToken token.Token, rowNo, column int) *Stream {
	return &Stream{unparsed: unparsed, node: node, lastToken: lastToken, rowNo: rowNo, column: column}
}

// Unparsed returns the text of the current row not yet committed to any
// token, starting at the hook's candidate search position.
func (s *Stream) Unparsed () string {
	return s.unparsed
}

// Node returns the node token currently active (the top of the engine's
// node stack) at the time the hook runs.
func (s *Stream) Node () token.Token {
	return s.node
}

// RowNo returns the 0-based row the hook is currently scanning.
func (s *Stream) RowNo () int {
	return s.rowNo
}

// Column returns the 0-based column Unparsed begins at within the row.
func (s *Stream) Column () int {
	return s.column
}

// LastToken returns the most recently committed token in the whole parse so
// far; before the first token is committed the engine supplies the root
// node. Hooks use it to look
// back at context Unparsed alone cannot express (e.g. "was the previous
// token a comma").
func (s *Stream) LastToken () token.Token {
	return s.lastToken
}

// TokenizeStream is passed to Phrase.Tokenize. It wraps a single bounded
// span of text — declared by the RTokenize feature, or a gap the engine
// fills (the text before a winning candidate, an LStrip prefix, or the rest
// of the row when nothing matched) — and offers a small family of
// consuming reads. Each
// call to Tokenize gets a stream positioned where the previous call left
// off; the hook must eat at least one rune before returning a class, or the
// engine treats the span as exhausted.
type TokenizeStream struct {
	data []rune
	pos  int
}

// NewTokenizeStream wraps content for one tokenization pass.
func NewTokenizeStream (content string) *TokenizeStream {
	return &TokenizeStream{data: []rune(content)}
}

// Remaining returns the not-yet-eaten tail of the span.
func (s *TokenizeStream) Remaining () string {
	return string(s.data[s.pos:])
}

// Done reports whether the span has been fully consumed.
func (s *TokenizeStream) Done () bool {
	return s.pos >= len(s.data)
}

// Eat consumes up to n runes from the front of the remaining span and
// returns them. Eating past the end of the span is clamped, not an error.
func (s *TokenizeStream) Eat (n int) string {
	if n < 0 {
		n = 0
	}
	end := s.pos + n
	if end > len(s.data) {
		end = len(s.data)
	}
	result := string(s.data[s.pos:end])
	s.pos = end
	return result
}

// EatRemain consumes and returns everything left in the span.
func (s *TokenizeStream) EatRemain () string {
	return s.Eat(len(s.data) - s.pos)
}

// EatWhile consumes runes from the front of the span for as long as pred
// returns true, stopping at the first rune pred rejects or at the end of
// the span.
func (s *TokenizeStream) EatWhile (pred func(rune) bool) string {
	n := 0
	for s.pos+n < len(s.data) && pred(s.data[s.pos+n]) {
		n++
	}
	return s.Eat(n)
}

// EatUntil consumes runes up to (not including) the first match of re
// within the remaining span. It reports false and consumes nothing if re
// does not match anywhere in the remaining span.
func (s *TokenizeStream) EatUntil (re *regexp.Regexp) (string, bool) {
	loc := re.FindStringIndex(s.Remaining())
	if loc == nil {
		return "", false
	}
	n := len([]rune(s.Remaining()[:loc[0]]))
	return s.Eat(n), true
}
