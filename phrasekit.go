/*
Package phrasekit is a general-purpose, user-configurable syntax parser.

Consists of subpackages:
  - coord: the (row, column, offset) triple every token is anchored to;
  - token: the committed result tree (Plain, NodeToken, End, and the
    flag/class vocabulary that marks their variants);
  - streamview: the read-only viewpoint (Stream) and raw-text cursor
    (TokenizeStream) a phrase's hooks are handed;
  - phrase: the user-facing configuration surface (Phrase, Candidate,
    Feature) describing how a construct opens, continues, and closes;
  - engine: the row-by-row parse driver that arbitrates candidates and
    commits the winning one each iteration;
  - index: post-parse lookup structures (TokenIndex, TokenReader) over a
    completed result tree;
  - errors: the error type raised on a configuration violation or a
    non-advancing ForwardTo.

Typical usage is:

1. Describe the grammar as a graph of phrase.Phrase objects (commonly
types embedding phrase.Base), wiring sub- and suffix-phrases.

2. Build a phrase.Root, register the top-level phrases as its sub-phrases.

3. Call ParseString or ParseRows with the root phrase and the input text.

4. Walk the returned Result directly (it embeds *token.RootToken), or call
its TokenIndex/TokenReader methods for coordinate lookups and traversal.
*/
package phrasekit

import (
	"regexp"

	"github.com/ava12/phrasekit/engine"
	"github.com/ava12/phrasekit/index"
	"github.com/ava12/phrasekit/phrase"
	"github.com/ava12/phrasekit/token"
)

var lineBreakRe = regexp.MustCompile(`\r\n|\r|\n`)

// Result wraps a completed parse tree together with the lookup structures
// built over it. Embedding *token.RootToken keeps every token.Token/
// NodeToken method (Inner, End, Content, ...) available directly on the
// result; TokenIndex/TokenReader are built lazily, on first use, since many
// callers only ever walk the tree directly and never need them.
type Result struct {
	*token.RootToken

	idx    *index.TokenIndex
	reader *index.TokenReader
}

// TokenIndex returns the coordinate/cursor lookup structure built over this
// result, building it on first call.
func (r *Result) TokenIndex () *index.TokenIndex {
	if r.idx == nil {
		r.idx = index.Build(r.RootToken)
	}
	return r.idx
}

// TokenReader returns the document-order and tree-shape traversal helper
// for this result. A TokenReader carries no state of its own, so this is
// built once and reused rather than recomputed per call.
func (r *Result) TokenReader () *index.TokenReader {
	if r.reader == nil {
		r.reader = index.NewTokenReader()
	}
	return r.reader
}

// ParseString splits text on line-break sequences, keeping each terminator
// attached to the row it ends, and parses the resulting rows. See
// ParseRows for the row-level contract.
func ParseString (root phrase.Phrase, text string) (*Result, error) {
	return ParseRows(root, splitRows(text))
}

// splitRows splits text into rows, each row retaining its own trailing
// line-break sequence (if any). The final row has no terminator unless
// text itself ends with a line break; no empty row is added after it.
func splitRows (text string) []string {
	locs := lineBreakRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	rows := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		rows = append(rows, text[start:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		rows = append(rows, text[start:])
	}
	return rows
}

// ParseRows parses rows (the caller's own row split; phrasekit does not
// interpret or append line terminators) against root's phrase
// configuration and returns the completed result, or an error if a phrase
// configuration violated an invariant, a ForwardTo failed to advance the
// stream, or a phrase hook panicked.
func ParseRows (root phrase.Phrase, rows []string) (*Result, error) {
	tree, err := engine.New(root).Run(rows)
	if err != nil {
		return nil, err
	}
	return &Result{RootToken: tree}, nil
}
