// Package index builds post-parse lookup structures over a completed
// result tree: row-addressed coordinate lookup (TokenIndex) and the
// document-order traversal helpers phrase/hook code commonly needs
// (TokenReader), adapted from the teacher's tree package.
package index

import (
	"sort"

	"github.com/ava12/phrasekit/coord"
	"github.com/ava12/phrasekit/token"
)

// TokenIndex answers "what token sits at this coordinate" queries over a
// completed parse result. It is built once, after Run returns; it does not
// track further mutation of the tree (e.g. via token.ReplaceContent).
type TokenIndex struct {
	rows [][]token.Token
	flat []token.Token
}

// Build walks root in document order and buckets every token (leaves, node
// openings, and end tokens alike) by the row its StartCoord falls on, while
// also recording it in document (offset) order for cursor lookups.
func Build (root *token.RootToken) *TokenIndex {
	idx := &TokenIndex{}
	var t token.Token = root
	for t != nil {
		row := t.StartCoord().Row
		for row >= len(idx.rows) {
			idx.rows = append(idx.rows, nil)
		}
		idx.rows[row] = append(idx.rows[row], t)
		idx.flat = append(idx.flat, t)
		t = t.Next()
	}
	return idx
}

// GetTokenAtCoord returns the token whose span [StartCoord, EndCoord)
// contains c, or the nearest token at or before c on the same row if none
// contains it exactly (e.g. c lands inside a gap-filled OToken, which is the
// common case). ok is false if row has no recorded tokens at all.
func (idx *TokenIndex) GetTokenAtCoord (c coord.Coord) (token.Token, bool) {
	if c.Row < 0 || c.Row >= len(idx.rows) {
		return nil, false
	}
	row := idx.rows[c.Row]
	if len(row) == 0 {
		return nil, false
	}

	i := sort.Search(len(row), func (i int) bool { return row[i].StartCoord().Col > c.Col })
	if i == 0 {
		return row[0], true
	}
	return row[i-1], true
}

// GetTokenAtCursor returns the token whose span contains the absolute rune
// offset into the whole document, or the nearest token at or before it if
// none contains it exactly (the gap-filled-OToken case, as with
// GetTokenAtCoord). ok is false only for an empty result tree.
func (idx *TokenIndex) GetTokenAtCursor (offset int) (token.Token, bool) {
	if len(idx.flat) == 0 {
		return nil, false
	}

	i := sort.Search(len(idx.flat), func (i int) bool { return idx.flat[i].StartCoord().Offset > offset })
	if i == 0 {
		return idx.flat[0], true
	}
	return idx.flat[i-1], true
}
