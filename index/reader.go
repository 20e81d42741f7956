package index

import "github.com/ava12/phrasekit/token"

// TokenReader groups the document-order and tree-shape traversal helpers a
// phrase hook or a downstream consumer needs, adapted from the teacher's
// tree.Walk/tree.Ancestor/tree.NextTokenNode/tree.PrevTokenNode/
// tree.Children. The teacher split Node/NonTermNode into two interfaces and
// needed NextTokenNode/PrevTokenNode to skip across that split; phrasekit's
// single token.Token already encodes a node's Inner/End in its own
// Next/Previous, so TokenReader is a thin, stateless wrapper rather than a
// second traversal algorithm.
type TokenReader struct{}

// NewTokenReader returns a TokenReader; it carries no state of its own.
func NewTokenReader () *TokenReader { return &TokenReader{} }

// Thereafter returns the token immediately following t in document order,
// or nil past the end of input.
func (*TokenReader) Thereafter (t token.Token) token.Token {
	if t == nil {
		return nil
	}
	return t.Next()
}

// Therebefore returns the token immediately preceding t in document order,
// or nil before the start of input. The root token has no predecessor.
func (*TokenReader) Therebefore (t token.Token) token.Token {
	if t == nil {
		return nil
	}
	if n, ok := t.(*token.NodeToken); ok && token.IsRoot(n) {
		return nil
	}
	return t.Previous()
}

// Inner returns every token in t's subtree in document order, depth-first,
// excluding t itself: each leaf token, and each descendant node's own
// opening, its own inner tokens recursively expanded, and its own closing
// End — so Branch(t) == append([t], append(Inner(t), t.End())...).
// Returns nil if t is not a node token.
func (r *TokenReader) Inner (t token.Token) []token.Token {
	n, ok := t.(*token.NodeToken)
	if !ok {
		return nil
	}

	var result []token.Token
	for _, c := range n.Inner() {
		result = append(result, c)
		if nt, isNode := c.(*token.NodeToken); isNode {
			result = append(result, r.Inner(c)...)
			result = append(result, nt.End())
		}
	}
	return result
}

// Branch returns every token in t's subtree in document order: t itself,
// each descendant, and every End token that closes a descendant node,
// mirroring the teacher's tree.Walk collecting a flattened node list.
func (r *TokenReader) Branch (t token.Token) []token.Token {
	if t == nil {
		return nil
	}

	result := []token.Token{t}
	n, ok := t.(*token.NodeToken)
	if !ok {
		return result
	}

	for _, c := range n.Inner() {
		result = append(result, r.Branch(c)...)
	}
	result = append(result, n.End())
	return result
}

// NodePath returns the ancestor chain from the root down to (but not
// including) t itself: NodePath(t)[0] is the root, the last element is t's
// immediate parent. Returns nil for the root token.
func (*TokenReader) NodePath (t token.Token) []*token.NodeToken {
	if t == nil {
		return nil
	}

	var path []*token.NodeToken
	for p := t.ParentNode(); p != nil; p = p.ParentNode() {
		path = append([]*token.NodeToken{p}, path...)
	}
	return path
}
