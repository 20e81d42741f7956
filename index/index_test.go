package index

import (
	"testing"

	. "github.com/ava12/phrasekit/internal/test"

	"github.com/ava12/phrasekit/coord"
	"github.com/ava12/phrasekit/token"
)

// buildSample nests a second bracket inside the first ("x" then "(y)") so
// Inner's depth-first flattening is distinguishable from a flat child list.
func buildSample () *token.RootToken {
	root := token.NewRoot(nil)
	a := token.NewPlain("word", "foo", coord.Zero, 0)
	root.AppendChild(a)
	node := token.NewNode("bracket", "(", coord.Coord{Col: 3, Offset: 3}, nil, 0, nil)
	root.AppendChild(node)
	inner := token.NewPlain("word", "x", coord.Coord{Col: 4, Offset: 4}, 0)
	node.AppendChild(inner)
	nested := token.NewNode("bracket", "(", coord.Coord{Col: 5, Offset: 5}, nil, 0, nil)
	node.AppendChild(nested)
	y := token.NewPlain("word", "y", coord.Coord{Col: 6, Offset: 6}, 0)
	nested.AppendChild(y)
	nested.CloseWith(token.NewEnd(nil, ")", coord.Coord{Col: 7, Offset: 7}, 0))
	node.CloseWith(token.NewEnd(nil, ")", coord.Coord{Col: 8, Offset: 8}, 0))
	root.CloseWith(token.NewEOF(root))
	return root
}

func TestTokenIndexGetTokenAtCursor (t *testing.T) {
	idx := Build(buildSample())

	tok, ok := idx.GetTokenAtCursor(0)
	Assert(t, ok, "expected a token at offset 0")
	Expect(t, tok.Content() == "foo", "foo", tok.Content())

	tok, ok = idx.GetTokenAtCursor(4)
	Assert(t, ok, "expected a token at offset 4")
	Expect(t, tok.Content() == "x", "x", tok.Content())

	tok, ok = idx.GetTokenAtCursor(6)
	Assert(t, ok, "expected a token at offset 6")
	Expect(t, tok.Content() == "y", "y", tok.Content())

	// An offset past the end of the recorded tokens still resolves to the
	// nearest token at or before it, same as GetTokenAtCoord.
	tok, ok = idx.GetTokenAtCursor(100)
	Assert(t, ok, "offset past input should still resolve to the last token")
}

func TestTokenReaderTraversal (t *testing.T) {
	root := buildSample()
	r := NewTokenReader()

	a := root.Inner()[0]
	Expect(t, r.Thereafter(a) == root.Inner()[1], root.Inner()[1], r.Thereafter(a))
	Expect(t, r.Therebefore(a) == token.Token(root), root, r.Therebefore(a))
	Assert(t, r.Therebefore(root) == nil, "root should have no predecessor")

	node := root.Inner()[1].(*token.NodeToken)

	// Inner flattens depth-first: "x", the nested bracket's opening, "y",
	// the nested bracket's own End, excluding only node's own End (so
	// Branch(node) == append([node], append(Inner(node), node.End())...)).
	inner := r.Inner(node)
	ExpectInt(t, 4, len(inner))
	Expect(t, inner[0].Content() == "x", "x", inner[0].Content())
	Expect(t, inner[1].Content() == "(", "(", inner[1].Content())
	Expect(t, inner[2].Content() == "y", "y", inner[2].Content())
	Expect(t, inner[3].Content() == ")", ")", inner[3].Content())

	branch := r.Branch(node)
	ExpectInt(t, 6, len(branch))
	Expect(t, branch[0].Content() == "(", "(", branch[0].Content())
	Expect(t, branch[1].Content() == "x", "x", branch[1].Content())
	Expect(t, branch[2].Content() == "(", "(", branch[2].Content())
	Expect(t, branch[3].Content() == "y", "y", branch[3].Content())
	Expect(t, branch[4].Content() == ")", ")", branch[4].Content())
	Expect(t, branch[5].Content() == ")", ")", branch[5].Content())

	path := r.NodePath(inner[0])
	ExpectInt(t, 2, len(path))
	Assert(t, token.IsRoot(path[0]), "first path element should be root")
	Expect(t, token.Token(path[1]) == token.Token(node), node, path[1])
}
