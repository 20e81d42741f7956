package phrase

import (
	"testing"

	. "github.com/ava12/phrasekit/internal/test"

	"github.com/ava12/phrasekit/streamview"
	"github.com/ava12/phrasekit/token"
)

type stubPhrase struct {
	Base
	id any
}

func newStub (id any) *stubPhrase {
	p := &stubPhrase{id: id}
	p.Init(p)
	return p
}

func (p *stubPhrase) PhraseID () any                       { return p.id }
func (p *stubPhrase) Starts (*streamview.Stream) *Candidate { return nil }
func (p *stubPhrase) Ends (*streamview.Stream) *Candidate   { return nil }

func TestAddSubsOrder (t *testing.T) {
	a, b, c := newStub("a"), newStub("b"), newStub("c")
	root := NewRoot()
	root.AddSubs(a, b, c)

	subs := root.SubPhrases()
	ExpectInt(t, 3, len(subs))
	Expect(t, subs[0] == Phrase(a), a, subs[0])
	Expect(t, subs[2] == Phrase(c), c, subs[2])
}

func TestAddSubRecursion (t *testing.T) {
	bracket := newStub("bracket")
	bracket.AddSubRecursion()

	subs := bracket.SubPhrases()
	ExpectInt(t, 1, len(subs))
	Expect(t, subs[0] == Phrase(bracket), bracket, subs[0])
}

func TestRemoveSubs (t *testing.T) {
	a, b := newStub("a"), newStub("b")
	root := NewRoot()
	root.AddSubs(a, b)
	root.RemoveSubs(a)

	subs := root.SubPhrases()
	ExpectInt(t, 1, len(subs))
	Expect(t, subs[0] == Phrase(b), b, subs[0])
}

func TestDefaultHooksAreNoOps (t *testing.T) {
	p := newStub("x")
	node := token.NewNode("x", "", token.NewRoot(nil).StartCoord(), p, 0, nil)
	p.AtStart(node)
	p.AtEnd(node)
	p.AtConfirmed(node)
	p.AtFeaturized(node)
}

func TestRootHasNoStartsEnds (t *testing.T) {
	root := NewRoot()
	Assert(t, root.Starts(nil) == nil, "root.Starts should always be nil")
	Assert(t, root.Ends(nil) == nil, "root.Ends should always be nil")
}
