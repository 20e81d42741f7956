// Package phrase defines the user-facing configuration surface: phrase
// objects that describe how a lexical construct starts, what it contains,
// and how it ends, plus the candidate/feature vocabulary the parse driver
// (package engine) arbitrates and applies.
package phrase

import (
	"github.com/ava12/phrasekit/streamview"
	"github.com/ava12/phrasekit/token"
)

// Shape distinguishes what kind of token a Candidate describes.
type Shape int

const (
	// ShapeStandalone is a plain token returned from Starts that does not
	// open a node; it is attributed directly to the active node.
	ShapeStandalone Shape = iota

	// ShapeStart opens a new node, returned from Starts.
	ShapeStart

	// ShapeEnd closes the active node, returned from Ends.
	ShapeEnd
)

// Phrase is the capability set a user configuration object exposes. Embed
// Base to get working SubPhrases/SuffixPhrases storage and no-op observer
// hooks; only Starts, Ends, and PhraseID need writing for most phrases.
type Phrase interface {
	token.Phrase

	// Starts inspects s.Unparsed and returns a candidate describing where
	// this phrase could open a node (or match a standalone plain token),
	// or nil if it does not match at the current viewpoint.
	Starts (s *streamview.Stream) *Candidate

	// Ends proposes a close for this phrase, if it is the currently
	// active one, or nil if it does not match.
	Ends (s *streamview.Stream) *Candidate

	// AtStart is invoked once a node opened by this phrase has been
	// linked into the tree and had its features applied.
	AtStart (node *token.NodeToken)

	// AtEnd is invoked once a node closed by this phrase's Ends result
	// has been linked into the tree and had its features applied.
	AtEnd (node *token.NodeToken)

	// AtConfirmed is invoked on every token committed by this phrase
	// immediately after structural linking, before feature application.
	AtConfirmed (t token.Token)

	// AtFeaturized is invoked on every token committed by this phrase
	// immediately after feature application.
	AtFeaturized (t token.Token)

	// SubPhrases returns the ordered set of phrases evaluated inside
	// nodes this phrase governs (nodes it opens, or that a SwitchTo or
	// SwitchPh feature hands to it).
	SubPhrases () []Phrase

	// SuffixPhrases returns the ordered set of phrases evaluated
	// immediately after a node this phrase governs has just closed.
	SuffixPhrases () []Phrase
}

// Tokenizer is an optional capability: a phrase that implements it gets to
// classify pending raw runs of text into typed plain tokens. A phrase that
// does not implement Tokenizer gets the engine's default untyped run
// (gap-filled plain tokens / OTokens).
type Tokenizer interface {
	// Tokenize consumes part or all of ts and returns the class to tag
	// that consumed span with. ok is false to decline tokenizing any
	// further of the span, handing the remainder back to the default
	// untyped run.
	Tokenize (ts *streamview.TokenizeStream) (class token.Class, ok bool)
}

// Candidate is a token instruction returned by Starts or Ends: a proposal,
// not yet committed. The engine arbitrates among all candidates collected
// in one iteration and commits at most one.
type Candidate struct {
	// At and To are rune offsets into the stream's Unparsed, relative to
	// the stream's own viewpoint: 0 <= At <= To <= len(unparsed). Any
	// RTokenize feature's N is subtracted from To to get the candidate's
	// actual content boundary; To itself stays inflated by that amount so
	// the candidate still wins arbitration's longest-content tie-break.
	At, To int

	// Content is the text this candidate would consume, Unparsed[At:To].
	Content string

	Shape Shape
	Flags token.Flag

	// Features are applied, in order, once this candidate is committed.
	Features []Feature

	// ID overrides the token's default id. Left nil, a committed
	// standalone/end token has a nil id and a node token's id is its
	// phrase's PhraseID.
	ID any

	// Extras seeds a node token's keyword-data bag. Only meaningful when
	// Shape == ShapeStart and the flags do not include token.Mask.
	Extras map[string]any

	// Wrapped carries the node this candidate wraps on behalf of, when
	// Flags has token.Wrap set. Nil otherwise.
	Wrapped *WrappedNode
}

// WrappedNode names the phrase/candidate pair a Wrap candidate stands in
// for. If the wrapper wins arbitration, Candidate is committed as the
// wrapper's sole child and becomes the new active node.
type WrappedNode struct {
	Phrase    Phrase
	Candidate *Candidate
}

// Feature is an auxiliary directive attached to a Candidate that mutates
// driver state when the candidate is committed.
type Feature interface {
	isFeature ()
}

// LStrip advances the real content start N characters past the candidate's
// own At before commit, without changing At itself: those N characters
// become a preceding plain token attributed to the active node. This lets a
// candidate declare a low At to win the minimum-at arbitration rule while
// still skipping further characters before its content actually begins.
type LStrip struct{ N int }

// RTokenize feeds the N characters following the candidate's actual content
// (To minus N) into the newly opened node's Tokenize hook to produce typed
// inner tokens, once the node is committed. Declaring To as content+N lets a
// candidate that is entirely reclassified this way (a null own span) still
// present a non-null To at arbitration time, so it is never treated as a
// null-at-0 candidate.
type RTokenize struct{ N int }

// SwitchTo reassigns the opened node's effective behaviour (Ends,
// SubPhrases, SuffixPhrases) to To, without changing the node's reported
// Phrase identity.
type SwitchTo struct{ To Phrase }

// SwitchPh is like SwitchTo but also reassigns the node's reported Phrase
// identity to To.
type SwitchPh struct{ To Phrase }

// ForwardTo re-anchors the driver's active node to Node, which must be a
// node on the engine's active stack: the active node itself or one of its
// open ancestors. Any other target, including an open descendant no longer
// on the stack, is a configuration error. The engine rejects a ForwardTo
// that would not advance the stream.
type ForwardTo struct{ Node token.Token }

func (LStrip) isFeature ()    {}
func (RTokenize) isFeature () {}
func (SwitchTo) isFeature ()  {}
func (SwitchPh) isFeature ()  {}
func (ForwardTo) isFeature () {}

// Base is embedded by concrete phrase types to get working sub/suffix
// phrase storage, fluent registration methods, and no-op observer hooks.
// Call Init once, with the concrete phrase as self, so AddSubRecursion and
// AddSuffixRecursion can register the phrase as its own child.
type Base struct {
	self     Phrase
	subs     []Phrase
	suffixes []Phrase
}

// Init records self for later use by AddSubRecursion/AddSuffixRecursion.
// Concrete phrase constructors call this once, immediately after
// allocating the phrase, before any Add* call.
func (b *Base) Init (self Phrase) *Base {
	b.self = self
	return b
}

// AddSubs appends phrases to the sub-phrase list, in order.
func (b *Base) AddSubs (phrases ...Phrase) *Base {
	b.subs = append(b.subs, phrases...)
	return b
}

// AddSuffixes appends phrases to the suffix-phrase list, in order.
func (b *Base) AddSuffixes (phrases ...Phrase) *Base {
	b.suffixes = append(b.suffixes, phrases...)
	return b
}

// AddSubRecursion registers the phrase as its own sub-phrase, the usual way
// to allow a construct (e.g. a bracket) to nest inside itself.
func (b *Base) AddSubRecursion () *Base {
	return b.AddSubs(b.self)
}

// AddSuffixRecursion registers the phrase as its own suffix-phrase.
func (b *Base) AddSuffixRecursion () *Base {
	return b.AddSuffixes(b.self)
}

// RemoveSubs drops phrases from the sub-phrase list by identity.
func (b *Base) RemoveSubs (phrases ...Phrase) *Base {
	b.subs = remove(b.subs, phrases)
	return b
}

// RemoveSuffixes drops phrases from the suffix-phrase list by identity.
func (b *Base) RemoveSuffixes (phrases ...Phrase) *Base {
	b.suffixes = remove(b.suffixes, phrases)
	return b
}

func remove (list []Phrase, drop []Phrase) []Phrase {
	result := list[:0:0]
	for _, p := range list {
		keep := true
		for _, d := range drop {
			if p == d {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, p)
		}
	}
	return result
}

// SubPhrases returns the registered sub-phrases, in registration order.
func (b *Base) SubPhrases () []Phrase { return b.subs }

// SuffixPhrases returns the registered suffix-phrases, in registration
// order.
func (b *Base) SuffixPhrases () []Phrase { return b.suffixes }

// AtStart is a no-op default; override by defining the method on the
// concrete phrase type, which shadows Base's.
func (b *Base) AtStart (*token.NodeToken) {}

// AtEnd is a no-op default.
func (b *Base) AtEnd (*token.NodeToken) {}

// AtConfirmed is a no-op default.
func (b *Base) AtConfirmed (token.Token) {}

// AtFeaturized is a no-op default.
func (b *Base) AtFeaturized (token.Token) {}

// Root is the distinguished root configuration: no Starts/Ends, only
// sub-phrases. Its Starts and Ends always return nil, so while the root
// node is active the engine's call to Ends never yields a candidate.
type Root struct {
	Base
}

// NewRoot builds an empty root configuration; call AddSubs to register the
// top-level phrases.
func NewRoot () *Root {
	r := &Root{}
	r.Init(r)
	return r
}

func (r *Root) PhraseID () any                          { return nil }
func (r *Root) Starts (*streamview.Stream) *Candidate    { return nil }
func (r *Root) Ends (*streamview.Stream) *Candidate      { return nil }
