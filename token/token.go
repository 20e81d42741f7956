// Package token defines the token/node variant hierarchy that the parse
// driver (package engine) commits while walking a phrase configuration over
// input text. Every concrete type here is a leaf or branch in the result
// tree; none of them know how to parse — that behaviour lives in package
// phrase and is driven by package engine.
package token

import (
	"strings"
	"unicode/utf8"

	"github.com/ava12/phrasekit/coord"
)

// Flag is a bitmask of the orthogonal variant markers from spec.md §3.2.
// Several flags can combine on the same candidate/token where noted.
type Flag uint8

const (
	// Mask marks a match whose content is reattributed to the parent;
	// the token itself is dropped before the result is returned. A masked
	// node's sub-phrases are never evaluated.
	Mask Flag = 1 << iota

	// Instant marks a match that wins arbitration unconditionally within
	// its shape class (see the engine's priority rules).
	Instant

	// DefaultEnd marks an end candidate that only closes the active phrase
	// if no sub-phrase start was matched in the same iteration.
	DefaultEnd

	// Wrap marks a node token that arbitrates on behalf of another,
	// not-yet-committed node token; if selected, the wrapped node becomes
	// the real opened node and the wrapper collapses to an empty shell.
	Wrap

	// openEnd marks an OpenEndToken placeholder occupying a node's End
	// slot until a real end is chosen.
	openEnd

	// rootFlag marks the single RootToken of a result tree and the EOF
	// token installed as its End.
	rootFlag
)

// Has reports whether f contains every bit set in other.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Class identifies the type assigned to a run of text produced by a
// Phrase's Tokenize hook (e.g. "number", "keyword", "variable" in spec.md
// §8's scenario). It is opaque to the engine; phrases define their own
// class values, commonly strings.
type Class = any

// Token is implemented by every node in a parse result: Plain, *NodeToken,
// and End. Coordinates, content, and tree linkage are readable through this
// common interface regardless of shape.
type Token interface {
	// ID returns the optional user-supplied identifier of the token, or
	// nil if none was set. Tokens produced by a Tokenize hook carry their
	// Class here.
	ID() any

	// Content returns the token's own text. For a node token this is the
	// text of its opening match only; its children's text lives in Inner.
	Content() string

	// StartCoord is the position of the first rune of Content, or the
	// cursor position if Content is empty.
	StartCoord() coord.Coord

	// EndCoord is the position just past the last rune of Content.
	EndCoord() coord.Coord

	// ParentNode is the node that owns this token: the container whose
	// Inner list holds it (for plain/node children) or the node this
	// token terminates (for End tokens). Returns nil only for the root.
	ParentNode() *NodeToken

	// InnerIndex is this token's position within ParentNode's Inner list.
	// Meaningless (returns len(ParentNode.Inner())) for End tokens, which
	// are never themselves list members.
	InnerIndex() int

	// Previous returns the token immediately before this one in a
	// left-to-right depth-first traversal, or the owning node itself if
	// this is a node's first child.
	Previous() Token

	// Next returns the token immediately after this one in a
	// left-to-right depth-first traversal, or nil past the end of input.
	Next() Token

	// Flags returns the orthogonal variant markers carried by this token.
	Flags() Flag

	// Empty reports whether this is a null token (StartCoord == EndCoord).
	Empty() bool

	// LenToken returns the rune length of Content.
	LenToken() int

	linkAs(parent *NodeToken, index int)
	shiftCoord(delta int)
}

// base is embedded by every concrete token type and implements everything
// that does not depend on shape.
type base struct {
	id      any
	content string
	start   coord.Coord
	end     coord.Coord
	parent  *NodeToken
	index   int
	flags   Flag
}

func newBase(id any, content string, start coord.Coord, flags Flag) base {
	return base{
		id:      id,
		content: content,
		start:   start,
		end:     coord.Coord{Row: start.Row, Col: start.Col + utf8.RuneCountInString(content), Offset: start.Offset + utf8.RuneCountInString(content)},
		flags:   flags,
	}
}

func (b *base) ID() any               { return b.id }
func (b *base) Content() string       { return b.content }
func (b *base) StartCoord() coord.Coord { return b.start }
func (b *base) EndCoord() coord.Coord   { return b.end }
func (b *base) ParentNode() *NodeToken { return b.parent }
func (b *base) InnerIndex() int        { return b.index }
func (b *base) Flags() Flag            { return b.flags }
func (b *base) Empty() bool            { return b.start == b.end }
func (b *base) LenToken() int          { return utf8.RuneCountInString(b.content) }

func (b *base) linkAs(parent *NodeToken, index int) {
	b.parent = parent
	b.index = index
}

// shiftCoord moves both endpoints of b's span by delta runes, without
// changing row: used to re-index tokens following a ReplaceContent call.
func (b *base) shiftCoord(delta int) {
	b.start.Col += delta
	b.start.Offset += delta
	b.end.Col += delta
	b.end.Offset += delta
}

// reindexFollowing walks the document-order chain after t, shifting every
// token still on t's row by delta. It stops at the first token on a
// different row; tokens on later rows keep their coordinates, Offset
// included.
func reindexFollowing(t Token, delta int) {
	if delta == 0 {
		return
	}
	row := t.EndCoord().Row
	for n := t.Next(); n != nil && n.StartCoord().Row == row; n = n.Next() {
		n.shiftCoord(delta)
	}
}

// replaceContent overwrites b's own content and end coordinate, then
// re-indexes every later token on the same row whose offset depended on the
// old length.
func (b *base) replaceContent(self Token, content string) {
	delta := utf8.RuneCountInString(content) - utf8.RuneCountInString(b.content)
	b.content = content
	b.end.Col += delta
	b.end.Offset += delta
	reindexFollowing(self, delta)
}

// siblingPrevious is the Previous walk of Plain and *NodeToken; siblingNext
// is the Next walk of Plain (*NodeToken descends into its own Inner, and End
// has its own pair). The root, having no parent, gets nil from both.
func siblingPrevious(t Token) Token {
	p := t.ParentNode()
	if p == nil {
		return nil
	}
	if i := t.InnerIndex(); i > 0 {
		if n, ok := p.inner[i-1].(*NodeToken); ok {
			return n.end
		}
		return p.inner[i-1]
	}
	return p
}

func siblingNext(t Token) Token {
	p := t.ParentNode()
	if p == nil {
		return nil
	}
	if i := t.InnerIndex() + 1; i < len(p.inner) {
		return p.inner[i]
	}
	return p.end
}

// Plain is a leaf token representing a tokenized span of text that does not
// open or close a phrase.
type Plain struct {
	base
}

// NewPlain creates a committed plain token. Callers outside package engine
// normally have no reason to call this directly; phrase hooks describe
// candidates instead (see package phrase).
func NewPlain(id any, content string, start coord.Coord, flags Flag) *Plain {
	return &Plain{newBase(id, content, start, flags)}
}

func (p *Plain) Previous() Token { return siblingPrevious(p) }
func (p *Plain) Next() Token     { return siblingNext(p) }

// ReplaceContent rewrites p's text in place, re-indexing the offset of every
// token after it on the same row. Intended for an AtConfirmed/AtFeaturized
// hook that normalizes captured text (e.g. unescaping a string body)
// without re-running arbitration.
func (p *Plain) ReplaceContent(content string) { p.replaceContent(p, content) }

// RootToken is the outermost node of a parse result. It has the same shape
// as any other node token (IsRoot distinguishes it) but its own name gives
// callers of phrasekit.ParseString/ParseRows a self-documenting return type.
type RootToken = NodeToken

// NodeToken is a branch token: it owns an ordered list of inner children and
// a single End slot, and carries the Phrase that opened it plus a bag of
// user keyword data (Extras).
type NodeToken struct {
	base
	phrase Phrase
	inner  []Token
	end    Token
	extras map[string]any
}

// NewNode creates a committed node token with an OpenEnd already installed
// in its End slot, matching the invariant that a node's End is never nil.
func NewNode(id any, content string, start coord.Coord, ph Phrase, flags Flag, extras map[string]any) *NodeToken {
	n := &NodeToken{base: newBase(id, content, start, flags), phrase: ph, extras: extras}
	n.end = NewOpenEnd(n)
	return n
}

func (n *NodeToken) Previous() Token { return siblingPrevious(n) }
func (n *NodeToken) Next() Token {
	if len(n.inner) > 0 {
		return n.inner[0]
	}
	return n.end
}

// Phrase returns the phrase configuration that produced this node's opening
// token (or that a SwitchPh feature later reassigned it to).
func (n *NodeToken) Phrase() Phrase { return n.phrase }

// SetPhrase reassigns the node's phrase identity; used by the engine when
// applying the SwitchPh feature.
func (n *NodeToken) SetPhrase(ph Phrase) { n.phrase = ph }

// SetID overrides the node's reported ID; used by the engine when applying
// the SwitchPh feature, which reassigns both the governing phrase and the
// identity visible in results.
func (n *NodeToken) SetID(id any) { n.id = id }

// ReplaceContent rewrites n's own opening text in place (not its Inner),
// re-indexing the offset of every token after it on the same row.
func (n *NodeToken) ReplaceContent(content string) { n.replaceContent(n, content) }

// Inner returns the node's committed children in order.
func (n *NodeToken) Inner() []Token { return n.inner }

// End returns the token occupying the node's End slot: an OpenEnd token if
// the node is still open, or the EndToken that closed it.
func (n *NodeToken) End() Token { return n.end }

// Extras returns the node's user keyword-data bag (never nil).
func (n *NodeToken) Extras() map[string]any {
	if n.extras == nil {
		n.extras = make(map[string]any)
	}
	return n.extras
}

// AppendChild commits t as the next child of n, wiring its ParentNode and
// InnerIndex. Called by package engine when a candidate is committed.
func (n *NodeToken) AppendChild(t Token) {
	t.linkAs(n, len(n.inner))
	n.inner = append(n.inner, t)
}

// CloseWith installs e (an End variant) into the node's End slot, replacing
// any OpenEnd placeholder.
func (n *NodeToken) CloseWith(e Token) {
	e.linkAs(n, len(n.inner))
	n.end = e
}

// IsOpen reports whether the node's End slot still holds an OpenEnd
// placeholder (the phrase was never closed).
func (n *NodeToken) IsOpen() bool {
	return IsOpenEnd(n.end)
}

// LenInner returns the combined rune length of every inner token,
// recursively including nested branches' own inner content and end tokens.
func (n *NodeToken) LenInner() int {
	total := 0
	for _, t := range n.inner {
		total += t.LenToken()
		if nt, ok := t.(*NodeToken); ok {
			total += nt.LenInner() + nt.End().LenToken()
		}
	}
	return total
}

// LenBranch returns the node's own length plus LenInner plus its End's
// length.
func (n *NodeToken) LenBranch() int {
	return n.LenToken() + n.LenInner() + n.end.LenToken()
}

// InnerContent returns the concatenation of every inner token's content,
// recursing into nested branches (their opening content, inner content, and
// end content all included) — the inverse of tokenization for that span.
func (n *NodeToken) InnerContent() string {
	var sb strings.Builder
	writeInner(&sb, n)
	return sb.String()
}

func writeInner(sb *strings.Builder, n *NodeToken) {
	for _, t := range n.inner {
		if nt, ok := t.(*NodeToken); ok {
			sb.WriteString(nt.Content())
			writeInner(sb, nt)
			sb.WriteString(nt.End().Content())
		} else {
			sb.WriteString(t.Content())
		}
	}
}

// BranchContent returns Content + InnerContent + End's content: the full
// text this node's branch contributes to the original input.
func (n *NodeToken) BranchContent() string {
	return n.Content() + n.InnerContent() + n.end.Content()
}

// End is a leaf token terminating the enclosing node.
type End struct {
	base
}

// NewEnd creates a committed end token; the node it closes becomes its
// owner when it is installed with CloseWith.
func NewEnd(id any, content string, start coord.Coord, flags Flag) *End {
	return &End{newBase(id, content, start, flags)}
}

func (e *End) InnerIndex() int {
	if e.parent == nil {
		return 0
	}
	return len(e.parent.inner)
}

func (e *End) Previous() Token {
	owner := e.parent
	if owner == nil {
		return nil
	}
	if len(owner.inner) > 0 {
		if n, ok := owner.inner[len(owner.inner)-1].(*NodeToken); ok {
			return n.end
		}
		return owner.inner[len(owner.inner)-1]
	}
	return owner
}

func (e *End) Next() Token {
	owner := e.parent
	if owner == nil {
		return nil
	}
	grand := owner.ParentNode()
	if grand == nil {
		return nil
	}
	if i := owner.InnerIndex() + 1; i < len(grand.inner) {
		return grand.inner[i]
	}
	return grand.end
}

// NewOpenEnd creates the placeholder end installed into every node's End
// slot when it is opened, before any real end candidate has been committed.
func NewOpenEnd(owner *NodeToken) Token {
	e := &End{newBase(nil, "", owner.StartCoord(), openEnd)}
	e.parent = owner
	return e
}

// IsOpenEnd reports whether t is an OpenEnd placeholder (the phrase it
// closes was never actually closed by the input).
func IsOpenEnd(t Token) bool {
	return t.Flags().Has(openEnd)
}

// deepEndCoord returns the rightmost coordinate reached by t's own branch:
// for a closed node token that is its End's EndCoord, for a still-open node
// its last child's deepEndCoord (or its own EndCoord if it has no children),
// for a leaf its own EndCoord.
func deepEndCoord(t Token) coord.Coord {
	if n, ok := t.(*NodeToken); ok {
		if IsOpenEnd(n.end) {
			if len(n.inner) > 0 {
				return deepEndCoord(n.inner[len(n.inner)-1])
			}
			return n.EndCoord()
		}
		return deepEndCoord(n.end)
	}
	return t.EndCoord()
}

// NewEOF creates the EOF end token installed as the root node's End once
// input is exhausted.
func NewEOF(root *NodeToken) Token {
	start := root.StartCoord()
	if len(root.inner) > 0 {
		start = deepEndCoord(root.inner[len(root.inner)-1])
	}
	e := &End{newBase(nil, "", start, rootFlag)}
	e.parent = root
	return e
}

// IsEOF reports whether t is the EOF token installed at input exhaustion.
func IsEOF(t Token) bool {
	_, isEnd := t.(*End)
	return isEnd && t.Flags().Has(rootFlag)
}

// NewOToken creates a plain token directly attributed to the root when no
// phrase is active (the "otherwise untyped" gap-fill token).
func NewOToken(content string, start coord.Coord) *Plain {
	return NewPlain(nil, content, start, 0)
}

// NewRoot creates the outermost node of a parse result, bound to the root
// phrase configuration. Its End slot starts as an OpenEnd and is replaced
// with an EOF token once parsing completes.
func NewRoot(ph Phrase) *NodeToken {
	return NewNode(nil, "", coord.Zero, ph, rootFlag, nil)
}

// IsRoot reports whether n is the outermost node of a parse result.
func IsRoot(n *NodeToken) bool {
	return n.Flags().Has(rootFlag)
}

// Phrase is the minimal identity contract a token.NodeToken needs from
// whatever phrase configuration opened it. The full behavioural contract
// (Starts/Ends/Tokenize/sub- and suffix-phrases) lives in package phrase,
// which embeds this interface — phrase cannot live in this package because
// it must in turn reference Token (for ForwardTo and tokenize results), and
// Go forbids the cycle that would create.
type Phrase interface {
	PhraseID() any
}
