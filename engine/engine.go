// Package engine implements the parse driver: the row-by-row scanning loop
// that collects candidate matches from the active phrase configuration,
// arbitrates among them by a strict priority scheme, commits the winner,
// applies its features, and maintains the active node stack.
package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/ava12/phrasekit/coord"
	"github.com/ava12/phrasekit/errors"
	"github.com/ava12/phrasekit/internal/queue"
	"github.com/ava12/phrasekit/phrase"
	"github.com/ava12/phrasekit/streamview"
	"github.com/ava12/phrasekit/token"
)

// Error codes recognized by this package, following the teacher's
// per-package iota range convention.
const (
	ErrConfiguration = iota + 1000
	ErrNonAdvancingForward
)

// frame is one entry of the active node stack: the open node and the
// phrase currently governing its Ends/SubPhrases/SuffixPhrases (which can
// diverge from node.Phrase() after a SwitchTo feature).
type frame struct {
	node   *token.NodeToken
	phrase phrase.Phrase
}

// Parser drives one parse from start to finish. It is not safe for
// concurrent use or reuse across calls; New builds a fresh one per parse.
type Parser struct {
	root            *token.RootToken
	stack           []frame
	lastToken       token.Token
	iterBudget      int
	curRowRunes     []rune
	pendingSuffixes []phrase.Phrase
}

// New builds a parser whose root node is governed by rootPhrase (typically
// a *phrase.Root with its top-level sub-phrases registered).
func New (rootPhrase phrase.Phrase) *Parser {
	root := token.NewRoot(rootPhrase)
	p := &Parser{root: root}
	p.stack = []frame{{node: root, phrase: rootPhrase}}
	p.lastToken = root
	return p
}

// Run drives the parse over rows and returns the completed root node, or
// an error if a phrase configuration violated an invariant, a ForwardTo
// failed to advance the stream, or a user hook panicked. On error the
// partial tree is discarded.
func (p *Parser) Run (rows []string) (result *token.RootToken, err error) {
	defer func () {
		if r := recover(); r != nil {
			if e, ok := r.(*errors.Error); ok {
				err = e
				result = nil
				return
			}
			err = errors.Wrap(fmt.Errorf("%v", r), ErrConfiguration, "phrase hook panicked")
			result = nil
		}
	}()

	total := 0
	for _, row := range rows {
		total += utf8.RuneCountInString(row)
	}
	p.iterBudget = total*2 + 16

	pending := queue.New(rows...)
	rowIdx := 0
	offset := 0

	for {
		row, ok := pending.First()
		if !ok {
			break
		}

		p.curRowRunes = []rune(row)
		rowLen := len(p.curRowRunes)
		col := 0

		for {
			cur := coord.Coord{Row: rowIdx, Col: col, Offset: offset + col}
			active := &p.stack[len(p.stack)-1]
			unparsed := string(p.curRowRunes[col:])
			stream := streamview.New(unparsed, active.node, p.lastToken, rowIdx, col)

			winner, winnerPhrase, aerr := p.collectAndArbitrate(active, stream, unparsed)
			if aerr != nil {
				return nil, aerr
			}

			if winner == nil {
				p.tokenizeSpan(active.phrase, active.node, unparsed, cur)
				break
			}

			consumed, cerr := p.commit(active, winner, winnerPhrase, cur)
			if cerr != nil {
				return nil, cerr
			}
			col += consumed

			if p.iterBudget--; p.iterBudget <= 0 {
				return nil, errors.FormatPos(cur, ErrConfiguration, "parse did not terminate within the expected iteration bound")
			}

			if col >= rowLen {
				break
			}
		}

		offset += rowLen
		rowIdx++
	}

	root := p.stack[0].node
	root.CloseWith(token.NewEOF(root))
	return p.root, nil
}

type candSource struct {
	cand *phrase.Candidate
	ph   phrase.Phrase
}

// collectAndArbitrate gathers the active phrase's Ends candidate, any
// pending suffix-phrase Starts left by a sibling that just closed, and every
// sub-phrase's Starts candidate, then applies the priority rules: instant
// dominance, minimum at, null-token preference (with the at==0 rejection
// and ForwardTo exemption), longest content, class precedence (with
// DefaultEnd deferral).
func (p *Parser) collectAndArbitrate (active *frame, stream *streamview.Stream, unparsed string) (*phrase.Candidate, phrase.Phrase, error) {
	unparsedLen := utf8.RuneCountInString(unparsed)

	validate := func (c *phrase.Candidate) error {
		if c == nil {
			return nil
		}
		if c.At < 0 || c.At > c.To || c.To > unparsedLen {
			return errors.FormatPos(coord.Coord{Row: stream.RowNo(), Col: stream.Column()}, ErrConfiguration,
				"candidate [%d,%d) out of bounds for unparsed window of length %d", c.At, c.To, unparsedLen)
		}
		return nil
	}

	endCand := active.phrase.Ends(stream)
	if err := validate(endCand); err != nil {
		return nil, nil, err
	}

	var starts []candSource
	for _, suf := range p.pendingSuffixes {
		c := suf.Starts(stream)
		if err := validate(c); err != nil {
			return nil, nil, err
		}
		if c != nil {
			starts = append(starts, candSource{c, suf})
		}
	}
	p.pendingSuffixes = nil

	for _, sub := range active.phrase.SubPhrases() {
		c := sub.Starts(stream)
		if err := validate(c); err != nil {
			return nil, nil, err
		}
		if c != nil {
			starts = append(starts, candSource{c, sub})
		}
	}

	if endCand != nil && endCand.Flags.Has(token.DefaultEnd) && len(starts) > 0 {
		endCand = nil
	}

	all := make([]candSource, 0, len(starts)+1)
	if endCand != nil {
		all = append(all, candSource{endCand, active.phrase})
	}
	all = append(all, starts...)
	if len(all) == 0 {
		return nil, nil, nil
	}

	all = filterSources(all, func (c candSource) bool {
		if c.cand.Shape != phrase.ShapeEnd && c.cand.At == c.cand.To && c.cand.At == 0 && !hasForwardTo(c.cand) {
			return false
		}
		return true
	})
	if len(all) == 0 {
		return nil, nil, nil
	}

	for _, c := range all {
		if c.cand.Shape == phrase.ShapeEnd && c.cand.Flags.Has(token.Instant) {
			return c.cand, c.ph, nil
		}
	}

	instants := filterSources(all, func (c candSource) bool {
		return c.cand.Shape != phrase.ShapeEnd && c.cand.Flags.Has(token.Instant)
	})
	pool := all
	if len(instants) > 0 {
		pool = instants
	}

	minAt := pool[0].cand.At
	for _, c := range pool {
		if c.cand.At < minAt {
			minAt = c.cand.At
		}
	}
	pool = filterSources(pool, func (c candSource) bool { return c.cand.At == minAt })

	nulls := filterSources(pool, func (c candSource) bool { return c.cand.At == c.cand.To })
	if len(nulls) > 0 {
		pool = nulls
	}

	maxLen := 0
	for _, c := range pool {
		if l := c.cand.To - c.cand.At; l > maxLen {
			maxLen = l
		}
	}
	pool = filterSources(pool, func (c candSource) bool { return c.cand.To-c.cand.At == maxLen })

	best := pool[0]
	bestRank := rankOf(best.cand)
	for _, c := range pool[1:] {
		if r := rankOf(c.cand); r < bestRank {
			best, bestRank = c, r
		}
	}

	return best.cand, best.ph, nil
}

func rankOf (c *phrase.Candidate) int {
	instant := c.Flags.Has(token.Instant)
	switch {
	case c.Shape == phrase.ShapeEnd && instant:
		return 0
	case c.Shape == phrase.ShapeStart && instant:
		return 1
	case c.Shape == phrase.ShapeStandalone && instant:
		return 2
	case c.Shape == phrase.ShapeEnd:
		return 3
	default:
		return 4
	}
}

func hasForwardTo (c *phrase.Candidate) bool {
	for _, f := range c.Features {
		if _, ok := f.(phrase.ForwardTo); ok {
			return true
		}
	}
	return false
}

func filterSources (items []candSource, keep func (candSource) bool) []candSource {
	result := items[:0:0]
	for _, it := range items {
		if keep(it) {
			result = append(result, it)
		}
	}
	return result
}

// commit links the winning candidate into the tree, applies its features,
// and invokes the confirmed/featurized/start/end hooks in order. It returns
// the number of runes consumed from unparsed's front, including any
// RTokenize span past the candidate's content boundary (To minus the
// RTokenize total).
func (p *Parser) commit (active *frame, cand *phrase.Candidate, ph phrase.Phrase, cur coord.Coord) (int, error) {
	unparsedRunes := p.curRowRunes[cur.Col:]
	gapEndCoord := cur
	if cand.At > 0 {
		gap := string(unparsedRunes[:cand.At])
		p.tokenizeSpan(active.phrase, active.node, gap, cur)
		gapEndCoord = cur.Advance(cand.At)
	}

	// LStrip lets a candidate declare a low At to win the minimum-at
	// priority rule while still skipping further characters before its
	// real content starts: those extra characters are attributed to the
	// active node exactly like the ordinary At>0 gap above, just after it,
	// advancing the effective content start independently of At.
	effectiveAt := cand.At + lstripSum(cand.Features)
	if lsN := effectiveAt - cand.At; lsN > 0 {
		strip := string(unparsedRunes[cand.At:effectiveAt])
		p.tokenizeSpan(active.phrase, active.node, strip, gapEndCoord)
		gapEndCoord = gapEndCoord.Advance(lsN)
	}

	// A candidate's declared To is inflated by any RTokenize total it
	// carries, purely to win the arbitration length tie-break; the actual
	// content boundary collapses back by that same amount, so a candidate
	// that is entirely RTokenize (e.g. a word's classification) can declare
	// a non-null To at arbitration time yet open with a null span.
	effectiveTo := cand.To - rtokenizeSum(cand.Features)
	if effectiveTo < effectiveAt {
		return 0, errors.FormatPos(cur, ErrConfiguration, "LStrip/RTokenize exceed candidate span [%d,%d)", cand.At, cand.To)
	}
	content := string(unparsedRunes[effectiveAt:effectiveTo])
	afterContentCoord := cur.Advance(effectiveTo)

	nodeID := cand.ID
	if nodeID == nil {
		nodeID = ph.PhraseID()
	}

	switch {
	case cand.Shape == phrase.ShapeEnd:
		closedNode := active.node
		endTok := token.NewEnd(cand.ID, content, gapEndCoord, cand.Flags)
		closedNode.CloseWith(endTok)
		p.lastToken = endTok
		ph.AtConfirmed(endTok)
		extra, ferr := p.applyFeatures(active, endTok, cand, afterContentCoord)
		if ferr != nil {
			return 0, ferr
		}
		ph.AtFeaturized(endTok)
		p.stack = p.stack[:len(p.stack)-1]
		closedPhrase := closedNode.Phrase().(phrase.Phrase)
		closedPhrase.AtEnd(closedNode)
		// ph is the frame's governing phrase, which a SwitchTo may have
		// redirected away from closedNode.Phrase().
		p.pendingSuffixes = ph.SuffixPhrases()
		return effectiveTo + extra, nil

	case cand.Flags.Has(token.Mask):
		p.maskedAppend(active.node, content, gapEndCoord)
		return effectiveTo, nil

	case cand.Shape == phrase.ShapeStandalone:
		plain := token.NewPlain(cand.ID, content, gapEndCoord, cand.Flags)
		active.node.AppendChild(plain)
		p.lastToken = plain
		ph.AtConfirmed(plain)
		extra, ferr := p.applyFeatures(active, plain, cand, afterContentCoord)
		if ferr != nil {
			return 0, ferr
		}
		ph.AtFeaturized(plain)
		return effectiveTo + extra, nil

	case cand.Flags.Has(token.Wrap):
		wrapped := cand.Wrapped
		if wrapped == nil || wrapped.Candidate == nil || wrapped.Phrase == nil {
			return 0, errors.FormatPos(cur, ErrConfiguration, "Wrap candidate missing its wrapped node")
		}
		wc := wrapped.Candidate
		if wc.At != cand.At || wc.To != cand.To {
			return 0, errors.FormatPos(cur, ErrConfiguration, "Wrap candidate span must match its wrapped candidate's span")
		}

		wrapper := token.NewNode(nodeID, "", gapEndCoord, ph, cand.Flags, cand.Extras)
		active.node.AppendChild(wrapper)
		p.lastToken = wrapper
		ph.AtConfirmed(wrapper)
		ph.AtFeaturized(wrapper)

		wrappedID := wc.ID
		if wrappedID == nil {
			wrappedID = wrapped.Phrase.PhraseID()
		}
		wcEffectiveTo := wc.To - rtokenizeSum(wc.Features)
		if wcEffectiveTo < wc.At {
			return 0, errors.FormatPos(cur, ErrConfiguration, "RTokenize exceeds wrapped candidate span [%d,%d)", wc.At, wc.To)
		}
		wcContent := string(unparsedRunes[wc.At:wcEffectiveTo])
		wcAfterCoord := cur.Advance(wcEffectiveTo)

		realNode := token.NewNode(wrappedID, wcContent, gapEndCoord, wrapped.Phrase, wc.Flags, wc.Extras)
		wrapper.AppendChild(realNode)
		p.lastToken = realNode
		p.stack = append(p.stack, frame{node: realNode, phrase: wrapped.Phrase})
		wrapped.Phrase.AtConfirmed(realNode)
		newTop := &p.stack[len(p.stack)-1]
		extra, ferr := p.applyFeatures(newTop, realNode, wc, wcAfterCoord)
		if ferr != nil {
			return 0, ferr
		}
		wrapped.Phrase.AtFeaturized(realNode)
		realNode.Phrase().(phrase.Phrase).AtStart(realNode)
		return wcEffectiveTo + extra, nil

	default: // ShapeStart, ordinary node open
		newNode := token.NewNode(nodeID, content, gapEndCoord, ph, cand.Flags, cand.Extras)
		active.node.AppendChild(newNode)
		p.lastToken = newNode
		ph.AtConfirmed(newNode)
		p.stack = append(p.stack, frame{node: newNode, phrase: ph})
		newTop := &p.stack[len(p.stack)-1]
		extra, ferr := p.applyFeatures(newTop, newNode, cand, afterContentCoord)
		if ferr != nil {
			return 0, ferr
		}
		ph.AtFeaturized(newNode)
		newNode.Phrase().(phrase.Phrase).AtStart(newNode)
		return effectiveTo + extra, nil
	}
}

// rtokenizeSum totals the N of every RTokenize feature in features, the
// amount by which a candidate's declared To is inflated beyond its actual
// content boundary.
func rtokenizeSum (features []phrase.Feature) int {
	total := 0
	for _, f := range features {
		if r, ok := f.(phrase.RTokenize); ok {
			total += r.N
		}
	}
	return total
}

// lstripSum totals the N of every LStrip feature in features, the number of
// characters attributed to the enclosing node past At before a candidate's
// real content starts.
func lstripSum (features []phrase.Feature) int {
	total := 0
	for _, f := range features {
		if ls, ok := f.(phrase.LStrip); ok {
			total += ls.N
		}
	}
	return total
}

// applyFeatures applies a committed candidate's features in declared
// order, mutating top's effective phrase (SwitchTo/SwitchPh), re-anchoring
// the stack (ForwardTo), or running a bounded re-tokenization (RTokenize).
// It returns any extra runes RTokenize consumed beyond the candidate's own
// span, so the caller can advance the cursor correctly.
func (p *Parser) applyFeatures (top *frame, committed token.Token, cand *phrase.Candidate, afterCoord coord.Coord) (int, error) {
	extra := 0
	for _, f := range cand.Features {
		switch feat := f.(type) {
		case phrase.LStrip:
			// already attributed to the enclosing node by commit, before
			// features are applied; nothing left to do here.

		case phrase.RTokenize:
			node, ok := committed.(*token.NodeToken)
			if !ok {
				return extra, errors.FormatPos(afterCoord, ErrConfiguration, "RTokenize feature on a non-node token")
			}
			start := afterCoord.Col + extra
			end := start + feat.N
			if end > len(p.curRowRunes) {
				end = len(p.curRowRunes)
			}
			if end < start {
				end = start
			}
			span := string(p.curRowRunes[start:end])
			p.tokenizeSpan(top.phrase, node, span, afterCoord.Advance(extra))
			extra += end - start

		case phrase.SwitchTo:
			top.phrase = feat.To

		case phrase.SwitchPh:
			top.phrase = feat.To
			if node, ok := committed.(*token.NodeToken); ok {
				node.SetPhrase(feat.To)
				node.SetID(feat.To.PhraseID())
			}

		case phrase.ForwardTo:
			if err := p.forwardTo(feat.Node, cand); err != nil {
				return extra, err
			}
		}
	}
	return extra, nil
}

// forwardTo re-anchors the active stack to target, an already-open node.
// Rejects a forward that would leave the stream exactly where it was.
func (p *Parser) forwardTo (target token.Token, cand *phrase.Candidate) error {
	idx := -1
	for i := len(p.stack) - 1; i >= 0; i-- {
		if token.Token(p.stack[i].node) == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Format(ErrConfiguration, "ForwardTo target is not an open node on the active stack")
	}

	if cand.At == cand.To {
		advances := false
		for _, f := range cand.Features {
			if ls, ok := f.(phrase.LStrip); ok && ls.N > 0 {
				advances = true
			}
		}
		if !advances {
			return errors.Format(ErrNonAdvancingForward, "ForwardTo candidate does not advance the stream")
		}
	}

	p.stack = p.stack[:idx+1]
	return nil
}

// maskedAppend attributes content directly to parent as an untyped plain
// token, for masked candidates whose own token never enters the result.
func (p *Parser) maskedAppend (parent *token.NodeToken, content string, start coord.Coord) {
	if content == "" {
		return
	}
	tok := token.NewOToken(content, start)
	parent.AppendChild(tok)
	p.lastToken = tok
}

// tokenizeSpan fully attributes span to parent: typed plain tokens via
// ph's Tokenize hook where ph implements phrase.Tokenizer (stopping once
// the hook declines or fails to consume anything), and an OToken for
// whatever the hook leaves behind or the whole span when ph has no
// Tokenize hook at all.
func (p *Parser) tokenizeSpan (ph phrase.Phrase, parent *token.NodeToken, span string, start coord.Coord) {
	if span == "" {
		return
	}

	tk, ok := ph.(phrase.Tokenizer)
	if !ok {
		tok := token.NewOToken(span, start)
		parent.AppendChild(tok)
		p.lastToken = tok
		return
	}

	ts := streamview.NewTokenizeStream(span)
	cur := start
	leftover := ""
	for !ts.Done() {
		before := ts.Remaining()
		beforeLen := utf8.RuneCountInString(before)
		class, more := tk.Tokenize(ts)
		afterLen := utf8.RuneCountInString(ts.Remaining())
		consumed := beforeLen - afterLen
		if !more || consumed <= 0 {
			leftover = before
			break
		}
		text := string([]rune(before)[:consumed])
		tok := token.NewPlain(class, text, cur, 0)
		parent.AppendChild(tok)
		p.lastToken = tok
		cur = cur.Advance(consumed)
	}

	if leftover != "" {
		tok := token.NewOToken(leftover, cur)
		parent.AppendChild(tok)
		p.lastToken = tok
	}
}
