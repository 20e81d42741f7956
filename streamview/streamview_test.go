package streamview

import (
	"regexp"
	"testing"

	. "github.com/ava12/phrasekit/internal/test"
)

func TestTokenizeStreamEat (t *testing.T) {
	s := NewTokenizeStream("hello world")
	eaten := s.Eat(5)
	Expect(t, eaten == "hello", "hello", eaten)
	Expect(t, s.Remaining() == " world", " world", s.Remaining())
}

func TestTokenizeStreamEatClampsPastEnd (t *testing.T) {
	s := NewTokenizeStream("hi")
	Expect(t, s.Eat(10) == "hi", "hi", s.Eat(10))
	Assert(t, s.Done(), "stream should be done after eating past its end")
}

func TestTokenizeStreamEatWhile (t *testing.T) {
	s := NewTokenizeStream("123abc")
	digits := s.EatWhile(func(r rune) bool { return r >= '0' && r <= '9' })
	Expect(t, digits == "123", "123", digits)
	Expect(t, s.Remaining() == "abc", "abc", s.Remaining())
}

func TestTokenizeStreamEatUntil (t *testing.T) {
	s := NewTokenizeStream(`abc"def`)
	eaten, found := s.EatUntil(regexp.MustCompile(`"`))
	Assert(t, found, "expected a match")
	Expect(t, eaten == "abc", "abc", eaten)
	Expect(t, s.Remaining() == `"def`, `"def`, s.Remaining())
}

func TestTokenizeStreamEatUntilNoMatch (t *testing.T) {
	s := NewTokenizeStream("abcdef")
	eaten, found := s.EatUntil(regexp.MustCompile(`"`))
	Assert(t, !found, "expected no match")
	Expect(t, eaten == "", "", eaten)
	Expect(t, s.Remaining() == "abcdef", "abcdef", s.Remaining())
}

func TestTokenizeStreamEatRemain (t *testing.T) {
	s := NewTokenizeStream("tail")
	Expect(t, s.EatRemain() == "tail", "tail", s.EatRemain())
	Assert(t, s.Done(), "stream should be done after EatRemain")
}

func TestStreamAccessors (t *testing.T) {
	s := New("rest of row", nil, nil, 2, 4)
	Expect(t, s.Unparsed() == "rest of row", "rest of row", s.Unparsed())
	ExpectInt(t, 2, s.RowNo())
	ExpectInt(t, 4, s.Column())
	Assert(t, s.Node() == nil, "expected nil active node")
	Assert(t, s.LastToken() == nil, "expected nil last token")
}
