package token

import "github.com/chrisgrebs/dmlt/dmlterr"

// Source is a pull-based producer of token tuples - the lexer implements
// this, but so can anything else feeding a stream (e.g. a hand-built slice
// source for tests, matching Python's TokenStream.from_tuple_iter).
type Source interface {
	// Next returns the next tuple, or ok=false once exhausted. err is only
	// non-nil on a genuine lexing failure (e.g. MissingContext).
	Next() (tup Tuple, ok bool, err error)
}

// SliceSource adapts a pre-built slice of tuples into a Source, the Go
// equivalent of TokenStream.from_tuple_iter's typical test usage.
type SliceSource struct {
	tuples []Tuple
	pos    int
}

// NewSliceSource returns a Source that yields the given tuples in order.
func NewSliceSource(tuples []Tuple) *SliceSource {
	return &SliceSource{tuples: tuples}
}

func (s *SliceSource) Next() (Tuple, bool, error) {
	if s.pos >= len(s.tuples) {
		return Tuple{}, false, nil
	}
	t := s.tuples[s.pos]
	s.pos++
	return t, true, nil
}

// Stream is a mutable token stream: a current token, a one-token lookahead
// cache, and a LIFO push-back buffer consulted ahead of the underlying
// Source. See spec.md sections 3.4 and 4.2.
type Stream struct {
	source    Source
	pushback  []Token // LIFO: pushback[len-1] is consumed next
	current   Token
	eof       bool
	sourceErr error
}

// FromSource builds a stream pulling its first token from src.
func FromSource(src Source) (*Stream, error) {
	s := &Stream{source: src}
	if err := s.advance(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromTuples is the direct equivalent of TokenStream.from_tuple_iter for a
// fixed, pre-built sequence of tuples.
func FromTuples(tuples []Tuple) (*Stream, error) {
	return FromSource(NewSliceSource(tuples))
}

// pull fetches the next token: from the pushback buffer if non-empty,
// otherwise from the underlying source. Past exhaustion it always reports
// the eof sentinel.
func (s *Stream) pull() (Token, error) {
	if n := len(s.pushback); n > 0 {
		tok := s.pushback[n-1]
		s.pushback = s.pushback[:n-1]
		return tok, nil
	}
	if s.eof {
		return EOF, nil
	}
	if s.sourceErr != nil {
		return Token{}, s.sourceErr
	}
	tup, ok, err := s.source.Next()
	if err != nil {
		s.sourceErr = err
		return Token{}, err
	}
	if !ok {
		s.eof = true
		return EOF, nil
	}
	return tup.Token(), nil
}

func (s *Stream) advance() error {
	tok, err := s.pull()
	if err != nil {
		return err
	}
	s.current = tok
	return nil
}

// Current returns the current token. It is always defined; once the
// source is exhausted it stays the eof sentinel until something is pushed.
func (s *Stream) Current() Token {
	return s.current
}

// Eof reports whether the current token is the eof sentinel.
func (s *Stream) Eof() bool {
	return s.current.Type == "eof"
}

// Next advances the stream by one token and returns the token that was
// current before advancing.
func (s *Stream) Next() (Token, error) {
	prev := s.current
	if err := s.advance(); err != nil {
		return prev, err
	}
	return prev, nil
}

// Look returns the next token without changing Current.
func (s *Stream) Look() (Token, error) {
	if n := len(s.pushback); n > 0 {
		return s.pushback[n-1], nil
	}
	if s.eof {
		return EOF, nil
	}
	if s.sourceErr != nil {
		return Token{}, s.sourceErr
	}
	tup, ok, err := s.source.Next()
	if err != nil {
		s.sourceErr = err
		return Token{}, err
	}
	if !ok {
		s.eof = true
		return EOF, nil
	}
	next := tup.Token()
	// Stash it in the pushback buffer so the pull this Look just performed
	// isn't lost - the next real pull will hand back exactly this token.
	s.pushback = append(s.pushback, next)
	return next, nil
}

// Push inserts tok so it becomes the next token after Current. If shift is
// true, Current itself is pushed back first and tok becomes the new
// Current.
func (s *Stream) Push(tok Token, shift bool) {
	if shift {
		s.pushback = append(s.pushback, s.current)
		s.current = tok
		s.eof = tok.Type == "eof"
		return
	}
	s.pushback = append(s.pushback, tok)
}

// Shift pushes Current back onto the stream and makes tok the new Current -
// a convenience equivalent to Push(tok, true).
func (s *Stream) Shift(tok Token) {
	s.Push(tok, true)
}

// Test performs a non-consuming match of Current against typ and,
// optionally, an exact value.
func (s *Stream) Test(typ string, value ...string) bool {
	if s.current.Type != typ {
		return false
	}
	if len(value) == 0 {
		return true
	}
	return s.current.ValueOr("") == value[0]
}

// Expect returns Current if it matches typ (and, optionally, an exact
// value) and advances past it; otherwise it returns UnexpectedToken.
func (s *Stream) Expect(typ string, value ...string) (Token, error) {
	if !s.Test(typ, value...) {
		return Token{}, &dmlterr.UnexpectedToken{Expected: typ, Actual: s.current.Type}
	}
	tok, err := s.Next()
	return tok, err
}

// Skip advances n positions.
func (s *Stream) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := s.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Debug renders the remainder of the stream for inspection without
// consuming it: it drains the stream into a buffer, then restores it via
// the push-back mechanism, exactly as spec.md section 4.2 describes.
func (s *Stream) Debug() ([]Token, error) {
	var drained []Token
	for {
		drained = append(drained, s.current)
		if s.current.Type == "eof" && len(s.pushback) == 0 && s.eof {
			break
		}
		if _, err := s.Next(); err != nil {
			return nil, err
		}
		if s.current.Type == "eof" && s.eof && len(s.pushback) == 0 {
			drained = append(drained, s.current)
			break
		}
	}
	// restore: push everything back in reverse so popping order reproduces
	// the drained sequence, then make the first drained token current again.
	s.pushback = nil
	s.eof = false
	for i := len(drained) - 1; i >= 1; i-- {
		s.pushback = append(s.pushback, drained[i])
	}
	s.current = drained[0]
	if s.current.Type == "eof" {
		s.eof = true
	}
	return drained, nil
}
