// Package recognize implements the PEG recognizer (spec.md §4.3): one
// interpreter walking a grammar.RuleExpr tree over either a character
// cursor or a token cursor, producing a raw parse Fragment tree.
// Plays the role github.com/ava12/llx/parser's FSM-driven Parser plays
// for the teacher, reworked into direct recursive-descent combinator
// dispatch over the closed RuleExpr sum type instead of table-driven
// state transitions.
package recognize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
	"github.com/ava12/koine/pos"
	"github.com/ava12/koine/token"
)

// Fragment is the raw parse result for one RuleExpr, spec.md §4.3's
// "{ rule?, text, start_pos, end_pos, children }". Rule is set only
// on the fragment produced by a Ref; each enclosing Ref overwrites it,
// so in an aliasing chain it names the outermost rule. The AST shaper
// does not read it: it walks Fragment and RuleExpr in lock-step and
// tracks the rule name itself. AltIndex is meaningful only when the producing RuleExpr was a
// Choice: it names which alternative succeeded. Value carries a
// token's already-coerced value through to the shaper (spec.md §4.2:
// a token def's own ast.type coercion applies "when the token is
// later consumed as a leaf") — nil for every fragment not produced by
// matchToken against a value-coerced token.
type Fragment struct {
	Rule     string
	Text     string
	Start    pos.Position
	End      pos.Position
	Children []Fragment
	AltIndex int
	Value    any
}

type cursorMode int

const (
	charMode cursorMode = iota
	tokenMode
)

type state struct {
	mode cursorMode
	src  *pos.Source
	toks []token.Token
	pos  int

	g         *grammar.CompiledGrammar
	ruleStack []string
	regexCache map[string]*regexp.Regexp

	farthestOffset int
	farthestPos    pos.Position
	expected       map[string]bool
	context        []string

	hardErr *errs.Error
}

// ParseChars recognizes startRule against src in no-lexer (character)
// mode.
func ParseChars(g *grammar.CompiledGrammar, src *pos.Source, startRule string) (Fragment, *errs.Error) {
	s := &state{mode: charMode, src: src, g: g, expected: map[string]bool{}, regexCache: map[string]*regexp.Regexp{}}
	frag, ok := s.parseStart(startRule)
	if s.hardErr != nil {
		return Fragment{}, s.hardErr
	}
	if !ok {
		return Fragment{}, s.failure()
	}
	if s.pos != src.Len() {
		line, col := src.LineCol(s.pos)
		return Fragment{}, errs.Newf(errs.Parse, errs.UnexpectedInput, "unexpected trailing input").AtPos(line, col)
	}
	return frag, nil
}

// ParseTokens recognizes startRule against toks in lexer mode.
func ParseTokens(g *grammar.CompiledGrammar, toks []token.Token, startRule string) (Fragment, *errs.Error) {
	s := &state{mode: tokenMode, toks: toks, g: g, expected: map[string]bool{}, regexCache: map[string]*regexp.Regexp{}}
	frag, ok := s.parseStart(startRule)
	if s.hardErr != nil {
		return Fragment{}, s.hardErr
	}
	if !ok {
		return Fragment{}, s.failure()
	}
	if s.pos != len(toks) {
		p := s.currentPos()
		return Fragment{}, errs.Newf(errs.Parse, errs.UnexpectedInput, "unexpected trailing input").AtPos(p.Line(), p.Col())
	}
	return frag, nil
}

func (s *state) parseStart(startRule string) (Fragment, bool) {
	frag, ok := s.match(grammar.Ref{Name: startRule})
	return frag, ok
}

func (s *state) failure() *errs.Error {
	expected := make([]string, 0, len(s.expected))
	for e := range s.expected {
		expected = append(expected, e)
	}
	sort.Strings(expected)

	e := errs.Newf(errs.Parse, errs.UnexpectedInput, "unexpected input, expected one of: %s", strings.Join(expected, ", "))
	e = e.AtPos(s.farthestPos.Line(), s.farthestPos.Col())
	e.Expected = expected
	e.Context = s.context
	return e
}

func (s *state) currentPos() pos.Position {
	if s.mode == charMode {
		return s.src.Pos(s.pos)
	}
	if s.pos < len(s.toks) {
		return s.toks[s.pos].Position()
	}
	if len(s.toks) > 0 {
		last := s.toks[len(s.toks)-1]
		return pos.NewPosition(last.Line(), last.Col()+utf8.RuneCountInString(last.Text), last.Offset()+utf8.RuneCountInString(last.Text))
	}
	return pos.NewPosition(1, 1, 0)
}

func (s *state) recordFail(name string) {
	cp := s.currentPos()
	switch {
	case cp.Offset() > s.farthestOffset || len(s.expected) == 0:
		s.farthestOffset = cp.Offset()
		s.farthestPos = cp
		s.expected = map[string]bool{name: true}
		s.context = append([]string(nil), s.ruleStack...)
	case cp.Offset() == s.farthestOffset:
		s.expected[name] = true
	}
}

func (s *state) spanText(start int) string {
	if s.mode == charMode {
		return s.src.Text(start, s.pos)
	}
	var b strings.Builder
	for i := start; i < s.pos && i < len(s.toks); i++ {
		b.WriteString(s.toks[i].Text)
	}
	return b.String()
}

func (s *state) posAt(offset int) pos.Position {
	if s.mode == charMode {
		return s.src.Pos(offset)
	}
	if offset < len(s.toks) {
		return s.toks[offset].Position()
	}
	return s.currentPos()
}

func (s *state) compiledRegex(pattern string) (*regexp.Regexp, *errs.Error) {
	if re, ok := s.regexCache[pattern]; ok {
		return re, nil
	}
	re, err := grammar.CompileRegex(pattern)
	if err != nil {
		return nil, errs.Newf(errs.Grammar, errs.MalformedDirective, "invalid regex %q: %v", pattern, err)
	}
	s.regexCache[pattern] = re
	return re, nil
}

// match dispatches on expr's concrete type; every branch restores
// s.pos to its entry value before returning false, so callers never
// need to rewind on failure themselves.
func (s *state) match(expr grammar.RuleExpr) (Fragment, bool) {
	start := s.pos

	switch e := expr.(type) {
	case grammar.Literal:
		return s.matchLiteral(e, start)

	case grammar.Regex:
		return s.matchRegex(e, start)

	case grammar.Token:
		return s.matchToken(e, start)

	case grammar.Ref:
		rule, ok := s.g.Lookup(e.Name)
		if !ok {
			s.hardErr = errs.Newf(errs.Parse, errs.UnexpectedInput, "unknown rule %q", e.Name)
			return Fragment{}, false
		}
		s.ruleStack = append(s.ruleStack, e.Name)
		frag, ok := s.match(rule.Body)
		s.ruleStack = s.ruleStack[:len(s.ruleStack)-1]
		if !ok {
			s.pos = start
			return Fragment{}, false
		}
		frag.Rule = e.Name
		return frag, true

	case grammar.Sequence:
		children := make([]Fragment, 0, len(e.Parts))
		for _, part := range e.Parts {
			frag, ok := s.match(part.Expr)
			if !ok {
				s.pos = start
				return Fragment{}, false
			}
			children = append(children, frag)
		}
		return Fragment{Text: s.spanText(start), Start: s.posAt(start), End: s.currentPos(), Children: children}, true

	case grammar.Choice:
		for i, alt := range e.Alts {
			saved := s.pos
			frag, ok := s.match(alt.Expr)
			if ok {
				frag.AltIndex = i
				return frag, true
			}
			s.pos = saved
		}
		return Fragment{}, false

	case grammar.ZeroOrMore:
		return s.matchRepeat(e.Expr, start, 0)

	case grammar.OneOrMore:
		return s.matchRepeat(e.Expr, start, 1)

	case grammar.Optional:
		saved := s.pos
		frag, ok := s.match(e.Expr.Expr)
		if !ok {
			s.pos = saved
			return Fragment{Start: s.posAt(start), End: s.posAt(start)}, true
		}
		return Fragment{Text: frag.Text, Start: frag.Start, End: frag.End, Children: []Fragment{frag}}, true

	case grammar.PosLookahead:
		saved := s.pos
		_, ok := s.match(e.Expr.Expr)
		s.pos = saved
		if !ok {
			return Fragment{}, false
		}
		return Fragment{Start: s.posAt(start), End: s.posAt(start)}, true

	case grammar.NegLookahead:
		saved := s.pos
		_, ok := s.match(e.Expr.Expr)
		s.pos = saved
		if ok {
			return Fragment{}, false
		}
		return Fragment{Start: s.posAt(start), End: s.posAt(start)}, true

	default:
		s.hardErr = errs.Newf(errs.Parse, errs.UnexpectedInput, "unhandled rule expression %T", expr)
		return Fragment{}, false
	}
}

// matchRepeat implements ZeroOrMore (min=0) and OneOrMore (min=1),
// per spec.md §4.3's "OneOrMore(e) is equivalent to Sequence(e,
// ZeroOrMore(e))" and the infinite-loop guard: an iteration that
// succeeds without consuming input stops the repetition instead of
// looping forever.
func (s *state) matchRepeat(part grammar.Part, start, min int) (Fragment, bool) {
	var children []Fragment
	for {
		iterStart := s.pos
		frag, ok := s.match(part.Expr)
		if !ok {
			s.pos = iterStart
			break
		}
		if s.pos == iterStart {
			break
		}
		children = append(children, frag)
	}
	if len(children) < min {
		s.pos = start
		return Fragment{}, false
	}
	return Fragment{Text: s.spanText(start), Start: s.posAt(start), End: s.currentPos(), Children: children}, true
}

func (s *state) matchLiteral(e grammar.Literal, start int) (Fragment, bool) {
	if s.mode != charMode {
		s.hardErr = errs.Newf(errs.Parse, errs.NoLexerMode, "literal() used in lexer mode")
		return Fragment{}, false
	}
	runes := []rune(e.Text)
	if s.src.Text(start, start+len(runes)) == e.Text {
		s.pos = start + len(runes)
		return Fragment{Text: e.Text, Start: s.posAt(start), End: s.posAt(s.pos)}, true
	}
	s.recordFail(fmt.Sprintf("%q", e.Text))
	return Fragment{}, false
}

func (s *state) matchRegex(e grammar.Regex, start int) (Fragment, bool) {
	if s.mode != charMode {
		s.hardErr = errs.Newf(errs.Parse, errs.NoLexerMode, "regex() used in lexer mode")
		return Fragment{}, false
	}
	re, cerr := s.compiledRegex(e.Pattern)
	if cerr != nil {
		s.hardErr = cerr
		return Fragment{}, false
	}
	text := s.src.Text(start, s.src.Len())
	loc := re.FindStringIndex(text)
	if loc == nil || loc[0] != 0 {
		s.recordFail("/" + e.Pattern + "/")
		return Fragment{}, false
	}
	matched := text[:loc[1]]
	s.pos = start + utf8.RuneCountInString(matched)
	return Fragment{Text: matched, Start: s.posAt(start), End: s.posAt(s.pos)}, true
}

func (s *state) matchToken(e grammar.Token, start int) (Fragment, bool) {
	if s.mode != tokenMode {
		s.hardErr = errs.Newf(errs.Parse, errs.NoLexerMode, "token() used without a lexer")
		return Fragment{}, false
	}
	if start >= len(s.toks) || s.toks[start].Type != e.Name {
		s.recordFail(e.Name)
		return Fragment{}, false
	}
	s.pos = start + 1
	tok := s.toks[start]
	return Fragment{Text: tok.Text, Start: tok.Position(), End: s.posAt(s.pos), Value: tok.Value}, true
}
