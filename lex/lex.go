// Package lex implements the longest-match tokenizer driven by a
// grammar.LexerSpec (spec.md §4.2), playing the role the teacher's
// github.com/ava12/llx/lexer package plays for its composed-regexp
// scanner — reworked into a try-every-definition-in-order scan since
// koine's token table is data, not a precompiled alternation, and
// into layout-sensitive INDENT/DEDENT/NEWLINE emission grounded on
// the teacher's parser/layers/indent hook layer.
package lex

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ava12/koine/ast"
	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
	"github.com/ava12/koine/pos"
	"github.com/ava12/koine/token"
)

const (
	Newline = "NEWLINE"
	Indent  = "INDENT"
	Dedent  = "DEDENT"
)

type compiledToken struct {
	def grammar.TokenDef
	re  *regexp.Regexp
}

// Lexer scans a pos.Source into a token stream according to one
// compiled LexerSpec. A Lexer is stateless between Run calls and safe
// for concurrent use, the same guarantee the teacher's lexer.Lexer
// documents.
type Lexer struct {
	tokens    []compiledToken
	hasIndent bool
}

// New compiles every token definition's regex, anchoring it to the
// current scan position and enabling leftmost-longest matching so a
// pattern's own internal alternation picks its longest branch, per
// spec.md §4.2's longest-match rule.
func New(spec *grammar.LexerSpec) (*Lexer, *errs.Error) {
	toks := make([]compiledToken, 0, len(spec.Tokens))
	for _, def := range spec.Tokens {
		re, err := grammar.CompileRegex(def.Regex)
		if err != nil {
			return nil, lexErr(errs.NoTokenMatch, "invalid token regex %q: %v", def.Regex, err)
		}
		toks = append(toks, compiledToken{def: def, re: re})
	}
	return &Lexer{tokens: toks, hasIndent: spec.HasIndent()}, nil
}

func lexErr(code int, msg string, params ...any) *errs.Error {
	return errs.Newf(errs.Lex, code, msg, params...)
}

// Run scans src end to end, returning every token it produces. No
// EOF sentinel is appended; callers learn of end of input by index
// exhaustion on the returned slice.
func (l *Lexer) Run(src *pos.Source) ([]token.Token, *errs.Error) {
	var toks []token.Token
	stack := []string{""}
	n := src.Len()
	offset := 0

	for offset < n {
		text := src.Text(offset, n)

		bestLen := -1
		var bestDef grammar.TokenDef
		for _, ct := range l.tokens {
			loc := ct.re.FindStringIndex(text)
			if loc == nil || loc[0] != 0 {
				continue
			}
			if loc[1] > bestLen {
				bestLen = loc[1]
				bestDef = ct.def
			}
		}

		if bestLen < 0 {
			line, col := src.LineCol(offset)
			return nil, lexErr(errs.NoTokenMatch, "no token matches").AtPos(line, col)
		}
		if bestLen == 0 {
			line, col := src.LineCol(offset)
			return nil, lexErr(errs.ZeroLengthMatch, "zero-length token match").AtPos(line, col)
		}

		matched := text[:bestLen]
		startOffset := offset
		startPos := src.Pos(startOffset)
		offset += utf8.RuneCountInString(matched)

		switch bestDef.Action {
		case grammar.Skip:
			// advance only, emit nothing

		case grammar.HandleIndent:
			extra, err := l.handleIndent(&stack, matched, startPos)
			if err != nil {
				return nil, err
			}
			toks = append(toks, extra...)

		default:
			var value any
			if bestDef.Ast.Type != grammar.NoType {
				v, cerr := ast.CoerceValue(matched, bestDef.Ast.Type)
				if cerr != nil {
					return nil, cerr.AtPos(startPos.Line(), startPos.Col())
				}
				value = v
			}
			toks = append(toks, token.New(bestDef.Token, matched, value, startPos))
		}
	}

	if l.hasIndent {
		eofPos := src.Pos(n)
		for len(stack) > 1 {
			stack = stack[:len(stack)-1]
			toks = append(toks, token.New(Dedent, "", nil, eofPos))
		}
	}

	return toks, nil
}

// handleIndent applies one handle_indent match to the indentation
// stack and returns the NEWLINE/INDENT/DEDENT tokens it produces,
// following the stack algorithm of spec.md §4.2.
func (l *Lexer) handleIndent(stack *[]string, matched string, at pos.Position) ([]token.Token, *errs.Error) {
	nl := strings.LastIndexByte(matched, '\n')
	indent := matched
	if nl >= 0 {
		indent = matched[nl+1:]
	}

	top := (*stack)[len(*stack)-1]

	switch {
	case indent == top:
		return []token.Token{token.New(Newline, "", nil, at)}, nil

	case len(indent) > len(top):
		if !strings.HasPrefix(indent, top) {
			return nil, lexErr(errs.MixedIndent, "indentation %q is not an extension of %q", indent, top).AtPos(at.Line(), at.Col())
		}
		*stack = append(*stack, indent)
		return []token.Token{token.New(Indent, "", nil, at)}, nil

	default:
		var out []token.Token
		for len(*stack) > 1 {
			*stack = (*stack)[:len(*stack)-1]
			out = append(out, token.New(Dedent, "", nil, at))
			if (*stack)[len(*stack)-1] == indent {
				return out, nil
			}
		}
		if (*stack)[0] == indent {
			return out, nil
		}
		return nil, lexErr(errs.BadDedent, "indentation %q matches no enclosing level", indent).AtPos(at.Line(), at.Col())
	}
}
