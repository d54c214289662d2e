package recognize

import (
	"testing"

	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
	"github.com/ava12/koine/pos"
	"github.com/ava12/koine/token"
	"github.com/stretchr/testify/require"
)

func seqPart(e grammar.RuleExpr) grammar.Part { return grammar.Part{Expr: e} }

func TestParseCharsLiteralSequence(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "greeting",
		Rules: map[string]grammar.Rule{
			"greeting": {Body: grammar.Sequence{Parts: []grammar.Part{
				seqPart(grammar.Literal{Text: "hi"}),
				seqPart(grammar.Literal{Text: "!"}),
			}}},
		},
	}

	frag, err := ParseChars(g, pos.New("t", "hi!"), "greeting")
	require.Nil(t, err)
	require.Equal(t, "greeting", frag.Rule)
	require.Equal(t, "hi!", frag.Text)
	require.Len(t, frag.Children, 2)
}

func TestParseCharsChoicePicksFirstMatch(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "word",
		Rules: map[string]grammar.Rule{
			"word": {Body: grammar.Choice{Alts: []grammar.Part{
				seqPart(grammar.Literal{Text: "cat"}),
				seqPart(grammar.Literal{Text: "dog"}),
			}}},
		},
	}

	frag, err := ParseChars(g, pos.New("t", "dog"), "word")
	require.Nil(t, err)
	require.Equal(t, 1, frag.AltIndex)
	require.Equal(t, "dog", frag.Text)
}

func TestParseCharsZeroOrMoreStopsOnFailure(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "as",
		Rules: map[string]grammar.Rule{
			"as": {Body: grammar.ZeroOrMore{Expr: seqPart(grammar.Literal{Text: "a"})}},
		},
	}

	frag, err := ParseChars(g, pos.New("t", "aaab"), "as")
	require.NotNil(t, err) // trailing "b" is unconsumed
	_ = frag
}

func TestParseCharsOneOrMoreRequiresOne(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "as",
		Rules: map[string]grammar.Rule{
			"as": {Body: grammar.OneOrMore{Expr: seqPart(grammar.Literal{Text: "a"})}},
		},
	}

	_, err := ParseChars(g, pos.New("t", ""), "as")
	require.NotNil(t, err)
}

func TestParseCharsNegLookahead(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "notFoo",
		Rules: map[string]grammar.Rule{
			"notFoo": {Body: grammar.Sequence{Parts: []grammar.Part{
				seqPart(grammar.NegLookahead{Expr: seqPart(grammar.Literal{Text: "foo"})}),
				seqPart(grammar.Regex{Pattern: `.+`}),
			}}},
		},
	}

	_, err := ParseChars(g, pos.New("t", "foo"), "notFoo")
	require.NotNil(t, err)

	frag, err2 := ParseChars(g, pos.New("t", "bar"), "notFoo")
	require.Nil(t, err2)
	require.Equal(t, "bar", frag.Text)
}

func TestParseTokensMatchesTokenType(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "top",
		Rules: map[string]grammar.Rule{
			"top": {Body: grammar.Sequence{Parts: []grammar.Part{
				seqPart(grammar.Token{Name: "WORD"}),
				seqPart(grammar.Token{Name: "BANG"}),
			}}},
		},
	}

	p := pos.New("t", "hi!")
	toks := []token.Token{
		token.New("WORD", "hi", nil, p.Pos(0)),
		token.New("BANG", "!", nil, p.Pos(2)),
	}

	frag, err := ParseTokens(g, toks, "top")
	require.Nil(t, err)
	require.Len(t, frag.Children, 2)
}

func TestParseTokensLiteralIsCompileMismatch(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "top",
		Rules: map[string]grammar.Rule{
			"top": {Body: grammar.Literal{Text: "x"}},
		},
	}

	_, err := ParseTokens(g, nil, "top")
	require.NotNil(t, err)
	require.Equal(t, errs.NoLexerMode, err.Code)
}

func TestParseCharsInvalidRegexReturnsErrorNotPanic(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "top",
		Rules: map[string]grammar.Rule{
			"top": {Body: grammar.Regex{Pattern: "("}},
		},
	}

	_, err := ParseChars(g, pos.New("t", "x"), "top")
	require.NotNil(t, err)
	require.Equal(t, errs.Grammar, err.Kind)
	require.Equal(t, errs.MalformedDirective, err.Code)
}

func TestParseCharsEndOfInputRegex(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "top",
		Rules: map[string]grammar.Rule{
			"top": {Body: grammar.Regex{Pattern: `a+\Z`}},
		},
	}

	frag, err := ParseChars(g, pos.New("t", "aaa"), "top")
	require.Nil(t, err)
	require.Equal(t, "aaa", frag.Text)
}
