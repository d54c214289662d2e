package koine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// calcGrammarSource builds the map form of a two-level left-associative
// calculator: expr (+) over term (*) over num, char-walking mode (no
// lexer), mirroring the additive-over-multiplicative precedence scenario.
func calcGrammarSource() map[string]any {
	return map[string]any{
		"start_rule": "expr",
		"rules": map[string]any{
			"expr": map[string]any{
				"ast": map[string]any{"structure": "left_associative_op"},
				"sequence": []any{
					map[string]any{"rule": "term"},
					map[string]any{"zero_or_more": map[string]any{
						"sequence": []any{
							map[string]any{"rule": "plus"},
							map[string]any{"rule": "term"},
						},
					}},
				},
			},
			"plus": map[string]any{
				"ast":     map[string]any{"leaf": true},
				"literal": "+",
			},
			"term": map[string]any{
				"ast": map[string]any{"structure": "left_associative_op"},
				"sequence": []any{
					map[string]any{"rule": "num"},
					map[string]any{"zero_or_more": map[string]any{
						"sequence": []any{
							map[string]any{"rule": "times"},
							map[string]any{"rule": "num"},
						},
					}},
				},
			},
			"times": map[string]any{
				"ast":     map[string]any{"leaf": true},
				"literal": "*",
			},
			"num": map[string]any{
				"ast":   map[string]any{"leaf": true, "type": "number"},
				"regex": `\d+`,
			},
		},
	}
}

func calcTranspilerSource() map[string]any {
	return map[string]any{
		"rules": map[string]any{
			"num":   map[string]any{"use": "value"},
			"plus":  map[string]any{"value": "add"},
			"times": map[string]any{"value": "mul"},
			"binary_op": map[string]any{
				"template": "({op} {left} {right})",
			},
		},
	}
}

func TestCompileParseTranspileCalculatorPrecedence(t *testing.T) {
	g, cerr := CompileGrammar(calcGrammarSource(), "", Options{})
	require.Nil(t, cerr)

	result := Parse(g, "1+2*3", ParseOptions{})
	require.Equal(t, "success", result.Status)
	require.Equal(t, "binary_op", result.Ast.Tag)

	tg, terr := CompileTranspiler(calcTranspilerSource())
	require.Nil(t, terr)

	out, xerr := Transpile(tg, result.Ast)
	require.Nil(t, xerr)
	require.Equal(t, "(add 1 (mul 2 3))", out)
}

func TestParseReportsStatusErrorOnBadInput(t *testing.T) {
	g, cerr := CompileGrammar(calcGrammarSource(), "", Options{})
	require.Nil(t, cerr)

	result := Parse(g, "1+", ParseOptions{})
	require.Equal(t, "error", result.Status)
	require.NotEmpty(t, result.Message)
}

// TestParseLexerModeCarriesTokenValueCoercionIntoLeaf exercises a token
// def's own ast.type coercion (spec.md §4.2) flowing through to a leaf
// rule that wraps the token without restating the type itself.
func TestParseLexerModeCarriesTokenValueCoercionIntoLeaf(t *testing.T) {
	root := map[string]any{
		"start_rule": "num",
		"lexer": []any{
			map[string]any{"regex": `\d+`, "token": "NUM", "ast": map[string]any{"type": "number"}},
		},
		"rules": map[string]any{
			"num": map[string]any{
				"ast":   map[string]any{"leaf": true},
				"token": "NUM",
			},
		},
	}

	g, cerr := CompileGrammar(root, "", Options{})
	require.Nil(t, cerr)

	result := Parse(g, "42", ParseOptions{})
	require.Equal(t, "success", result.Status)
	require.Equal(t, int64(42), result.Ast.Value)
}

func TestCompileGrammarRejectsMissingStartRule(t *testing.T) {
	_, cerr := CompileGrammar(map[string]any{"rules": map[string]any{}}, "", Options{})
	require.NotNil(t, cerr)
}
