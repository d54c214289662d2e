package transpile

import (
	"testing"

	"github.com/ava12/koine/ast"
	"github.com/stretchr/testify/require"
)

func num(v int64) ast.Node { return ast.Node{Tag: "num", Value: v} }

func binOp(op string, left, right ast.Node) ast.Node {
	return ast.Node{Tag: "binary_op", Named: map[string]ast.Node{
		"op": {Tag: "op", Text: op}, "left": left, "right": right,
	}}
}

func calcGrammar() *Grammar {
	g, err := Compile(map[string]any{
		"rules": map[string]any{
			"num": map[string]any{"use": "value"},
			"op": map[string]any{
				"cases": []any{
					map[string]any{"if": map[string]any{"path": "node.text", "equals": "+"}, "then": "add"},
					map[string]any{"if": map[string]any{"path": "node.text", "equals": "*"}, "then": "mul"},
					map[string]any{"if": map[string]any{"path": "node.text", "equals": "^"}, "then": "pow"},
				},
			},
			"binary_op": map[string]any{"template": "({op} {left} {right})"},
		},
	})
	if err != nil {
		panic(err)
	}
	return g
}

func TestTranspileCalculatorPrecedence(t *testing.T) {
	// 1 + 2 * 3
	tree := binOp("+", num(1), binOp("*", num(2), num(3)))
	out, err := Transpile(calcGrammar(), tree)
	require.Nil(t, err)
	require.Equal(t, "(add 1 (mul 2 3))", out)
}

func TestTranspileParenthesizedRightAssocPower(t *testing.T) {
	// ((2 + 3) * 4) ^ 5
	inner := binOp("*", binOp("+", num(2), num(3)), num(4))
	tree := binOp("^", inner, num(5))
	out, err := Transpile(calcGrammar(), tree)
	require.Nil(t, err)
	require.Equal(t, "(pow (mul (add 2 3) 4) 5)", out)
}

func TestTranspileFallbackValueAndText(t *testing.T) {
	g, err := Compile(map[string]any{})
	require.Nil(t, err)

	out, terr := Transpile(g, ast.Node{Tag: "X", Value: int64(7)})
	require.Nil(t, terr)
	require.Equal(t, "7", out)

	out2, terr2 := Transpile(g, ast.Node{Tag: "X", Text: "hi"})
	require.Nil(t, terr2)
	require.Equal(t, "hi", out2)
}

func TestTranspileFallbackMissingRuleErrors(t *testing.T) {
	g, err := Compile(map[string]any{})
	require.Nil(t, err)

	_, terr := Transpile(g, ast.Node{Tag: "X"})
	require.NotNil(t, terr)
}

func assignNode(target string, value int64) ast.Node {
	return ast.Node{Tag: "assignment", Named: map[string]ast.Node{
		"target": {Tag: "target", Text: target},
		"value":  {Tag: "value", Value: value},
	}}
}

func letOnceGrammar() *Grammar {
	g, err := Compile(map[string]any{
		"rules": map[string]any{
			"target": map[string]any{"use": "text"},
			"value":  map[string]any{"use": "value"},
			"assignment": map[string]any{
				"cases": []any{
					map[string]any{
						"if":   map[string]any{"path": "state.vars.{target}", "negate": true},
						"then": "let {target} = {value};",
					},
					map[string]any{"default": "{target} = {value};"},
				},
				"state_set": map[string]any{"vars.{target}": true},
			},
			"statements": map[string]any{"template": "{children}", "join_children_with": "\n"},
		},
	})
	if err != nil {
		panic(err)
	}
	return g
}

func TestTranspileStatefulLetOnce(t *testing.T) {
	g := letOnceGrammar()
	tree := ast.Node{Tag: "statements", Children: []ast.Node{
		assignNode("a", 1),
		assignNode("a", 2),
	}}
	out, err := Transpile(g, tree)
	require.Nil(t, err)
	require.Equal(t, "let a = 1;\na = 2;", out)
}

func indentedGrammar() *Grammar {
	g, err := Compile(map[string]any{
		"rules": map[string]any{
			"statements": map[string]any{"template": "{children}", "join_children_with": "\n", "indent": true},
			"stmt":       map[string]any{"use": "text"},
			"forstmt":    map[string]any{"template": "for i in range(y):\n{body}"},
		},
	})
	if err != nil {
		panic(err)
	}
	return g
}

// TestTranspileIndentedOutputDoesNotDoubleIndentNestedBlock reproduces
// the nested-for-loop shape from the JS-to-Python indentation scenario:
// a statements block inside a for-loop inside a statements block, where
// the inner block's own indent step must not be re-applied by the
// outer one.
func TestTranspileIndentedOutputDoesNotDoubleIndentNestedBlock(t *testing.T) {
	g := indentedGrammar()
	forNode := ast.Node{Tag: "forstmt", Named: map[string]ast.Node{
		"body": {Tag: "statements", Children: []ast.Node{
			{Tag: "stmt", Text: "a = a + x"},
		}},
	}}
	outer := ast.Node{Tag: "statements", Children: []ast.Node{
		{Tag: "stmt", Text: "a = 0"},
		forNode,
		{Tag: "stmt", Text: "return a"},
	}}

	out, err := Transpile(g, outer)
	require.Nil(t, err)
	require.Equal(t, "    a = 0\n    for i in range(y):\n        a = a + x\n    return a", out)
}
