package ast

import (
	"testing"

	"github.com/ava12/koine/grammar"
	"github.com/ava12/koine/pos"
	"github.com/ava12/koine/recognize"
	"github.com/stretchr/testify/require"
)

func part(e grammar.RuleExpr) grammar.Part { return grammar.Part{Expr: e} }

func namedPart(e grammar.RuleExpr, name string) grammar.Part {
	return grammar.Part{Expr: e, Ast: grammar.AstDirective{Name: name}}
}

func TestShapeDiscard(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "ws",
		Rules: map[string]grammar.Rule{
			"ws": {Body: grammar.Regex{Pattern: `\s+`}, Ast: grammar.AstDirective{Discard: true}},
		},
	}
	src := pos.New("t", " ")
	frag, perr := recognize.ParseChars(g, src, "ws")
	require.Nil(t, perr)

	_, err := Shape(g, "ws", frag)
	require.NotNil(t, err) // start rule discarding itself has nothing to return
}

func TestShapeLeafWithTypeCoercion(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "num",
		Rules: map[string]grammar.Rule{
			"num": {Body: grammar.Regex{Pattern: `\d+`}, Ast: grammar.AstDirective{Leaf: true, Type: grammar.Number}},
		},
	}
	src := pos.New("t", "42")
	frag, perr := recognize.ParseChars(g, src, "num")
	require.Nil(t, perr)

	node, err := Shape(g, "num", frag)
	require.Nil(t, err)
	require.Equal(t, "num", node.Tag)
	require.Equal(t, int64(42), node.Value)
	require.True(t, node.IsLeaf())
}

func TestShapeDefaultSequenceFlatChildren(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "greeting",
		Rules: map[string]grammar.Rule{
			"greeting": {Body: grammar.Sequence{Parts: []grammar.Part{
				part(grammar.Literal{Text: "hi"}),
				part(grammar.Ref{Name: "bang"}),
			}}},
			"bang": {Body: grammar.Literal{Text: "!"}, Ast: grammar.AstDirective{Leaf: true}},
		},
	}
	src := pos.New("t", "hi!")
	frag, perr := recognize.ParseChars(g, src, "greeting")
	require.Nil(t, perr)

	node, err := Shape(g, "greeting", frag)
	require.Nil(t, err)
	require.Equal(t, "greeting", node.Tag)
	require.Len(t, node.Children, 2)
	require.Equal(t, "bang", node.Children[1].Tag)
	require.Equal(t, "!", node.Children[1].Text)
}

func TestShapeDefaultSequenceNamedChildren(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "pair",
		Rules: map[string]grammar.Rule{
			"pair": {Body: grammar.Sequence{Parts: []grammar.Part{
				namedPart(grammar.Ref{Name: "key"}, "key"),
				{Expr: grammar.Literal{Text: "="}, Ast: grammar.AstDirective{Discard: true}},
				namedPart(grammar.Ref{Name: "val"}, "value"),
			}}},
			"key": {Body: grammar.Regex{Pattern: `[a-z]+`}, Ast: grammar.AstDirective{Leaf: true}},
			"val": {Body: grammar.Regex{Pattern: `\d+`}, Ast: grammar.AstDirective{Leaf: true, Type: grammar.Number}},
		},
	}
	src := pos.New("t", "x=1")
	frag, perr := recognize.ParseChars(g, src, "pair")
	require.Nil(t, perr)

	node, err := Shape(g, "pair", frag)
	require.Nil(t, err)
	require.Nil(t, node.Children)
	require.Len(t, node.Named, 2)
	require.Equal(t, "x", node.Named["key"].Text)
	require.Equal(t, int64(1), node.Named["value"].Value)
}

func TestShapeChoicePicksMatchedAlt(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "word",
		Rules: map[string]grammar.Rule{
			"word": {Body: grammar.Choice{Alts: []grammar.Part{
				part(grammar.Ref{Name: "cat"}),
				part(grammar.Ref{Name: "dog"}),
			}}},
			"cat": {Body: grammar.Literal{Text: "cat"}, Ast: grammar.AstDirective{Leaf: true}},
			"dog": {Body: grammar.Literal{Text: "dog"}, Ast: grammar.AstDirective{Leaf: true}},
		},
	}
	src := pos.New("t", "dog")
	frag, perr := recognize.ParseChars(g, src, "word")
	require.Nil(t, perr)

	node, err := Shape(g, "word", frag)
	require.Nil(t, err)
	require.Len(t, node.Children, 1)
	require.Equal(t, "dog", node.Children[0].Tag)
}

func TestShapePromoteSequenceFlattensAndRetags(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "wrapped",
		Rules: map[string]grammar.Rule{
			"wrapped": {Body: grammar.Sequence{Parts: []grammar.Part{
				part(grammar.Ref{Name: "open"}),
				part(grammar.Ref{Name: "inner"}),
				part(grammar.Ref{Name: "close"}),
			}}, Ast: grammar.AstDirective{Promote: true, Tag: "inner_wrapper"}},
			"open":  {Body: grammar.Literal{Text: "("}, Ast: grammar.AstDirective{Discard: true}},
			"close": {Body: grammar.Literal{Text: ")"}, Ast: grammar.AstDirective{Discard: true}},
			"inner": {Body: grammar.Regex{Pattern: `[a-z]+`}, Ast: grammar.AstDirective{Leaf: true}},
		},
	}
	src := pos.New("t", "(abc)")
	frag, perr := recognize.ParseChars(g, src, "wrapped")
	require.Nil(t, perr)

	node, err := Shape(g, "wrapped", frag)
	require.Nil(t, err)
	require.Equal(t, "inner_wrapper", node.Tag)
	require.Equal(t, "abc", node.Text)
}

// additive forms a₁ + a₂ + a₃ left-associatively.
func leftAssocGrammar() *grammar.CompiledGrammar {
	return &grammar.CompiledGrammar{
		Start: "sum",
		Rules: map[string]grammar.Rule{
			"sum": {
				Body: grammar.Sequence{Parts: []grammar.Part{
					part(grammar.Ref{Name: "num"}),
					part(grammar.ZeroOrMore{Expr: part(grammar.Sequence{Parts: []grammar.Part{
						part(grammar.Ref{Name: "op"}),
						part(grammar.Ref{Name: "num"}),
					}})}),
				}},
				Ast: grammar.AstDirective{Structure: grammar.LeftAssocOp},
			},
			"op":  {Body: grammar.Literal{Text: "+"}, Ast: grammar.AstDirective{Leaf: true}},
			"num": {Body: grammar.Regex{Pattern: `\d+`}, Ast: grammar.AstDirective{Leaf: true, Type: grammar.Number}},
		},
	}
}

func TestShapeLeftAssociativeOpFoldsLeft(t *testing.T) {
	g := leftAssocGrammar()
	src := pos.New("t", "1+2+3")
	frag, perr := recognize.ParseChars(g, src, "sum")
	require.Nil(t, perr)

	node, err := Shape(g, "sum", frag)
	require.Nil(t, err)
	require.Equal(t, "binary_op", node.Tag)
	require.Equal(t, "+", node.Named["op"].Text)
	require.Equal(t, int64(3), node.Named["right"].Value)

	left := node.Named["left"]
	require.Equal(t, "binary_op", left.Tag)
	require.Equal(t, int64(1), left.Named["left"].Value)
	require.Equal(t, int64(2), left.Named["right"].Value)
}

// power a₁ ^ (a₂ ^ a₃) right-associatively.
func rightAssocGrammar() *grammar.CompiledGrammar {
	return &grammar.CompiledGrammar{
		Start: "power",
		Rules: map[string]grammar.Rule{
			"power": {
				Body: grammar.Sequence{Parts: []grammar.Part{
					part(grammar.Ref{Name: "num"}),
					part(grammar.Optional{Expr: part(grammar.Sequence{Parts: []grammar.Part{
						part(grammar.Ref{Name: "op"}),
						part(grammar.Ref{Name: "power"}),
					}})}),
				}},
				Ast: grammar.AstDirective{Structure: grammar.RightAssocOp},
			},
			"op":  {Body: grammar.Literal{Text: "^"}, Ast: grammar.AstDirective{Leaf: true}},
			"num": {Body: grammar.Regex{Pattern: `\d+`}, Ast: grammar.AstDirective{Leaf: true, Type: grammar.Number}},
		},
	}
}

func TestShapeRightAssociativeOpFoldsRight(t *testing.T) {
	g := rightAssocGrammar()
	src := pos.New("t", "2^3^4")
	frag, perr := recognize.ParseChars(g, src, "power")
	require.Nil(t, perr)

	node, err := Shape(g, "power", frag)
	require.Nil(t, err)
	require.Equal(t, "binary_op", node.Tag)
	require.Equal(t, int64(2), node.Named["left"].Value)

	right := node.Named["right"]
	require.Equal(t, "binary_op", right.Tag)
	require.Equal(t, int64(3), right.Named["left"].Value)
	require.Equal(t, int64(4), right.Named["right"].Value)
}

func TestShapeRightAssociativeOpWithoutTailReturnsBase(t *testing.T) {
	g := rightAssocGrammar()
	src := pos.New("t", "2")
	frag, perr := recognize.ParseChars(g, src, "power")
	require.Nil(t, perr)

	node, err := Shape(g, "power", frag)
	require.Nil(t, err)
	require.Equal(t, int64(2), node.Value)
}

func TestShapeMapChildren(t *testing.T) {
	g := &grammar.CompiledGrammar{
		Start: "assignment",
		Rules: map[string]grammar.Rule{
			"assignment": {
				Body: grammar.Sequence{Parts: []grammar.Part{
					part(grammar.Ref{Name: "name"}),
					part(grammar.Literal{Text: "="}),
					part(grammar.Ref{Name: "val"}),
				}},
				Ast: grammar.AstDirective{
					Structure:    grammar.MapChildren,
					StructureTag: "assign",
					MapChildren:  map[string]int{"target": 0, "value": 2},
				},
			},
			"name": {Body: grammar.Regex{Pattern: `[a-z]+`}, Ast: grammar.AstDirective{Leaf: true}},
			"val":  {Body: grammar.Regex{Pattern: `\d+`}, Ast: grammar.AstDirective{Leaf: true, Type: grammar.Number}},
		},
	}
	src := pos.New("t", "x=9")
	frag, perr := recognize.ParseChars(g, src, "assignment")
	require.Nil(t, perr)

	node, err := Shape(g, "assignment", frag)
	require.Nil(t, err)
	require.Equal(t, "assign", node.Tag)
	require.Equal(t, "x", node.Named["target"].Text)
	require.Equal(t, int64(9), node.Named["value"].Value)
	_, hasOp := node.Named["op"]
	require.False(t, hasOp)
}
