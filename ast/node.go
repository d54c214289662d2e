// Package ast implements the AST shaper (spec.md §4.4): it walks a
// recognize.Fragment tree and the grammar.RuleExpr tree that produced
// it in lock-step, consulting each node's ast directive to decide
// whether to discard it, turn it into a leaf, reshape it, promote it,
// or wrap it with the rule-name-tagged default shape. Plays the role
// github.com/ava12/llx/tree plays for the teacher's own AST, reworked
// from a single fixed tree builder into one that dispatches on the
// seven-rule priority spec.md §4.4 lays out.
package ast

import "github.com/ava12/koine/pos"

// Node is either a leaf (Children and Named both nil) or an interior
// node whose children are either an ordered list or a name-keyed map —
// never both, per spec.md §3's AstNode variant.
type Node struct {
	Tag  string
	Text string
	Line int
	Col  int

	// Value holds the coerced leaf value when an ast.type directive
	// applied; nil otherwise (including for a coerced "null" leaf,
	// which is itself the absent-value marker).
	Value any

	Children []Node
	Named    map[string]Node
}

// IsLeaf reports whether n carries no children at all.
func (n Node) IsLeaf() bool {
	return n.Children == nil && n.Named == nil
}

func posOf(p pos.Position) (int, int) { return p.Line(), p.Col() }
