// Package transpile implements the template-driven AST-to-string
// engine (spec.md §4.5): a tag-keyed rule table, placeholder
// substitution over an ast.Node tree, conditional cases, mutable
// transpile-time state, and indent-depth bookkeeping. No teacher
// package does anything like this — ava12-llx's own tree package stops
// at building an AST — so this is built fresh in the teacher's idiom
// (plain value types, *errs.Error returns, no reflection-based
// templating library) rather than grounded on a specific teacher file.
package transpile

// Condition is one `cases[i].if` entry.
type Condition struct {
	Path    string
	Equals  *string
	Negate  bool
}

// Case is one entry of a rule's `cases` list. Default entries carry
// Then directly (from the `default` key's value) and skip evaluation.
type Case struct {
	If      *Condition
	Default bool
	Then    string
}

// Rule is one tag's transpile rule.
type Rule struct {
	Template string
	Use      string
	Value    string

	Cases []Case

	StateSet         map[string]any
	JoinChildrenWith string
	Indent           bool
}

// Grammar is a compiled transpiler grammar: the indent unit plus every
// tag's rule.
type Grammar struct {
	IndentUnit string
	Rules      map[string]Rule
}
