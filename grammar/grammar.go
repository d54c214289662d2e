// Package grammar defines the compiled, executable form of a koine
// grammar: the RuleExpr tree, AST-shaping directives, and the lexer
// spec. Where the teacher's github.com/ava12/llx/grammar package
// compiles a grammar down to a finite-state table (Grammar/Nonterm/
// State/Rule), koine compiles it down to a PEG combinator tree instead
// — a closed sum type with exhaustive dispatch, per the design notes
// on replacing stringly-typed dispatch with a RuleExpr variant.
package grammar

// AstType is the lexical value-coercion applied to a leaf's matched text.
type AstType string

const (
	NoType AstType = ""
	Number AstType = "number"
	Bool   AstType = "bool"
	Null   AstType = "null"
)

// StructureKind selects one of the canonical node reshapings.
type StructureKind string

const (
	NoStructure  StructureKind = ""
	LeftAssocOp  StructureKind = "left_associative_op"
	RightAssocOp StructureKind = "right_associative_op"
	MapChildren  StructureKind = "map_children"
)

// AstDirective carries the optional ast.* directive attached to a rule
// or to a single part of a rule body.
type AstDirective struct {
	Tag     string
	Discard bool
	Promote bool
	Leaf    bool
	Type    AstType
	Name    string

	Structure StructureKind

	// StructureTag is the tag produced by a {tag, map_children} structure.
	StructureTag string

	// MapChildren maps an output key to the index of the part it comes
	// from within the producing sequence.
	MapChildren map[string]int
}

// IsZero reports whether the directive carries no instruction at all,
// i.e. the default shaping rule (§4.4 rule 7) applies.
func (d AstDirective) IsZero() bool {
	return !d.Discard && !d.Promote && !d.Leaf &&
		d.Type == NoType && d.Name == "" && d.Structure == NoStructure && d.Tag == ""
}

// RuleExpr is the executable form of a grammar rule body. It is a
// closed sum type: every concrete type below implements ruleExpr and
// nothing outside this package may add a new variant, so a switch over
// RuleExpr can be exhaustive.
type RuleExpr interface {
	ruleExpr()
}

// Part wraps a RuleExpr with the per-occurrence ast directive that may
// override the rule-level one at this position inside a Sequence.
type Part struct {
	Expr RuleExpr
	Ast  AstDirective
}

type Literal struct{ Text string }

type Regex struct{ Pattern string }

// Token matches a token type by name; valid only in lexer mode.
type Token struct{ Name string }

// Ref refers to another rule by its fully qualified name (namespaced
// by the composer when the reference crosses a subgrammar boundary).
type Ref struct{ Name string }

type Sequence struct{ Parts []Part }

type Choice struct{ Alts []Part }

type ZeroOrMore struct{ Expr Part }

type OneOrMore struct{ Expr Part }

type Optional struct{ Expr Part }

type PosLookahead struct{ Expr Part }

type NegLookahead struct{ Expr Part }

func (Literal) ruleExpr()      {}
func (Regex) ruleExpr()        {}
func (Token) ruleExpr()        {}
func (Ref) ruleExpr()          {}
func (Sequence) ruleExpr()     {}
func (Choice) ruleExpr()       {}
func (ZeroOrMore) ruleExpr()   {}
func (OneOrMore) ruleExpr()    {}
func (Optional) ruleExpr()     {}
func (PosLookahead) ruleExpr() {}
func (NegLookahead) ruleExpr() {}

// Rule is one named entry in a CompiledGrammar's rule table.
type Rule struct {
	Body RuleExpr
	Ast  AstDirective
}

// TokenAction selects what the lexer does with a matched token
// definition that carries no token name.
type TokenAction string

const (
	NoAction     TokenAction = ""
	Skip         TokenAction = "skip"
	HandleIndent TokenAction = "handle_indent"
)

// TokenDef is one entry of a LexerSpec, tried in list order.
type TokenDef struct {
	Regex  string
	Token  string // token type name; empty when Action is set instead
	Action TokenAction
	Ast    AstDirective // type coercion applied when this token is consumed as a leaf
}

// LexerSpec drives lex.Run. Present only when the grammar carries a
// lexer block; its absence means the recognizer walks characters
// directly instead of a token stream.
type LexerSpec struct {
	Tokens []TokenDef
}

// HasIndent reports whether this spec carries a handle_indent entry.
func (l *LexerSpec) HasIndent() bool {
	if l == nil {
		return false
	}
	for _, t := range l.Tokens {
		if t.Action == HandleIndent {
			return true
		}
	}
	return false
}

// CompiledGrammar is the immutable, validated, linked, namespaced
// result of grammar composition. Every Ref in Rules resolves to a key
// in Rules, and every rule is reachable from Start — both invariants
// are enforced by the compose package before a CompiledGrammar escapes
// it.
type CompiledGrammar struct {
	Start      string
	Rules      map[string]Rule
	Lexer      *LexerSpec
	OriginFile string
}

// Lookup fetches a rule by qualified name, reporting whether it exists.
func (g *CompiledGrammar) Lookup(name string) (Rule, bool) {
	r, ok := g.Rules[name]
	return r, ok
}
