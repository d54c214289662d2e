package ast

import (
	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
	"github.com/ava12/koine/recognize"
)

// Shape turns frag, the raw recognition of startRule, into a semantic
// AST node (spec.md §4.4). startRule is passed explicitly rather than
// read off frag so that an aliasing rule body (bare `rule: other`)
// doesn't need its fragment to carry which rule produced it — the
// RuleExpr tree already knows.
func Shape(g *grammar.CompiledGrammar, startRule string, frag recognize.Fragment) (Node, *errs.Error) {
	rule, ok := g.Lookup(startRule)
	if !ok {
		return Node{}, shapeErr("unknown start rule %q", startRule)
	}

	nodes, err := shapeBody(g, rule.Body, rule.Ast, frag, startRule)
	if err != nil {
		return Node{}, err
	}
	if len(nodes) != 1 {
		return Node{}, shapeErr("start rule %q shaped to %d nodes, expected exactly one", startRule, len(nodes))
	}
	return nodes[0], nil
}

func shapeErr(msg string, params ...any) *errs.Error {
	return errs.Newf(errs.Parse, errs.BadShape, msg, params...)
}

// shapeBody applies the priority order of spec.md §4.4 to one
// RuleExpr/Fragment pair: discard, leaf, structure, promote, default.
func shapeBody(g *grammar.CompiledGrammar, body grammar.RuleExpr, ad grammar.AstDirective, frag recognize.Fragment, ruleName string) ([]Node, *errs.Error) {
	if ad.Discard {
		return nil, nil
	}

	if ad.Leaf {
		node := Node{Tag: tagFor(ad, ruleName), Text: frag.Text}
		node.Line, node.Col = posOf(frag.Start)
		v, err := leafValue(ad, frag)
		if err != nil {
			return nil, err
		}
		node.Value = v
		return []Node{node}, nil
	}

	switch ad.Structure {
	case grammar.LeftAssocOp:
		return shapeLeftAssoc(g, body, frag)
	case grammar.RightAssocOp:
		return shapeRightAssoc(g, body, frag)
	case grammar.MapChildren:
		return shapeMapChildren(g, body, frag, ad, ruleName)
	}

	if ad.Promote {
		return shapePromote(g, body, frag, ad, ruleName)
	}

	return shapeDefault(g, body, frag, ad, ruleName)
}

// shapePart shapes one Part's fragment. When the part wraps a Ref, the
// part's own ast directive replaces the referenced rule's whenever it
// carries any instruction other than ast.name; a part directive that
// only names the part leaves the referenced rule's directive in force.
func shapePart(g *grammar.CompiledGrammar, part grammar.Part, frag recognize.Fragment) ([]Node, *errs.Error) {
	if ref, ok := part.Expr.(grammar.Ref); ok {
		rule, ok := g.Lookup(ref.Name)
		if !ok {
			return nil, shapeErr("unknown rule %q", ref.Name)
		}
		ad := rule.Ast
		unnamed := part.Ast
		unnamed.Name = ""
		if !unnamed.IsZero() {
			ad = part.Ast
		}
		return shapeBody(g, rule.Body, ad, frag, ref.Name)
	}
	return shapeBody(g, part.Expr, part.Ast, frag, "")
}

func tagFor(ad grammar.AstDirective, ruleName string) string {
	if ad.Tag != "" {
		return ad.Tag
	}
	return ruleName
}

// shapeDefault implements spec.md §4.4 rule 7, dispatching on the
// producing RuleExpr's shape to find the right children/Fragment
// pairing; terminal expressions (Literal, Regex, Token, lookaheads)
// simply wrap with no children.
func shapeDefault(g *grammar.CompiledGrammar, body grammar.RuleExpr, frag recognize.Fragment, ad grammar.AstDirective, ruleName string) ([]Node, *errs.Error) {
	switch b := body.(type) {
	case grammar.Ref:
		refRule, ok := g.Lookup(b.Name)
		if !ok {
			return nil, shapeErr("unknown rule %q", b.Name)
		}
		merged := ad
		if merged.IsZero() {
			merged = refRule.Ast
		}
		return shapeBody(g, refRule.Body, merged, frag, ruleName)

	case grammar.Sequence:
		return shapeParts(g, b.Parts, frag.Children, frag, ad, ruleName)

	case grammar.Choice:
		if frag.AltIndex < 0 || frag.AltIndex >= len(b.Alts) {
			return nil, shapeErr("choice alt index %d out of range for rule %q", frag.AltIndex, ruleName)
		}
		return shapeParts(g, []grammar.Part{b.Alts[frag.AltIndex]}, []recognize.Fragment{frag}, frag, ad, ruleName)

	case grammar.ZeroOrMore:
		return shapeQuantifier(g, b.Expr, frag, ad, ruleName)
	case grammar.OneOrMore:
		return shapeQuantifier(g, b.Expr, frag, ad, ruleName)
	case grammar.Optional:
		return shapeQuantifier(g, b.Expr, frag, ad, ruleName)

	default:
		node := Node{Tag: tagFor(ad, ruleName), Text: frag.Text}
		node.Line, node.Col = posOf(frag.Start)
		v, err := leafValue(ad, frag)
		if err != nil {
			return nil, err
		}
		node.Value = v
		return []Node{node}, nil
	}
}

// leafValue resolves a leaf node's value: the rule's own ast.type, when
// present, coerces frag.Text and takes priority; otherwise a token def's
// coercion already computed by the lexer and carried on frag.Value (see
// Fragment's doc comment) is used as-is.
func leafValue(ad grammar.AstDirective, frag recognize.Fragment) (any, *errs.Error) {
	if ad.Type != grammar.NoType {
		return CoerceValue(frag.Text, ad.Type)
	}
	return frag.Value, nil
}

// shapeParts implements the keyed-vs-list children decision: if any
// part carries ast.name, every surviving part must carry one and
// children becomes a name-keyed map; otherwise children is the
// flattened list of every surviving part's shaped result(s).
func shapeParts(g *grammar.CompiledGrammar, parts []grammar.Part, childFrags []recognize.Fragment, frag recognize.Fragment, ad grammar.AstDirective, ruleName string) ([]Node, *errs.Error) {
	if len(parts) != len(childFrags) {
		return nil, shapeErr("rule %q: %d parts but %d matched fragments", ruleName, len(parts), len(childFrags))
	}

	anyNamed := false
	for _, p := range parts {
		if p.Ast.Name != "" {
			anyNamed = true
			break
		}
	}

	node := Node{Tag: tagFor(ad, ruleName), Text: frag.Text}
	node.Line, node.Col = posOf(frag.Start)

	if anyNamed {
		named := make(map[string]Node)
		for i, p := range parts {
			nodes, err := shapePart(g, p, childFrags[i])
			if err != nil {
				return nil, err
			}
			if len(nodes) == 0 {
				continue
			}
			if p.Ast.Name == "" {
				return nil, shapeErr("rule %q: part %d survived shaping without an ast.name in named-children mode", ruleName, i)
			}
			if len(nodes) != 1 {
				return nil, shapeErr("rule %q: named part %q shaped to %d nodes, expected one", ruleName, p.Ast.Name, len(nodes))
			}
			named[p.Ast.Name] = nodes[0]
		}
		node.Named = named
		return []Node{node}, nil
	}

	var children []Node
	for i, p := range parts {
		nodes, err := shapePart(g, p, childFrags[i])
		if err != nil {
			return nil, err
		}
		children = append(children, nodes...)
	}
	node.Children = children
	return []Node{node}, nil
}

func shapeQuantifier(g *grammar.CompiledGrammar, part grammar.Part, frag recognize.Fragment, ad grammar.AstDirective, ruleName string) ([]Node, *errs.Error) {
	if part.Ast.Name != "" {
		return nil, shapeErr("rule %q: repeated parts cannot carry ast.name", ruleName)
	}

	node := Node{Tag: tagFor(ad, ruleName), Text: frag.Text}
	node.Line, node.Col = posOf(frag.Start)

	var children []Node
	for _, cf := range frag.Children {
		nodes, err := shapePart(g, part, cf)
		if err != nil {
			return nil, err
		}
		children = append(children, nodes...)
	}
	node.Children = children
	return []Node{node}, nil
}

// shapeLeftAssoc implements spec.md §4.4 rule 3: body is
// Sequence(base, ZeroOrMore(Sequence(..., op, ..., base))). Folds the
// repeated tail left to right into a chain of binary_op nodes, each
// carrying its operator and operand children keyed under op/left/right
// rather than as a plain list, per the spec's named-field shape.
func shapeLeftAssoc(g *grammar.CompiledGrammar, body grammar.RuleExpr, frag recognize.Fragment) ([]Node, *errs.Error) {
	seq, ok := body.(grammar.Sequence)
	if !ok || len(seq.Parts) != 2 || len(frag.Children) != 2 {
		return nil, shapeErr("left_associative_op body must be a 2-part sequence")
	}
	zom, ok := seq.Parts[1].Expr.(grammar.ZeroOrMore)
	if !ok {
		return nil, shapeErr("left_associative_op's second part must be zero_or_more")
	}
	innerSeq, ok := zom.Expr.Expr.(grammar.Sequence)
	if !ok || len(innerSeq.Parts) < 2 {
		return nil, shapeErr("left_associative_op's repeated part must be a sequence of at least two parts")
	}

	baseNodes, err := shapePart(g, seq.Parts[0], frag.Children[0])
	if err != nil {
		return nil, err
	}
	if len(baseNodes) != 1 {
		return nil, shapeErr("left_associative_op's base shaped to %d nodes, expected one", len(baseNodes))
	}
	acc := baseNodes[0]
	line, col := posOf(frag.Start)

	for _, tailFrag := range frag.Children[1].Children {
		if len(tailFrag.Children) != len(innerSeq.Parts) {
			return nil, shapeErr("left_associative_op tail has %d fragments, rule expects %d", len(tailFrag.Children), len(innerSeq.Parts))
		}
		var opNode *Node
		var baseNode *Node
		last := len(innerSeq.Parts) - 1
		for i, p := range innerSeq.Parts {
			nodes, err := shapePart(g, p, tailFrag.Children[i])
			if err != nil {
				return nil, err
			}
			if len(nodes) == 0 {
				continue
			}
			if len(nodes) != 1 {
				return nil, shapeErr("left_associative_op tail part %d shaped to %d nodes, expected one", i, len(nodes))
			}
			if i == last {
				n := nodes[0]
				baseNode = &n
			} else if opNode == nil {
				n := nodes[0]
				opNode = &n
			}
		}
		if opNode == nil || baseNode == nil {
			return nil, shapeErr("left_associative_op tail is missing its operator or operand")
		}
		acc = Node{
			Tag:   "binary_op",
			Line:  line,
			Col:   col,
			Named: map[string]Node{"op": *opNode, "left": acc, "right": *baseNode},
		}
	}

	return []Node{acc}, nil
}

// shapeRightAssoc implements spec.md §4.4 rule 4: body is
// Sequence(base, Optional(Sequence(..., op, ..., self))). The
// self-reference is shaped by recursing through shapePart into the
// same rule, which re-enters this function for the nested tail —
// no explicit recursion is needed here.
func shapeRightAssoc(g *grammar.CompiledGrammar, body grammar.RuleExpr, frag recognize.Fragment) ([]Node, *errs.Error) {
	seq, ok := body.(grammar.Sequence)
	if !ok || len(seq.Parts) != 2 || len(frag.Children) != 2 {
		return nil, shapeErr("right_associative_op body must be a 2-part sequence")
	}
	baseNodes, err := shapePart(g, seq.Parts[0], frag.Children[0])
	if err != nil {
		return nil, err
	}
	if len(baseNodes) != 1 {
		return nil, shapeErr("right_associative_op's base shaped to %d nodes, expected one", len(baseNodes))
	}

	opt, ok := seq.Parts[1].Expr.(grammar.Optional)
	if !ok {
		return nil, shapeErr("right_associative_op's second part must be optional")
	}
	optFrag := frag.Children[1]
	if len(optFrag.Children) == 0 {
		return baseNodes, nil
	}

	innerSeq, ok := opt.Expr.Expr.(grammar.Sequence)
	if !ok || len(innerSeq.Parts) < 2 {
		return nil, shapeErr("right_associative_op's repeated part must be a sequence of at least two parts")
	}
	innerFrag := optFrag.Children[0]
	if len(innerFrag.Children) != len(innerSeq.Parts) {
		return nil, shapeErr("right_associative_op tail has %d fragments, rule expects %d", len(innerFrag.Children), len(innerSeq.Parts))
	}

	var opNode *Node
	var rightNodes []Node
	last := len(innerSeq.Parts) - 1
	for i, p := range innerSeq.Parts {
		nodes, err := shapePart(g, p, innerFrag.Children[i])
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			continue
		}
		if i == last {
			rightNodes = nodes
		} else if opNode == nil {
			n := nodes[0]
			opNode = &n
		}
	}
	if opNode == nil || len(rightNodes) != 1 {
		return nil, shapeErr("right_associative_op tail is missing its operator or operand")
	}

	node := Node{Tag: "binary_op", Named: map[string]Node{"op": *opNode, "left": baseNodes[0], "right": rightNodes[0]}}
	node.Line, node.Col = posOf(frag.Start)
	return []Node{node}, nil
}

// shapeMapChildren implements spec.md §4.4 rule 5: pick one shaped
// child per map_children entry, ignoring discarded or out-of-range
// slots (compose-time validation should already guarantee the
// indices are in range, but a fragment built by a future composer
// version should not panic here).
func shapeMapChildren(g *grammar.CompiledGrammar, body grammar.RuleExpr, frag recognize.Fragment, ad grammar.AstDirective, ruleName string) ([]Node, *errs.Error) {
	seq, ok := body.(grammar.Sequence)
	if !ok {
		return nil, shapeErr("map_children requires a sequence body")
	}

	tag := ad.StructureTag
	if tag == "" {
		tag = tagFor(ad, ruleName)
	}
	node := Node{Tag: tag}
	node.Line, node.Col = posOf(frag.Start)

	named := make(map[string]Node)
	for key, idx := range ad.MapChildren {
		if idx < 0 || idx >= len(seq.Parts) || idx >= len(frag.Children) {
			continue
		}
		nodes, err := shapePart(g, seq.Parts[idx], frag.Children[idx])
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			continue
		}
		if len(nodes) != 1 {
			return nil, shapeErr("map_children key %q shaped to %d nodes, expected one", key, len(nodes))
		}
		named[key] = nodes[0]
	}
	node.Named = named
	return []Node{node}, nil
}

// shapePromote implements spec.md §4.4 rule 6: splice this node's
// shaped children into its own slot instead of wrapping them, then
// reapply the current rule's remaining tag/type directives to the
// spliced result.
func shapePromote(g *grammar.CompiledGrammar, body grammar.RuleExpr, frag recognize.Fragment, ad grammar.AstDirective, ruleName string) ([]Node, *errs.Error) {
	switch b := body.(type) {
	case grammar.Sequence:
		var result []Node
		for i, p := range b.Parts {
			if i >= len(frag.Children) {
				return nil, shapeErr("rule %q: promote sequence has fewer fragments than parts", ruleName)
			}
			nodes, err := shapePart(g, p, frag.Children[i])
			if err != nil {
				return nil, err
			}
			result = append(result, nodes...)
		}
		return applyOverrideList(result, ad)

	case grammar.ZeroOrMore:
		return shapePromoteQuantifier(g, b.Expr, frag, ad)
	case grammar.OneOrMore:
		return shapePromoteQuantifier(g, b.Expr, frag, ad)
	case grammar.Optional:
		return shapePromoteQuantifier(g, b.Expr, frag, ad)

	case grammar.Choice:
		if frag.AltIndex < 0 || frag.AltIndex >= len(b.Alts) {
			return nil, shapeErr("rule %q: promote choice alt index %d out of range", ruleName, frag.AltIndex)
		}
		nodes, err := shapePart(g, b.Alts[frag.AltIndex], frag)
		if err != nil {
			return nil, err
		}
		if len(nodes) != 1 {
			return nil, shapeErr("rule %q: promote choice shaped to %d nodes, expected one", ruleName, len(nodes))
		}
		node, err := applyOverride(nodes[0], ad)
		if err != nil {
			return nil, err
		}
		return []Node{node}, nil

	case grammar.Ref:
		refRule, ok := g.Lookup(b.Name)
		if !ok {
			return nil, shapeErr("unknown rule %q", b.Name)
		}
		nodes, err := shapeBody(g, refRule.Body, refRule.Ast, frag, ruleName)
		if err != nil {
			return nil, err
		}
		return applyOverrideList(nodes, ad)

	default:
		return shapeDefault(g, body, frag, ad, ruleName)
	}
}

func shapePromoteQuantifier(g *grammar.CompiledGrammar, part grammar.Part, frag recognize.Fragment, ad grammar.AstDirective) ([]Node, *errs.Error) {
	var result []Node
	for _, cf := range frag.Children {
		nodes, err := shapePart(g, part, cf)
		if err != nil {
			return nil, err
		}
		result = append(result, nodes...)
	}
	return applyOverrideList(result, ad)
}

func applyOverrideList(nodes []Node, ad grammar.AstDirective) ([]Node, *errs.Error) {
	if ad.Tag == "" && ad.Type == grammar.NoType {
		return nodes, nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		overridden, err := applyOverride(n, ad)
		if err != nil {
			return nil, err
		}
		out[i] = overridden
	}
	return out, nil
}

func applyOverride(node Node, ad grammar.AstDirective) (Node, *errs.Error) {
	if ad.Tag != "" {
		node.Tag = ad.Tag
	}
	if ad.Type != grammar.NoType {
		v, err := CoerceValue(node.Text, ad.Type)
		if err != nil {
			return Node{}, err
		}
		node.Value = v
	}
	return node, nil
}
