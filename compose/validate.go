package compose

import (
	"sort"
	"strings"

	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
	"github.com/ava12/koine/internal/intset"
	"github.com/ava12/koine/internal/queue"
)

// validate runs the three checks the composer owes a CompiledGrammar
// before handing it to a caller: every rule reachable from Start
// (spec §4.1 step 3), every ast.structure directive shaped the way its
// kind requires (spec §4.4, left/right associative op and
// map_children), and every rule and lexer regex compilable.
func validate(g *grammar.CompiledGrammar) *errs.Error {
	if err := validateReachability(g); err != nil {
		return err
	}
	if err := validateStructures(g); err != nil {
		return err
	}
	return validateRegexes(g)
}

// validateRegexes compiles every regex() pattern and every lexer token
// regex with grammar.CompileRegex, so a malformed pattern (or one RE2
// simply cannot express) surfaces as a MalformedDirective at compose
// time instead of panicking — or failing lazily in a wholly unrelated
// Parse call — the first time recognize/lex would otherwise compile it.
func validateRegexes(g *grammar.CompiledGrammar) *errs.Error {
	for name, rule := range g.Rules {
		if err := walkRegexes(name, rule.Body); err != nil {
			return err
		}
	}

	if g.Lexer == nil {
		return nil
	}
	for _, def := range g.Lexer.Tokens {
		if def.Regex == "" {
			continue
		}
		if _, err := grammar.CompileRegex(def.Regex); err != nil {
			return grammarErr(errs.MalformedDirective, "invalid lexer token regex %q: %v", def.Regex, err)
		}
	}
	return nil
}

func walkRegexes(ruleName string, expr grammar.RuleExpr) *errs.Error {
	walkPart := func(p grammar.Part) *errs.Error { return walkRegexes(ruleName, p.Expr) }

	switch v := expr.(type) {
	case grammar.Regex:
		if _, err := grammar.CompileRegex(v.Pattern); err != nil {
			return grammarErr(errs.MalformedDirective, "rule %q: invalid regex %q: %v", ruleName, v.Pattern, err)
		}
	case grammar.Sequence:
		for _, p := range v.Parts {
			if err := walkPart(p); err != nil {
				return err
			}
		}
	case grammar.Choice:
		for _, p := range v.Alts {
			if err := walkPart(p); err != nil {
				return err
			}
		}
	case grammar.ZeroOrMore:
		return walkPart(v.Expr)
	case grammar.OneOrMore:
		return walkPart(v.Expr)
	case grammar.Optional:
		return walkPart(v.Expr)
	case grammar.PosLookahead:
		return walkPart(v.Expr)
	case grammar.NegLookahead:
		return walkPart(v.Expr)
	}
	return nil
}

// validateReachability does a BFS over Ref edges starting at Start,
// using internal/queue for the frontier and internal/intset to track
// visited rule indices — the same ring-buffer-plus-bitset shape the
// teacher uses for its own reachable-state sweep.
func validateReachability(g *grammar.CompiledGrammar) *errs.Error {
	index := make(map[string]int, len(g.Rules))
	names := make([]string, 0, len(g.Rules))
	for name := range g.Rules {
		index[name] = len(names)
		names = append(names, name)
	}

	if _, ok := g.Rules[g.Start]; !ok {
		return grammarErr(errs.UnknownRule, "start rule %q not found", g.Start)
	}

	all := intset.New()
	for i := range names {
		all.Add(i)
	}

	visited := intset.New(index[g.Start])
	q := queue.New(index[g.Start])
	for {
		item, ok := q.First()
		if !ok {
			break
		}
		name := names[item]
		rule, ok := g.Lookup(name)
		if !ok {
			continue
		}
		for _, ref := range collectRefs(rule.Body) {
			ri, ok := index[ref]
			if !ok {
				return grammarErr(errs.UnknownRule, "rule %q refers to unknown rule %q", name, ref)
			}
			if !visited.Contains(ri) {
				visited.Add(ri)
				q.Append(ri)
			}
		}
	}

	unreached := intset.Subtract(all, visited)
	missing := unreached.ToSlice()
	if len(missing) == 0 {
		return nil
	}

	unreachableNames := make([]string, len(missing))
	for i, idx := range missing {
		unreachableNames[i] = names[idx]
	}
	sort.Strings(unreachableNames)
	return grammarErr(errs.Unreachable, "unreachable rule(s): %s", strings.Join(unreachableNames, ", "))
}

// collectRefs gathers every Ref name directly reachable one level into
// expr, descending through the composite combinators but not through
// another Ref (that's the next BFS hop, not this one).
func collectRefs(expr grammar.RuleExpr) []string {
	var refs []string
	var walk func(e grammar.RuleExpr)
	walkPart := func(p grammar.Part) { walk(p.Expr) }

	walk = func(e grammar.RuleExpr) {
		switch v := e.(type) {
		case grammar.Ref:
			refs = append(refs, v.Name)
		case grammar.Sequence:
			for _, p := range v.Parts {
				walkPart(p)
			}
		case grammar.Choice:
			for _, p := range v.Alts {
				walkPart(p)
			}
		case grammar.ZeroOrMore:
			walkPart(v.Expr)
		case grammar.OneOrMore:
			walkPart(v.Expr)
		case grammar.Optional:
			walkPart(v.Expr)
		case grammar.PosLookahead:
			walkPart(v.Expr)
		case grammar.NegLookahead:
			walkPart(v.Expr)
		}
	}

	walk(expr)
	return refs
}

// validateStructures walks every rule body looking for ast.structure
// directives (attached either to the rule itself or to any part nested
// within it) and checks each against the shape its kind requires.
func validateStructures(g *grammar.CompiledGrammar) *errs.Error {
	for name, rule := range g.Rules {
		if err := checkStructure(name, rule.Body, rule.Ast); err != nil {
			return err
		}
		if err := walkStructures(name, rule.Body); err != nil {
			return err
		}
	}
	return nil
}

func walkStructures(ruleName string, expr grammar.RuleExpr) *errs.Error {
	check := func(p grammar.Part) *errs.Error {
		if err := checkStructure(ruleName, p.Expr, p.Ast); err != nil {
			return err
		}
		return walkStructures(ruleName, p.Expr)
	}

	switch v := expr.(type) {
	case grammar.Sequence:
		for _, p := range v.Parts {
			if err := check(p); err != nil {
				return err
			}
		}
	case grammar.Choice:
		for _, p := range v.Alts {
			if err := check(p); err != nil {
				return err
			}
		}
	case grammar.ZeroOrMore:
		return check(v.Expr)
	case grammar.OneOrMore:
		return check(v.Expr)
	case grammar.Optional:
		return check(v.Expr)
	case grammar.PosLookahead:
		return check(v.Expr)
	case grammar.NegLookahead:
		return check(v.Expr)
	}
	return nil
}

// checkStructure validates expr against the shape ast.Structure
// requires, when ast carries a structure directive at all.
func checkStructure(ruleName string, expr grammar.RuleExpr, ast grammar.AstDirective) *errs.Error {
	switch ast.Structure {
	case grammar.NoStructure:
		return nil
	case grammar.LeftAssocOp:
		return checkLeftAssoc(ruleName, expr)
	case grammar.RightAssocOp:
		return checkRightAssoc(ruleName, expr)
	case grammar.MapChildren:
		return checkMapChildren(ruleName, expr, ast)
	default:
		return nil
	}
}

// checkLeftAssoc requires a Sequence of exactly two parts whose second
// part is a ZeroOrMore wrapping a Sequence of at least two parts — an
// operand followed by zero or more (operator, operand) pairs.
func checkLeftAssoc(ruleName string, expr grammar.RuleExpr) *errs.Error {
	seq, ok := expr.(grammar.Sequence)
	if !ok || len(seq.Parts) != 2 {
		return grammarErr(errs.BadStructure, "left_associative_op in rule %q requires a 2-part sequence", ruleName)
	}
	rep, ok := seq.Parts[1].Expr.(grammar.ZeroOrMore)
	if !ok {
		return grammarErr(errs.BadStructure, "left_associative_op in rule %q requires its second part to repeat", ruleName)
	}
	inner, ok := rep.Expr.Expr.(grammar.Sequence)
	if !ok || len(inner.Parts) < 2 {
		return grammarErr(errs.BadStructure, "left_associative_op in rule %q requires (operator, operand) pairs", ruleName)
	}
	return nil
}

// checkRightAssoc requires a Sequence of exactly two parts whose second
// part is an Optional wrapping a Sequence whose last part refers back
// to ruleName — an operand followed by an optional (operator, ...,
// same-rule) tail.
func checkRightAssoc(ruleName string, expr grammar.RuleExpr) *errs.Error {
	seq, ok := expr.(grammar.Sequence)
	if !ok || len(seq.Parts) != 2 {
		return grammarErr(errs.BadStructure, "right_associative_op in rule %q requires a 2-part sequence", ruleName)
	}
	opt, ok := seq.Parts[1].Expr.(grammar.Optional)
	if !ok {
		return grammarErr(errs.BadStructure, "right_associative_op in rule %q requires its second part to be optional", ruleName)
	}
	inner, ok := opt.Expr.Expr.(grammar.Sequence)
	if !ok || len(inner.Parts) < 2 {
		return grammarErr(errs.BadStructure, "right_associative_op in rule %q requires an (operator, ..., operand) tail", ruleName)
	}
	last := inner.Parts[len(inner.Parts)-1].Expr
	ref, ok := last.(grammar.Ref)
	if !ok || ref.Name != ruleName {
		return grammarErr(errs.BadStructure, "right_associative_op in rule %q must end its tail with a self-reference", ruleName)
	}
	return nil
}

// checkMapChildren requires expr to be the Sequence the map_children
// indices are drawn from, each index within the producing sequence's
// bounds.
func checkMapChildren(ruleName string, expr grammar.RuleExpr, ast grammar.AstDirective) *errs.Error {
	seq, ok := expr.(grammar.Sequence)
	if !ok {
		return grammarErr(errs.BadStructure, "map_children in rule %q requires a sequence", ruleName)
	}
	for key, idx := range ast.MapChildren {
		if idx < 0 || idx >= len(seq.Parts) {
			return grammarErr(errs.BadStructure, "map_children[%q] in rule %q is out of range (sequence has %d parts)", key, ruleName, len(seq.Parts))
		}
	}
	return nil
}
