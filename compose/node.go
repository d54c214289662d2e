package compose

import (
	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
)

// structuralKeys lists the rule-body keys enumerated in spec §6; a
// valid node carries exactly one of them (subgrammar is resolved away
// before compileNode ever sees a node).
var structuralKeys = []string{
	"literal", "regex", "token", "rule", "sequence", "choice",
	"zero_or_more", "one_or_more", "optional",
	"positive_lookahead", "negative_lookahead",
}

// compileNode turns one validated map-form node into a RuleExpr plus
// its own ast directive, resolving any "rule" reference against the
// scope entry owns it belongs to.
func (c *composer) compileNode(raw any, owns *ruleEntry) (grammar.RuleExpr, grammar.AstDirective, *errs.Error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, grammar.AstDirective{}, grammarErr(errs.MalformedDirective, "rule body must be a map, got %T", raw)
	}

	ast, err := parseAstDirective(m["ast"])
	if err != nil {
		return nil, grammar.AstDirective{}, err
	}

	present := 0
	var key string
	for _, k := range structuralKeys {
		if _, ok := m[k]; ok {
			present++
			key = k
		}
	}
	if present != 1 {
		return nil, ast, grammarErr(errs.MalformedDirective, "rule body must carry exactly one of %v, found %d", structuralKeys, present)
	}

	switch key {
	case "literal":
		s, ok := m["literal"].(string)
		if !ok {
			return nil, ast, grammarErr(errs.MalformedDirective, "literal must be a string")
		}
		return grammar.Literal{Text: s}, ast, nil

	case "regex":
		s, ok := m["regex"].(string)
		if !ok {
			return nil, ast, grammarErr(errs.MalformedDirective, "regex must be a string")
		}
		return grammar.Regex{Pattern: s}, ast, nil

	case "token":
		s, ok := m["token"].(string)
		if !ok {
			return nil, ast, grammarErr(errs.MalformedDirective, "token must be a string")
		}
		return grammar.Token{Name: s}, ast, nil

	case "rule":
		s, ok := m["rule"].(string)
		if !ok {
			return nil, ast, grammarErr(errs.MalformedDirective, "rule must be a string")
		}
		qualified, rerr := c.resolveRuleRef(s, owns)
		if rerr != nil {
			return nil, ast, rerr
		}
		return grammar.Ref{Name: qualified}, ast, nil

	case "sequence":
		parts, perr := c.compileParts(m["sequence"], owns)
		if perr != nil {
			return nil, ast, perr
		}
		return grammar.Sequence{Parts: parts}, ast, nil

	case "choice":
		parts, perr := c.compileParts(m["choice"], owns)
		if perr != nil {
			return nil, ast, perr
		}
		return grammar.Choice{Alts: parts}, ast, nil

	case "zero_or_more", "one_or_more", "optional", "positive_lookahead", "negative_lookahead":
		part, perr := c.compilePart(m[key], owns)
		if perr != nil {
			return nil, ast, perr
		}
		switch key {
		case "zero_or_more":
			return grammar.ZeroOrMore{Expr: part}, ast, nil
		case "one_or_more":
			return grammar.OneOrMore{Expr: part}, ast, nil
		case "optional":
			return grammar.Optional{Expr: part}, ast, nil
		case "positive_lookahead":
			return grammar.PosLookahead{Expr: part}, ast, nil
		default:
			return grammar.NegLookahead{Expr: part}, ast, nil
		}
	}

	// unreachable: present == 1 guarantees key matched one of the cases above.
	return nil, ast, grammarErr(errs.MalformedDirective, "unhandled rule body key %q", key)
}

func (c *composer) compilePart(raw any, owns *ruleEntry) (grammar.Part, *errs.Error) {
	expr, ast, err := c.compileNode(raw, owns)
	if err != nil {
		return grammar.Part{}, err
	}
	return grammar.Part{Expr: expr, Ast: ast}, nil
}

func (c *composer) compileParts(raw any, owns *ruleEntry) ([]grammar.Part, *errs.Error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, grammarErr(errs.MalformedDirective, "sequence/choice body must be a list, got %T", raw)
	}

	parts := make([]grammar.Part, 0, len(list))
	for _, item := range list {
		part, err := c.compilePart(item, owns)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// resolveRuleRef resolves a bare rule name authored inside owns's raw
// body, first against owns's own namespace, then — exactly one level
// up — against the namespace that included or referenced owns. This
// single-level fallback is what lets a subgrammar and its parent refer
// to each other without unbounded namespace regress (spec §4.1 step 2,
// §9 "Subgrammar namespacing as isolation").
func (c *composer) resolveRuleRef(name string, owns *ruleEntry) (string, *errs.Error) {
	candidate := owns.prefix + name
	if _, ok := c.table[candidate]; ok {
		return candidate, nil
	}

	if owns.hasParent {
		candidate = owns.parentPrefix + name
		if _, ok := c.table[candidate]; ok {
			return candidate, nil
		}
	}

	return "", grammarErr(errs.UnknownRule, "unknown rule %q", name)
}
