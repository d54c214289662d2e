package transpile

import (
	"fmt"
	"strconv"

	"github.com/ava12/koine/ast"
	"github.com/ava12/koine/errs"
)

// Transpile renders root as a string per g, spec.md §4.5's tag-keyed
// rule lookup with cases/placeholders/state/indent.
func Transpile(g *Grammar, root ast.Node) (string, *errs.Error) {
	return transpileNode(g, newState(), root)
}

func transpileNode(g *Grammar, state *State, node ast.Node) (string, *errs.Error) {
	rule, ok := g.Rules[node.Tag]
	if !ok {
		if node.Value != nil {
			return stringifyAny(node.Value), nil
		}
		if node.Text != "" {
			return node.Text, nil
		}
		return "", terr(errs.MissingRule, "no transpile rule for tag %q, and node has neither value nor text", node.Tag)
	}

	ctx := newEvalCtx(g, state, node, rule)

	text, err := effectiveOutput(ctx)
	if err != nil {
		return "", err
	}

	if err := applyStateSet(ctx, rule.StateSet); err != nil {
		return "", err
	}

	return text, nil
}

func effectiveOutput(ctx *evalCtx) (string, *errs.Error) {
	rule := ctx.rule

	if len(rule.Cases) > 0 {
		for _, c := range rule.Cases {
			if c.Default {
				return resolveTemplate(c.Then, ctx)
			}
			matched, err := evalCondition(c.If, ctx)
			if err != nil {
				return "", err
			}
			if matched {
				return resolveTemplate(c.Then, ctx)
			}
		}
		return "", terr(errs.NoMatchingCase, "no matching case for tag %q", ctx.node.Tag)
	}

	if rule.Use != "" {
		switch rule.Use {
		case "value":
			return stringifyAny(ctx.node.Value), nil
		case "text":
			return ctx.node.Text, nil
		default:
			return "", terr(errs.MalformedTemplate, "unknown use %q for tag %q", rule.Use, ctx.node.Tag)
		}
	}

	if rule.Value != "" {
		return rule.Value, nil
	}

	return resolveTemplate(rule.Template, ctx)
}

func stringifyAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
