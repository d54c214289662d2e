package transpile

import (
	"strconv"
	"strings"

	"github.com/ava12/koine/ast"
	"github.com/ava12/koine/errs"
)

// evalCtx carries everything needed to resolve one node's placeholders:
// the grammar (for nested rule lookup), the shared state, the node
// itself and its rule, and per-node memoization so a placeholder
// referenced twice in one template transpiles its child only once.
type evalCtx struct {
	g     *Grammar
	state *State
	node  ast.Node
	rule  Rule

	namedCache          map[string]string
	indexedCache        map[int]string
	childrenJoinedCache *string
}

func newEvalCtx(g *Grammar, state *State, node ast.Node, rule Rule) *evalCtx {
	return &evalCtx{
		g: g, state: state, node: node, rule: rule,
		namedCache:   map[string]string{},
		indexedCache: map[int]string{},
	}
}

// resolveTemplate substitutes every `{...}` placeholder in tmpl,
// recursively transpiling the children those placeholders name.
func resolveTemplate(tmpl string, ctx *evalCtx) (string, *errs.Error) {
	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] != '{' {
			b.WriteByte(tmpl[i])
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return "", terr(errs.MalformedTemplate, "unterminated placeholder in %q", tmpl)
		}
		key := tmpl[i+1 : i+end]
		val, err := resolvePlaceholder(key, ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(val)
		i += end + 1
	}
	return b.String(), nil
}

func resolvePlaceholder(key string, ctx *evalCtx) (string, *errs.Error) {
	switch {
	case key == "children":
		return ctx.childrenJoined()
	case strings.HasPrefix(key, "children."):
		return ctx.childAt(key[len("children."):])
	default:
		return ctx.namedChild(key)
	}
}

func (ctx *evalCtx) namedChild(name string) (string, *errs.Error) {
	if v, ok := ctx.namedCache[name]; ok {
		return v, nil
	}
	child, ok := ctx.node.Named[name]
	if !ok {
		return "", terr(errs.UnresolvedPlaceholder, "tag %q has no named child %q", ctx.node.Tag, name)
	}
	text, err := transpileNode(ctx.g, ctx.state, child)
	if err != nil {
		return "", err
	}
	ctx.namedCache[name] = text
	return text, nil
}

func (ctx *evalCtx) childAt(idxStr string) (string, *errs.Error) {
	idx, convErr := strconv.Atoi(idxStr)
	if convErr != nil {
		return "", terr(errs.UnresolvedPlaceholder, "invalid children index %q", idxStr)
	}
	if v, ok := ctx.indexedCache[idx]; ok {
		return v, nil
	}
	if idx < 0 || idx >= len(ctx.node.Children) {
		return "", terr(errs.UnresolvedPlaceholder, "children index %d out of range for tag %q", idx, ctx.node.Tag)
	}
	text, err := transpileNode(ctx.g, ctx.state, ctx.node.Children[idx])
	if err != nil {
		return "", err
	}
	ctx.indexedCache[idx] = text
	return text, nil
}

// childrenJoined transpiles every list child, joins them with the
// rule's join_children_with, and — for an indent:true rule — prefixes
// the first line of each child's text with the current depth's indent
// before joining. Only the first line is prefixed: a child's own
// continuation lines were already indented to their correct depth by
// whatever nested indent:true rule produced them, and re-prefixing
// every line would double-indent those lines (spec.md §4.5's "not at
// every recursion level" caveat).
func (ctx *evalCtx) childrenJoined() (string, *errs.Error) {
	if ctx.childrenJoinedCache != nil {
		return *ctx.childrenJoinedCache, nil
	}
	if ctx.node.Named != nil {
		return "", terr(errs.UnresolvedPlaceholder, "{children} is forbidden on tag %q, which has keyed children", ctx.node.Tag)
	}

	depth := ctx.state.depth
	if ctx.rule.Indent {
		ctx.state.depth++
		depth = ctx.state.depth
	}

	parts := make([]string, len(ctx.node.Children))
	for i, c := range ctx.node.Children {
		text, err := transpileNode(ctx.g, ctx.state, c)
		if err != nil {
			if ctx.rule.Indent {
				ctx.state.depth--
			}
			return "", err
		}
		if ctx.rule.Indent {
			text = indentFirstLine(text, strings.Repeat(ctx.g.IndentUnit, depth))
		}
		parts[i] = text
	}

	if ctx.rule.Indent {
		ctx.state.depth--
	}

	joined := strings.Join(parts, ctx.rule.JoinChildrenWith)
	ctx.childrenJoinedCache = &joined
	return joined, nil
}

func indentFirstLine(text, prefix string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return prefix + text[:idx] + text[idx:]
	}
	return prefix + text
}

// evalCondition evaluates one `cases[i].if` entry against ctx.
func evalCondition(cond *Condition, ctx *evalCtx) (bool, *errs.Error) {
	path, err := resolveTemplate(cond.Path, ctx)
	if err != nil {
		return false, err
	}
	val, found := lookupPath(path, ctx)

	var result bool
	if cond.Equals != nil {
		result = found && stringifyAny(val) == *cond.Equals
	} else {
		result = found && stringifyAny(val) != ""
	}
	if cond.Negate {
		result = !result
	}
	return result, nil
}

func lookupPath(path string, ctx *evalCtx) (any, bool) {
	segs := strings.Split(path, ".")
	if len(segs) == 0 {
		return nil, false
	}
	switch segs[0] {
	case "state":
		return ctx.state.get(segs[1:])
	case "node":
		return lookupNode(ctx.node, segs[1:])
	default:
		return nil, false
	}
}

func lookupNode(node ast.Node, segs []string) (any, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	switch segs[0] {
	case "text":
		return node.Text, len(segs) == 1
	case "value":
		return node.Value, len(segs) == 1
	case "tag":
		return node.Tag, len(segs) == 1
	default:
		child, ok := node.Named[segs[0]]
		if !ok {
			return nil, false
		}
		if len(segs) == 1 {
			return child.Text, true
		}
		return lookupNode(child, segs[1:])
	}
}

// applyStateSet runs a rule's state_set after its output is computed,
// resolving placeholders in each path against the node's already-
// transpiled children (spec.md §4.5).
func applyStateSet(ctx *evalCtx, stateSet map[string]any) *errs.Error {
	for path, value := range stateSet {
		resolved, err := resolveTemplate(path, ctx)
		if err != nil {
			return err
		}
		segs := strings.Split(resolved, ".")
		ctx.state.set(segs, value)
	}
	return nil
}
