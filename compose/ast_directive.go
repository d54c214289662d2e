package compose

import (
	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
)

// parseAstDirective reads the optional ast sub-map carried by a rule
// or by a single part of a rule body (spec §6, "ast sub-keys").
func parseAstDirective(raw any) (grammar.AstDirective, *errs.Error) {
	if raw == nil {
		return grammar.AstDirective{}, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return grammar.AstDirective{}, grammarErr(errs.MalformedDirective, "ast directive must be a map")
	}

	var d grammar.AstDirective
	if tag, ok := m["tag"].(string); ok {
		d.Tag = tag
	}
	if discard, ok := m["discard"].(bool); ok {
		d.Discard = discard
	}
	if promote, ok := m["promote"].(bool); ok {
		d.Promote = promote
	}
	if leaf, ok := m["leaf"].(bool); ok {
		d.Leaf = leaf
	}
	if name, ok := m["name"].(string); ok {
		d.Name = name
	}
	if typ, ok := m["type"].(string); ok {
		switch grammar.AstType(typ) {
		case grammar.Number, grammar.Bool, grammar.Null:
			d.Type = grammar.AstType(typ)
		default:
			return d, grammarErr(errs.MalformedDirective, "unknown ast.type %q", typ)
		}
	}

	switch sv := m["structure"].(type) {
	case nil:
		// no structure directive
	case string:
		switch grammar.StructureKind(sv) {
		case grammar.LeftAssocOp, grammar.RightAssocOp:
			d.Structure = grammar.StructureKind(sv)
		default:
			return d, grammarErr(errs.MalformedDirective, "unknown ast.structure %q", sv)
		}
	case map[string]any:
		d.Structure = grammar.MapChildren
		if tag, ok := sv["tag"].(string); ok {
			d.StructureTag = tag
		}
		mc, _ := sv["map_children"].(map[string]any)
		if len(mc) > 0 {
			d.MapChildren = make(map[string]int, len(mc))
			for k, v := range mc {
				idx, err := toInt(v)
				if err != nil {
					return d, grammarErr(errs.MalformedDirective, "ast.structure.map_children[%q] must be an int index", k)
				}
				d.MapChildren[k] = idx
			}
		}
	default:
		return d, grammarErr(errs.MalformedDirective, "ast.structure must be a string or a map")
	}

	return d, nil
}

func toInt(v any) (int, *errs.Error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, grammarErr(errs.MalformedDirective, "expected integer, got %T", v)
	}
}
