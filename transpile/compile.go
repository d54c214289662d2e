package transpile

import "github.com/ava12/koine/errs"

func terr(code int, msg string, params ...any) *errs.Error {
	return errs.Newf(errs.Transpile, code, msg, params...)
}

// Compile turns a raw transpiler-grammar map (as loaded from YAML or
// JSON by a koineyaml.Loader) into a Grammar. The top-level shape is
// an optional `transpiler: { indent }` plus a `rules` map keyed by tag.
func Compile(raw map[string]any) (*Grammar, *errs.Error) {
	g := &Grammar{IndentUnit: "    ", Rules: map[string]Rule{}}

	if t, ok := raw["transpiler"].(map[string]any); ok {
		if iu, ok := t["indent"].(string); ok {
			g.IndentUnit = iu
		}
	}

	rulesRaw, ok := raw["rules"].(map[string]any)
	if !ok {
		return g, nil
	}

	for tag, v := range rulesRaw {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, terr(errs.MalformedTemplate, "rule %q body must be a map", tag)
		}
		rule, err := parseRule(m)
		if err != nil {
			return nil, err
		}
		g.Rules[tag] = rule
	}
	return g, nil
}

func parseRule(m map[string]any) (Rule, *errs.Error) {
	var rule Rule
	if s, ok := m["template"].(string); ok {
		rule.Template = s
	}
	if s, ok := m["use"].(string); ok {
		rule.Use = s
	}
	if s, ok := m["value"].(string); ok {
		rule.Value = s
	}
	if s, ok := m["join_children_with"].(string); ok {
		rule.JoinChildrenWith = s
	}
	if b, ok := m["indent"].(bool); ok {
		rule.Indent = b
	}

	if raw, ok := m["cases"]; ok {
		cases, err := parseCases(raw)
		if err != nil {
			return Rule{}, err
		}
		rule.Cases = cases
	}

	if raw, ok := m["state_set"]; ok {
		ss, ok := raw.(map[string]any)
		if !ok {
			return Rule{}, terr(errs.MalformedTemplate, "state_set must be a map")
		}
		rule.StateSet = ss
	}

	return rule, nil
}

func parseCases(raw any) ([]Case, *errs.Error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, terr(errs.MalformedTemplate, "cases must be a list")
	}

	cases := make([]Case, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, terr(errs.MalformedTemplate, "case entry must be a map")
		}

		if def, ok := m["default"]; ok {
			then, ok := def.(string)
			if !ok {
				return nil, terr(errs.MalformedTemplate, "default case value must be a string")
			}
			cases = append(cases, Case{Default: true, Then: then})
			continue
		}

		ifRaw, ok := m["if"]
		if !ok {
			return nil, terr(errs.MalformedTemplate, "case entry must carry if or default")
		}
		cond, err := parseCondition(ifRaw)
		if err != nil {
			return nil, err
		}
		then, ok := m["then"].(string)
		if !ok {
			return nil, terr(errs.MalformedTemplate, "case entry must carry a then string")
		}
		cases = append(cases, Case{If: cond, Then: then})
	}
	return cases, nil
}

func parseCondition(raw any) (*Condition, *errs.Error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, terr(errs.MalformedTemplate, "if must be a map")
	}
	path, ok := m["path"].(string)
	if !ok {
		return nil, terr(errs.MalformedTemplate, "if.path must be a string")
	}
	cond := &Condition{Path: path}
	if eq, ok := m["equals"]; ok {
		s := stringifyAny(eq)
		cond.Equals = &s
	}
	if neg, ok := m["negate"].(bool); ok {
		cond.Negate = neg
	}
	return cond, nil
}
