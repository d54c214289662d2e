package compose

import (
	"path/filepath"

	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
)

// Compile turns a root grammar map plus its base directory into a
// validated, linked, namespaced CompiledGrammar (spec §4.1).
func Compile(root map[string]any, basePath string, opts Options) (*grammar.CompiledGrammar, *errs.Error) {
	return compile(root, basePath, opts, false)
}

// CompilePlaceholder behaves like Compile but replaces every
// subgrammar reference with its inline placeholder expression, so no
// subgrammar file is loaded — useful for unit-testing a grammar
// fragment in isolation from the subgrammars it will eventually use.
// Includes are still resolved and loaded through opts.Loader.
func CompilePlaceholder(root map[string]any, basePath string, opts Options) (*grammar.CompiledGrammar, *errs.Error) {
	return compile(root, basePath, opts, true)
}

func compile(root map[string]any, basePath string, opts Options, placeholder bool) (*grammar.CompiledGrammar, *errs.Error) {
	c := newComposer(opts, placeholder)

	rootRules, lexerRaw, start, err := c.loadUnit(basePath, root, "", "", false, map[string]bool{})
	if err != nil {
		return nil, err
	}
	if start == "" {
		return nil, grammarErr(errs.MalformedDirective, "grammar has no start_rule")
	}

	for name, body := range rootRules {
		c.table[name] = &ruleEntry{raw: body}
	}

	c.opts.Logger.Debug().Int("rules", len(c.table)).Msg("rule table assembled")

	rules := make(map[string]grammar.Rule, len(c.table))
	for name, entry := range c.table {
		body, ast, cerr := c.compileNode(entry.raw, entry)
		if cerr != nil {
			return nil, cerr.InRule(name).InFile(basePath)
		}
		rules[name] = grammar.Rule{Body: body, Ast: ast}
	}

	lexerSpec, lerr := compileLexer(lexerRaw)
	if lerr != nil {
		return nil, lerr.InFile(basePath)
	}

	g := &grammar.CompiledGrammar{
		Start:      start,
		Rules:      rules,
		Lexer:      lexerSpec,
		OriginFile: basePath,
	}

	if verr := validate(g); verr != nil {
		return nil, verr.InFile(basePath)
	}

	c.opts.Logger.Info().Int("rules", len(rules)).Str("start", start).Bool("lexer", lexerSpec != nil).
		Msg("grammar compiled")

	return g, nil
}

// loadUnit resolves one grammar file's includes (merging their rules,
// the including file winning on conflict) and then its own rules,
// rewriting any subgrammar directive found along the way while dir is
// still known. prefix/parentPrefix/hasParent describe the namespace
// this unit's own (non-subgrammar) rules will eventually be registered
// under; they are threaded through purely so nested subgrammar
// directives inherit the right caller prefix.
func (c *composer) loadUnit(dir string, raw map[string]any, prefix, parentPrefix string, hasParent bool, visitedIncludes map[string]bool) (map[string]any, any, string, *errs.Error) {
	rules := make(map[string]any)
	var lexerRaw any
	var start string

	if incsRaw, ok := raw["includes"]; ok {
		incs, ok := incsRaw.([]any)
		if !ok {
			return nil, nil, "", grammarErr(errs.MalformedDirective, "includes must be a list of paths")
		}
		if len(visitedIncludes) >= c.opts.MaxIncludeDepth {
			return nil, nil, "", grammarErr(errs.IncludeCycle, "include depth exceeds %d", c.opts.MaxIncludeDepth)
		}

		for _, incAny := range incs {
			incPath, ok := incAny.(string)
			if !ok {
				return nil, nil, "", grammarErr(errs.MalformedDirective, "each includes entry must be a string")
			}
			resolved := resolvePath(dir, incPath)
			if visitedIncludes[resolved] {
				return nil, nil, "", grammarErr(errs.IncludeCycle, "include cycle at %q", resolved)
			}

			childMap, lerr := c.opts.Loader(resolved)
			if lerr != nil {
				return nil, nil, "", grammarErr(errs.SubgrammarNotFound, "cannot load include %q: %v", resolved, lerr)
			}

			childVisited := make(map[string]bool, len(visitedIncludes)+1)
			for k := range visitedIncludes {
				childVisited[k] = true
			}
			childVisited[resolved] = true

			childRules, childLexer, childStart, cerr := c.loadUnit(filepath.Dir(resolved), childMap, prefix, parentPrefix, hasParent, childVisited)
			if cerr != nil {
				return nil, nil, "", cerr
			}
			for name, body := range childRules {
				rules[name] = body
			}
			if childLexer != nil {
				lexerRaw = childLexer
			}
			if childStart != "" {
				start = childStart
			}
			c.opts.Logger.Debug().Str("include", resolved).Msg("merged include")
		}
	}

	if ownRulesRaw, ok := raw["rules"].(map[string]any); ok {
		for name, body := range ownRulesRaw {
			rewritten, rerr := c.rewriteSubgrammars(body, dir, prefix, parentPrefix, hasParent, visitedIncludes)
			if rerr != nil {
				return nil, nil, "", rerr
			}
			if _, exists := rules[name]; exists {
				c.opts.Logger.Debug().Str("rule", name).Msg("including file overrides included rule")
			}
			rules[name] = rewritten
		}
	}

	if lx, ok := raw["lexer"]; ok {
		lexerRaw = lx
	}
	if s, ok := raw["start_rule"].(string); ok {
		start = s
	}

	return rules, lexerRaw, start, nil
}

// rewriteSubgrammars walks a rule body looking for subgrammar nodes
// to expand; every other map or list is walked transparently. The
// "ast" sub-map is never descended into — it is directive data, not
// rule-body structure.
func (c *composer) rewriteSubgrammars(raw any, dir, prefix, parentPrefix string, hasParent bool, visitedIncludes map[string]bool) (any, *errs.Error) {
	switch v := raw.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := c.rewriteSubgrammars(item, dir, prefix, parentPrefix, hasParent, visitedIncludes)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil

	case map[string]any:
		if _, ok := v["subgrammar"]; ok {
			return c.expandSubgrammar(v, dir, prefix, parentPrefix, hasParent, visitedIncludes)
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			if k == "ast" {
				out[k] = val
				continue
			}
			r, err := c.rewriteSubgrammars(val, dir, prefix, parentPrefix, hasParent, visitedIncludes)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil

	default:
		return raw, nil
	}
}

// expandSubgrammar replaces a subgrammar node with a plain {"rule":
// qualifiedName} node (preserving any sibling ast directive), loading
// and namespacing the referenced file at most once per Compile call.
func (c *composer) expandSubgrammar(node map[string]any, dir, callerPrefix, callerParentPrefix string, callerHasParent bool, visitedIncludes map[string]bool) (any, *errs.Error) {
	sub, ok := node["subgrammar"].(map[string]any)
	if !ok {
		return nil, grammarErr(errs.MalformedDirective, "subgrammar must be a map")
	}
	fileRef, ok := sub["file"].(string)
	if !ok || fileRef == "" {
		return nil, grammarErr(errs.MalformedDirective, "subgrammar.file is required")
	}
	resolved := resolvePath(dir, fileRef)

	if c.placeholder {
		phRaw, ok := sub["placeholder"]
		if !ok {
			return nil, grammarErr(errs.MalformedDirective, "subgrammar at %q has no placeholder for compile_placeholder", resolved)
		}
		ph, ok := phRaw.(map[string]any)
		if !ok {
			return nil, grammarErr(errs.MalformedDirective, "subgrammar.placeholder must be a map")
		}
		result := make(map[string]any, len(ph)+1)
		for k, val := range ph {
			result[k] = val
		}
		if ast, ok := node["ast"]; ok {
			if _, exists := result["ast"]; !exists {
				result["ast"] = ast
			}
		}
		return result, nil
	}

	var subPrefix, subStart string
	if cached, ok := c.visited.GetString(resolved); ok {
		subPrefix, subStart = cached.prefix, cached.start
	} else {
		subPrefix = c.uniquePrefix(pascalPrefix(resolved))
		subMap, lerr := c.opts.Loader(resolved)
		if lerr != nil {
			return nil, grammarErr(errs.SubgrammarNotFound, "cannot load subgrammar %q: %v", resolved, lerr)
		}

		subRules, _, start, uerr := c.loadUnit(filepath.Dir(resolved), subMap, subPrefix, callerPrefix, true, map[string]bool{resolved: true})
		if uerr != nil {
			return nil, uerr
		}
		subStart = start
		for name, body := range subRules {
			c.table[subPrefix+name] = &ruleEntry{
				prefix:       subPrefix,
				parentPrefix: callerPrefix,
				hasParent:    true,
				raw:          body,
			}
		}
		c.visited.SetString(resolved, subCacheEntry{prefix: subPrefix, start: subStart})
		c.opts.Logger.Debug().Str("subgrammar", resolved).Str("prefix", subPrefix).Msg("expanded subgrammar")
	}

	ruleName, ok := sub["rule"].(string)
	if !ok || ruleName == "" {
		ruleName = subStart
	}

	result := map[string]any{"rule": subPrefix + ruleName}
	if ast, ok := node["ast"]; ok {
		result["ast"] = ast
	}
	return result, nil
}

// compileLexer turns the grammar's top-level lexer list (spec §6,
// "lexer (optional)") into a LexerSpec, or returns nil when the
// grammar runs in no-lexer (character-walking) mode.
func compileLexer(lexerRaw any) (*grammar.LexerSpec, *errs.Error) {
	if lexerRaw == nil {
		return nil, nil
	}

	list, ok := lexerRaw.([]any)
	if !ok {
		return nil, grammarErr(errs.MalformedDirective, "lexer must be a list of token definitions")
	}

	defs := make([]grammar.TokenDef, 0, len(list))
	seenIndent := false
	for _, entryRaw := range list {
		tm, ok := entryRaw.(map[string]any)
		if !ok {
			return nil, grammarErr(errs.MalformedDirective, "lexer token entry must be a map")
		}

		regex, ok := tm["regex"].(string)
		if !ok || regex == "" {
			return nil, grammarErr(errs.MalformedDirective, "lexer token entry missing regex")
		}
		def := grammar.TokenDef{Regex: regex}

		if tok, ok := tm["token"].(string); ok {
			def.Token = tok
		}
		if act, ok := tm["action"].(string); ok {
			switch grammar.TokenAction(act) {
			case grammar.Skip, grammar.HandleIndent:
				def.Action = grammar.TokenAction(act)
			default:
				return nil, grammarErr(errs.MalformedDirective, "unknown lexer action %q", act)
			}
		}
		if def.Token == "" && def.Action == grammar.NoAction {
			return nil, grammarErr(errs.MalformedDirective, "lexer token entry must set token or a skipping action")
		}
		if def.Action == grammar.HandleIndent {
			if seenIndent {
				return nil, grammarErr(errs.MalformedDirective, "at most one handle_indent entry is allowed")
			}
			seenIndent = true
		}

		ast, aerr := parseAstDirective(tm["ast"])
		if aerr != nil {
			return nil, aerr
		}
		def.Ast = ast

		defs = append(defs, def)
	}

	return &grammar.LexerSpec{Tokens: defs}, nil
}
