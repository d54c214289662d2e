// Package compose implements the grammar composer (spec §4.1):
// include merging, subgrammar expansion with namespacing and circular-
// reference resolution, structural validation, and compilation of the
// validated map form into grammar.RuleExpr. It plays the role the
// teacher's github.com/ava12/llx/langdef package plays for the EBNF
// grammar-description language, reworked for a nested-map source
// instead of a textual one and a PEG combinator target instead of an
// FSM.
package compose

import (
	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/internal/bmap"
	"github.com/rs/zerolog"
)

// Loader turns a grammar file at path into its raw nested-map form.
// koineyaml.LoadFile satisfies this; callers may supply their own to read
// from an embedded FS, a database, or any other nested-map source —
// the core never opens a file itself outside of this seam.
type Loader func(path string) (map[string]any, error)

// Options configures a single Compile/CompilePlaceholder call.
type Options struct {
	// Loader resolves include and subgrammar file references. Required
	// whenever the grammar (or one of its includes) actually uses
	// includes/subgrammar; CompilePlaceholder never needs it since it
	// never reads external files.
	Loader Loader

	// Logger receives Debug-level rule-count and merge-decision traces
	// and an Info-level compile summary. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// MaxIncludeDepth bounds transitive include nesting as a safety net
	// independent of the cycle detector (which only catches exact
	// revisits, not runaway depth from distinct files). Zero means 64.
	MaxIncludeDepth int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.MaxIncludeDepth <= 0 {
		o.MaxIncludeDepth = 64
	}
	return o
}

// ruleEntry is one rule's raw (not yet compiled to RuleExpr) body,
// annotated with the namespace scope it was authored in. prefix is
// this rule's own qualifying prefix ("" at root); parentPrefix is the
// immediate enclosing scope's prefix, consulted as a one-level fallback
// when a bare ref does not resolve within prefix's own scope — this is
// the mechanism that lets parent and subgrammar rules refer to each
// other without infinite namespacing regress.
type ruleEntry struct {
	prefix       string
	parentPrefix string
	hasParent    bool
	raw          any
}

// subCacheEntry records a subgrammar file already loaded, so a second
// reference to the same file reuses its namespace instead of reloading
// and re-merging it.
type subCacheEntry struct {
	prefix string
	start  string
}

// composer carries the mutable state of one Compile/CompilePlaceholder
// call: the growing rule table, the subgrammar visited-file cache (an
// adaptation of github.com/ava12/llx/internal/bmap, sized for the
// common case of a handful of subgrammar files), and a used-prefix set
// guarding against two distinct files collapsing to the same namespace.
type composer struct {
	opts        Options
	placeholder bool
	table       map[string]*ruleEntry
	visited     *bmap.BMap[subCacheEntry]
	usedPrefix  map[string]int
}

func newComposer(opts Options, placeholder bool) *composer {
	return &composer{
		opts:        opts.withDefaults(),
		placeholder: placeholder,
		table:       make(map[string]*ruleEntry),
		visited:     bmap.New[subCacheEntry](8),
		usedPrefix:  make(map[string]int),
	}
}

func grammarErr(code int, msg string, params ...any) *errs.Error {
	return errs.Newf(errs.Grammar, code, msg, params...)
}
