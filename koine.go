// Package koine is the root facade gluing together grammar
// composition, lexing, PEG recognition, AST shaping, and
// transpilation behind the three public entry points spec.md §6
// names: compiling a grammar, parsing source against it, and
// transpiling the resulting AST. Plays the role ava12-llx's own
// top-level llx package plays as its subpackages' single front door.
package koine

import (
	"path/filepath"

	"github.com/ava12/koine/ast"
	"github.com/ava12/koine/compose"
	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
	"github.com/ava12/koine/koineyaml"
	"github.com/ava12/koine/lex"
	"github.com/ava12/koine/pos"
	"github.com/ava12/koine/recognize"
	"github.com/ava12/koine/transpile"
)

// Error is the error type returned by every koine entry point.
type Error = errs.Error

// CompiledGrammar is the validated, linked result of CompileGrammar.
type CompiledGrammar = grammar.CompiledGrammar

// Options configures grammar compilation; see compose.Options.
type Options = compose.Options

// CompileGrammar compiles root (a grammar file already decoded into
// its nested-map form) relative to basePath, resolving any includes
// and subgrammars via opts.Loader.
func CompileGrammar(root map[string]any, basePath string, opts Options) (*CompiledGrammar, *Error) {
	return compose.Compile(root, basePath, opts)
}

// CompileGrammarPlaceholder compiles root the same way, but replaces
// every subgrammar directive with its inline placeholder instead of
// loading the referenced file — useful for testing a grammar fragment
// in isolation.
func CompileGrammarPlaceholder(root map[string]any, basePath string, opts Options) (*CompiledGrammar, *Error) {
	return compose.CompilePlaceholder(root, basePath, opts)
}

// CompileGrammarFromFile loads path with opts.Loader (defaulting to
// koineyaml.LoadFile, which picks YAML or JSON by extension), sets
// basePath to the file's directory, and delegates to CompileGrammar.
func CompileGrammarFromFile(path string, opts Options) (*CompiledGrammar, *Error) {
	if opts.Loader == nil {
		opts.Loader = koineyaml.LoadFile
	}
	root, err := opts.Loader(path)
	if err != nil {
		return nil, errs.Newf(errs.Grammar, errs.SubgrammarNotFound, "loading %s: %v", path, err).InFile(path)
	}
	g, cerr := compose.Compile(root, filepath.Dir(path), opts)
	if cerr != nil {
		return nil, cerr
	}
	g.OriginFile = path
	return g, nil
}

// ParseOptions configures one Parse call.
type ParseOptions struct {
	// StartRule overrides the grammar's own Start; empty means use it.
	StartRule string
}

// ParseResult is the status/payload pair spec.md §6 describes for
// parse: exactly one of Ast or (Message, Line, Col) is set, selected
// by Status.
type ParseResult struct {
	Status  string // "success" or "error"
	Ast     ast.Node
	Message string
	Line    int
	Col     int
}

// Parse recognizes source against g and shapes the result into an
// AST. It never returns a Go error: a failed recognition, a lexer
// failure and a shaping failure are all reported through
// ParseResult.Status "error" with the failure's Message/Line/Col.
func Parse(g *CompiledGrammar, source string, opts ParseOptions) ParseResult {
	startRule := opts.StartRule
	if startRule == "" {
		startRule = g.Start
	}

	frag, perr := recognizeSource(g, source, startRule)
	if perr != nil {
		return ParseResult{Status: "error", Message: perr.Message, Line: perr.Line, Col: perr.Col}
	}

	node, serr := ast.Shape(g, startRule, frag)
	if serr != nil {
		return ParseResult{Status: "error", Message: serr.Message, Line: serr.Line, Col: serr.Col}
	}

	return ParseResult{Status: "success", Ast: node}
}

func recognizeSource(g *CompiledGrammar, source, startRule string) (recognize.Fragment, *Error) {
	if g.Lexer == nil {
		return recognize.ParseChars(g, pos.New(g.OriginFile, source), startRule)
	}

	lexer, lerr := lex.New(g.Lexer)
	if lerr != nil {
		return recognize.Fragment{}, lerr
	}
	toks, lerr := lexer.Run(pos.New(g.OriginFile, source))
	if lerr != nil {
		return recognize.Fragment{}, lerr
	}
	return recognize.ParseTokens(g, toks, startRule)
}

// TranspilerGrammar is the compiled form of a transpile rule table.
type TranspilerGrammar = transpile.Grammar

// CompileTranspiler compiles a transpiler-grammar map (an optional
// top-level `transpiler: { indent }` plus a `rules` map) into a
// TranspilerGrammar.
func CompileTranspiler(root map[string]any) (*TranspilerGrammar, *Error) {
	return transpile.Compile(root)
}

// Transpile renders root as a string per g's tag-keyed rules.
func Transpile(g *TranspilerGrammar, root ast.Node) (string, *Error) {
	return transpile.Transpile(g, root)
}
