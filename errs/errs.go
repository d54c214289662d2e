// Package errs defines the single error type shared by every koine
// subsystem. Each subsystem owns a disjoint range of codes, the same
// way github.com/ava12/llx assigns LexicalErrors, SyntaxErrors, and so on.
package errs

import "fmt"

// Kind distinguishes the four user-visible error categories from the
// specification without introducing four unrelated Go error types.
type Kind int

const (
	// Grammar marks failures raised by the grammar composer/validator:
	// unresolved refs, unreachable rules, bad structure directives,
	// include cycles, missing subgrammar files, malformed directives.
	Grammar Kind = iota

	// Lex marks failures raised by the lexer: no token matches, a
	// zero-length match, or a dedent with no matching indent level.
	Lex

	// Parse marks failures raised by the PEG recognizer: the farthest
	// failure position reported by a top-level parse call.
	Parse

	// Transpile marks failures raised by the transpiler: missing rule,
	// malformed template, unresolved placeholder, unmatched cases.
	Transpile
)

func (k Kind) String() string {
	switch k {
	case Grammar:
		return "GrammarError"
	case Lex:
		return "LexError"
	case Parse:
		return "ParseError"
	case Transpile:
		return "TranspileError"
	default:
		return "Error"
	}
}

// Code ranges, mirroring the teacher's LangDefErrors/LexicalErrors/... scheme.
const (
	GrammarErrors   = 1
	LexErrors       = 101
	ParseErrors     = 201
	TranspileErrors = 301
)

// Grammar-kind codes.
const (
	UnknownRule = GrammarErrors + iota
	Unreachable
	BadStructure
	IncludeCycle
	SubgrammarNotFound
	MalformedDirective
)

// Lex-kind codes.
const (
	NoTokenMatch = LexErrors + iota
	ZeroLengthMatch
	BadDedent
	MixedIndent
)

// Parse-kind codes.
const (
	UnexpectedInput = ParseErrors + iota
	NoLexerMode

	// BadShape marks a failure raised while shaping a raw parse fragment
	// into an AST node: a structure directive's runtime shape didn't
	// match what the composer's structural lint expected, or a named-
	// children sequence produced an unnamed surviving part.
	BadShape
)

// Transpile-kind codes.
const (
	MissingRule = TranspileErrors + iota
	MalformedTemplate
	UnresolvedPlaceholder
	NoMatchingCase
)

// Error is the error type returned by every koine subsystem.
// line and col are 1-based; a value of 0 means "not available".
type Error struct {
	Kind Kind
	Code int

	// Message is a short, human-readable description.
	Message string

	// File names the grammar file responsible for the error, when known.
	File string

	// Rule names the rule responsible for the error, when known.
	Rule string

	// Line, Col locate the error in source or grammar text, when known.
	Line, Col int

	// Expected and Context carry recognizer-specific detail: the set of
	// alternatives the parser was trying at the farthest failure
	// position, and the rule stack leading there.
	Expected []string
	Context  []string
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Rule != "" {
		msg = fmt.Sprintf("%s (rule %s)", msg, e.Rule)
	}
	if e.File != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.File)
	}
	if e.Line != 0 && e.Col != 0 {
		msg = fmt.Sprintf("%s at line %d col %d", msg, e.Line, e.Col)
	}
	return msg
}

// New creates an Error with the given kind and code.
func New(kind Kind, code int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Newf creates an Error, formatting msg with params via fmt.Sprintf.
func Newf(kind Kind, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return New(kind, code, msg)
}

// AtPos returns a copy of e with Line/Col set.
func (e *Error) AtPos(line, col int) *Error {
	e2 := *e
	e2.Line = line
	e2.Col = col
	return &e2
}

// InFile returns a copy of e with File set.
func (e *Error) InFile(file string) *Error {
	e2 := *e
	e2.File = file
	return &e2
}

// InRule returns a copy of e with Rule set.
func (e *Error) InRule(rule string) *Error {
	e2 := *e
	e2.Rule = rule
	return &e2
}

// SourcePos is implemented by anything that can locate itself in source
// text: pos.Position and token.Token both satisfy it.
type SourcePos interface {
	Line() int
	Col() int
}

// FromPos creates an Error carrying the position of p.
func FromPos(p SourcePos, kind Kind, code int, msg string, params ...any) *Error {
	e := Newf(kind, code, msg, params...)
	return e.AtPos(p.Line(), p.Col())
}
