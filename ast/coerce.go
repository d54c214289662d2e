package ast

import (
	"regexp"
	"strconv"

	"github.com/ava12/koine/errs"
	"github.com/ava12/koine/grammar"
)

// numberPattern is the "standard decimal grammar" spec.md §4.4 rule 2
// names for the number coercion: an optional sign, an integer part,
// and an optional fractional part.
var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// CoerceValue applies an ast.type coercion to a leaf's matched text,
// shared between the AST shaper (leaf rules) and the lexer (token
// defs carrying their own ast.type).
func CoerceValue(text string, typ grammar.AstType) (any, *errs.Error) {
	switch typ {
	case grammar.NoType:
		return nil, nil

	case grammar.Number:
		if !numberPattern.MatchString(text) {
			return nil, errs.Newf(errs.Parse, errs.UnexpectedInput, "%q is not a valid number", text)
		}
		if hasFraction(text) {
			return parseFloat(text)
		}
		return parseInt(text)

	case grammar.Bool:
		switch text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, errs.Newf(errs.Parse, errs.UnexpectedInput, "%q is not a valid bool", text)
		}

	case grammar.Null:
		if text != "null" {
			return nil, errs.Newf(errs.Parse, errs.UnexpectedInput, "%q is not a valid null", text)
		}
		return nil, nil

	default:
		return nil, errs.Newf(errs.Parse, errs.UnexpectedInput, "unknown ast.type %q", typ)
	}
}

func hasFraction(text string) bool {
	for _, r := range text {
		if r == '.' {
			return true
		}
	}
	return false
}

func parseInt(text string) (any, *errs.Error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, errs.Newf(errs.Parse, errs.UnexpectedInput, "%q is not a valid integer: %v", text, err)
	}
	return n, nil
}

func parseFloat(text string) (any, *errs.Error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, errs.Newf(errs.Parse, errs.UnexpectedInput, "%q is not a valid float: %v", text, err)
	}
	return f, nil
}
