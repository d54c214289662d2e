// Package pos tracks source positions in character (not byte) offsets,
// so that column counts stay stable on UTF-8 input. It plays the role
// github.com/ava12/llx/source plays for the teacher, reworked to index
// runes instead of bytes per the data model's offset contract.
package pos

import "unicode/utf8"

// Position is a 1-based line/col, 0-based character offset into some
// source text.
type Position struct {
	line, col, offset int
}

// NewPosition builds a Position directly; line and col must be ≥1, offset ≥0.
func NewPosition(line, col, offset int) Position {
	return Position{line, col, offset}
}

func (p Position) Line() int   { return p.line }
func (p Position) Col() int    { return p.col }
func (p Position) Offset() int { return p.offset }

// Source indexes a source string by rune so that LineCol can turn a
// character offset into a line/col pair without rescanning from the
// start every time. Mirrors source.Source's line-start table, keyed by
// rune index instead of byte index.
type Source struct {
	name       string
	runes      []rune
	lineStarts []int // rune offset of the first rune of each line
	lastLine   int
}

// New indexes content by rune and records where each line starts.
func New(name, content string) *Source {
	runes := []rune(content)
	lineStarts := []int{0}
	for i, r := range runes {
		if r == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return &Source{name: name, runes: runes, lineStarts: lineStarts}
}

// Name returns the source's name (typically a file path).
func (s *Source) Name() string { return s.name }

// Runes returns the indexed content.
func (s *Source) Runes() []rune { return s.runes }

// Len returns the number of runes in the source.
func (s *Source) Len() int { return len(s.runes) }

// Text returns the substring of content between two rune offsets.
func (s *Source) Text(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(s.runes) {
		to = len(s.runes)
	}
	if from >= to {
		return ""
	}
	return string(s.runes[from:to])
}

// At returns the offset-th rune, or utf8.RuneError past the end.
func (s *Source) At(offset int) rune {
	if offset < 0 || offset >= len(s.runes) {
		return utf8.RuneError
	}
	return s.runes[offset]
}

// LineCol converts a 0-based rune offset into a 1-based line/col pair.
func (s *Source) LineCol(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.runes) {
		offset = len(s.runes)
	}

	li := s.findLine(offset)
	return li + 1, offset - s.lineStarts[li] + 1
}

// Pos returns the Position at rune offset.
func (s *Source) Pos(offset int) Position {
	line, col := s.LineCol(offset)
	return Position{line, col, offset}
}

func (s *Source) findLine(offset int) int {
	// Linear scan anchored at the previous hit mirrors source.Source's
	// findLineIndex: parses and transpiles walk forward, so the common
	// case is a short forward scan from the last line found.
	li := s.lastLine
	if li >= len(s.lineStarts) || s.lineStarts[li] > offset {
		li = 0
	}
	for li < len(s.lineStarts)-1 && s.lineStarts[li+1] <= offset {
		li++
	}
	s.lastLine = li
	return li
}
