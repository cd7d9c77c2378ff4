// Package engine implements the lint engine: it orchestrates the diff
// parser, directive extractor, uniqueness validator and worker pool to
// pair IfChange/ThenChange directives, resolve targets and labeled
// ranges, cross-reference them against a diff's changed-line sets, and
// emit violations.
package engine

import "fmt"

// Pair binds one IfChange to one ThenChange found later in the same
// file.
type Pair struct {
	File       string
	IfLine     int
	IfLabel    string
	ThenTarget string
	ThenLine   int
}

// ifContext renders the "<file>[#<label>]:<line>" string used to
// identify the triggering IfChange in a diagnostic.
func (p Pair) ifContext() string {
	if p.IfLabel != "" {
		return fmt.Sprintf("%s#%s:%d", p.File, p.IfLabel, p.IfLine)
	}
	return fmt.Sprintf("%s:%d", p.File, p.IfLine)
}

// LineRange is an inclusive [Start, End] line-number span.
type LineRange struct {
	Start int
	End   int
}

// labelRanges maps a label name to the range it spans within one
// file, as computed by walking its label stack top to bottom.
type labelRanges map[string]LineRange
