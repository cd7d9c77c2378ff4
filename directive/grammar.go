package directive

import (
	"regexp"
	"strings"
)

// The directive grammar, anchored at the start of a trimmed comment
// line but not at its end: trailing prose after a complete directive
// ("LINT.IfChange  -- see below") is tolerated, not malformed. Array
// ThenChange can span adjacent comment lines until a line containing
// the closing ")" is seen, so Scan joins lines lazily rather than
// matching line-by-line for that one form.
var (
	reIfChangeToken   = regexp.MustCompile(`^LINT\.IfChange\b`)
	reLabeledIfChange = regexp.MustCompile(`^LINT\.IfChange\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	reSingleThen      = regexp.MustCompile(`^LINT\.ThenChange\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	reArrayThenStart  = regexp.MustCompile(`^LINT\.ThenChange\s*\(\s*\[`)
	reLabel           = regexp.MustCompile(`^LINT\.Label\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	reEndLabel        = regexp.MustCompile(`^LINT\.EndLabel\b`)
	reQuotedItem      = regexp.MustCompile(`['"]([^'"]+)['"]`)
	reAnyLintToken    = regexp.MustCompile(`^LINT\.[A-Za-z]+\b`)
)

// Scan walks a list of extracted comments and emits the directives
// found inside them, in textual order. It fails fast (returning a
// *MalformedError) on any line that begins a LINT.* token but cannot
// be matched to a known directive form.
func Scan(path string, comments []Comment) ([]Directive, error) {
	var out []Directive
	for _, c := range comments {
		ds, err := scanComment(path, c)
		if err != nil {
			return nil, err
		}
		out = append(out, ds...)
	}
	return out, nil
}

func scanComment(path string, c Comment) ([]Directive, error) {
	var out []Directive
	for i := 0; i < len(c.Lines); i++ {
		line := strings.TrimSpace(c.Lines[i])
		lineNo := c.StartLine + i
		if line == "" {
			continue
		}

		switch {
		case reLabeledIfChange.MatchString(line):
			m := reLabeledIfChange.FindStringSubmatch(line)
			out = append(out, Directive{Kind: KindIfChange, Line: lineNo, Label: m[1]})
			continue
		case reIfChangeToken.MatchString(line):
			// Not the labeled form above, so anything other than a
			// bare token (e.g. "IfChange()" or "IfChange(oops") is a
			// malformed parenthesized expression, not a label we
			// failed to parse.
			loc := reIfChangeToken.FindStringIndex(line)
			rest := strings.TrimLeft(line[loc[1]:], " \t")
			if strings.HasPrefix(rest, "(") {
				return nil, &MalformedError{Path: path, Line: lineNo, Text: line}
			}
			out = append(out, Directive{Kind: KindIfChange, Line: lineNo})
			continue
		case reSingleThen.MatchString(line):
			m := reSingleThen.FindStringSubmatch(line)
			out = append(out, Directive{Kind: KindThenChange, Line: lineNo, Target: m[1]})
			continue
		case reLabel.MatchString(line):
			m := reLabel.FindStringSubmatch(line)
			out = append(out, Directive{Kind: KindLabel, Line: lineNo, Label: m[1]})
			continue
		case reEndLabel.MatchString(line):
			out = append(out, Directive{Kind: KindEndLabel, Line: lineNo})
			continue
		case reArrayThenStart.MatchString(line):
			joined, consumed := joinUntilClose(c.Lines, i)
			targets, ok := parseArrayThen(joined)
			if !ok {
				return nil, &MalformedError{Path: path, Line: lineNo, Text: line}
			}
			for _, t := range targets {
				out = append(out, Directive{Kind: KindThenChange, Line: lineNo, Target: t})
			}
			i += consumed - 1
			continue
		case strings.HasPrefix(line, "LINT.ThenChange"):
			// Unrecognized single-line form; try joining subsequent
			// lines until ")" in case it wrapped without an array.
			joined, consumed := joinUntilClose(c.Lines, i)
			if m := reSingleThen.FindStringSubmatch(joined); m != nil {
				out = append(out, Directive{Kind: KindThenChange, Line: lineNo, Target: m[1]})
				i += consumed - 1
				continue
			}
			if targets, ok := parseArrayThen(joined); ok {
				for _, t := range targets {
					out = append(out, Directive{Kind: KindThenChange, Line: lineNo, Target: t})
				}
				i += consumed - 1
				continue
			}
			return nil, &MalformedError{Path: path, Line: lineNo, Text: line}
		case reAnyLintToken.MatchString(line):
			return nil, &MalformedError{Path: path, Line: lineNo, Text: line}
		}
	}
	return out, nil
}

// joinUntilClose joins comment lines starting at idx until a line
// containing ")" is found (inclusive), returning the joined text and
// the number of lines consumed (at least 1).
func joinUntilClose(lines []string, idx int) (string, int) {
	var b strings.Builder
	for j := idx; j < len(lines); j++ {
		if j > idx {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(lines[j]))
		if strings.Contains(lines[j], ")") {
			return b.String(), j - idx + 1
		}
	}
	return b.String(), len(lines) - idx
}

// parseArrayThen extracts the quoted targets out of a (possibly
// multi-line-joined) "LINT.ThenChange([...])" form.
func parseArrayThen(joined string) ([]string, bool) {
	open := strings.Index(joined, "[")
	close := strings.LastIndex(joined, "]")
	if open < 0 || close < 0 || close < open {
		return nil, false
	}
	inner := joined[open+1 : close]
	matches := reQuotedItem.FindAllStringSubmatch(inner, -1)
	if len(matches) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out, true
}
