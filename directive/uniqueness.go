package directive

import "fmt"

// CheckUnique validates that every named label in path — whether
// introduced by LINT.IfChange('name') or LINT.Label('name') — appears
// at most once. It returns one diagnostic message per label occurrence
// beyond the first, in directive order. Messages are bare (no
// "[ifttt] " prefix); the caller owns output formatting.
func CheckUnique(path string, directives []Directive) []string {
	seen := make(map[string]bool)
	var diagnostics []string

	for _, d := range directives {
		name := labelOf(d)
		if name == "" {
			continue
		}
		if seen[name] {
			diagnostics = append(diagnostics, fmt.Sprintf(
				"%s:%d -> duplicate directive label '%s'", path, d.Line, name))
			continue
		}
		seen[name] = true
	}

	return diagnostics
}

// labelOf returns the label a directive introduces, or "" if it does
// not introduce one.
func labelOf(d Directive) string {
	switch d.Kind {
	case KindIfChange, KindLabel:
		return d.Label
	default:
		return ""
	}
}
