// Package ignorepat compiles the engine's ignore-list strings into
// anchored glob matchers.
package ignorepat

import (
	"regexp"
	"strings"
)

// Pattern is one compiled entry from an ignoreList: a glob matched
// against either the basename or the full candidate string, and an
// optional label that narrows the match to a specific labeled
// scenario.
type Pattern struct {
	raw      string
	Label    string
	globExpr *regexp.Regexp
}

// Compile parses one ignoreList entry, splitting on the first "#" to
// separate the glob from an optional label.
func Compile(entry string) Pattern {
	glob := entry
	label := ""
	if idx := strings.Index(entry, "#"); idx >= 0 {
		glob = entry[:idx]
		label = entry[idx+1:]
	}
	return Pattern{raw: glob, Label: label, globExpr: globToRegexp(glob)}
}

// CompileAll compiles every entry in ignoreList.
func CompileAll(ignoreList []string) []Pattern {
	out := make([]Pattern, 0, len(ignoreList))
	for _, e := range ignoreList {
		out = append(out, Compile(e))
	}
	return out
}

// MatchesPath reports whether candidate's basename or full path
// matches p's glob and p carries no label (an unlabeled pattern
// suppresses by path alone; a labeled one only suppresses the
// specific "basename#label" scenarios the engine builds explicitly
// via MatchesLabeled).
func (p Pattern) MatchesPath(candidate string) bool {
	if p.Label != "" {
		return false
	}
	return p.globExpr.MatchString(basename(candidate)) || p.globExpr.MatchString(candidate)
}

// MatchesTarget reports whether candidate (a raw ThenChange target
// string, e.g. "file2.ts" or "file2.ts#label") matches p, honoring an
// optional label component on both sides.
func (p Pattern) MatchesTarget(candidate string) bool {
	targetGlob, targetLabel := splitLabel(candidate)
	if p.Label != "" && p.Label != targetLabel {
		return false
	}
	return p.globExpr.MatchString(basename(targetGlob)) || p.globExpr.MatchString(targetGlob)
}

// MatchesLabeled reports whether the synthetic "basename#label"
// scenario string used for orphan-IfChange and IfChange-context
// suppression matches p.
func MatchesLabeled(patterns []Pattern, basenameStr, label string) bool {
	if label == "" {
		return false
	}
	scenario := basenameStr + "#" + label
	for _, p := range patterns {
		if p.Label != "" && p.Label != label {
			continue
		}
		if p.globExpr.MatchString(basenameStr) || p.globExpr.MatchString(scenario) {
			return true
		}
	}
	return false
}

// AnyMatchesPath reports whether candidate matches any unlabeled
// pattern in patterns.
func AnyMatchesPath(patterns []Pattern, candidate string) bool {
	for _, p := range patterns {
		if p.MatchesPath(candidate) {
			return true
		}
	}
	return false
}

// AnyMatchesTarget reports whether candidate matches any pattern in
// patterns.
func AnyMatchesTarget(patterns []Pattern, candidate string) bool {
	for _, p := range patterns {
		if p.MatchesTarget(candidate) {
			return true
		}
	}
	return false
}

func splitLabel(s string) (glob, label string) {
	if idx := strings.Index(s, "#"); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

func basename(s string) string {
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// globToRegexp translates a glob pattern supporting only "*" (any run
// of any characters) and "?" (single character) into an anchored
// regexp, escaping every other character.
func globToRegexp(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
