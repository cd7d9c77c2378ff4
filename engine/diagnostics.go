package engine

import (
	"fmt"
	"sort"
	"strings"
)

// diagnostic is one counted violation or malformed-input report. Every
// diagnostic becomes exactly one "[ifttt] "-prefixed output line and
// counts toward the exit-code decision: the process exits 0 iff no
// diagnostics were emitted.
type diagnostic struct {
	file    string
	line    int
	message string
}

func (d diagnostic) String() string {
	return fmt.Sprintf("[ifttt] %s", d.message)
}

func orphanThenChangeMsg(file string, line int, target string) string {
	return fmt.Sprintf("%s:%d -> unexpected ThenChange '%s' without preceding IfChange", file, line, target)
}

func orphanIfChangeMsg(file string, line int, label string) string {
	ifPart := "IfChange"
	if label != "" {
		ifPart = fmt.Sprintf("IfChange(%s)", label)
	}
	return fmt.Sprintf("%s:%d -> missing ThenChange after %s", file, line, ifPart)
}

func targetNotFoundMsg(ifContext, target string, thenLine int, targetFile string) string {
	return fmt.Sprintf("%s -> ThenChange '%s' (line %d): target file '%s' not found.",
		ifContext, target, thenLine, targetFile)
}

func targetNotChangedMsg(ifContext, target string, thenLine int, targetFile string) string {
	return fmt.Sprintf("%s -> ThenChange '%s' (line %d): target file '%s' not changed.",
		ifContext, target, thenLine, targetFile)
}

func labelNotFoundMsg(ifContext, target string, thenLine int, targetFile, label string, available []string) string {
	list := "none"
	if len(available) > 0 {
		sorted := append([]string(nil), available...)
		sort.Strings(sorted)
		list = strings.Join(sorted, ", ")
	}
	return fmt.Sprintf("%s -> ThenChange '%s' (line %d): label '%s' not found in '%s'. Available labels: %s",
		ifContext, target, thenLine, label, targetFile, list)
}

func labelRangeEmptyMsg(ifContext, target string, thenLine int, targetFile, label string, rng LineRange, actual []int) string {
	return fmt.Sprintf("%s -> ThenChange '%s' (line %d): expected changes in '%s#%s' (%d-%d), but none found. Actual changes in file: %s",
		ifContext, target, thenLine, targetFile, label, rng.Start, rng.End, formatIntList(actual))
}

func fileRangeEmptyMsg(ifContext, target string, thenLine int, targetFile string) string {
	return fmt.Sprintf("%s -> ThenChange '%s' (line %d): expected changes in '%s', but none found.",
		ifContext, target, thenLine, targetFile)
}

func formatIntList(vs []int) string {
	sorted := append([]int(nil), vs...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
