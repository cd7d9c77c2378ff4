package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/ebrevdo/ifttt-lint/diffparse"
	"github.com/ebrevdo/ifttt-lint/directive"
	"github.com/ebrevdo/ifttt-lint/ignorepat"
	"github.com/ebrevdo/ifttt-lint/iftttlog"
)

// nonCodeExtensions is the hard-coded set of extensions excluded from
// both the diff's file set and target resolution; prose files don't
// carry directives worth pairing.
var nonCodeExtensions = map[string]bool{
	".md": true, ".markdown": true,
}

// fatalExitCode is returned by LintDiff alongside a non-nil error: any
// I/O or malformed-directive error aborts the invocation with a
// non-zero exit distinct from 1. The CLI collaborator is free to remap
// this; the engine itself never conflates a fatal abort with a clean
// or violation-bearing run.
const fatalExitCode = 2

// LintDiff is the engine's entry point: it parses diffText, extracts
// and pairs directives from every changed code file, resolves
// ThenChange targets and labeled ranges, validates that declared
// dependencies were honored, and returns 0 (clean) or 1 (at least one
// violation). A non-nil error indicates a fatal, non-recoverable
// failure (malformed directive, unreadable source file, bad diff
// structure); exitCode is then fatalExitCode and should not be treated
// as a lint verdict.
func LintDiff(diffText string, parallelism int, verbose bool, ignoreList []string) (int, error) {
	return lintDiff(os.Stdout, diffText, parallelism, verbose, ignoreList)
}

func lintDiff(out io.Writer, diffText string, parallelism int, verbose bool, ignoreList []string) (int, error) {
	logger := iftttlog.New(verbose)
	defer func() { _ = logger.Sync() }()

	// Phase A: diff ingest.
	changes, err := diffparse.Parse(diffText)
	if err != nil {
		return fatalExitCode, fmt.Errorf("engine: %w", err)
	}
	patterns := ignorepat.CompileAll(ignoreList)

	var codeFiles []string
	for _, path := range changes.Order {
		if nonCodeExtensions[strings.ToLower(filepath.Ext(path))] {
			continue
		}
		if ignorepat.AnyMatchesPath(patterns, path) {
			logger.Sugar().Debugf("dropping ignored path %s", path)
			continue
		}
		codeFiles = append(codeFiles, path)
	}

	cache := newParseCache(parallelism)
	defer cache.close()

	var diagnostics []diagnostic
	errCount := 0
	emit := func(file string, line int, msg string) {
		diagnostics = append(diagnostics, diagnostic{file: file, line: line, message: msg})
		errCount++
	}

	// Phase B: source-side parse, uniqueness, and pairing. Every file
	// is scheduled with the pool before any result is awaited, so the
	// pool actually runs up to parallelism files concurrently instead
	// of one get() serializing the next submission behind it. Fatal
	// per-file errors (malformed directives, unreadable sources) are
	// batched with multierr rather than aborting on the first one, so
	// a single invocation reports every offending file at once.
	for _, file := range codeFiles {
		cache.start(file)
	}

	var pairs []Pair
	var fatalErr error
	for _, file := range codeFiles {
		ds, err := cache.get(file)
		if err != nil {
			fatalErr = multierr.Append(fatalErr, fmt.Errorf("parsing %s: %w", file, err))
			continue
		}

		for _, msg := range directive.CheckUnique(file, ds) {
			errCount++
			diagnostics = append(diagnostics, diagnostic{file: file, message: msg})
		}

		filePairs, orphans := pairDirectives(file, ds)
		pairs = append(pairs, filePairs...)
		for _, o := range orphans {
			if o.isThenOrphan {
				if ignorepat.AnyMatchesTarget(patterns, o.target) {
					continue
				}
				emit(file, o.line, orphanThenChangeMsg(file, o.line, o.target))
				continue
			}
			if o.label != "" && ignorepat.MatchesLabeled(patterns, filepath.Base(file), o.label) {
				continue
			}
			emit(file, o.line, orphanIfChangeMsg(file, o.line, o.label))
		}
	}
	if fatalErr != nil {
		return fatalExitCode, fmt.Errorf("engine: %w", fatalErr)
	}

	// Phase C: target resolution and label ranges. As in Phase B,
	// every distinct target is scheduled with the pool before any of
	// them are awaited.
	targetLabels := make(map[string]labelRanges)
	notFound := make(map[string]bool)
	visitedTargets := make(map[string]bool)

	var targetPaths []string
	for _, p := range pairs {
		targetPath, _ := resolveTarget(p.File, p.ThenTarget)
		if nonCodeExtensions[strings.ToLower(filepath.Ext(targetPath))] {
			continue
		}
		if visitedTargets[targetPath] {
			continue
		}
		visitedTargets[targetPath] = true
		targetPaths = append(targetPaths, targetPath)
		cache.start(targetPath)
	}

	for _, targetPath := range targetPaths {
		ds, err := cache.get(targetPath)
		if err != nil {
			if os.IsNotExist(err) {
				notFound[targetPath] = true
				for _, p2 := range pairs {
					tp, _ := resolveTarget(p2.File, p2.ThenTarget)
					if tp != targetPath {
						continue
					}
					if suppressedTarget(patterns, p2) {
						continue
					}
					emit(p2.File, p2.ThenLine, targetNotFoundMsg(p2.ifContext(), p2.ThenTarget, p2.ThenLine, targetPath))
				}
				continue
			}
			fatalErr = multierr.Append(fatalErr, fmt.Errorf("parsing target %s: %w", targetPath, err))
			continue
		}

		for _, msg := range directive.CheckUnique(targetPath, ds) {
			errCount++
			diagnostics = append(diagnostics, diagnostic{file: targetPath, message: msg})
		}

		targetLabels[targetPath] = computeLabelRanges(ds)
	}
	if fatalErr != nil {
		return fatalExitCode, fmt.Errorf("engine: %w", fatalErr)
	}

	// Phase D: pair validation.
	for _, p := range pairs {
		if suppressedTarget(patterns, p) {
			continue
		}

		fc, ok := changes.Get(p.File)
		triggered := ok && (fc.Added[p.IfLine] || fc.Removed[p.IfLine])
		if !triggered {
			continue
		}

		targetPath, label := resolveTarget(p.File, p.ThenTarget)

		targetFC, ok := changes.Get(targetPath)
		if !ok {
			if notFound[targetPath] || targetMissing(targetPath) {
				continue
			}
			emit(p.File, p.ThenLine, targetNotChangedMsg(p.ifContext(), p.ThenTarget, p.ThenLine, targetPath))
			continue
		}

		if label != "" {
			ranges := targetLabels[targetPath]
			rng, ok := ranges[label]
			if !ok {
				emit(p.File, p.ThenLine, labelNotFoundMsg(p.ifContext(), p.ThenTarget, p.ThenLine, targetPath, label, availableLabels(ranges)))
				continue
			}
			inRange := changesInRange(targetFC, rng)
			if len(inRange) == 0 {
				emit(p.File, p.ThenLine, labelRangeEmptyMsg(p.ifContext(), p.ThenTarget, p.ThenLine, targetPath, label, rng, allChanges(targetFC)))
			}
			continue
		}

		if len(allChanges(targetFC)) == 0 {
			emit(p.File, p.ThenLine, fileRangeEmptyMsg(p.ifContext(), p.ThenTarget, p.ThenLine, targetPath))
		}
	}

	// Phase E: finalize. cache.close() runs via defer above regardless
	// of which return path is taken.
	sort.SliceStable(diagnostics, func(i, j int) bool {
		if diagnostics[i].file != diagnostics[j].file {
			return diagnostics[i].file < diagnostics[j].file
		}
		return diagnostics[i].line < diagnostics[j].line
	})
	for _, d := range diagnostics {
		fmt.Fprintln(out, d.String())
	}

	if errCount > 0 {
		return 1, nil
	}
	return 0, nil
}

// orphan records a Phase B orphan-ThenChange or orphan-IfChange
// finding, deferred until after ignore-pattern filtering so the
// pairing walk itself stays a pure state machine.
type orphan struct {
	isThenOrphan bool
	line         int
	target       string // set when isThenOrphan
	label        string // set when !isThenOrphan
}

// pairDirectives runs a single-pass pairing state machine over a
// file's directive list: the first ThenChange after an IfChange
// clears the orphan flag, but every ThenChange in the block still
// forms its own Pair.
func pairDirectives(file string, ds []directive.Directive) ([]Pair, []orphan) {
	var pairs []Pair
	var orphans []orphan

	var haveIf bool
	var ifLine int
	var ifLabel string
	sawThen := false

	for _, d := range ds {
		switch d.Kind {
		case directive.KindIfChange:
			// A new IfChange simply replaces ifLine/ifLabel/sawThen;
			// an unclosed prior block is only ever detected at
			// end-of-file against the *last* IfChange seen, a single
			// latch rather than a stack of pending blocks.
			haveIf = true
			ifLine = d.Line
			ifLabel = d.Label
			sawThen = false
		case directive.KindThenChange:
			if !haveIf {
				orphans = append(orphans, orphan{isThenOrphan: true, line: d.Line, target: d.Target})
				continue
			}
			pairs = append(pairs, Pair{File: file, IfLine: ifLine, IfLabel: ifLabel, ThenTarget: d.Target, ThenLine: d.Line})
			sawThen = true
		case directive.KindLabel, directive.KindEndLabel:
			// Irrelevant to source-side pairing; label stacks are
			// only walked when a file is visited as a ThenChange
			// target (Phase C).
		}
	}
	if haveIf && !sawThen {
		orphans = append(orphans, orphan{line: ifLine, label: ifLabel})
	}

	return pairs, orphans
}

// computeLabelRanges walks ds with a label stack: Label pushes
// {name, startLine=line+1}; EndLabel pops and records
// name -> [startLine, line-1].
func computeLabelRanges(ds []directive.Directive) labelRanges {
	ranges := make(labelRanges)
	type open struct {
		name  string
		start int
	}
	var stack []open

	for _, d := range ds {
		switch d.Kind {
		case directive.KindLabel:
			stack = append(stack, open{name: d.Label, start: d.Line + 1})
		case directive.KindEndLabel:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			ranges[top.name] = LineRange{Start: top.start, End: d.Line - 1}
		}
	}
	return ranges
}

// resolveTarget resolves a ThenChange target relative to the file
// that declared it: split target at "#"; an empty path part resolves
// to sourceFile itself; an absolute path part is used as-is;
// otherwise it resolves relative to dirname(sourceFile). Pure:
// touches no filesystem state.
func resolveTarget(sourceFile, target string) (path, label string) {
	pathPart, labelPart := splitTarget(target)
	switch {
	case pathPart == "":
		path = sourceFile
	case filepath.IsAbs(pathPart):
		path = pathPart
	default:
		path = filepath.Join(filepath.Dir(sourceFile), pathPart)
	}
	return path, labelPart
}

func splitTarget(target string) (pathPart, label string) {
	if idx := strings.Index(target, "#"); idx >= 0 {
		return target[:idx], target[idx+1:]
	}
	return target, ""
}

// suppressedTarget applies ignore-pattern filtering to a pair: an
// IfChange-labeled scenario match, or a direct target match,
// suppresses the pair entirely.
func suppressedTarget(patterns []ignorepat.Pattern, p Pair) bool {
	if p.IfLabel != "" && ignorepat.MatchesLabeled(patterns, filepath.Base(p.File), p.IfLabel) {
		return true
	}
	return ignorepat.AnyMatchesTarget(patterns, p.ThenTarget)
}

// unionLines computes (added ∪ removed) as a deduplicated set: the
// same line number commonly appears in both when a hunk replaces a
// line in place.
func unionLines(fc *diffparse.FileChanges) map[int]bool {
	out := make(map[int]bool, len(fc.Added)+len(fc.Removed))
	for line := range fc.Added {
		out[line] = true
	}
	for line := range fc.Removed {
		out[line] = true
	}
	return out
}

func changesInRange(fc *diffparse.FileChanges, rng LineRange) []int {
	var out []int
	for line := range unionLines(fc) {
		if line >= rng.Start && line <= rng.End {
			out = append(out, line)
		}
	}
	return out
}

func allChanges(fc *diffparse.FileChanges) []int {
	union := unionLines(fc)
	out := make([]int, 0, len(union))
	for line := range union {
		out = append(out, line)
	}
	return out
}

func availableLabels(ranges labelRanges) []string {
	out := make([]string, 0, len(ranges))
	for name := range ranges {
		out = append(out, name)
	}
	return out
}

// targetMissing probes whether targetFile genuinely does not exist on
// disk, as opposed to merely being absent from the diff's
// changed-file set.
func targetMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}
