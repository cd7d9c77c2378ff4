package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ebrevdo/ifttt-lint/directive"
	"github.com/ebrevdo/ifttt-lint/iftttlog"
	"github.com/ebrevdo/ifttt-lint/scancmd"
)

// RunScan runs a repository-wide scan: it asks the scancmd
// collaborator for every file under dir containing the literal
// substring "LINT.", runs the directive extractor and uniqueness
// validator on each through the same bounded worker pool LintDiff
// uses, and returns 1 iff any uniqueness violation occurred across the
// whole scan, 0 otherwise. Unlike LintDiff, scan mode has no diff to
// cross-reference pairs against — it only checks that directives are
// internally well-formed and their labels are unique.
func RunScan(ctx context.Context, dir string, parallelism int, verbose bool) (int, error) {
	logger := iftttlog.New(verbose)
	defer func() { _ = logger.Sync() }()

	files, err := scancmd.Find(ctx, dir)
	if err != nil {
		if errors.Is(err, scancmd.ErrNoHits) {
			logger.Sugar().Debugf("scan of %s found no LINT. occurrences", dir)
			return 0, nil
		}
		return fatalExitCode, fmt.Errorf("engine: scan discovery: %w", err)
	}

	cache := newParseCache(parallelism)
	defer cache.close()

	// Schedule every file with the pool before awaiting any of them,
	// the same fan-out-then-drain shape LintDiff uses.
	for _, file := range files {
		cache.start(file)
	}

	errCount := 0
	for _, file := range files {
		ds, err := cache.get(file)
		if err != nil {
			return fatalExitCode, fmt.Errorf("engine: parsing %s: %w", file, err)
		}
		for _, msg := range directive.CheckUnique(file, ds) {
			fmt.Fprintf(os.Stdout, "[ifttt] %s\n", msg)
			errCount++
		}
	}

	if errCount > 0 {
		return 1, nil
	}
	return 0, nil
}
