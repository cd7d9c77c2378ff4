// Package scancmd is the file-discovery collaborator kept external to
// the linting core: it shells out to a text-search utility to find
// candidate source files during a repository-wide scan, rather than
// reimplementing directory-tree search.
package scancmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoHits is returned as the error from Find when the search tool
// reports its defined "no matches" exit status (1), which is not
// itself a failure — it just means the scan found nothing.
var ErrNoHits = &noHitsError{}

type noHitsError struct{}

func (*noHitsError) Error() string { return "scancmd: no files matched" }

// Find runs ripgrep (rg) against dir, listing files that contain the
// literal substring "LINT." — the candidate set RunScan hands to the
// directive extractor. Any exit status other than 0 (hits) or 1 (no
// hits) is treated as fatal.
func Find(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "rg", "-l", "--no-messages", "--", `LINT\.`, dir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return splitLines(stdout.String()), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 1 {
			return nil, ErrNoHits
		}
		return nil, &fatalExitError{code: exitErr.ExitCode(), stderr: stderr.String()}
	}
	return nil, err
}

// fatalExitError reports a scan-tool exit status outside {0, 1}.
type fatalExitError struct {
	code   int
	stderr string
}

func (e *fatalExitError) Error() string {
	msg := "scancmd: search tool exited " + strconv.Itoa(e.code)
	if e.stderr != "" {
		msg += ": " + strings.TrimSpace(e.stderr)
	}
	return msg
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
