package diffparse

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Parse converts diffText into a ChangeSet keyed by the new-side path
// of every file the diff touches.
//
// Structural unified-diff errors are fatal and returned as err;
// per-path decoding anomalies are always best-effort and never cause
// a failure.
func Parse(diffText string) (*ChangeSet, error) {
	filtered := prefilter(diffText)

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(filtered))
	if err != nil {
		return nil, fmt.Errorf("diffparse: malformed unified diff: %w", err)
	}

	cs := newChangeSet()
	for _, fd := range fileDiffs {
		if fd.NewName == "/dev/null" {
			continue
		}

		rawPath := fd.NewName
		if rawPath == "" || rawPath == "/dev/null" {
			rawPath = fd.OrigName
		}
		path := decodePath(rawPath)

		fc := cs.getOrCreate(path)
		for _, h := range fd.Hunks {
			walkHunk(fc, h)
		}
	}

	return cs, nil
}

// prefilter drops version-control "diff " headers and any "--- "/"+++ "
// line whose continuation is not a single-character-prefix path or
// "/dev/null", so body lines that merely start with those sequences
// (e.g. a horizontal rule inside a patched file) are never mistaken
// for file headers.
func prefilter(diffText string) string {
	lines := strings.Split(diffText, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "diff ") {
			continue
		}
		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") {
			rest := line[4:]
			if !looksLikeFileHeaderPath(rest) {
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func looksLikeFileHeaderPath(rest string) bool {
	if strings.HasPrefix(rest, "/dev/null") {
		return true
	}
	unquoted := stripQuotes(rest)
	return len(unquoted) >= 2 && unquoted[1] == '/'
}

// walkHunk replays one hunk's body against a pair of line counters:
// oldLine starts at OrigStartLine, newLine at NewStartLine; "add"
// records newLine then advances it, "del" records oldLine then
// advances it, context advances both without recording.
func walkHunk(fc *FileChanges, h *godiff.Hunk) {
	oldLine := int(h.OrigStartLine)
	newLine := int(h.NewStartLine)

	body := string(h.Body)
	if body == "" {
		return
	}
	// Body may or may not end with a trailing newline; split and drop
	// a single resulting empty tail element.
	rawLines := strings.Split(body, "\n")
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	for _, line := range rawLines {
		if line == "" {
			oldLine++
			newLine++
			continue
		}
		switch line[0] {
		case '+':
			fc.Added[newLine] = true
			newLine++
		case '-':
			fc.Removed[oldLine] = true
			oldLine++
		case '\\':
			// "\ No newline at end of file" — not a content line.
		default:
			oldLine++
			newLine++
		}
	}
}
