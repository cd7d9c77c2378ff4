package directive

import (
	"os"
)

// Extract reads path from disk, selects a comment lexer for it by
// extension, and scans the resulting comments for LINT.* directives.
//
// A directory yields an empty directive list and a nil error: a
// ThenChange target can legitimately point at a directory, and that
// carries no directives of its own. Any other I/O error, including a
// missing file, propagates unchanged — the engine is the layer that
// classifies os.IsNotExist into the soft target-not-found diagnostic,
// so Extract itself never swallows it.
func Extract(path string) ([]Directive, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lexer := LexerFor(path)
	comments := lexer.Comments(path, src)
	return Scan(path, comments)
}
