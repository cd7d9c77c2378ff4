package directive

import (
	"path/filepath"
	"strings"
)

// Lexer extracts comment spans from raw source bytes. path is passed
// alongside src so a lexer backed by a real parser (e.g. buildtools,
// which picks its grammar dialect from the filename) can dispatch
// correctly.
type Lexer interface {
	// Comments returns every comment in src, in textual order.
	Comments(path string, src []byte) []Comment
}

// slashExtensions use "//" line comments and "/* ... */" block
// comments, the default comment family for unrecognized extensions.
var slashExtensions = map[string]bool{
	"ts": true, "js": true, "java": true, "c": true, "cc": true,
	"cpp": true, "h": true, "hpp": true, "cs": true, "go": true,
	"rs": true, "swift": true, "kt": true, "kts": true, "scala": true,
	"php": true,
}

// hashExtensions use "#" line comments.
var hashExtensions = map[string]bool{
	"py": true, "rb": true, "sh": true, "bash": true, "zsh": true,
}

// starlarkExtensions get comment extraction via a real Starlark/Bazel
// parser (bazelbuild/buildtools) instead of the generic "#" regex
// lexer, since BUILD-family files commonly embed "#" inside string
// literals (load() labels, glob patterns) that a naive scanner could
// misread as comment starts.
var starlarkExtensions = map[string]bool{
	"bzl": true, "star": true, "sky": true,
}

var starlarkBasenames = map[string]bool{
	"BUILD": true, "BUILD.bazel": true, "WORKSPACE": true, "WORKSPACE.bazel": true,
}

var yamlExtensions = map[string]bool{
	"yaml": true, "yml": true,
}

// LexerFor selects a comment lexer for a file path by extension.
// Unrecognized extensions fall back to the "//"+"/* */" family.
func LexerFor(path string) Lexer {
	base := filepath.Base(path)
	if starlarkBasenames[base] {
		return starlarkLexer{}
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch {
	case starlarkExtensions[ext]:
		return starlarkLexer{}
	case yamlExtensions[ext]:
		return yamlLexer{}
	case hashExtensions[ext]:
		return hashLexer{}
	case slashExtensions[ext]:
		return slashLexer{}
	case ext == "":
		return slashLexer{}
	default:
		return slashLexer{}
	}
}
