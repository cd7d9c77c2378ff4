package directive

import (
	"sort"
	"strings"

	"github.com/bazelbuild/buildtools/build"
)

// starlarkLexer extracts comments from BUILD/BUILD.bazel/WORKSPACE and
// .bzl/.star files using the real Bazel build-language parser, so that
// a "#" inside a string literal (load() labels, glob patterns) is
// never mistaken for a comment start the way a naive line scanner
// would. On a parse error it falls back to the generic "#" lexer.
type starlarkLexer struct{}

func (starlarkLexer) Comments(path string, src []byte) []Comment {
	if path == "" {
		path = "BUILD"
	}
	f, err := build.Parse(path, src)
	if err != nil {
		return hashLexer{}.Comments(path, src)
	}

	var out []Comment
	seen := make(map[int]bool)
	add := func(line int, token string) {
		if seen[line] {
			return
		}
		seen[line] = true
		out = append(out, Comment{StartLine: line, Lines: []string{strings.TrimPrefix(token, "#")}})
	}

	for _, stmt := range f.Stmt {
		build.Walk(stmt, func(x build.Expr, stk []build.Expr) {
			comments := x.Comment()
			for _, c := range comments.Before {
				add(c.Start.Line, c.Token)
			}
			for _, c := range comments.Suffix {
				add(c.Start.Line, c.Token)
			}
			for _, c := range comments.After {
				add(c.Start.Line, c.Token)
			}
		})
	}
	// The pre-order walk emits a node's After comments before its
	// children's comments; restore textual order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}
