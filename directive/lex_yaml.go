package directive

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlLexer extracts comments from YAML documents via yaml.Node's
// HeadComment/LineComment/FootComment fields, rather than a naive "#"
// scan, so that "#" inside quoted scalar values is never mistaken for
// a comment. On a decode error it falls back to the generic "#"
// lexer.
type yamlLexer struct{}

func (yamlLexer) Comments(path string, src []byte) []Comment {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return hashLexer{}.Comments(path, src)
	}

	var out []Comment
	walkYAMLNode(&doc, &out)
	// The walk emits a node's foot comment before its children's
	// comments; restore textual order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}

func walkYAMLNode(n *yaml.Node, out *[]Comment) {
	if n == nil {
		return
	}
	emitYAMLComment(n.HeadComment, n.Line-countLines(n.HeadComment), out)
	emitYAMLComment(n.LineComment, n.Line, out)
	emitYAMLComment(n.FootComment, n.Line+1, out)

	for _, c := range n.Content {
		walkYAMLNode(c, out)
	}
}

func emitYAMLComment(text string, startLine int, out *[]Comment) {
	if text == "" {
		return
	}
	if startLine < 1 {
		startLine = 1
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimPrefix(lines[i], "#")
	}
	*out = append(*out, Comment{StartLine: startLine, Lines: lines})
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
