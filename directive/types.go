// Package directive parses LINT.* comment directives out of source
// files across many comment syntaxes and validates label uniqueness
// within a file.
package directive

import "fmt"

// Kind identifies which of the four directive variants a Directive is.
type Kind int

const (
	// KindIfChange marks the start of a conditional region.
	KindIfChange Kind = iota
	// KindThenChange requires changes in a target.
	KindThenChange
	// KindLabel opens a named region.
	KindLabel
	// KindEndLabel closes the innermost open label.
	KindEndLabel
)

func (k Kind) String() string {
	switch k {
	case KindIfChange:
		return "IfChange"
	case KindThenChange:
		return "ThenChange"
	case KindLabel:
		return "Label"
	case KindEndLabel:
		return "EndLabel"
	default:
		return "Unknown"
	}
}

// Directive is one LINT.* token found inside a source-file comment,
// together with its 1-based source line number.
type Directive struct {
	Kind Kind
	Line int

	// Label is set for KindIfChange (optional) and KindLabel (required).
	Label string

	// Target is set for KindThenChange: "path", "path#label", or "#label".
	Target string
}

// Comment is a single comment span extracted from a source file: the
// interior text (marker stripped) split into logical lines, the first
// of which starts at StartLine.
type Comment struct {
	// StartLine is the 1-based line number of the comment's opening
	// marker.
	StartLine int
	// Lines holds the comment's interior text, one entry per logical
	// source line, in order.
	Lines []string
}

// MalformedError reports a directive whose grammar could not be
// matched. Scanning a file stops at the first one.
type MalformedError struct {
	Path string
	Line int
	Text string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s:%d: malformed LINT directive: %q", e.Path, e.Line, e.Text)
}
