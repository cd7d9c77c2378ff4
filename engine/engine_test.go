package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func diffFor(t *testing.T, dir, name string, oldLines, newLines []string, oldStart, newStart int) string {
	t.Helper()
	var b bytes.Buffer
	fmt.Fprintf(&b, "--- a/%s\n", name)
	fmt.Fprintf(&b, "+++ b/%s\n", name)
	fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", oldStart, len(oldLines), newStart, len(newLines))
	for _, l := range oldLines {
		fmt.Fprintf(&b, "-%s\n", l)
	}
	for _, l := range newLines {
		fmt.Fprintf(&b, "+%s\n", l)
	}
	return b.String()
}

// S1 — happy path: both the IfChange trigger and its ThenChange
// target are changed in the same diff.
func TestLintDiff_S1_HappyPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.ts", "// LINT.IfChange\n// LINT.ThenChange(\"file2.ts\")\n")
	writeFile(t, dir, "file2.ts", "// LINT.Label(\"dummy\")\n// LINT.EndLabel\n")

	diffText := diffFor(t, dir, "file1.ts", []string{"// LINT.IfChange"}, []string{"// LINT.IfChange changed"}, 1, 1) +
		diffFor(t, dir, "file2.ts", []string{"// LINT.Label(\"dummy\")"}, []string{"// LINT.Label(\"dummy\") changed"}, 1, 1)

	var out bytes.Buffer
	code, err := lintDiffInDir(t, dir, &out, diffText)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Empty(t, out.String())
}

// S2 — unchanged target: only the IfChange side changes.
func TestLintDiff_S2_UnchangedTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.ts", "// LINT.IfChange\n// LINT.ThenChange(\"file2.ts\")\n")
	writeFile(t, dir, "file2.ts", "// LINT.Label(\"dummy\")\n// LINT.EndLabel\n")

	diffText := diffFor(t, dir, "file1.ts", []string{"// LINT.IfChange"}, []string{"// LINT.IfChange changed"}, 1, 1)

	var out bytes.Buffer
	code, err := lintDiffInDir(t, dir, &out, diffText)
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "target file 'file2.ts' not changed.")
}

// S3 — labeled context: the IfContext string in the diagnostic
// includes the IfChange's own label.
func TestLintDiff_S3_LabeledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.ts", "// LINT.IfChange('g')\n// LINT.ThenChange(\"file2.ts\")\n")
	writeFile(t, dir, "file2.ts", "// nothing relevant\n")

	diffText := diffFor(t, dir, "file1.ts", []string{"// LINT.IfChange('g')"}, []string{"// LINT.IfChange('g') changed"}, 1, 1)

	var out bytes.Buffer
	code, err := lintDiffInDir(t, dir, &out, diffText)
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "file1.ts#g:1 -> ThenChange 'file2.ts' (line 2)")
}

// S4 — labeled target range: an in-range change passes, an
// out-of-range change is reported with the full actual-changes list.
func TestLintDiff_S4_LabelRange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.ts", "// LINT.IfChange\n// LINT.ThenChange(\"file2.ts#label1\")\n")
	writeFile(t, dir, "file2.ts",
		"line1\n"+
			"// LINT.Label(\"label1\")\n"+
			"line3\n"+
			"// LINT.EndLabel\n"+
			"line5\n"+
			"line6\n")

	t.Run("in range", func(t *testing.T) {
		diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1) +
			diffFor(t, dir, "file2.ts", []string{"line3"}, []string{"line3 changed"}, 3, 3)
		var out bytes.Buffer
		code, err := lintDiffInDir(t, dir, &out, diffText)
		require.NoError(t, err)
		require.Equal(t, 0, code)
	})

	t.Run("out of range", func(t *testing.T) {
		diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1) +
			diffFor(t, dir, "file2.ts", []string{"line6"}, []string{"line6 changed"}, 6, 6)
		var out bytes.Buffer
		code, err := lintDiffInDir(t, dir, &out, diffText)
		require.NoError(t, err)
		require.Equal(t, 1, code)
		require.Contains(t, out.String(), "'file2.ts#label1' (3-3)")
		require.Contains(t, out.String(), "Actual changes in file: [6]")
	})
}

// S5 — orphan ThenChange and orphan IfChange.
func TestLintDiff_S5_Orphans(t *testing.T) {
	t.Run("orphan then", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "file1.ts", "// LINT.ThenChange(\"foo.ts\")\n")
		diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1)
		var out bytes.Buffer
		code, err := lintDiffInDir(t, dir, &out, diffText)
		require.NoError(t, err)
		require.Equal(t, 1, code)
		require.Contains(t, out.String(), "unexpected ThenChange 'foo.ts' without preceding IfChange")
	})

	t.Run("orphan if", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "file1.ts", "// LINT.IfChange\n")
		diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1)
		var out bytes.Buffer
		code, err := lintDiffInDir(t, dir, &out, diffText)
		require.NoError(t, err)
		require.Equal(t, 1, code)
		require.Contains(t, out.String(), "missing ThenChange after IfChange")
	})
}

// S6 — ignore patterns suppress both kinds of orphan.
func TestLintDiff_S6_Ignore(t *testing.T) {
	t.Run("ignore target glob", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "file1.ts", "// LINT.ThenChange(\"foo.ts\")\n")
		diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1)
		var out bytes.Buffer
		code, err := lintDiffInDirWithIgnore(t, dir, &out, diffText, []string{"foo.ts"})
		require.NoError(t, err)
		require.Equal(t, 0, code)
	})

	t.Run("ignore labeled scenario", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "file1.ts", "// LINT.IfChange('lblonly')\n")
		diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1)
		var out bytes.Buffer
		code, err := lintDiffInDirWithIgnore(t, dir, &out, diffText, []string{"file1.ts#lblonly"})
		require.NoError(t, err)
		require.Equal(t, 0, code)
	})
}

func TestLintDiff_DuplicateLabel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.ts", "// LINT.IfChange('g')\n// LINT.ThenChange(\"file1.ts\")\n// LINT.Label('g')\n// LINT.EndLabel\n")

	diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1)
	var out bytes.Buffer
	code, err := lintDiffInDir(t, dir, &out, diffText)
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "duplicate directive label 'g'")
}

func TestLintDiff_MalformedDirectiveIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.ts", "// LINT.IfChange(oops\n")
	diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1)

	var out bytes.Buffer
	code, err := lintDiffInDir(t, dir, &out, diffText)
	require.Error(t, err)
	require.Equal(t, fatalExitCode, code)
}

func TestLintDiff_TargetFileNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.ts", "// LINT.IfChange\n// LINT.ThenChange(\"missing.ts\")\n")
	diffText := diffFor(t, dir, "file1.ts", []string{"a"}, []string{"b"}, 1, 1)

	var out bytes.Buffer
	code, err := lintDiffInDir(t, dir, &out, diffText)
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "target file 'missing.ts' not found.")
}

// lintDiffInDir runs lintDiff with the working directory switched to
// dir, since resolveTarget and the parse cache operate on the paths
// exactly as they appear in the diff (relative to the process's CWD).
func lintDiffInDir(t *testing.T, dir string, out *bytes.Buffer, diffText string) (int, error) {
	return lintDiffInDirWithIgnore(t, dir, out, diffText, nil)
}

func lintDiffInDirWithIgnore(t *testing.T, dir string, out *bytes.Buffer, diffText string, ignore []string) (int, error) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	return lintDiff(out, diffText, 2, false, ignore)
}
