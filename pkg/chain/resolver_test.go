package chain

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func newChain(t *testing.T, files ...string) *FileChain {
	t.Helper()
	fc := New(nil, WithComparer(CaseSensitive))
	for _, f := range files {
		require.NoError(t, fc.PushFile(f))
	}
	return fc
}

func render(t *testing.T, fc *FileChain) (string, Stats) {
	t.Helper()
	out, stats, err := fc.Render()
	require.NoError(t, err)
	return string(out), stats
}

// section returns the text between path's begin and end markers.
func section(t *testing.T, out, path string) string {
	t.Helper()
	begin := strings.Index(out, beginMarker(path))
	require.GreaterOrEqual(t, begin, 0, "missing begin marker for %s", path)
	end := strings.Index(out, endMarker(path))
	require.Greater(t, end, begin, "missing end marker for %s", path)
	return out[begin+len(beginMarker(path)) : end]
}

func TestRenderInlinesInclude(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \"c.h\"\nint a;\n")
	c := writeFile(t, filepath.Join(dir, "c.h"), "int c;\n")

	out, stats := render(t, newChain(t, a, c))

	want := beginMarker(a) +
		beginMarker(c) + "int c;\n" + endMarker(c) +
		"int a;\n" + endMarker(a)
	assert.Equal(t, want, out)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Inlined)
	assert.Zero(t, stats.Verbatim)
	assert.Equal(t, len(want), stats.Bytes)
	assert.NoError(t, stats.Unreadable)
}

func TestRenderEmptySet(t *testing.T) {
	out, stats := render(t, New(nil))
	assert.Empty(t, out)
	assert.Zero(t, stats.Files)
}

func TestRenderIsIdempotent(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \"b.h\"\nint a;\n")
	b := writeFile(t, filepath.Join(dir, "b.h"), "#include <stdio.h>\nint b;\n")

	fc := newChain(t, a, b)
	first, _ := render(t, fc)
	second, _ := render(t, fc)
	assert.Equal(t, first, second)
}

func TestRenderInlinesSharedHeaderOnce(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \"c.h\"\nint a;\n")
	b := writeFile(t, filepath.Join(dir, "b.c"), "#include \"c.h\"\nint b;\n")
	c := writeFile(t, filepath.Join(dir, "c.h"), "int shared;\n")

	out, stats := render(t, newChain(t, a, b, c))

	assert.Equal(t, 1, strings.Count(out, "int shared;"))
	assert.Equal(t, 1, strings.Count(out, beginMarker(c)))
	assert.Contains(t, section(t, out, a), "int shared;")
	assert.NotContains(t, section(t, out, b), "int shared;")
	assert.NotContains(t, out, `#include "c.h"`)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 2, stats.Inlined)
}

func TestRenderDetectsCycle(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.h"), "#include \"b.h\"\n")
	b := writeFile(t, filepath.Join(dir, "b.h"), "#include \"a.h\"\n")

	out, _, err := newChain(t, a, b).Render()
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrCircularInclude))

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, a, cycle.Path)
	assert.Equal(t, []string{a, b, a}, cycle.Chain)
	assert.Contains(t, err.Error(), a)
}

func TestRenderDetectsSelfInclude(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "self.h"), "int x;\n#include \"self.h\"\n")

	_, _, err := newChain(t, a).Render()
	assert.ErrorIs(t, err, ErrCircularInclude)
}

func TestRenderLeavesNonEligibleIncludeVerbatim(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \"d.h\"\n#  include <missing.h>\nint a;\n")
	writeFile(t, filepath.Join(dir, "d.h"), "int d;\n")

	out, stats := render(t, newChain(t, a))

	assert.Equal(t, "#include \"d.h\"\n#  include <missing.h>\nint a;\n", section(t, out, a))
	assert.NotContains(t, out, "int d;")
	assert.Equal(t, 2, stats.Verbatim)
	assert.Zero(t, stats.Inlined)
}

func TestRenderSearchDirectoryPriority(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "src", "a.c"), "#include \"t.h\"\n#include <only.h>\n")
	local := writeFile(t, filepath.Join(dir, "src", "t.h"), "local\n")
	global := writeFile(t, filepath.Join(dir, "inc", "t.h"), "global\n")
	only := writeFile(t, filepath.Join(dir, "inc", "only.h"), "only\n")

	fc := newChain(t, a, local, global, only)
	fc.AddIncludeDir(filepath.Join(dir, "inc"))
	out, _ := render(t, fc)

	body := section(t, out, a)
	assert.Contains(t, body, "local\n")
	assert.NotContains(t, body, "global")
	assert.NotContains(t, body, "only\n", "only.h is emitted earlier at top level")
	assert.NotContains(t, body, "#include")
}

func TestRenderIncludeDirectoriesInOrder(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "src", "a.c"), "#include \"t.h\"\n")
	first := writeFile(t, filepath.Join(dir, "z1", "t.h"), "first\n")
	second := writeFile(t, filepath.Join(dir, "y2", "t.h"), "second\n")

	fc := newChain(t, a, first, second)
	fc.AddIncludeDir(filepath.Join(dir, "z1"))
	fc.AddIncludeDir(filepath.Join(dir, "y2"))
	out, _ := render(t, fc)

	body := section(t, out, a)
	assert.Contains(t, body, "first\n")
	assert.NotContains(t, body, "second")
}

func TestRenderSubdirectoryTarget(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \"sub/x.h\"\n#include \"../outside.h\"\n")
	x := writeFile(t, filepath.Join(dir, "sub", "x.h"), "x\n")

	out, stats := render(t, newChain(t, a, x))
	assert.Contains(t, section(t, out, a), beginMarker(x)+"x\n"+endMarker(x))
	assert.Equal(t, 1, stats.Verbatim)
}

func TestRenderLineContinuation(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \\\n\"c.h\"\nint x = \\\n\\\n 1;\n")
	c := writeFile(t, filepath.Join(dir, "c.h"), "int c;\n")

	out, stats := render(t, newChain(t, a, c))

	body := section(t, out, a)
	assert.Equal(t, beginMarker(c)+"int c;\n"+endMarker(c)+"int x =  1;\n", body)
	assert.Equal(t, 1, stats.Inlined)
}

func TestRenderPendingContinuationAtEOF(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "int a; \\")

	out, _ := render(t, newChain(t, a))
	assert.Equal(t, "int a; \n", section(t, out, a))
}

func TestRenderPreservesEmptyLines(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "a\n\n\nb")

	out, _ := render(t, newChain(t, a))
	assert.Equal(t, "a\n\n\nb\n", section(t, out, a))
}

func TestRenderUnreadableFile(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "int a;\n")
	gone := writeFile(t, filepath.Join(dir, "gone.c"), "int gone;\n")

	fc := newChain(t, a, gone)
	require.NoError(t, os.Remove(gone))

	out, stats := render(t, fc)
	assert.Contains(t, out, "int a;")
	assert.NotContains(t, out, beginMarker(gone))
	assert.Equal(t, 1, stats.Files)
	require.Error(t, stats.Unreadable)
	assert.Len(t, multierr.Errors(stats.Unreadable), 1)
	assert.Contains(t, stats.Unreadable.Error(), gone)
}

func TestResolveInclude(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "src", "a.c"), "")
	local := writeFile(t, filepath.Join(dir, "src", "l.h"), "")
	inc := writeFile(t, filepath.Join(dir, "inc", "g.h"), "")
	writeFile(t, filepath.Join(dir, "inc", "skip.h"), "")

	fc := newChain(t, a, local, inc)
	fc.AddIncludeDir(filepath.Join(dir, "inc"))

	got, ok := fc.resolveInclude(a, "l.h")
	assert.True(t, ok)
	assert.Equal(t, local, got)

	got, ok = fc.resolveInclude(a, "g.h")
	assert.True(t, ok)
	assert.Equal(t, inc, got)

	_, ok = fc.resolveInclude(a, "skip.h")
	assert.False(t, ok, "exists on disk but not eligible")

	_, ok = fc.resolveInclude(a, "nope.h")
	assert.False(t, ok)
}

func TestGenerateWritesOutput(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "int a;\n")
	output := filepath.Join(dir, "out", "nested", "bundle.c")
	writeFile(t, output, "stale content that must be replaced")

	fc := newChain(t, a)
	stats, err := fc.Generate(output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	want, _ := render(t, fc)
	assert.Equal(t, want, string(data))
	assert.Equal(t, len(data), stats.Bytes)
}

func TestGenerateReportsUnwritableOutput(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "int a;\n")
	blocker := writeFile(t, filepath.Join(dir, "blocker"), "")

	_, err := newChain(t, a).Generate(filepath.Join(blocker, "out.c"))
	assert.Error(t, err)
}

func TestGenerateSkipsOutputOnCycle(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.h"), "#include \"b.h\"\n")
	b := writeFile(t, filepath.Join(dir, "b.h"), "#include \"a.h\"\n")
	output := filepath.Join(dir, "out.c")

	_, err := newChain(t, a, b).Generate(output)
	require.ErrorIs(t, err, ErrCircularInclude)
	assert.NoFileExists(t, output)
}

func TestRenderUnreadableIncludeExpandsToNothing(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \"locked.h\"\nint a;\n")
	locked := writeFile(t, filepath.Join(dir, "locked.h"), "int locked;\n")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	out, stats := render(t, newChain(t, a, locked))

	assert.Equal(t, "int a;\n", section(t, out, a))
	assert.NotContains(t, out, beginMarker(locked))
	assert.Zero(t, stats.Inlined)
	assert.Zero(t, stats.Verbatim)
	assert.Equal(t, 1, stats.Files)
	require.Error(t, stats.Unreadable)
	assert.Len(t, multierr.Errors(stats.Unreadable), 1, "a failed file is reported once")
}

func TestRenderRejectsDirectory(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \"c.h\"\nint a;\n")
	c := filepath.Join(dir, "c.h")
	require.NoError(t, os.Mkdir(c, 0o755))

	out, stats := render(t, newChain(t, a, c))

	assert.Equal(t, "int a;\n", section(t, out, a))
	assert.NotContains(t, out, beginMarker(c))
	assert.Equal(t, 1, stats.Files)
	assert.Zero(t, stats.Inlined)
	require.Error(t, stats.Unreadable)
	assert.Len(t, multierr.Errors(stats.Unreadable), 1)
	assert.Contains(t, stats.Unreadable.Error(), "not a regular file")
}

func TestRenderLongLine(t *testing.T) {
	dir := tempDir(t)
	long := strings.Repeat("x", 256*1024)
	a := writeFile(t, filepath.Join(dir, "a.c"), long+"\nint after;\n")

	out, stats := render(t, newChain(t, a))

	assert.Equal(t, long+"\nint after;\n", section(t, out, a))
	assert.NoError(t, stats.Unreadable)
}

func TestRenderCRLFInput(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, filepath.Join(dir, "a.c"), "#include \\\r\n\"c.h\"\r\nint x = \\\r\n 1;\r\n\r\nend")
	c := writeFile(t, filepath.Join(dir, "c.h"), "int c;\r\n")

	out, stats := render(t, newChain(t, a, c))

	assert.Equal(t, beginMarker(c)+"int c;\n"+endMarker(c)+"int x =  1;\n\nend\n", section(t, out, a))
	assert.NotContains(t, out, "\r")
	assert.Equal(t, 1, stats.Inlined)
}
