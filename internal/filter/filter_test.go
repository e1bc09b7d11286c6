package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySetAcceptsAll(t *testing.T) {
	s := NewPatternSet()
	assert.True(t, s.Accepts("any/file.txt"))
	assert.True(t, s.AcceptsSize(1<<40))
	assert.True(t, s.Empty())

	var nilSet *PatternSet
	assert.True(t, nilSet.Accepts("x"))
	assert.True(t, nilSet.Empty())
}

func TestExcludePattern(t *testing.T) {
	s := NewPatternSet()
	require.NoError(t, s.AddExclude("*.log"))

	assert.False(t, s.Accepts("app.log"))
	assert.False(t, s.Accepts("sub/debug.log"))
	assert.True(t, s.Accepts("app.txt"))
	assert.False(t, s.Empty())
}

func TestIncludeRescuesExcluded(t *testing.T) {
	// Order of flags does not matter: include always rescues.
	s, err := Compile([]string{"important.log"}, []string{"*.log"})
	require.NoError(t, err)

	assert.True(t, s.Accepts("important.log"))
	assert.True(t, s.Accepts("logs/important.log"))
	assert.False(t, s.Accepts("debug.log"))
}

func TestIncludeIsNotAllowList(t *testing.T) {
	s, err := Compile([]string{"*.go"}, nil)
	require.NoError(t, err)

	assert.True(t, s.Accepts("main.go"))
	assert.True(t, s.Accepts("README.md"), "without excludes every path is accepted")
}

func TestExcludedDirectoryPath(t *testing.T) {
	s, err := Compile(nil, []string{"*.tmp", "node_modules"})
	require.NoError(t, err)

	assert.False(t, s.Accepts("a/skip.tmp"))
	assert.True(t, s.Accepts("a/keep.txt"))
	assert.True(t, s.Accepts("a"))
	assert.False(t, s.Accepts("web/node_modules"))
	assert.True(t, s.Accepts("web/node_modules_old"))
}

func TestAnchoredPattern(t *testing.T) {
	s, err := Compile(nil, []string{"/root.txt", "sub/dir/*.txt"})
	require.NoError(t, err)

	assert.False(t, s.Accepts("root.txt"))
	assert.True(t, s.Accepts("sub/root.txt"))
	assert.False(t, s.Accepts("sub/dir/file.txt"))
	assert.True(t, s.Accepts("other/sub/dir/file.txt"))
}

func TestNormalizedCandidates(t *testing.T) {
	s, err := Compile(nil, []string{"a/*.tmp"})
	require.NoError(t, err)

	assert.False(t, s.Accepts("./a/x.tmp"))
	assert.False(t, s.Accepts("/a/x.tmp"))
	assert.False(t, s.Accepts("a//x.tmp"))
}

func TestMalformedPattern(t *testing.T) {
	_, err := Compile(nil, []string{"[abc"})
	require.Error(t, err)

	var perr *PatternError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "exclude", perr.Kind)
	assert.Equal(t, "[abc", perr.Pattern)
	assert.Contains(t, err.Error(), `--exclude glob "[abc"`)

	_, err = Compile([]string{"[abc"}, nil)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "include", perr.Kind)
}

func TestSizeBounds(t *testing.T) {
	s := NewPatternSet()
	s.SetMinSize(100)
	s.SetMaxSize(10000)

	assert.False(t, s.AcceptsSize(50))
	assert.True(t, s.AcceptsSize(500))
	assert.False(t, s.AcceptsSize(50000))
	assert.False(t, s.Empty())
}

func TestPatterns(t *testing.T) {
	s, err := Compile([]string{"keep.tmp"}, []string{"*.tmp", "*.bak"})
	require.NoError(t, err)

	inc, exc := s.Patterns()
	assert.Equal(t, []string{"keep.tmp"}, inc)
	assert.Equal(t, []string{"*.tmp", "*.bak"}, exc)
}
