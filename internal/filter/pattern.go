package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// PatternError reports a glob that failed to compile.
type PatternError struct {
	Kind    string // "include" or "exclude"
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid --%s glob %q: %v", e.Kind, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// pattern is a compiled glob. Patterns without a slash are unanchored and
// match the base name or any trailing run of path components; patterns
// containing a slash match the whole path.
type pattern struct {
	g        glob.Glob
	original string
	anchored bool
}

func compilePattern(kind, src string) (*pattern, error) {
	expr := strings.TrimSuffix(src, "/")
	anchored := strings.Contains(expr, "/")
	expr = strings.TrimPrefix(expr, "/")

	g, err := glob.Compile(expr, '/')
	if err != nil {
		return nil, &PatternError{Kind: kind, Pattern: src, Err: err}
	}
	return &pattern{g: g, original: src, anchored: anchored}, nil
}

func (p *pattern) match(path string) bool {
	if p.anchored {
		return p.g.Match(path)
	}
	for {
		if p.g.Match(path) {
			return true
		}
		i := strings.IndexByte(path, '/')
		if i < 0 {
			return false
		}
		path = path[i+1:]
	}
}

// normalize turns an OS path into the slash-separated, root-relative form
// patterns are matched against.
func normalize(path string) string {
	return strings.TrimLeft(filepath.ToSlash(filepath.Clean(path)), "/")
}
