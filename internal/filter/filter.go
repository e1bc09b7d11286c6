// Package filter decides which scanned paths are kept.
//
// Exclude patterns remove a path; include patterns rescue a path that an
// exclude pattern matched. Include patterns are not an allow-list: a path
// no exclude pattern matches is accepted whether or not an include
// pattern matches it.
package filter

// PatternSet holds compiled include and exclude patterns plus optional
// size bounds. It is built once at startup and read-only afterwards, so
// it is safe for concurrent use.
type PatternSet struct {
	includes []*pattern
	excludes []*pattern
	minSize  int64
	maxSize  int64
}

// NewPatternSet creates an empty set that accepts everything.
func NewPatternSet() *PatternSet {
	return &PatternSet{}
}

// Compile builds a set from include and exclude pattern lists. The first
// malformed pattern aborts compilation with a *PatternError.
func Compile(includes, excludes []string) (*PatternSet, error) {
	s := NewPatternSet()
	for _, p := range includes {
		if err := s.AddInclude(p); err != nil {
			return nil, err
		}
	}
	for _, p := range excludes {
		if err := s.AddExclude(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddExclude compiles and appends an exclude pattern.
func (s *PatternSet) AddExclude(src string) error {
	p, err := compilePattern("exclude", src)
	if err != nil {
		return err
	}
	s.excludes = append(s.excludes, p)
	return nil
}

// AddInclude compiles and appends an include (rescue) pattern.
func (s *PatternSet) AddInclude(src string) error {
	p, err := compilePattern("include", src)
	if err != nil {
		return err
	}
	s.includes = append(s.includes, p)
	return nil
}

// SetMinSize sets the minimum regular-file size. Zero disables the bound.
func (s *PatternSet) SetMinSize(n int64) { s.minSize = n }

// SetMaxSize sets the maximum regular-file size. Zero disables the bound.
func (s *PatternSet) SetMaxSize(n int64) { s.maxSize = n }

// Empty reports whether the set has no patterns and no size bounds.
func (s *PatternSet) Empty() bool {
	return s == nil ||
		len(s.includes) == 0 && len(s.excludes) == 0 && s.minSize == 0 && s.maxSize == 0
}

// Accepts reports whether path survives the filter. A nil set accepts
// every path.
func (s *PatternSet) Accepts(path string) bool {
	if s == nil || len(s.excludes) == 0 {
		return true
	}
	p := normalize(path)
	if !anyMatch(s.excludes, p) {
		return true
	}
	return anyMatch(s.includes, p)
}

// AcceptsSize reports whether a regular file of the given size is within
// the configured bounds.
func (s *PatternSet) AcceptsSize(size int64) bool {
	if s == nil {
		return true
	}
	if s.minSize > 0 && size < s.minSize {
		return false
	}
	if s.maxSize > 0 && size > s.maxSize {
		return false
	}
	return true
}

// Patterns returns the source text of the include and exclude patterns.
func (s *PatternSet) Patterns() (includes, excludes []string) {
	if s == nil {
		return nil, nil
	}
	for _, p := range s.includes {
		includes = append(includes, p.original)
	}
	for _, p := range s.excludes {
		excludes = append(excludes, p.original)
	}
	return includes, excludes
}

func anyMatch(patterns []*pattern, path string) bool {
	for _, p := range patterns {
		if p.match(path) {
			return true
		}
	}
	return false
}
