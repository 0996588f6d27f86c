package differ

import "time"

// DiffConfig controls how a page and its injected rendition are compared
type DiffConfig struct {
	// Merge line runs that only coincidentally match, such as a shared
	// closing tag between two injected elements.
	EnableSemanticCleanup bool
	// Unchanged lines printed around each hunk.
	ContextLines int
	// Upper bound on diff computation; 0 means no limit.
	DiffTimeout time.Duration
}

// DefaultDiffConfig matches the layout of `diff -u`
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		EnableSemanticCleanup: true,
		ContextLines:          3,
		DiffTimeout:           time.Second,
	}
}
