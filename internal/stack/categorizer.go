package stack

import (
	"github.com/layerprof/layerprof/internal/pathclass"
)

// Categorizer determines the execution category of a call stack.
//
// Priority is fixed: Extension > Theme > Core. A single stack can legitimately
// cross layers (core calling a theme calling an extension) and only one bucket
// may be billed per interval, so the most specific layer wins.
type Categorizer struct {
	paths *pathclass.Classifier
}

// NewCategorizer creates a Categorizer using the given path classifier.
// The classifier's caches are shared with anyone else holding it.
func NewCategorizer(paths *pathclass.Classifier) *Categorizer {
	return &Categorizer{paths: paths}
}

// Classify scans frames and returns the category of the most specific layer
// present, with the extension identity when the category is Extension.
//
// Frames without a resolvable file path are skipped, never treated as a match.
func (c *Categorizer) Classify(frames []Frame) (Category, string) {
	for _, fr := range frames {
		if fr.File == "" {
			continue
		}
		if c.paths.IsExtensionFile(fr.File) {
			return Extension, c.paths.ExtensionID(fr.File)
		}
	}
	for _, fr := range frames {
		if fr.File == "" {
			continue
		}
		if c.paths.IsThemeFile(fr.File) {
			return Theme, ""
		}
	}
	return Core, ""
}
