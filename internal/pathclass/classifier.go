// Package pathclass decides which layer of a host installation a source file
// belongs to: third-party extension, theme, or neither.
//
// Decisions are pure string work over a canonicalized absolute path, memoized
// for the life of the process. The filesystem layout is assumed stable once
// the process is running, so cache entries are never invalidated.
package pathclass

import (
	"path/filepath"
	"strings"
)

// Layout describes where the host keeps extension and theme code, relative to
// a single content root directory.
type Layout struct {
	// ContentRoot is the absolute path of the host's content directory.
	ContentRoot string

	// ExtensionDirs are directory names under ContentRoot that hold
	// extensions. The host distinguishes regular and must-use extensions;
	// both count.
	ExtensionDirs []string

	// ThemesDir is the directory name under ContentRoot that holds themes.
	ThemesDir string

	// SourceSuffix is stripped from a single-file extension's filename to
	// form its identity.
	SourceSuffix string
}

// DefaultLayout returns the conventional layout under the given content root.
func DefaultLayout(contentRoot string) Layout {
	return Layout{
		ContentRoot:   contentRoot,
		ExtensionDirs: []string{"plugins", "mu-plugins"},
		ThemesDir:     "themes",
		SourceSuffix:  ".php",
	}
}

// CanonicalFunc resolves a path to its canonical form. Used as a test hook;
// the default resolves symlinks and falls back to a lexical clean when the
// path does not exist.
type CanonicalFunc func(string) string

// Option configures a Classifier.
type Option func(*Classifier)

// WithCanonicalFunc overrides path canonicalization. Tests use this to count
// how often the expensive per-path work actually runs.
func WithCanonicalFunc(fn CanonicalFunc) Option {
	return func(c *Classifier) {
		c.canonical = fn
	}
}

// Classifier answers layer-membership questions about file paths.
//
// It is used from a single logical thread of control per execution and holds
// no lock; see the concurrency notes in the sampler package.
type Classifier struct {
	extensionRoots []string
	themeRoot      string
	sourceSuffix   string

	canonical CanonicalFunc

	// Memoization caches, keyed by canonical path.
	canon       map[string]string
	isExtension map[string]bool
	isTheme     map[string]bool
	extensionID map[string]string
}

// New creates a Classifier for the given layout.
func New(layout Layout, opts ...Option) *Classifier {
	c := &Classifier{
		themeRoot:    filepath.Join(layout.ContentRoot, layout.ThemesDir),
		sourceSuffix: layout.SourceSuffix,
		canonical:    defaultCanonical,
		canon:        make(map[string]string),
		isExtension:  make(map[string]bool),
		isTheme:      make(map[string]bool),
		extensionID:  make(map[string]string),
	}
	for _, dir := range layout.ExtensionDirs {
		c.extensionRoots = append(c.extensionRoots, filepath.Join(layout.ContentRoot, dir))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsExtensionFile reports whether path lies under one of the recognized
// extension directories.
func (c *Classifier) IsExtensionFile(path string) bool {
	key := c.resolve(path)
	if v, ok := c.isExtension[key]; ok {
		return v
	}
	v := false
	for _, root := range c.extensionRoots {
		if isUnder(root, key) {
			v = true
			break
		}
	}
	c.isExtension[key] = v
	return v
}

// IsThemeFile reports whether path lies under the themes directory.
func (c *Classifier) IsThemeFile(path string) bool {
	key := c.resolve(path)
	if v, ok := c.isTheme[key]; ok {
		return v
	}
	v := isUnder(c.themeRoot, key)
	c.isTheme[key] = v
	return v
}

// ExtensionID resolves the identity of the extension that owns path.
//
// For a file nested in an extension directory the identity is that
// directory's name; for a single-file extension it is the filename with the
// source suffix removed. Returns "" when path is not an extension file.
func (c *Classifier) ExtensionID(path string) string {
	key := c.resolve(path)
	if id, ok := c.extensionID[key]; ok {
		return id
	}

	id := ""
	for _, root := range c.extensionRoots {
		if !isUnder(root, key) {
			continue
		}
		rest := key[len(root)+1:]
		if i := strings.IndexRune(rest, filepath.Separator); i >= 0 {
			id = rest[:i]
		} else {
			id = strings.TrimSuffix(rest, c.sourceSuffix)
		}
		break
	}
	c.extensionID[key] = id
	return id
}

// resolve canonicalizes path, memoizing so the filesystem is consulted at
// most once per distinct input path.
func (c *Classifier) resolve(path string) string {
	if key, ok := c.canon[path]; ok {
		return key
	}
	key := c.canonical(path)
	c.canon[path] = key
	return key
}

func defaultCanonical(path string) string {
	// Symlink resolution keeps aliased paths from producing distinct cache
	// keys. Paths that do not exist (synthetic hosts, tests) degrade to a
	// lexical clean.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

func isUnder(root, path string) bool {
	return len(path) > len(root)+1 &&
		strings.HasPrefix(path, root) &&
		path[len(root)] == filepath.Separator
}
