// Package stack models call stacks as sequences of file-bearing frames and
// classifies them into execution categories.
package stack

import (
	"runtime"
)

// Category is the execution layer a time interval is billed to.
// Exactly one category is current at any instant during sampling.
type Category int

const (
	// Core is host-framework code; also the fallback when nothing more
	// specific matches.
	Core Category = iota
	// Theme is template-layer code under the themes directory.
	Theme
	// Extension is third-party code under an extensions directory.
	Extension
)

// String returns the wire-friendly name of the category.
func (c Category) String() string {
	switch c {
	case Theme:
		return "theme"
	case Extension:
		return "extension"
	default:
		return "core"
	}
}

// Frame is one call-stack entry. Only the file path is consulted; frames
// produced by dynamically evaluated code carry an empty File.
type Frame struct {
	File string
}

// Provider returns the current call stack, innermost frame first.
//
// Hosts embed their own provider; RuntimeProvider serves stand-alone use.
type Provider func() []Frame

const maxRuntimeDepth = 64

// RuntimeProvider returns a Provider backed by runtime.Callers. skip counts
// additional frames to drop beyond the provider itself.
func RuntimeProvider(skip int) Provider {
	return func() []Frame {
		pcs := make([]uintptr, maxRuntimeDepth)
		n := runtime.Callers(2+skip, pcs)
		if n == 0 {
			return nil
		}

		frames := make([]Frame, 0, n)
		iter := runtime.CallersFrames(pcs[:n])
		for {
			fr, more := iter.Next()
			frames = append(frames, Frame{File: fr.File})
			if !more {
				break
			}
		}
		return frames
	}
}
