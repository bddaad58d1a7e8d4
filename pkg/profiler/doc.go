// Package profiler implements a low-overhead, per-thread scope-timing
// profiler: nested interval capture, frame delimitation, deduplicated scope
// metadata, and atomic enable/disable, with an immutable Bundle snapshot
// that pkg/resultio knows how to serialize and render.
//
// The typical call-site usage is:
//
//	info := p.InsertScopeInfo("load-texture", "file.go:42", "loadTexture", "file.go", 42, tagIO)
//	guard := p.Enter(info)
//	defer guard.Close()
//
// A process usually shares a single *Profiler (see Default), registered to
// lazily by every participating goroutine on first use.
package profiler

import "errors"

// Error kinds surfaced by this package. See spec.md §7.
var (
	// ErrTooManyThreads is returned when more than MaxThreads goroutines
	// have registered with a Registry.
	ErrTooManyThreads = errors.New("profiler: too many threads registered")
	// ErrDisabled is returned by profiler operations when the profiler was
	// constructed with WithDisabled.
	ErrDisabled = errors.New("profiler: disabled")
)

// AssertionError represents a programmer error detected at runtime, such as
// an scope_exit call whose key does not match the top of the active stack.
// It is raised via panic, not returned, per spec.md §7.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return "profiler: assertion failed: " + e.Message
}
