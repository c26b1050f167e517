// StageTrace - CV Inference Traceability Dashboard
// Copyright 2026 StageTrace contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagetrace/stagetrace

// Package cache provides the bounded artifact caches used by the media
// collaborator.
package cache

import (
	"os"
	"sync"
)

// FIFOFileCache tracks temporary files and deletes the oldest ones once
// capacity is exceeded. Eviction is strictly insertion-order: dashboard
// users revisit recent events, so the oldest artifact is the least likely
// to be shown again.
//
// Callers must treat tracked paths as transient; a path handed out earlier
// may be evicted by a later Track.
type FIFOFileCache struct {
	mu       sync.Mutex
	capacity int
	paths    []string // insertion order, oldest first
	index    map[string]struct{}

	// remove deletes an evicted file. Defaults to os.Remove; replaceable in
	// tests. Removal errors are reported through onEvict only.
	remove  func(string) error
	onEvict func(path string, err error)
}

// NewFIFOFileCache creates a cache holding at most capacity files.
// A capacity of 0 disables tracking entirely (every file is evicted
// immediately), which callers can use to opt out of local caching.
func NewFIFOFileCache(capacity int) *FIFOFileCache {
	return &FIFOFileCache{
		capacity: capacity,
		index:    make(map[string]struct{}),
		remove:   os.Remove,
	}
}

// SetEvictionHook installs a callback invoked after each eviction attempt.
func (c *FIFOFileCache) SetEvictionHook(hook func(path string, err error)) {
	c.mu.Lock()
	c.onEvict = hook
	c.mu.Unlock()
}

// Track registers a file. If capacity is exceeded the oldest tracked files
// are removed from disk, oldest first. Re-tracking an already-tracked path
// keeps its original position.
func (c *FIFOFileCache) Track(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[path]; ok {
		return
	}
	c.paths = append(c.paths, path)
	c.index[path] = struct{}{}

	for len(c.paths) > c.capacity {
		c.evictOldestLocked()
	}
}

// Len returns the number of tracked files.
func (c *FIFOFileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.paths)
}

// Contains reports whether path is currently tracked.
func (c *FIFOFileCache) Contains(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[path]
	return ok
}

// Clear removes every tracked file. Used at shutdown.
func (c *FIFOFileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.paths) > 0 {
		c.evictOldestLocked()
	}
}

func (c *FIFOFileCache) evictOldestLocked() {
	oldest := c.paths[0]
	c.paths = c.paths[1:]
	delete(c.index, oldest)

	err := c.remove(oldest)
	if c.onEvict != nil {
		c.onEvict(oldest, err)
	}
}
