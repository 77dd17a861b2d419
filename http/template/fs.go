package template

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
)

// mergeFS merges a stack of filesystems into a single fs.FS.
type mergeFS struct {
	mu sync.Mutex

	// A cache for minimizing ascertaining which layer holds a template.
	cache map[string]fs.FS

	// The filesystems to search, in priority order.
	layers []fs.FS
}

func newMergeFS(layers ...fs.FS) *mergeFS {
	return &mergeFS{cache: make(map[string]fs.FS), layers: layers}
}

// Open opens the file matching the name from the first layer holding it,
// checking the cache before searching the layers.
//
// Whenever a file is found and is not present in the cache, it is added.
// Nothing removes references from the cache.
// If a file is removed from an on disk layer at runtime,
// its cache reference returns the same error (fs.ErrNotExist)
// as a fresh search would.
func (mfs *mergeFS) Open(name string) (fs.File, error) {
	mfs.mu.Lock()
	layer, ok := mfs.cache[name]
	mfs.mu.Unlock()
	if ok {
		return layer.Open(name)
	}

	for _, l := range mfs.layers {
		file, err := l.Open(name)
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("unable to open template %s: %w", name, err)
		}

		mfs.mu.Lock()
		mfs.cache[name] = l
		mfs.mu.Unlock()

		return file, nil
	}

	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
