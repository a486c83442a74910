// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cache

import (
	"fmt"

	"golang.org/x/exp/maps"
)

// SubCache is the behaviour a MultiCache requires of the caches it manages.
type SubCache interface {
	HasModified() bool
	Flush() (bool, error)
}

// Loader produces the sub-cache of a key not tracked by a MultiCache yet,
// either by restoring previously stored content or by creating an empty cache.
type Loader[K comparable, S SubCache] func(key K) (S, error)

// MultiCache is a cache of caches. It maps outer keys, e.g. account
// addresses, to sub-caches materialized on first access by its loader.
// There is at most one sub-cache per key until the MultiCache is reset.
type MultiCache[K comparable, S SubCache] struct {
	caches map[K]S
	load   Loader[K, S]
}

// NewMultiCache creates an empty MultiCache using the given loader.
func NewMultiCache[K comparable, S SubCache](load Loader[K, S]) *MultiCache[K, S] {
	return &MultiCache[K, S]{
		caches: map[K]S{},
		load:   load,
	}
}

// Get returns the sub-cache of the key, loading and registering it if the
// key is not tracked yet.
func (c *MultiCache[K, S]) Get(key K) (S, error) {
	if sub, found := c.caches[key]; found {
		return sub, nil
	}
	sub, err := c.load(key)
	if err != nil {
		return sub, fmt.Errorf("failed to load sub-cache of %v; %w", key, err)
	}
	c.caches[key] = sub
	return sub, nil
}

// Keys provides the keys of all tracked sub-caches in no particular order.
func (c *MultiCache[K, S]) Keys() []K {
	return maps.Keys(c.caches)
}

// Len provides the number of tracked sub-caches.
func (c *MultiCache[K, S]) Len() int {
	return len(c.caches)
}

// HasModified reports whether any tracked sub-cache has pending modifications.
func (c *MultiCache[K, S]) HasModified() bool {
	for _, sub := range c.caches {
		if sub.HasModified() {
			return true
		}
	}
	return false
}

// GetSerialized serializes every modified sub-cache with the given function
// and returns the results by key. Unmodified sub-caches are skipped. The
// dirty state of the sub-caches is not changed.
func (c *MultiCache[K, S]) GetSerialized(serialize func(K, S) ([]byte, error)) (map[K][]byte, error) {
	res := map[K][]byte{}
	for key, sub := range c.caches {
		if !sub.HasModified() {
			continue
		}
		data, err := serialize(key, sub)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize sub-cache of %v; %w", key, err)
		}
		res[key] = data
	}
	return res, nil
}

// Flush flushes all tracked sub-caches. The result is true if any of them
// wrote anything.
func (c *MultiCache[K, S]) Flush() (bool, error) {
	written := false
	for key, sub := range c.caches {
		w, err := sub.Flush()
		if err != nil {
			return written, fmt.Errorf("failed to flush sub-cache of %v; %w", key, err)
		}
		written = written || w
	}
	return written, nil
}

// Reset drops all tracked sub-caches, including their pending modifications.
func (c *MultiCache[K, S]) Reset() {
	c.caches = map[K]S{}
}
