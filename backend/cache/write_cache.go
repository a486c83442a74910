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

	"github.com/Fantom-foundation/ServiceState/go/backend/source"
)

// CachedSource is a source buffering its modifications until they are
// flushed into the source it is built on.
type CachedSource[K comparable, V any] interface {
	source.Source[K, V]
	SubCache

	// ForEach calls the callback for every live buffered entry.
	ForEach(callback func(K, V))

	// Reset drops all buffered entries, including pending modifications.
	Reset()
}

// WriteCache is a write-back layer over a source. Mutations are buffered in
// memory and only pushed to the source on Flush. A WriteCache without a
// source is the sole holder of its content and can not be flushed.
type WriteCache[K comparable, V any] struct {
	source   source.Source[K, V]
	entries  map[K]*entry[V]
	modified bool
}

// entry is a buffered value or a tombstone of a deleted key.
type entry[V any] struct {
	value   V
	deleted bool
	dirty   bool
}

var _ CachedSource[int, int] = (*WriteCache[int, int])(nil)

// NewWriteCache creates a write cache on top of the given source, which may be nil.
func NewWriteCache[K comparable, V any](src source.Source[K, V]) *WriteCache[K, V] {
	return &WriteCache[K, V]{
		source:  src,
		entries: map[K]*entry[V]{},
	}
}

// Get returns the buffered value of the key, if there is one, and reads it
// from the source otherwise. Reads from the source are not retained.
func (c *WriteCache[K, V]) Get(key K) (V, bool, error) {
	if value, found, buffered := c.getBuffered(key); buffered {
		return value, found, nil
	}
	var zero V
	if c.source == nil {
		return zero, false, nil
	}
	return c.source.Get(key)
}

// getBuffered looks the key up among the buffered entries only. The last
// result is false if the key is not buffered.
func (c *WriteCache[K, V]) getBuffered(key K) (value V, found bool, buffered bool) {
	e, exists := c.entries[key]
	if !exists {
		return value, false, false
	}
	if e.deleted {
		return value, false, true
	}
	return e.value, true, true
}

// Put buffers the value of the key and marks it modified.
func (c *WriteCache[K, V]) Put(key K, value V) error {
	c.entries[key] = &entry[V]{value: value, dirty: true}
	c.modified = true
	return nil
}

// Delete buffers a tombstone for the key.
func (c *WriteCache[K, V]) Delete(key K) error {
	c.entries[key] = &entry[V]{deleted: true, dirty: true}
	c.modified = true
	return nil
}

// HasModified reports whether a mutation was buffered since the last flush
// or modification reset.
func (c *WriteCache[K, V]) HasModified() bool {
	return c.modified
}

// ResetModified marks all buffered entries as clean, making them part of the
// cache's base content.
func (c *WriteCache[K, V]) ResetModified() {
	for _, e := range c.entries {
		e.dirty = false
	}
	c.modified = false
}

func (c *WriteCache[K, V]) ForEach(callback func(K, V)) {
	for key, e := range c.entries {
		if !e.deleted {
			callback(key, e.value)
		}
	}
}

// Len provides the number of live buffered entries.
func (c *WriteCache[K, V]) Len() int {
	res := 0
	for _, e := range c.entries {
		if !e.deleted {
			res++
		}
	}
	return res
}

func (c *WriteCache[K, V]) Reset() {
	c.entries = map[K]*entry[V]{}
	c.modified = false
}

// Flush pushes every modified entry into the source and drops it from this
// cache, so later reads observe the source. The result is true if anything
// was written. On a source failure, entries not yet written stay buffered.
func (c *WriteCache[K, V]) Flush() (bool, error) {
	if c.source == nil {
		return false, nil
	}
	written := false
	for key, e := range c.entries {
		if !e.dirty {
			continue
		}
		var err error
		if e.deleted {
			err = c.source.Delete(key)
		} else {
			err = c.source.Put(key, e.value)
		}
		if err != nil {
			return written, fmt.Errorf("failed to flush key %v; %w", key, err)
		}
		delete(c.entries, key)
		written = true
	}
	c.modified = false
	return written, nil
}
