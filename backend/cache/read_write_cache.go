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
	"github.com/Fantom-foundation/ServiceState/go/backend/source"
	"github.com/bluele/gcache"
)

// ReadWriteCache extends a WriteCache by retaining values read from the
// source, including the absence of keys, so repeated reads of unmodified keys
// do not hit the source again. Retained reads are clean; with a positive read
// cache size the least recently used ones are dropped first.
type ReadWriteCache[K comparable, V any] struct {
	*WriteCache[K, V]
	reads gcache.Cache // nil if there is no source
}

// readResult is a retained source read.
type readResult[V any] struct {
	value V
	found bool
}

var _ CachedSource[int, int] = (*ReadWriteCache[int, int])(nil)

// NewReadWriteCache creates a read/write cache on top of the given source,
// which may be nil. A readCacheSize <= 0 retains reads without bound.
func NewReadWriteCache[K comparable, V any](src source.Source[K, V], readCacheSize int) *ReadWriteCache[K, V] {
	c := &ReadWriteCache[K, V]{WriteCache: NewWriteCache[K, V](src)}
	if src == nil {
		return c
	}
	builder := gcache.New(readCacheSize)
	if readCacheSize > 0 {
		builder = builder.LRU()
	}
	c.reads = builder.LoaderFunc(func(key interface{}) (interface{}, error) {
		value, found, err := src.Get(key.(K))
		if err != nil {
			return nil, err
		}
		return readResult[V]{value: value, found: found}, nil
	}).Build()
	return c
}

func (c *ReadWriteCache[K, V]) Get(key K) (V, bool, error) {
	if value, found, buffered := c.getBuffered(key); buffered || c.reads == nil {
		return value, found, nil
	}
	var zero V
	res, err := c.reads.Get(key)
	if err != nil {
		return zero, false, err
	}
	read := res.(readResult[V])
	return read.value, read.found, nil
}

func (c *ReadWriteCache[K, V]) Put(key K, value V) error {
	c.forget(key)
	return c.WriteCache.Put(key, value)
}

func (c *ReadWriteCache[K, V]) Delete(key K) error {
	c.forget(key)
	return c.WriteCache.Delete(key)
}

func (c *ReadWriteCache[K, V]) Reset() {
	c.WriteCache.Reset()
	if c.reads != nil {
		c.reads.Purge()
	}
}

// forget drops a retained read of the key, since a buffered write supersedes
// it and, once flushed, the source holds the new value.
func (c *ReadWriteCache[K, V]) forget(key K) {
	if c.reads != nil {
		c.reads.Remove(key)
	}
}
