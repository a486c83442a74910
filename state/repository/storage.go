// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package repository

import (
	"fmt"
	"sort"

	"github.com/Fantom-foundation/ServiceState/go/backend/cache"
	"github.com/Fantom-foundation/ServiceState/go/common"
)

// RecordSize is the number of bytes of a single slot in a serialized storage.
const RecordSize = 2 * common.WordSize

// ErrMalformedBlob is returned when decoding a serialized storage whose
// length is not a multiple of RecordSize.
const ErrMalformedBlob = common.ConstError("malformed storage blob")

// slotCache is the storage cache of a single account as tracked by the
// storage multi-cache of a repository layer.
type slotCache = cache.CachedSource[common.Key, common.Value]

// StorageCache holds the contract storage of a single account at the root
// layer. It has no source; its content is restored from a persisted blob.
type StorageCache struct {
	*cache.ReadWriteCache[common.Key, common.Value]
}

// NewStorageCache creates an empty storage cache.
func NewStorageCache() *StorageCache {
	return &StorageCache{cache.NewReadWriteCache[common.Key, common.Value](nil, 0)}
}

// SlotIterator is anything providing storage slots.
type SlotIterator interface {
	ForEach(func(common.Key, common.Value))
}

type slot struct {
	key   common.Key
	value common.Value
}

// SerializeStorage encodes the slots as a sequence of 64-byte records, each
// the 32-byte key followed by the 32-byte value, ordered by key. Slots
// holding the zero value are unset and not included. Equal slot sets always
// produce identical output. There is no header or length prefix.
func SerializeStorage(slots SlotIterator) []byte {
	list := []slot{}
	slots.ForEach(func(key common.Key, value common.Value) {
		if value.IsZero() {
			return
		}
		list = append(list, slot{key, value})
	})
	sort.Slice(list, func(i, j int) bool { return list[i].key.Compare(&list[j].key) < 0 })

	res := make([]byte, 0, len(list)*RecordSize)
	for _, cur := range list {
		res = append(res, cur.key[:]...)
		res = append(res, cur.value[:]...)
	}
	return res
}

// DeserializeStorage restores a storage cache from a blob produced by
// SerializeStorage. Records holding the zero value denote unset slots and are
// skipped. The resulting cache is not modified.
func DeserializeStorage(blob []byte) (*StorageCache, error) {
	if len(blob)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformedBlob, len(blob), RecordSize)
	}
	res := NewStorageCache()
	for offset := 0; offset < len(blob); offset += RecordSize {
		var key common.Key
		var value common.Value
		copy(key[:], blob[offset:offset+common.WordSize])
		copy(value[:], blob[offset+common.WordSize:offset+RecordSize])
		if value.IsZero() {
			continue
		}
		if err := res.Put(key, value); err != nil {
			return nil, err
		}
	}
	res.ResetModified()
	return res, nil
}
