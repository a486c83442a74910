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
	"sync"

	"github.com/Fantom-foundation/ServiceState/go/backend/source"
	"github.com/Fantom-foundation/ServiceState/go/common"
)

// parentView exposes a cache of a parent repository as the source of an
// overlay cache. Accesses are serialized with the parent's own operations.
type parentView[K comparable, V any] struct {
	mu  *sync.Mutex
	src source.Source[K, V]
}

func (v *parentView[K, V]) Get(key K) (V, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src.Get(key)
}

func (v *parentView[K, V]) Put(key K, value V) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src.Put(key, value)
}

func (v *parentView[K, V]) Delete(key K) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src.Delete(key)
}

// parentSlots exposes the storage of one account of a parent repository as
// the source of an overlay's storage cache. The parent's storage cache is
// resolved on every access, so it survives resets of the parent's storage.
type parentSlots struct {
	parent  *Repository
	address common.Address
}

func (v *parentSlots) Get(key common.Key) (common.Value, bool, error) {
	v.parent.mu.Lock()
	defer v.parent.mu.Unlock()
	slots, err := v.parent.storage.Get(v.address)
	if err != nil {
		return common.Value{}, false, err
	}
	return slots.Get(key)
}

func (v *parentSlots) Put(key common.Key, value common.Value) error {
	v.parent.mu.Lock()
	defer v.parent.mu.Unlock()
	slots, err := v.parent.storage.Get(v.address)
	if err != nil {
		return err
	}
	return slots.Put(key, value)
}

func (v *parentSlots) Delete(key common.Key) error {
	v.parent.mu.Lock()
	defer v.parent.mu.Unlock()
	slots, err := v.parent.storage.Get(v.address)
	if err != nil {
		return err
	}
	return slots.Delete(key)
}
