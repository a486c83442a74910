// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import "github.com/Fantom-foundation/ServiceState/go/backend/source"

// Source is an in-memory source.Source implementation backed by a map.
type Source[K comparable, V any] struct {
	data map[K]V
}

var _ source.Source[int, int] = (*Source[int, int])(nil)

// NewSource creates an empty in-memory source.
func NewSource[K comparable, V any]() *Source[K, V] {
	return &Source[K, V]{data: map[K]V{}}
}

func (m *Source[K, V]) Get(key K) (V, bool, error) {
	value, found := m.data[key]
	return value, found, nil
}

func (m *Source[K, V]) Put(key K, value V) error {
	m.data[key] = value
	return nil
}

func (m *Source[K, V]) Delete(key K) error {
	delete(m.data, key)
	return nil
}

// Len provides the number of stored keys.
func (m *Source[K, V]) Len() int {
	return len(m.data)
}
