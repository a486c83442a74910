// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/ServiceState/go/backend/source"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/syndtr/goleveldb/leveldb"
)

// Source is a LevelDB backed source.Source implementation. Keys are stored
// in the given table space, so multiple sources can share a single database.
type Source[K comparable, V any] struct {
	db              common.LevelDB
	table           common.TableSpace
	keySerializer   common.Serializer[K]
	valueSerializer common.Serializer[V]
}

var _ source.Source[common.Address, []byte] = (*Source[common.Address, []byte])(nil)

// NewSource constructs a new instance of Source.
func NewSource[K comparable, V any](
	db common.LevelDB,
	table common.TableSpace,
	keySerializer common.Serializer[K],
	valueSerializer common.Serializer[V],
) *Source[K, V] {
	return &Source[K, V]{
		db:              db,
		table:           table,
		keySerializer:   keySerializer,
		valueSerializer: valueSerializer,
	}
}

func (s *Source[K, V]) Get(key K) (value V, found bool, err error) {
	data, err := s.db.Get(s.convertKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	value, err = s.valueSerializer.FromBytes(data)
	if err != nil {
		return value, false, fmt.Errorf("failed to decode value of key %v; %w", key, err)
	}
	return value, true, nil
}

func (s *Source[K, V]) Put(key K, value V) error {
	return s.db.Put(s.convertKey(key), s.valueSerializer.ToBytes(value), nil)
}

func (s *Source[K, V]) Delete(key K) error {
	return s.db.Delete(s.convertKey(key), nil)
}

// convertKey translates the key into a database key prefixed by the table space.
func (s *Source[K, V]) convertKey(key K) []byte {
	return s.table.ToDBKey(s.keySerializer.ToBytes(key))
}
