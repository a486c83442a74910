// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDB is an interface missing in original LevelDB design.
// It contains methods common for transactional and non-transactional LevelDB instances
// allowing for transparent switching between instances
type LevelDB interface {

	// Get gets the value for the given key. It returns ErrNotFound if the
	// DB does not contains the key.
	Get(key []byte, ro *opt.ReadOptions) (value []byte, err error)

	// Has returns true if the DB does contains the given key.
	Has(key []byte, ro *opt.ReadOptions) (bool, error)

	// Put sets the value for the given key. It overwrites any previous value
	// for that key; a DB is not a multi-map.
	Put(key, value []byte, wo *opt.WriteOptions) error

	// Delete deletes the value for the given key.
	Delete(key []byte, wo *opt.WriteOptions) error

	// Write apply the given batch to the DB. The batch records will be applied
	// sequentially.
	Write(batch *leveldb.Batch, wo *opt.WriteOptions) error
}
