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

// TableSpace divide key-value storage into spaces by adding a prefix to the key.
type TableSpace byte

const (
	// AccountStoreKey is a tablespace for account states
	AccountStoreKey TableSpace = 'C'
	// CodeStoreKey is a tablespace for contract codes
	CodeStoreKey TableSpace = 'D'
	// StorageBlobKey is a tablespace for serialized contract storages
	StorageBlobKey TableSpace = 'S'
	// StorageMetadataKey is a tablespace for timestamps of persisted storages
	StorageMetadataKey TableSpace = 'E'
)

// ToDBKey converts the input key to its respective table space key
func (t TableSpace) ToDBKey(key []byte) []byte {
	dbKey := make([]byte, 0, len(key)+1)
	dbKey = append(dbKey, byte(t))
	return append(dbKey, key...)
}
