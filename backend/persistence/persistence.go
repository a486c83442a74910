// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package persistence

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Fantom-foundation/ServiceState/go/common"
)

//go:generate mockgen -source persistence.go -destination persistence_mocks.go -package persistence

// StoragePersistence is the durable store of serialized contract storages.
// Each account has at most one blob, replaced on every Persist.
type StoragePersistence interface {
	// Exists reports whether a blob was persisted for the address.
	Exists(address common.Address) (bool, error)

	// Get returns the blob persisted for the address. Calling it for an
	// address without a blob yields ErrNotFound.
	Get(address common.Address) ([]byte, error)

	// Persist durably stores the blob together with the expiration time of the
	// account and the time the account was created, replacing any prior blob.
	Persist(address common.Address, blob []byte, expirationTime, currentTime int64) error
}

// Database is a StoragePersistence owning resources that need to be released.
type Database interface {
	StoragePersistence
	MetadataProvider
	io.Closer
}

// MetadataProvider is implemented by persistences that can report the
// timestamps stored alongside a blob.
type MetadataProvider interface {
	GetMetadata(address common.Address) (Metadata, error)
}

// ErrNotFound is returned when no blob is persisted for an address.
const ErrNotFound = common.ConstError("storage not found")

// Metadata are the timestamps persisted alongside a storage blob.
type Metadata struct {
	ExpirationTime int64
	CurrentTime    int64
}

// MetadataSize is the number of bytes of an encoded Metadata.
const MetadataSize = 16

// MetadataSerializer is a common.Serializer of the Metadata type
type MetadataSerializer struct{}

func (MetadataSerializer) ToBytes(m Metadata) []byte {
	res := make([]byte, MetadataSize)
	binary.BigEndian.PutUint64(res[0:8], uint64(m.ExpirationTime))
	binary.BigEndian.PutUint64(res[8:16], uint64(m.CurrentTime))
	return res
}

func (MetadataSerializer) FromBytes(data []byte) (Metadata, error) {
	if len(data) != MetadataSize {
		return Metadata{}, fmt.Errorf("%w: got %d bytes of metadata", common.ErrInvalidLength, len(data))
	}
	return Metadata{
		ExpirationTime: int64(binary.BigEndian.Uint64(data[0:8])),
		CurrentTime:    int64(binary.BigEndian.Uint64(data[8:16])),
	}, nil
}
