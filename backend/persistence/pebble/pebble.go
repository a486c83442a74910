// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package pebble

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/cockroachdb/pebble"
)

func init() {
	persistence.Register(persistence.VariantPebble, func(config persistence.Config) (persistence.Database, error) {
		return Open(config.Directory)
	})
}

// Persistence is a Pebble backed persistence.StoragePersistence using the same
// key layout as the LevelDB variant.
type Persistence struct {
	db *pebble.DB
}

// Open opens or creates a Pebble persistence in the given directory.
func Open(directory string) (*Persistence, error) {
	db, err := pebble.Open(directory, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open Pebble in %s; %w", directory, err)
	}
	return &Persistence{db: db}, nil
}

func (p *Persistence) Exists(address common.Address) (bool, error) {
	_, err := p.get(common.StorageBlobKey, address)
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (p *Persistence) Get(address common.Address) ([]byte, error) {
	return p.get(common.StorageBlobKey, address)
}

func (p *Persistence) Persist(address common.Address, blob []byte, expirationTime, currentTime int64) error {
	metadata := persistence.Metadata{ExpirationTime: expirationTime, CurrentTime: currentTime}
	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(common.StorageBlobKey.ToDBKey(address[:]), blob, nil); err != nil {
		return err
	}
	if err := batch.Set(common.StorageMetadataKey.ToDBKey(address[:]), persistence.MetadataSerializer{}.ToBytes(metadata), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *Persistence) GetMetadata(address common.Address) (persistence.Metadata, error) {
	data, err := p.get(common.StorageMetadataKey, address)
	if err != nil {
		return persistence.Metadata{}, err
	}
	return persistence.MetadataSerializer{}.FromBytes(data)
}

// get returns a copy of the value, since Pebble owns the returned buffer
// only until the closer is called.
func (p *Persistence) get(table common.TableSpace, address common.Address) ([]byte, error) {
	data, closer, err := p.db.Get(table.ToDBKey(address[:]))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", persistence.ErrNotFound, address)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	res := make([]byte, len(data))
	copy(res, data)
	return res, nil
}

// Close the persistence
func (p *Persistence) Close() error {
	return p.db.Close()
}
