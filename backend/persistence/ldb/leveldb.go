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

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

func init() {
	persistence.Register(persistence.VariantLevelDb, func(config persistence.Config) (persistence.Database, error) {
		return Open(config.Directory)
	})
}

// Persistence is a LevelDB backed persistence.StoragePersistence. The blob and
// the metadata of an account are kept in separate table spaces and are
// written in a single batch.
type Persistence struct {
	db *leveldb.DB
}

// Open opens or creates a LevelDB persistence in the given directory.
func Open(directory string) (*Persistence, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB in %s; %w", directory, err)
	}
	return &Persistence{db: db}, nil
}

func (p *Persistence) Exists(address common.Address) (bool, error) {
	return p.db.Has(common.StorageBlobKey.ToDBKey(address[:]), nil)
}

func (p *Persistence) Get(address common.Address) ([]byte, error) {
	return p.get(common.StorageBlobKey, address)
}

func (p *Persistence) Persist(address common.Address, blob []byte, expirationTime, currentTime int64) error {
	metadata := persistence.Metadata{ExpirationTime: expirationTime, CurrentTime: currentTime}
	batch := new(leveldb.Batch)
	batch.Put(common.StorageBlobKey.ToDBKey(address[:]), blob)
	batch.Put(common.StorageMetadataKey.ToDBKey(address[:]), persistence.MetadataSerializer{}.ToBytes(metadata))
	return p.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (p *Persistence) GetMetadata(address common.Address) (persistence.Metadata, error) {
	data, err := p.get(common.StorageMetadataKey, address)
	if err != nil {
		return persistence.Metadata{}, err
	}
	return persistence.MetadataSerializer{}.FromBytes(data)
}

func (p *Persistence) get(table common.TableSpace, address common.Address) ([]byte, error) {
	data, err := p.db.Get(table.ToDBKey(address[:]), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", persistence.ErrNotFound, address)
	}
	return data, err
}

// Close the persistence
func (p *Persistence) Close() error {
	return p.db.Close()
}
