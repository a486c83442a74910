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
	"time"

	"github.com/Fantom-foundation/ServiceState/go/backend/cache"
	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/Fantom-foundation/ServiceState/go/backend/source"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/account"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
)

// ErrMissingBackend is returned when a root repository is created without
// one of its durable backends.
const ErrMissingBackend = common.ConstError("missing backend")

// Root is the bottom layer of a repository hierarchy. Account states and
// codes are committed into durable sources, while contract storages are
// serialized per account and handed to a StoragePersistence.
type Root struct {
	*Repository
	persistence    persistence.StoragePersistence
	storageLimitKb int
	log            *zap.Logger
}

// NewRoot creates a root repository on top of the given durable backends.
func NewRoot(
	accounts source.Source[common.Address, account.State],
	codes source.Source[common.Address, []byte],
	storage persistence.StoragePersistence,
	params Parameters,
) (*Root, error) {
	if accounts == nil || codes == nil || storage == nil {
		return nil, fmt.Errorf("%w: account, code and storage backends are required", ErrMissingBackend)
	}
	params = params.withDefaults()
	root := &Root{
		Repository: &Repository{
			accounts: cache.NewReadWriteCache[common.Address, account.State](accounts, params.ReadCacheSize),
			codes:    cache.NewReadWriteCache[common.Address, []byte](codes, params.ReadCacheSize),
		},
		persistence:    storage,
		storageLimitKb: params.StorageLimitKb,
		log:            params.Logger,
	}
	root.storage = cache.NewMultiCache[common.Address, slotCache](root.loadStorage)
	return root, nil
}

// loadStorage restores the storage of an account from the persistence, or
// creates an empty one if none was persisted.
func (r *Root) loadStorage(address common.Address) (slotCache, error) {
	exists, err := r.persistence.Exists(address)
	if err != nil {
		return nil, fmt.Errorf("failed to check storage of %v; %w", address, err)
	}
	if !exists {
		return NewStorageCache(), nil
	}
	start := time.Now()
	blob, err := r.persistence.Get(address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storage of %v; %w", address, err)
	}
	slots, err := DeserializeStorage(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to restore storage of %v; %w", address, err)
	}
	r.log.Debug("storage loaded",
		zap.Stringer("address", address),
		zap.Int("bytes", len(blob)),
		zap.Int("slots", slots.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return slots, nil
}

// Flush commits account states and codes into the durable sources and then
// persists all modified storages if their total size does not exceed the
// configured limit. The result is false if storages were kept in memory
// because of the limit.
func (r *Root) Flush() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.commit(); err != nil {
		return false, err
	}
	return r.flushStorage(r.storageLimitKb * 1024)
}

// FlushStorageIfTotalSizeBelow persists the modified storages if the total
// size of their serialized forms does not exceed maxStorageKb kilobytes. If
// it does, nothing is persisted, the cached storages are left untouched and
// the result is false. After a successful flush the storage cache is empty.
func (r *Root) FlushStorageIfTotalSizeBelow(maxStorageKb int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushStorage(maxStorageKb * 1024)
}

// flushStorage implements the storage flush for a limit given in bytes. Must
// be called with the lock held.
func (r *Root) flushStorage(limit int) (bool, error) {
	start := time.Now()
	blobs, err := r.storage.GetSerialized(func(_ common.Address, slots slotCache) ([]byte, error) {
		return SerializeStorage(slots), nil
	})
	if err != nil {
		return false, err
	}
	if len(blobs) == 0 {
		r.storage.Reset()
		return true, nil
	}

	addresses := maps.Keys(blobs)
	sort.Slice(addresses, func(i, j int) bool { return addresses[i].Compare(&addresses[j]) < 0 })

	total := 0
	for _, address := range addresses {
		total += len(blobs[address])
		if total > limit {
			r.log.Info("storage flush skipped, size limit exceeded",
				zap.Int("accounts", len(addresses)),
				zap.Int("limit", limit),
			)
			return false, nil
		}
	}

	for _, address := range addresses {
		state, _, err := r.accounts.Get(address)
		if err != nil {
			return false, fmt.Errorf("failed to read account %v; %w", address, err)
		}
		if err := r.persistence.Persist(address, blobs[address], state.ExpirationTime, state.CreateTimeMs); err != nil {
			return false, fmt.Errorf("failed to persist storage of %v; %w", address, err)
		}
	}
	r.storage.Reset()

	r.log.Debug("storage flushed",
		zap.Int("accounts", len(addresses)),
		zap.Int("bytes", total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return true, nil
}

// EmptyStorageCache drops all cached storages, including unpersisted
// modifications.
func (r *Root) EmptyStorageCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage.Reset()
}
