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

import (
	"fmt"
	"sync"

	"github.com/Fantom-foundation/ServiceState/go/backend/persistence"
	"github.com/Fantom-foundation/ServiceState/go/common"
)

func init() {
	persistence.Register(persistence.VariantMemory, func(persistence.Config) (persistence.Database, error) {
		return NewPersistence(), nil
	})
}

// Persistence is an in-memory persistence.StoragePersistence implementation.
// Its content does not survive the process; it is intended for tests and tools.
type Persistence struct {
	mu      sync.Mutex
	entries map[common.Address]record
}

type record struct {
	blob     []byte
	metadata persistence.Metadata
}

// NewPersistence creates an empty in-memory persistence.
func NewPersistence() *Persistence {
	return &Persistence{entries: map[common.Address]record{}}
}

func (p *Persistence) Exists(address common.Address) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, found := p.entries[address]
	return found, nil
}

func (p *Persistence) Get(address common.Address) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, found := p.entries[address]
	if !found {
		return nil, fmt.Errorf("%w: %v", persistence.ErrNotFound, address)
	}
	return clone(rec.blob), nil
}

func (p *Persistence) Persist(address common.Address, blob []byte, expirationTime, currentTime int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[address] = record{
		blob:     clone(blob),
		metadata: persistence.Metadata{ExpirationTime: expirationTime, CurrentTime: currentTime},
	}
	return nil
}

func (p *Persistence) GetMetadata(address common.Address) (persistence.Metadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, found := p.entries[address]
	if !found {
		return persistence.Metadata{}, fmt.Errorf("%w: %v", persistence.ErrNotFound, address)
	}
	return rec.metadata, nil
}

// Close the persistence
func (p *Persistence) Close() error {
	return nil // no-op for in-memory database
}

func clone(data []byte) []byte {
	res := make([]byte, len(data))
	copy(res, data)
	return res
}
