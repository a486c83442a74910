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
	"fmt"
	"sort"
	"sync"

	"github.com/Fantom-foundation/ServiceState/go/common"
)

// Variant names a StoragePersistence implementation.
type Variant string

const (
	VariantMemory  Variant = "memory"
	VariantLevelDb Variant = "leveldb"
	VariantPebble  Variant = "pebble"
	VariantSqlite  Variant = "sqlite"
)

// Config selects and parameterizes a StoragePersistence implementation.
type Config struct {
	Variant   Variant
	Directory string // ignored by the memory variant
}

// UnsupportedVariant is the error returned if no implementation is registered
// for a requested variant.
const UnsupportedVariant = common.ConstError("unsupported persistence variant")

// Factory opens a persistence for the given configuration.
type Factory func(Config) (Database, error)

var (
	registryMutex sync.Mutex
	registry      = map[Variant]Factory{}
)

// Register makes a persistence implementation available to Open. It is meant
// to be called by the init function of implementing packages.
func Register(variant Variant, factory Factory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if _, found := registry[variant]; found {
		panic(fmt.Sprintf("persistence variant %s registered twice", variant))
	}
	registry[variant] = factory
}

// Open creates the persistence described by the configuration. Implementations
// need to be linked into the binary, e.g. by a blank import of their package.
// If the variant is empty, the memory variant is used.
func Open(config Config) (Database, error) {
	if config.Variant == "" {
		config.Variant = VariantMemory
	}
	registryMutex.Lock()
	factory, found := registry[config.Variant]
	registryMutex.Unlock()
	if !found {
		return nil, fmt.Errorf("%w: %s", UnsupportedVariant, config.Variant)
	}
	return factory(config)
}

// GetAllVariants provides the names of all registered variants, sorted.
func GetAllVariants() []Variant {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	res := make([]Variant, 0, len(registry))
	for variant := range registry {
		res = append(res, variant)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
