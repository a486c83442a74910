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

import "go.uber.org/zap"

// DefaultStorageLimitKb is the storage flush limit used if none is configured.
const DefaultStorageLimitKb = 64 * 1024

// Parameters struct defining configuration parameters for root repositories.
type Parameters struct {
	// StorageLimitKb bounds the total size of the storages persisted by a
	// single Flush. If it is exceeded, no storage is persisted.
	StorageLimitKb int
	// ReadCacheSize bounds the number of retained reads of account states and
	// codes from the durable sources. Values <= 0 retain all reads.
	ReadCacheSize int
	Logger        *zap.Logger
}

func (p Parameters) withDefaults() Parameters {
	if p.StorageLimitKb <= 0 {
		p.StorageLimitKb = DefaultStorageLimitKb
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return p
}
