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
	"github.com/Fantom-foundation/ServiceState/go/backend/source"
	"github.com/Fantom-foundation/ServiceState/go/backend/source/ldb"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/account"
)

// NewLevelDbSources creates durable account state and code sources for a
// root repository, sharing the given LevelDB instance.
func NewLevelDbSources(db common.LevelDB) (source.Source[common.Address, account.State], source.Source[common.Address, []byte]) {
	accounts := ldb.NewSource[common.Address, account.State](db, common.AccountStoreKey, common.AddressSerializer{}, account.Serializer{})
	codes := ldb.NewSource[common.Address, []byte](db, common.CodeStoreKey, common.AddressSerializer{}, common.BytesSerializer{})
	return accounts, codes
}
