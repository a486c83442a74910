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
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/account"
)

// GetExpirationTime returns the expiration time of the account, zero if the
// account does not exist.
func (r *Repository) GetExpirationTime(address common.Address) (int64, error) {
	return readField(r, address, func(s *account.State) int64 { return s.ExpirationTime })
}

// SetExpirationTime sets the expiration time of the account, creating the
// account if needed.
func (r *Repository) SetExpirationTime(address common.Address, expirationTime int64) error {
	return r.update(address, func(s *account.State) error {
		s.ExpirationTime = expirationTime
		return nil
	})
}

// GetAutoRenewPeriod returns the auto-renew period of the account, zero if the
// account does not exist.
func (r *Repository) GetAutoRenewPeriod(address common.Address) (int64, error) {
	return readField(r, address, func(s *account.State) int64 { return s.AutoRenewPeriod })
}

// SetAutoRenewPeriod sets the auto-renew period of the account, creating the
// account if needed.
func (r *Repository) SetAutoRenewPeriod(address common.Address, autoRenewPeriod int64) error {
	return r.update(address, func(s *account.State) error {
		s.AutoRenewPeriod = autoRenewPeriod
		return nil
	})
}

// GetCreateTimeMs returns the creation time in milliseconds of the account,
// zero if the account does not exist.
func (r *Repository) GetCreateTimeMs(address common.Address) (int64, error) {
	return readField(r, address, func(s *account.State) int64 { return s.CreateTimeMs })
}

// SetCreateTimeMs sets the creation time in milliseconds of the account,
// creating the account if needed.
func (r *Repository) SetCreateTimeMs(address common.Address, createTimeMs int64) error {
	return r.update(address, func(s *account.State) error {
		s.CreateTimeMs = createTimeMs
		return nil
	})
}

// IsDeleted reports whether the account is marked as deleted, false if the
// account does not exist.
func (r *Repository) IsDeleted(address common.Address) (bool, error) {
	return readField(r, address, func(s *account.State) bool { return s.Deleted })
}

// SetDeleted sets whether the account is marked as deleted, creating the
// account if needed.
func (r *Repository) SetDeleted(address common.Address, deleted bool) error {
	return r.update(address, func(s *account.State) error {
		s.Deleted = deleted
		return nil
	})
}

// IsSmartContract reports whether the account is a smart contract, false if
// the account does not exist.
func (r *Repository) IsSmartContract(address common.Address) (bool, error) {
	return readField(r, address, func(s *account.State) bool { return s.SmartContract })
}

// SetSmartContract sets whether the account is a smart contract, creating the
// account if needed.
func (r *Repository) SetSmartContract(address common.Address, smartContract bool) error {
	return r.update(address, func(s *account.State) error {
		s.SmartContract = smartContract
		return nil
	})
}

// IsReceiverSigRequired reports whether transfers to the account require its
// signature, false if the account does not exist.
func (r *Repository) IsReceiverSigRequired(address common.Address) (bool, error) {
	return readField(r, address, func(s *account.State) bool { return s.ReceiverSigRequired })
}

// SetReceiverSigRequired sets whether transfers to the account require its
// signature, creating the account if needed.
func (r *Repository) SetReceiverSigRequired(address common.Address, receiverSigRequired bool) error {
	return r.update(address, func(s *account.State) error {
		s.ReceiverSigRequired = receiverSigRequired
		return nil
	})
}

// GetAccountNum returns the account number of the account, zero if the account
// does not exist.
func (r *Repository) GetAccountNum(address common.Address) (int64, error) {
	return readField(r, address, func(s *account.State) int64 { return s.AccountNum })
}

// SetAccountNum sets the account number of the account, creating the account
// if needed.
func (r *Repository) SetAccountNum(address common.Address, accountNum int64) error {
	return r.update(address, func(s *account.State) error {
		s.AccountNum = accountNum
		return nil
	})
}

// GetRealmId returns the realm id of the account, zero if the account does not
// exist.
func (r *Repository) GetRealmId(address common.Address) (int64, error) {
	return readField(r, address, func(s *account.State) int64 { return s.RealmId })
}

// SetRealmId sets the realm id of the account, creating the account if needed.
func (r *Repository) SetRealmId(address common.Address, realmId int64) error {
	return r.update(address, func(s *account.State) error {
		s.RealmId = realmId
		return nil
	})
}

// GetShardId returns the shard id of the account, zero if the account does not
// exist.
func (r *Repository) GetShardId(address common.Address) (int64, error) {
	return readField(r, address, func(s *account.State) int64 { return s.ShardId })
}

// SetShardId sets the shard id of the account, creating the account if needed.
func (r *Repository) SetShardId(address common.Address, shardId int64) error {
	return r.update(address, func(s *account.State) error {
		s.ShardId = shardId
		return nil
	})
}
