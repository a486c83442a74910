// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package account

import (
	"fmt"

	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// State is the metadata of an account.
type State struct {
	Balance  uint256.Int
	Nonce    uint64
	CodeHash common.Hash

	ExpirationTime  int64 // seconds
	CreateTimeMs    int64
	AutoRenewPeriod int64 // seconds

	Deleted             bool
	SmartContract       bool
	ReceiverSigRequired bool

	AccountNum int64
	RealmId    int64
	ShardId    int64
}

// NewState creates the state of a fresh account with zero balance and nonce.
func NewState() State {
	return State{CodeHash: common.EmptyCodeHash}
}

// encodedState is the RLP layout of a State. RLP has no signed integers, so
// signed fields are stored by their two's complement bit pattern.
type encodedState struct {
	Balance             []byte
	Nonce               uint64
	CodeHash            common.Hash
	ExpirationTime      uint64
	CreateTimeMs        uint64
	AutoRenewPeriod     uint64
	Deleted             bool
	SmartContract       bool
	ReceiverSigRequired bool
	AccountNum          uint64
	RealmId             uint64
	ShardId             uint64
}

// Serializer is a common.Serializer of the State type using RLP encoding.
type Serializer struct{}

var _ common.Serializer[State] = Serializer{}

func (Serializer) ToBytes(s State) []byte {
	data, err := rlp.EncodeToBytes(&encodedState{
		Balance:             s.Balance.Bytes(),
		Nonce:               s.Nonce,
		CodeHash:            s.CodeHash,
		ExpirationTime:      uint64(s.ExpirationTime),
		CreateTimeMs:        uint64(s.CreateTimeMs),
		AutoRenewPeriod:     uint64(s.AutoRenewPeriod),
		Deleted:             s.Deleted,
		SmartContract:       s.SmartContract,
		ReceiverSigRequired: s.ReceiverSigRequired,
		AccountNum:          uint64(s.AccountNum),
		RealmId:             uint64(s.RealmId),
		ShardId:             uint64(s.ShardId),
	})
	if err != nil {
		// all fields of encodedState are encodable
		panic(fmt.Sprintf("failed to encode account state: %v", err))
	}
	return data
}

func (Serializer) FromBytes(data []byte) (State, error) {
	var enc encodedState
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return State{}, fmt.Errorf("failed to decode account state; %w", err)
	}
	if len(enc.Balance) > 32 {
		return State{}, fmt.Errorf("invalid balance of %d bytes", len(enc.Balance))
	}
	res := State{
		Nonce:               enc.Nonce,
		CodeHash:            enc.CodeHash,
		ExpirationTime:      int64(enc.ExpirationTime),
		CreateTimeMs:        int64(enc.CreateTimeMs),
		AutoRenewPeriod:     int64(enc.AutoRenewPeriod),
		Deleted:             enc.Deleted,
		SmartContract:       enc.SmartContract,
		ReceiverSigRequired: enc.ReceiverSigRequired,
		AccountNum:          int64(enc.AccountNum),
		RealmId:             int64(enc.RealmId),
		ShardId:             int64(enc.ShardId),
	}
	res.Balance.SetBytes(enc.Balance)
	return res, nil
}
