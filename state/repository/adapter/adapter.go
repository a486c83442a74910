// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package adapter keeps track of contracts created during the execution of
// transactions and derives the addresses of new contracts.
package adapter

import (
	"sync"

	"github.com/Fantom-foundation/ServiceState/go/common"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NonceReader provides the current nonce of accounts. It is implemented by
// repository.Repository.
type NonceReader interface {
	GetNonce(address common.Address) (uint64, error)
}

// AccountCreateAdapter records created contracts grouped by their creator.
type AccountCreateAdapter struct {
	mu        sync.Mutex
	contracts map[common.Address][]common.Address
}

func NewAccountCreateAdapter() *AccountCreateAdapter {
	return &AccountCreateAdapter{contracts: map[common.Address][]common.Address{}}
}

// CalculateNewAddress derives the address of a contract created by the given
// owner from the owner's address and its current nonce.
func (a *AccountCreateAdapter) CalculateNewAddress(owner common.Address, nonces NonceReader) (common.Address, error) {
	nonce, err := nonces.GetNonce(owner)
	if err != nil {
		return common.Address{}, err
	}
	return common.Address(crypto.CreateAddress(gethcommon.Address(owner), nonce)), nil
}

func (a *AccountCreateAdapter) AddCreatedContract(contract, creator common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contracts[creator] = append(a.contracts[creator], contract)
}

// GetCreatedContracts returns a snapshot of the created contracts by creator,
// in creation order.
func (a *AccountCreateAdapter) GetCreatedContracts() map[common.Address][]common.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	res := make(map[common.Address][]common.Address, len(a.contracts))
	for creator, list := range a.contracts {
		res[creator] = append([]common.Address(nil), list...)
	}
	return res
}
