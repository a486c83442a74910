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
	"bytes"
	"fmt"
	"sync"

	"github.com/Fantom-foundation/ServiceState/go/backend/cache"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/account"
	"github.com/holiman/uint256"
)

// ErrInsufficientBalance is returned when a balance would become negative.
const ErrInsufficientBalance = common.ConstError("insufficient balance")

// Repository provides cached access to account states, contract codes and
// contract storages. Modifications are buffered in the repository's caches
// until they are committed into the layer below, which is either a parent
// repository or, for a Root, the durable sources.
//
// Accounts missing in a repository are treated as existing with zero values:
// getters report zero values without creating the account, while setters
// create it before applying their modification.
//
// All operations of a repository are serialized by a single lock. Overlays
// created by StartTracking may be used concurrently with their parent.
type Repository struct {
	mu       sync.Mutex
	parent   *Repository // nil for the root
	accounts cache.CachedSource[common.Address, account.State]
	codes    cache.CachedSource[common.Address, []byte]
	storage  *cache.MultiCache[common.Address, slotCache]
}

// StartTracking creates an overlay on top of this repository. Modifications
// of the overlay are not visible in this repository before the overlay is
// committed.
func (r *Repository) StartTracking() *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	overlay := &Repository{
		parent:   r,
		accounts: cache.NewWriteCache[common.Address, account.State](&parentView[common.Address, account.State]{mu: &r.mu, src: r.accounts}),
		codes:    cache.NewWriteCache[common.Address, []byte](&parentView[common.Address, []byte]{mu: &r.mu, src: r.codes}),
	}
	overlay.storage = cache.NewMultiCache[common.Address, slotCache](func(address common.Address) (slotCache, error) {
		return cache.NewWriteCache[common.Key, common.Value](&parentSlots{parent: r, address: address}), nil
	})
	return overlay
}

// Parent provides the repository this overlay was created from, nil for a root.
func (r *Repository) Parent() *Repository {
	return r.parent
}

// Commit pushes all buffered modifications into the layer below.
func (r *Repository) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commit()
}

func (r *Repository) commit() error {
	if _, err := r.storage.Flush(); err != nil {
		return fmt.Errorf("failed to commit storage; %w", err)
	}
	if _, err := r.accounts.Flush(); err != nil {
		return fmt.Errorf("failed to commit account states; %w", err)
	}
	if _, err := r.codes.Flush(); err != nil {
		return fmt.Errorf("failed to commit codes; %w", err)
	}
	return nil
}

// Rollback discards all buffered modifications.
func (r *Repository) Rollback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage.Reset()
	r.accounts.Reset()
	r.codes.Reset()
}

// CreateAccount installs a fresh account with zero balance and nonce,
// replacing any previous state of the account.
func (r *Repository) CreateAccount(address common.Address) (account.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := account.NewState()
	return state, r.accounts.Put(address, state)
}

// GetAccount returns the state of the account and whether it exists.
func (r *Repository) GetAccount(address common.Address) (account.State, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts.Get(address)
}

// IsExist reports whether there is a state for the account.
func (r *Repository) IsExist(address common.Address) (bool, error) {
	_, found, err := r.GetAccount(address)
	return found, err
}

// Delete removes the state and the code of the account.
func (r *Repository) Delete(address common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.accounts.Delete(address); err != nil {
		return err
	}
	return r.codes.Delete(address)
}

// getOrCreate returns the state of the account, or a fresh state if the
// account does not exist. Must be called with the lock held.
func (r *Repository) getOrCreate(address common.Address) (account.State, error) {
	state, found, err := r.accounts.Get(address)
	if err != nil {
		return state, err
	}
	if !found {
		state = account.NewState()
	}
	return state, nil
}

// update applies the change to the state of the account, creating the
// account if needed, and buffers the result.
func (r *Repository) update(address common.Address, change func(*account.State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, err := r.getOrCreate(address)
	if err != nil {
		return err
	}
	if err := change(&state); err != nil {
		return err
	}
	return r.accounts.Put(address, state)
}

// readField reads a property of an account without creating the account.
func readField[T any](r *Repository, address common.Address, get func(*account.State) T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, err := r.getOrCreate(address)
	if err != nil {
		var zero T
		return zero, err
	}
	return get(&state), nil
}

// GetBalance returns the balance of the account, zero if the account does
// not exist.
func (r *Repository) GetBalance(address common.Address) (uint256.Int, error) {
	return readField(r, address, func(s *account.State) uint256.Int { return s.Balance })
}

// AddBalance increases the balance of the account and returns the new balance.
func (r *Repository) AddBalance(address common.Address, amount *uint256.Int) (res uint256.Int, err error) {
	err = r.update(address, func(s *account.State) error {
		s.Balance.Add(&s.Balance, amount)
		res = s.Balance
		return nil
	})
	return res, err
}

// SubBalance decreases the balance of the account and returns the new
// balance. If the balance is too low, nothing is changed.
func (r *Repository) SubBalance(address common.Address, amount *uint256.Int) (res uint256.Int, err error) {
	err = r.update(address, func(s *account.State) error {
		if s.Balance.Lt(amount) {
			return fmt.Errorf("%w: %v has %v, needs %v", ErrInsufficientBalance, address, &s.Balance, amount)
		}
		s.Balance.Sub(&s.Balance, amount)
		res = s.Balance
		return nil
	})
	return res, err
}

// GetNonce returns the nonce of the account, zero if the account does not
// exist.
func (r *Repository) GetNonce(address common.Address) (uint64, error) {
	return readField(r, address, func(s *account.State) uint64 { return s.Nonce })
}

// SetNonce sets the nonce of the account, creating the account if needed.
func (r *Repository) SetNonce(address common.Address, nonce uint64) error {
	return r.update(address, func(s *account.State) error {
		s.Nonce = nonce
		return nil
	})
}

// IncreaseNonce increments the nonce of the account and returns the new nonce.
func (r *Repository) IncreaseNonce(address common.Address) (nonce uint64, err error) {
	err = r.update(address, func(s *account.State) error {
		s.Nonce++
		nonce = s.Nonce
		return nil
	})
	return nonce, err
}

// SaveCode stores a copy of the contract code of the account and updates its
// code hash, creating the account if needed.
func (r *Repository) SaveCode(address common.Address, code []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, err := r.getOrCreate(address)
	if err != nil {
		return err
	}
	state.CodeHash = common.Keccak256(code)
	if err := r.codes.Put(address, bytes.Clone(code)); err != nil {
		return err
	}
	return r.accounts.Put(address, state)
}

// GetCode returns a copy of the contract code of the account, nil if there
// is none.
func (r *Repository) GetCode(address common.Address) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, _, err := r.codes.Get(address)
	return bytes.Clone(code), err
}

// GetCodeHash returns the hash of the account's code, the hash of empty code
// if the account does not exist.
func (r *Repository) GetCodeHash(address common.Address) (common.Hash, error) {
	return readField(r, address, func(s *account.State) common.Hash { return s.CodeHash })
}

// AddStorageRow sets a storage slot of the account. Setting the zero value
// deletes the slot.
func (r *Repository) AddStorageRow(address common.Address, key common.Key, value common.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slots, err := r.storage.Get(address)
	if err != nil {
		return err
	}
	if value.IsZero() {
		return slots.Delete(key)
	}
	return slots.Put(key, value)
}

// GetStorageValue returns a storage slot of the account, the zero value if
// the slot is not set.
func (r *Repository) GetStorageValue(address common.Address, key common.Key) (common.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slots, err := r.storage.Get(address)
	if err != nil {
		return common.Value{}, err
	}
	value, _, err := slots.Get(key)
	return value, err
}
