// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package adapter

import (
	"errors"
	"testing"

	pmemory "github.com/Fantom-foundation/ServiceState/go/backend/persistence/memory"
	"github.com/Fantom-foundation/ServiceState/go/backend/source/memory"
	"github.com/Fantom-foundation/ServiceState/go/common"
	"github.com/Fantom-foundation/ServiceState/go/state/account"
	"github.com/Fantom-foundation/ServiceState/go/state/repository"
)

func mustParse(t *testing.T, str string) common.Address {
	t.Helper()
	res, err := common.ParseAddress(str)
	if err != nil {
		t.Fatalf("failed to parse address: %v", err)
	}
	return res
}

func TestAdapter_CalculateNewAddressUsesOwnerNonce(t *testing.T) {
	root, err := repository.NewRoot(
		memory.NewSource[common.Address, account.State](),
		memory.NewSource[common.Address, []byte](),
		pmemory.NewPersistence(),
		repository.Parameters{},
	)
	if err != nil {
		t.Fatalf("failed to create root: %v", err)
	}
	owner := mustParse(t, "970E8128AB834E8EAC17Ab8E3812F010678CF791")
	want := []string{
		"333c3310824b7c685133f2bedb2ca4b8b4df633d",
		"8bda78331c916a08481428e4b07c96d3e916d165",
		"c9ddedf451bc62ce88bf9292afb13df35b670699",
	}

	adapter := NewAccountCreateAdapter()
	for nonce, expected := range want {
		got, err := adapter.CalculateNewAddress(owner, root)
		if err != nil {
			t.Fatalf("failed to calculate address: %v", err)
		}
		if got != mustParse(t, expected) {
			t.Errorf("unexpected address for nonce %d: got %v, want %s", nonce, got, expected)
		}
		if _, err := root.IncreaseNonce(owner); err != nil {
			t.Fatalf("failed to increase nonce: %v", err)
		}
	}
}

type failingNonces struct{ err error }

func (f failingNonces) GetNonce(common.Address) (uint64, error) {
	return 0, f.err
}

func TestAdapter_CalculateNewAddressReportsNonceErrors(t *testing.T) {
	injected := errors.New("injected")
	if _, err := NewAccountCreateAdapter().CalculateNewAddress(common.Address{1}, failingNonces{injected}); !errors.Is(err, injected) {
		t.Errorf("nonce failure not reported: %v", err)
	}
}

func TestAdapter_CreatedContractsAreGroupedByCreator(t *testing.T) {
	adapter := NewAccountCreateAdapter()
	creatorA, creatorB := common.Address{0xA}, common.Address{0xB}
	adapter.AddCreatedContract(common.Address{1}, creatorA)
	adapter.AddCreatedContract(common.Address{2}, creatorB)
	adapter.AddCreatedContract(common.Address{3}, creatorA)

	created := adapter.GetCreatedContracts()
	if len(created) != 2 {
		t.Fatalf("unexpected number of creators: %d", len(created))
	}
	if got := created[creatorA]; len(got) != 2 || got[0] != (common.Address{1}) || got[1] != (common.Address{3}) {
		t.Errorf("unexpected contracts of A: %v", got)
	}
	if got := created[creatorB]; len(got) != 1 || got[0] != (common.Address{2}) {
		t.Errorf("unexpected contracts of B: %v", got)
	}

	created[creatorA][0] = common.Address{0xFF}
	if got := adapter.GetCreatedContracts()[creatorA][0]; got != (common.Address{1}) {
		t.Errorf("snapshot modification changed adapter state")
	}
}
