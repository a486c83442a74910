// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// AddressSize is the number of bytes of an account address.
	AddressSize = 20
	// WordSize is the number of bytes of a storage slot key or value.
	WordSize = 32
	// HashSize is the number of bytes of a Keccak256 hash.
	HashSize = 32
)

// Address identifies an account.
type Address [AddressSize]byte

// Key identifies a storage slot of a contract.
type Key [WordSize]byte

// Value is the content of a storage slot.
type Value [WordSize]byte

// Hash is a Keccak256 hash.
type Hash [HashSize]byte

// ErrInvalidLength is returned when a byte sequence does not match the width
// of the fixed-size type it is converted to.
const ErrInvalidLength = ConstError("invalid length")

// Compare orders addresses by unsigned byte-wise comparison.
func (a *Address) Compare(b *Address) int {
	return bytes.Compare(a[:], b[:])
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Compare orders keys by unsigned byte-wise comparison.
func (k *Key) Compare(b *Key) int {
	return bytes.Compare(k[:], b[:])
}

func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// Compare orders values by unsigned byte-wise comparison.
func (v *Value) Compare(b *Value) int {
	return bytes.Compare(v[:], b[:])
}

// IsZero is true for the all-zero value, which storage treats as absent.
func (v Value) IsZero() bool {
	return v == Value{}
}

func (v Value) String() string {
	return "0x" + hex.EncodeToString(v[:])
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// ParseAddress decodes a hex string, with or without 0x prefix, into an address.
func ParseAddress(str string) (Address, error) {
	var res Address
	data, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return res, fmt.Errorf("invalid address %q; %w", str, err)
	}
	if len(data) != AddressSize {
		return res, fmt.Errorf("%w: address %q has %d bytes, expected %d", ErrInvalidLength, str, len(data), AddressSize)
	}
	copy(res[:], data)
	return res, nil
}

// AddressFromNumber creates the address of an account by its number, placing
// it big-endian into the lowest 8 bytes.
func AddressFromNumber(num uint64) Address {
	var res Address
	for i := 0; i < 8; i++ {
		res[AddressSize-1-i] = byte(num >> (8 * i))
	}
	return res
}
