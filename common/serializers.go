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

import "fmt"

// Serializer converts values of type T to and from the byte representation
// used by key/value backends.
type Serializer[T any] interface {
	ToBytes(T) []byte
	FromBytes([]byte) (T, error)
}

// AddressSerializer is a Serializer of the Address type
type AddressSerializer struct{}

func (AddressSerializer) ToBytes(address Address) []byte {
	return address[:]
}

func (AddressSerializer) FromBytes(bytes []byte) (Address, error) {
	var address Address
	if len(bytes) != AddressSize {
		return address, fmt.Errorf("%w: got %d bytes for an address", ErrInvalidLength, len(bytes))
	}
	copy(address[:], bytes)
	return address, nil
}

// KeySerializer is a Serializer of the Key type
type KeySerializer struct{}

func (KeySerializer) ToBytes(key Key) []byte {
	return key[:]
}

func (KeySerializer) FromBytes(bytes []byte) (Key, error) {
	var key Key
	if len(bytes) != WordSize {
		return key, fmt.Errorf("%w: got %d bytes for a key", ErrInvalidLength, len(bytes))
	}
	copy(key[:], bytes)
	return key, nil
}

// ValueSerializer is a Serializer of the Value type
type ValueSerializer struct{}

func (ValueSerializer) ToBytes(value Value) []byte {
	return value[:]
}

func (ValueSerializer) FromBytes(bytes []byte) (Value, error) {
	var value Value
	if len(bytes) != WordSize {
		return value, fmt.Errorf("%w: got %d bytes for a value", ErrInvalidLength, len(bytes))
	}
	copy(value[:], bytes)
	return value, nil
}

// BytesSerializer is a Serializer of variable length byte slices, e.g. contract codes.
type BytesSerializer struct{}

func (BytesSerializer) ToBytes(data []byte) []byte {
	return data
}

func (BytesSerializer) FromBytes(bytes []byte) ([]byte, error) {
	res := make([]byte, len(bytes))
	copy(res, bytes)
	return res, nil
}
