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
	"errors"
	"testing"
)

func TestSerializers_RejectWrongLength(t *testing.T) {
	if _, err := (AddressSerializer{}).FromBytes(make([]byte, 19)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("address of wrong length accepted: %v", err)
	}
	if _, err := (KeySerializer{}).FromBytes(make([]byte, 33)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("key of wrong length accepted: %v", err)
	}
	if _, err := (ValueSerializer{}).FromBytes(nil); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("value of wrong length accepted: %v", err)
	}
}

func TestSerializers_ConvertFixedSizeTypes(t *testing.T) {
	address := Address{1, 2, 3}
	if got, err := (AddressSerializer{}).FromBytes((AddressSerializer{}).ToBytes(address)); err != nil || got != address {
		t.Errorf("address not restored: %v, %v", got, err)
	}
	key := Key{4, 5, 6}
	if got, err := (KeySerializer{}).FromBytes((KeySerializer{}).ToBytes(key)); err != nil || got != key {
		t.Errorf("key not restored: %v, %v", got, err)
	}
}

func TestBytesSerializer_CopiesInput(t *testing.T) {
	in := []byte{1, 2, 3}
	out, err := (BytesSerializer{}).FromBytes(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in[0] = 9
	if !bytes.Equal(out, []byte{1, 2, 3}) {
		t.Errorf("result shares memory with the input: %v", out)
	}
}

func TestTableSpace_PrefixesKey(t *testing.T) {
	got := StorageBlobKey.ToDBKey([]byte{1, 2})
	if !bytes.Equal(got, []byte{'S', 1, 2}) {
		t.Errorf("unexpected db key: %v", got)
	}
}
