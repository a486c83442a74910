// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import "testing"

func TestSource_PutGetDelete(t *testing.T) {
	src := NewSource[int, string]()

	if _, found, err := src.Get(1); err != nil || found {
		t.Fatalf("empty source should not contain key: %t, %v", found, err)
	}
	if err := src.Put(1, "a"); err != nil {
		t.Fatalf("failed to put: %v", err)
	}
	if value, found, err := src.Get(1); err != nil || !found || value != "a" {
		t.Errorf("unexpected result: %v, %t, %v", value, found, err)
	}
	if err := src.Delete(1); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, found, _ := src.Get(1); found {
		t.Errorf("deleted key still present")
	}
	if err := src.Delete(2); err != nil {
		t.Errorf("deleting a missing key must not fail: %v", err)
	}
	if src.Len() != 0 {
		t.Errorf("unexpected size %d", src.Len())
	}
}
