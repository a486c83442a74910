// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package source

// Source is a minimal key/value store abstraction. It is the backing store of
// write-back caches and the form in which a cache layer is exposed to the
// overlays built on top of it.
type Source[K comparable, V any] interface {
	// Get returns the value associated with the key. The boolean result is
	// false if the key is not present.
	Get(key K) (V, bool, error)

	// Put associates the value with the key, replacing any previous value.
	Put(key K, value V) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key K) error
}
