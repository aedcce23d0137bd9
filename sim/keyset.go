package sim

import (
	"fmt"
	"slices"
)

// KeySet is the logical content of a B-tree: a strictly increasing set of
// integer keys plus the tree order used to derive its height.
type KeySet struct {
	order int
	keys  []int64
}

// NewKeySet creates an empty key set. Panics if order < 2.
func NewKeySet(order int) *KeySet {
	if order < 2 {
		panic(fmt.Sprintf("KeySet: order must be >= 2, got %d", order))
	}
	return &KeySet{order: order}
}

// Order returns the maximum number of children per node.
func (k *KeySet) Order() int { return k.order }

// Len returns the number of keys.
func (k *KeySet) Len() int { return len(k.keys) }

// Keys returns a copy of the keys in ascending order.
func (k *KeySet) Keys() []int64 { return slices.Clone(k.keys) }

// Contains reports whether key is present.
func (k *KeySet) Contains(key int64) bool {
	_, found := slices.BinarySearch(k.keys, key)
	return found
}

// Insert adds key, failing if it is already present.
func (k *KeySet) Insert(key int64) error {
	i, found := slices.BinarySearch(k.keys, key)
	if found {
		return newActionError(FailureDuplicateKey, "Key %d already exists", key)
	}
	k.keys = slices.Insert(k.keys, i, key)
	return nil
}

// Delete removes key, failing if it is absent.
func (k *KeySet) Delete(key int64) error {
	i, found := slices.BinarySearch(k.keys, key)
	if !found {
		return newActionError(FailureKeyNotFound, "Key %d not found", key)
	}
	k.keys = slices.Delete(k.keys, i, i+1)
	return nil
}

// Height returns max(1, ceil(log_order(len+1))), computed as the smallest h
// with order^h >= len+1.
func (k *KeySet) Height() int {
	target := int64(len(k.keys)) + 1
	h := 0
	for capacity := int64(1); capacity < target; capacity *= int64(k.order) {
		h++
	}
	return max(1, h)
}

// MaxKeysPerNode is order-1.
func (k *KeySet) MaxKeysPerNode() int { return k.order - 1 }

func checkKeys(order int, keys []int64) error {
	if order < 2 {
		return malformed("dbms.btree.order", "order must be >= 2, got %d", order)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] <= keys[i-1] {
			return malformed("dbms.btree.keys", "keys not strictly increasing at index %d (%d after %d)", i, keys[i], keys[i-1])
		}
	}
	return nil
}
