// Package store persists the cart as a single snapshot in a key-value slot.
//
// The snapshot is read once when the cart is restored and rewritten whole after every
// accepted mutation. Slots are interchangeable: a local file (default), process memory,
// Redis or a PostgreSQL table.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/rocketcart/internal/cart"
)

// DefaultKey is the namespaced key the cart snapshot lives under.
const DefaultKey = "@RocketShoes:cart"

// ErrSlotEmpty is returned by a Slot when nothing is stored under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a durable key-value slot holding opaque bytes.
type Slot interface {
	// Read returns the value stored under key, or ErrSlotEmpty.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the value stored under key.
	Write(ctx context.Context, key string, value []byte) error
}

// SnapshotStore encodes carts into a Slot under a fixed key.
type SnapshotStore struct {
	slot Slot
	key  string
}

// NewSnapshotStore creates a SnapshotStore. An empty key selects DefaultKey.
func NewSnapshotStore(slot Slot, key string) *SnapshotStore {
	if key == "" {
		key = DefaultKey
	}
	return &SnapshotStore{slot: slot, key: key}
}

// Load returns the persisted cart. A missing snapshot yields an empty cart;
// a snapshot that cannot be decoded yields ErrMalformedSnapshot.
func (s *SnapshotStore) Load(ctx context.Context) (cart.Cart, error) {
	data, err := s.slot.Read(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			return cart.Cart{}, nil
		}
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	return Decode(data)
}

// OnMutated overwrites the snapshot with c.
func (s *SnapshotStore) OnMutated(ctx context.Context, c cart.Cart) error {
	data, err := Encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := s.slot.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	return nil
}
