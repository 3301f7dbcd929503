// Package events holds the messages exchanged between the cart services over NATS.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/rocketcart/pkg/messaging"
)

// CartLine is a single {product, quantity} pair of a cart snapshot.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Amount    int32 `json:"amount"`
}

type CartUpdatedEvent struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	Operation string            `json:"operation"`
	ProductID int64             `json:"product_id"`
	Lines     []CartLine        `json:"lines"`
	Total     string            `json:"total"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (e CartUpdatedEvent) Subject() string {
	return messaging.CartUpdatedSubject
}

func (e CartUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// CartNotificationEvent is a user-facing message about a rejected cart operation.
type CartNotificationEvent struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	Message   string            `json:"message"`
	Kind      string            `json:"kind"`
	CreatedAt time.Time         `json:"created_at"`
}

func (e CartNotificationEvent) Subject() string {
	return messaging.CartNotificationsSubject
}

func (e CartNotificationEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
