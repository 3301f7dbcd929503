package store

import (
	"encoding/json"
	"fmt"

	"github.com/abgdnv/rocketcart/internal/cart"
	carterrors "github.com/abgdnv/rocketcart/internal/cart/errors"
	"github.com/shopspring/decimal"
)

// record is the persisted form of a line item. Price is written as a JSON number.
type record struct {
	ID     int64       `json:"id"`
	Title  string      `json:"title"`
	Price  json.Number `json:"price"`
	Image  string      `json:"image"`
	Amount int32       `json:"amount"`
}

// Encode serializes c as a JSON array of {id, title, price, image, amount} records.
// An empty cart encodes as [].
func Encode(c cart.Cart) ([]byte, error) {
	records := make([]record, len(c))
	for i, it := range c {
		records[i] = record{
			ID:     it.ID,
			Title:  it.Title,
			Price:  json.Number(it.Price.String()),
			Image:  it.Image,
			Amount: it.Amount,
		}
	}
	return json.Marshal(records)
}

// Decode parses data produced by Encode. Data that is not a valid record array,
// or that describes a cart with a zero amount or a repeated id, is rejected with
// ErrMalformedSnapshot.
func Decode(data []byte) (cart.Cart, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", carterrors.ErrMalformedSnapshot, err)
	}
	c := make(cart.Cart, len(records))
	for i, r := range records {
		price, err := decimal.NewFromString(r.Price.String())
		if err != nil {
			return nil, fmt.Errorf("%w: product %d price: %w", carterrors.ErrMalformedSnapshot, r.ID, err)
		}
		c[i] = cart.Item{
			ID:     r.ID,
			Title:  r.Title,
			Price:  price,
			Image:  r.Image,
			Amount: r.Amount,
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", carterrors.ErrMalformedSnapshot, err)
	}
	return c, nil
}
