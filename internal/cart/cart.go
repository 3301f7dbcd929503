// Package cart holds the shopper's cart model.
//
// A Cart is an ordered list of line items, unique by product id, each with a quantity of at
// least one. Quantities are checked against catalog stock only when an item is mutated; a
// later drop in stock is not reflected until the next mutation of that item.
package cart

import (
	"fmt"

	"github.com/abgdnv/rocketcart/internal/catalog"
	"github.com/shopspring/decimal"
)

// Item is a cart line item. Amount is the quantity in the cart.
type Item = catalog.Product

// Cart is an ordered sequence of line items.
type Cart []Item

// Index returns the position of the item with the given product id, or -1.
func (c Cart) Index(productID int64) int {
	for i := range c {
		if c[i].ID == productID {
			return i
		}
	}
	return -1
}

// Find returns the item with the given product id and whether it was found.
func (c Cart) Find(productID int64) (Item, bool) {
	if i := c.Index(productID); i >= 0 {
		return c[i], true
	}
	return Item{}, false
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Without returns a copy of c without the item at index i.
func (c Cart) Without(i int) Cart {
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...)
}

// Subtotal returns price × amount for an item.
func Subtotal(it Item) decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt32(it.Amount))
}

// Total returns the sum of all subtotals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(Subtotal(it))
	}
	return total
}

// Quantities returns the {id: amount} view used to compare carts.
func (c Cart) Quantities() map[int64]int32 {
	q := make(map[int64]int32, len(c))
	for _, it := range c {
		q[it.ID] = it.Amount
	}
	return q
}

// Validate checks that every amount is at least one and that no id repeats.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for _, it := range c {
		if it.Amount < 1 {
			return fmt.Errorf("product %d has amount %d", it.ID, it.Amount)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("product %d appears more than once", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}
