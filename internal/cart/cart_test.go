package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int64, price string, amount int32) Item {
	return Item{ID: id, Title: "p", Price: decimal.RequireFromString(price), Amount: amount}
}

func Test_Cart_Total(t *testing.T) {
	testCases := []struct {
		name string
		cart Cart
		want string
	}{
		{name: "empty", cart: Cart{}, want: "0"},
		{name: "single", cart: Cart{item(1, "179.9", 2)}, want: "359.8"},
		{name: "several", cart: Cart{item(1, "179.9", 1), item(2, "139.9", 3)}, want: "599.6"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tc.want).Equal(tc.cart.Total()), "got %s", tc.cart.Total())
		})
	}
}

func Test_Cart_FindAndWithout(t *testing.T) {
	// given
	c := Cart{item(1, "1", 1), item(2, "1", 2), item(3, "1", 3)}

	// when
	it, found := c.Find(2)
	_, missing := c.Find(9)
	rest := c.Without(c.Index(2))

	// then
	require.True(t, found)
	assert.Equal(t, int32(2), it.Amount)
	assert.False(t, missing)
	assert.Equal(t, map[int64]int32{1: 1, 3: 3}, rest.Quantities())
	assert.Len(t, c, 3, "original is untouched")
}

func Test_Cart_Clone(t *testing.T) {
	c := Cart{item(1, "1", 1)}
	cl := c.Clone()
	cl[0].Amount = 5
	assert.Equal(t, int32(1), c[0].Amount)
}

func Test_Cart_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		cart    Cart
		wantErr bool
	}{
		{name: "valid", cart: Cart{item(1, "1", 1), item(2, "1", 5)}},
		{name: "empty", cart: Cart{}},
		{name: "zero amount", cart: Cart{item(1, "1", 0)}, wantErr: true},
		{name: "duplicate id", cart: Cart{item(1, "1", 1), item(1, "1", 2)}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cart.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
