package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name          string
		data          string
		wantQuantity  int
		wantProductID string
		wantError     bool
	}{
		{name: "valid", data: "2,p1", wantQuantity: 2, wantProductID: "p1"},
		{name: "uuid product", data: "5,0b8f3c2e-1d4a-4f8e-9c3b-7a6d5e4f3a21", wantQuantity: 5, wantProductID: "0b8f3c2e-1d4a-4f8e-9c3b-7a6d5e4f3a21"},
		{name: "zero quantity", data: "0,p1", wantError: true},
		{name: "negative quantity", data: "-1,p1", wantError: true},
		{name: "not a number", data: "x,p1", wantError: true},
		{name: "missing separator", data: "p1", wantError: true},
		{name: "missing product", data: "2,", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quantity, productID, err := keyboard.ParseQuantity(tt.data)
			if tt.wantError {
				require.ErrorIs(t, err, keyboard.ErrMalformedData)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantQuantity, quantity)
			assert.Equal(t, tt.wantProductID, productID)
		})
	}
}

func TestQuantityDataRoundTrip(t *testing.T) {
	for _, q := range keyboard.Quantities {
		quantity, productID, err := keyboard.ParseQuantity(keyboard.QuantityData(q, "p9"))
		require.NoError(t, err)
		assert.Equal(t, q, quantity)
		assert.Equal(t, "p9", productID)
	}
}

func TestParseRemove(t *testing.T) {
	lineID, ok := keyboard.ParseRemove(keyboard.RemoveData("line-1"))
	assert.True(t, ok)
	assert.Equal(t, "line-1", lineID)

	for _, data := range []string{"cart", "remove", "remove,", "2,p1", "delete,line-1"} {
		_, ok := keyboard.ParseRemove(data)
		assert.False(t, ok, data)
	}
}
