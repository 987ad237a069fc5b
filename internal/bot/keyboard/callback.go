package keyboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	CallbackDataSeparator  = ","
	CallbackDataLimitBytes = 64
)

// Reserved callback data. A reserved value overrides the stored conversation state.
const (
	DataCart    = "cart"
	DataMenu    = "menu"
	DataPayment = "payment"
	dataRemove  = "remove"
)

// Quantities offered on a product card, in kilograms.
var Quantities = []int{1, 2, 5}

var ErrMalformedData = errors.New("malformed callback data")

// ValidateData checks that data fits into a Telegram callback.
func ValidateData(data string) error {
	if data == "" {
		return fmt.Errorf("%w: empty", ErrMalformedData)
	}
	if len(data) > CallbackDataLimitBytes {
		return fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(data))
	}
	return nil
}

// QuantityData encodes "<quantity>,<product_id>".
func QuantityData(quantity int, productID string) string {
	return strconv.Itoa(quantity) + CallbackDataSeparator + productID
}

// ParseQuantity decodes "<quantity>,<product_id>". The quantity must be a positive integer.
func ParseQuantity(data string) (int, string, error) {
	raw, productID, ok := strings.Cut(data, CallbackDataSeparator)
	if !ok || productID == "" {
		return 0, "", fmt.Errorf("%w: %q", ErrMalformedData, data)
	}

	quantity, err := strconv.Atoi(raw)
	if err != nil || quantity <= 0 {
		return 0, "", fmt.Errorf("%w: quantity %q", ErrMalformedData, raw)
	}

	return quantity, productID, nil
}

// RemoveData encodes "remove,<line_id>".
func RemoveData(lineID string) string {
	return dataRemove + CallbackDataSeparator + lineID
}

// ParseRemove reports the cart line id of a "remove,<line_id>" token.
func ParseRemove(data string) (string, bool) {
	prefix, lineID, ok := strings.Cut(data, CallbackDataSeparator)
	if !ok || prefix != dataRemove || lineID == "" {
		return "", false
	}
	return lineID, true
}
