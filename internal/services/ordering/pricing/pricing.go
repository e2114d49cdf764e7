// Package pricing computes line and order totals for ordering.
package pricing

import (
	"fmt"
	"math"

	apperrors "github.com/tableside/tableside/internal/platform/errors"
	"github.com/tableside/tableside/internal/services/ordering/storage"
)

// LineTotal returns (price + selected option prices) * quantity.
func LineTotal(item storage.LineItem) (float64, error) {
	return lineTotal(item, "item")
}

// OrderTotal returns the sum of LineTotal over items. The first invalid line
// fails the whole computation.
func OrderTotal(items []storage.LineItem) (float64, error) {
	var total float64
	for i, item := range items {
		line, err := lineTotal(item, fmt.Sprintf("items[%d]", i))
		if err != nil {
			return 0, err
		}
		total += line
		if math.IsInf(total, 0) {
			return 0, invalid("items", "order total overflows")
		}
	}
	return total, nil
}

func lineTotal(item storage.LineItem, field string) (float64, error) {
	if !validAmount(item.Price) {
		return 0, invalid(field+".price", fmt.Sprintf("price %v must be a finite non-negative number", item.Price))
	}
	if item.Quantity <= 0 {
		return 0, invalid(field+".quantity", fmt.Sprintf("quantity %d must be positive", item.Quantity))
	}
	unit := item.Price
	for j, option := range item.SelectedOptions {
		if !validAmount(option.Price) {
			return 0, invalid(
				fmt.Sprintf("%s.selectedOptions[%d].price", field, j),
				fmt.Sprintf("option price %v must be a finite non-negative number", option.Price),
			)
		}
		unit += option.Price
	}
	total := unit * float64(item.Quantity)
	if math.IsInf(total, 0) {
		return 0, invalid(field, "line total overflows")
	}
	return total, nil
}

// ValidAmount reports whether value is a finite non-negative price.
func ValidAmount(value float64) bool {
	return validAmount(value)
}

func validAmount(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0
}

func invalid(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": field})
}
