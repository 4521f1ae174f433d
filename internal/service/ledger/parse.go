package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxBottlesPerDelivery bounds a single delivery so that running totals stay
// far from int64 overflow.
const MaxBottlesPerDelivery = 100_000

var (
	// ErrInvalidBottles indicates a delivery count that is not a positive
	// integer up to MaxBottlesPerDelivery.
	ErrInvalidBottles = errors.New("please enter a valid bottle number")
	// ErrInvalidAmount indicates a payment that is not a positive decimal.
	ErrInvalidAmount = errors.New("please enter a valid amount")
	// ErrInvalidPrice indicates a bottle price that is not a non-negative decimal.
	ErrInvalidPrice = errors.New("please enter a valid bottle price")
)

// ParseBottles parses a delivered bottle count typed by the operator.
func ParseBottles(text string) (int64, error) {
	count, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBottles, text)
	}
	if count <= 0 {
		return 0, fmt.Errorf("%w: %d is not positive", ErrInvalidBottles, count)
	}
	if count > MaxBottlesPerDelivery {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrInvalidBottles, count, MaxBottlesPerDelivery)
	}
	return count, nil
}

// ParseAmount parses a payment amount typed by the operator.
func ParseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s is not positive", ErrInvalidAmount, amount)
	}
	return amount, nil
}

// ParsePrice parses a bottle price. Zero is accepted.
func ParsePrice(text string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", ErrInvalidPrice, price)
	}
	return price, nil
}
