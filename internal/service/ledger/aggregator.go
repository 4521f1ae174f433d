// Package ledger derives customer balances from append-only delivery and
// payment records and validates the values operators type in.
package ledger

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/waterbill/internal/domain/models"
)

// Compute derives the balance of one customer. Absent bottle counts, amounts
// and bottle price count as zero, so the result never fails and does not
// depend on the order of either slice.
func Compute(customer models.CustomerRecord, deliveries []models.DeliveryRecord, payments []models.PaymentRecord) models.Balance {
	totals := Summarize(deliveries, payments)

	totalAmount := customer.BottlePriceOrZero().Mul(decimal.NewFromInt(totals.Bottles))

	return models.Balance{
		TotalBottles: totals.Bottles,
		TotalAmount:  totalAmount,
		TotalPaid:    totals.Paid,
		RemainingDue: totalAmount.Sub(totals.Paid),
	}
}

// Totals are the raw sums of a set of deliveries and payments.
type Totals struct {
	Bottles int64
	Paid    decimal.Decimal
}

// Summarize sums bottles and payment amounts without pricing them. Stored
// documents are not validated, so the bottle sum saturates instead of
// wrapping around.
func Summarize(deliveries []models.DeliveryRecord, payments []models.PaymentRecord) Totals {
	totals := Totals{Paid: decimal.Zero}

	for _, d := range deliveries {
		totals.Bottles = addBottles(totals.Bottles, d.BottlesOrZero())
	}
	for _, p := range payments {
		totals.Paid = totals.Paid.Add(p.AmountOrZero())
	}

	return totals
}

func addBottles(sum, n int64) int64 {
	switch {
	case n > 0 && sum > math.MaxInt64-n:
		return math.MaxInt64
	case n < 0 && sum < math.MinInt64-n:
		return math.MinInt64
	}
	return sum + n
}
