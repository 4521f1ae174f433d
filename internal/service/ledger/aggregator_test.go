package ledger

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/waterbill/internal/domain/models"
)

func price(v float64) *float64 { return &v }

func deliveries(counts ...int64) []models.DeliveryRecord {
	out := make([]models.DeliveryRecord, 0, len(counts))
	for _, c := range counts {
		c := c
		out = append(out, models.DeliveryRecord{Bottles: &c})
	}
	return out
}

func payments(amounts ...float64) []models.PaymentRecord {
	out := make([]models.PaymentRecord, 0, len(amounts))
	for _, a := range amounts {
		a := a
		out = append(out, models.PaymentRecord{Amount: &a})
	}
	return out
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCompute_PartiallyPaid(t *testing.T) {
	customer := models.CustomerRecord{BottlePrice: price(10)}

	got := Compute(customer, deliveries(5, 3), payments(60))

	assert.Equal(t, int64(8), got.TotalBottles)
	assertDecimal(t, "80", got.TotalAmount)
	assertDecimal(t, "60", got.TotalPaid)
	assertDecimal(t, "20", got.RemainingDue)
}

func TestCompute_OverpaidIsNegative(t *testing.T) {
	customer := models.CustomerRecord{BottlePrice: price(10)}

	got := Compute(customer, deliveries(5, 3), payments(100))

	assertDecimal(t, "80", got.TotalAmount)
	assertDecimal(t, "-20", got.RemainingDue)
	assert.True(t, got.RemainingDue.IsNegative())
}

func TestCompute_Empty(t *testing.T) {
	got := Compute(models.CustomerRecord{BottlePrice: price(12.5)}, nil, nil)

	assert.Equal(t, int64(0), got.TotalBottles)
	assert.True(t, got.TotalAmount.IsZero())
	assert.True(t, got.TotalPaid.IsZero())
	assert.True(t, got.RemainingDue.IsZero())
}

func TestCompute_MissingFieldsCountAsZero(t *testing.T) {
	records := append(deliveries(4), models.DeliveryRecord{ID: "no-bottles"})
	paid := append(payments(7.5), models.PaymentRecord{ID: "no-amount"})

	got := Compute(models.CustomerRecord{}, records, paid)

	assert.Equal(t, int64(4), got.TotalBottles)
	assert.True(t, got.TotalAmount.IsZero(), "missing price must yield zero amount")
	assertDecimal(t, "7.5", got.TotalPaid)
	assertDecimal(t, "-7.5", got.RemainingDue)
}

func TestCompute_DecimalPrices(t *testing.T) {
	got := Compute(models.CustomerRecord{BottlePrice: price(0.1)}, deliveries(1, 1, 1), payments(0.2))

	assertDecimal(t, "0.3", got.TotalAmount)
	assertDecimal(t, "0.1", got.RemainingDue)
}

func TestCompute_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 50; i++ {
		counts := make([]int64, rng.IntN(20))
		var sumBottles int64
		for j := range counts {
			counts[j] = rng.Int64N(40)
			sumBottles += counts[j]
		}
		amounts := make([]float64, rng.IntN(20))
		var sumPaid int64
		for j := range amounts {
			v := rng.Int64N(500)
			amounts[j] = float64(v)
			sumPaid += v
		}
		unit := float64(rng.IntN(30))
		customer := models.CustomerRecord{BottlePrice: price(unit)}

		want := Compute(customer, deliveries(counts...), payments(amounts...))

		rng.Shuffle(len(counts), func(a, b int) { counts[a], counts[b] = counts[b], counts[a] })
		rng.Shuffle(len(amounts), func(a, b int) { amounts[a], amounts[b] = amounts[b], amounts[a] })
		got := Compute(customer, deliveries(counts...), payments(amounts...))

		expectedAmount := decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(sumBottles))
		assert.Equal(t, sumBottles, got.TotalBottles)
		assert.True(t, got.TotalPaid.Equal(decimal.NewFromInt(sumPaid)))
		assert.True(t, got.TotalAmount.Equal(expectedAmount))
		assert.True(t, got.RemainingDue.Equal(expectedAmount.Sub(decimal.NewFromInt(sumPaid))))
		assert.Equal(t, want.TotalBottles, got.TotalBottles)
		assert.True(t, want.RemainingDue.Equal(got.RemainingDue))
	}
}

func TestSummarize(t *testing.T) {
	totals := Summarize(deliveries(2, 9), payments(15, 5.25))

	assert.Equal(t, int64(11), totals.Bottles)
	assertDecimal(t, "20.25", totals.Paid)
}

func TestCompute_HugeStoredCountsDoNotWrap(t *testing.T) {
	balance := Compute(models.CustomerRecord{BottlePrice: price(10)}, deliveries(math.MaxInt64, math.MaxInt64), nil)

	assert.Equal(t, int64(math.MaxInt64), balance.TotalBottles)
	assert.True(t, balance.TotalAmount.IsPositive())
	assert.True(t, balance.RemainingDue.IsPositive())
}
