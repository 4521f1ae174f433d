package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryRecord is an append-only delivery document.
type DeliveryRecord struct {
	ID         string     `bson:"_id"`
	SubjectID  string     `bson:"subject_id"`
	CustomerID string     `bson:"customer_id"`
	Bottles    *int64     `bson:"bottles,omitempty"`
	Date       *time.Time `bson:"date,omitempty"`
}

// BottlesOrZero returns the delivered bottle count, or zero when absent.
func (r DeliveryRecord) BottlesOrZero() int64 {
	if r.Bottles == nil {
		return 0
	}
	return *r.Bottles
}

// Delivery converts the stored record into its presentation form.
func (r DeliveryRecord) Delivery() Delivery {
	return Delivery{ID: r.ID, Bottles: r.BottlesOrZero(), Date: r.Date}
}

// PaymentRecord is an append-only payment document.
type PaymentRecord struct {
	ID         string     `bson:"_id"`
	SubjectID  string     `bson:"subject_id"`
	CustomerID string     `bson:"customer_id"`
	Amount     *float64   `bson:"amount,omitempty"`
	Date       *time.Time `bson:"date,omitempty"`
}

// AmountOrZero returns the paid amount, or zero when absent.
func (r PaymentRecord) AmountOrZero() decimal.Decimal {
	if r.Amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*r.Amount)
}

// Payment converts the stored record into its presentation form.
func (r PaymentRecord) Payment() Payment {
	return Payment{ID: r.ID, Amount: r.AmountOrZero(), Date: r.Date}
}

// Delivery is one logged bottle delivery.
type Delivery struct {
	ID      string     `json:"id"`
	Bottles int64      `json:"bottles"`
	Date    *time.Time `json:"date,omitempty"`
}

// Payment is one logged payment.
type Payment struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date,omitempty"`
}

// Balance holds the figures derived from a customer's deliveries and payments.
// RemainingDue is negative when the customer has overpaid.
type Balance struct {
	TotalBottles int64           `json:"totalBottles"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	RemainingDue decimal.Decimal `json:"remainingDue"`
}

// CustomerBalance is a customer together with its current balance.
type CustomerBalance struct {
	Customer
	Balance
}

// History lists every delivery and payment of one customer.
type History struct {
	Customer   Customer   `json:"customer"`
	Deliveries []Delivery `json:"deliveries"`
	Payments   []Payment  `json:"payments"`
	Balance    Balance    `json:"balance"`
}
