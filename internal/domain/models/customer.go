package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRecord is a customer document as the document store returns it.
// Every field except the identifiers may be absent.
type CustomerRecord struct {
	ID          string     `bson:"_id"`
	SubjectID   string     `bson:"subject_id"`
	Name        *string    `bson:"name,omitempty"`
	Building    *string    `bson:"building,omitempty"`
	Room        *string    `bson:"room,omitempty"`
	Contact     *string    `bson:"contact,omitempty"`
	BottlePrice *float64   `bson:"bottle_price,omitempty"`
	CreatedAt   *time.Time `bson:"created_at,omitempty"`
}

// BottlePriceOrZero returns the price per bottle, or zero when absent.
func (r CustomerRecord) BottlePriceOrZero() decimal.Decimal {
	if r.BottlePrice == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*r.BottlePrice)
}

// Customer converts the stored record into its presentation form.
func (r CustomerRecord) Customer() Customer {
	return Customer{
		ID:          r.ID,
		Name:        stringOrEmpty(r.Name),
		Building:    stringOrEmpty(r.Building),
		Room:        stringOrEmpty(r.Room),
		Contact:     stringOrEmpty(r.Contact),
		BottlePrice: r.BottlePriceOrZero(),
		CreatedAt:   r.CreatedAt,
	}
}

// Customer is a registered delivery customer.
type Customer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Building    string          `json:"building"`
	Room        string          `json:"room"`
	Contact     string          `json:"contact"`
	BottlePrice decimal.Decimal `json:"bottlePrice"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
}

// Matches reports whether the customer name, building or contact contains
// the query, ignoring case. An empty query matches everything.
func (c Customer) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Building), q) ||
		strings.Contains(strings.ToLower(c.Contact), q)
}

// NewCustomerInput carries the operator-entered registration fields.
type NewCustomerInput struct {
	Name        string   `json:"name"`
	Building    string   `json:"building"`
	Room        string   `json:"room"`
	Contact     string   `json:"contact"`
	BottlePrice FreeText `json:"bottlePrice"`
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
