package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport aggregates one operator's deliveries and payments for a day.
type DailyReport struct {
	SubjectID        string          `json:"subjectId"`
	Date             time.Time       `json:"date"`
	BottlesDelivered int64           `json:"bottlesDelivered"`
	Income           decimal.Decimal `json:"income"`
	Customers        int             `json:"customers"`
	CreatedAt        time.Time       `json:"createdAt"`
}
