package dto

import (
	"time"

	"github.com/hongminglow/rideledger/internal/models"
)

// DateRange is an optional inclusive [Start, End] filter on transaction_date.
type DateRange struct {
	Start *Timestamp
	End   *Timestamp
}

// Resolve returns the bounds in loc. A date-only End resolves to midnight
// of that day.
func (r DateRange) Resolve(loc *time.Location) (from, to *time.Time) {
	if r.Start != nil {
		t := r.Start.In(loc)
		from = &t
	}
	if r.End != nil {
		t := r.End.In(loc)
		to = &t
	}
	return from, to
}

// TransactionQuery holds the GET /transactions filters.
type TransactionQuery struct {
	Type       *models.TransactionType
	CategoryID *int64
	Range      DateRange
	Skip       int
	Limit      int
}
