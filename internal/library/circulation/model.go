package circulation

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Loan is a row in the check_in_out table. OPEN means returned = false;
// the only transition is OPEN -> CLOSED on check-in, and there is no way
// back out of CLOSED.
type Loan struct {
	ID           string
	BookID       string
	BorrowerID   string
	CheckedOutAt time.Time
	DueAt        time.Time
	Returned     bool
	ReturnedAt   sql.NullTime
	FineOwed     decimal.Decimal
	FinePaid     decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoanWithBook decorates a loan with its book title for listings.
type LoanWithBook struct {
	Loan
	BookTitle string
}

// ReminderTarget is everything a reminder needs about one open loan.
type ReminderTarget struct {
	Loan
	BookTitle         string
	BorrowerEmail     string
	BorrowerFirstName string
}

// AccrueFine computes the fine owed on return: perDay multiplied by the
// number of late days, counting any started 24h period past due_at as a
// full day. Zero when returned on or before the due date.
func AccrueFine(dueAt, returnedAt time.Time, perDay decimal.Decimal) decimal.Decimal {
	if !returnedAt.After(dueAt) || perDay.IsZero() {
		return decimal.Zero
	}
	late := returnedAt.Sub(dueAt)
	days := int64(late / (24 * time.Hour))
	if late%(24*time.Hour) != 0 {
		days++
	}
	return perDay.Mul(decimal.NewFromInt(days))
}
