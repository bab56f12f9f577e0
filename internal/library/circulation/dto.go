package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckOutRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

type CheckInRequest struct {
	ID string `json:"id" binding:"required"`
}

type LoanResponse struct {
	ID           string          `json:"id"`
	BookID       string          `json:"book_id"`
	BookTitle    string          `json:"book_title,omitempty"`
	BorrowerID   string          `json:"borrower_id"`
	CheckedOutAt time.Time       `json:"checked_out_at"`
	DueAt        time.Time       `json:"due_at"`
	Returned     bool            `json:"returned"`
	ReturnedAt   *time.Time      `json:"returned_at,omitempty"`
	FineOwed     decimal.Decimal `json:"fine_owed"`
	FinePaid     decimal.Decimal `json:"fine_paid"`
	Status       Status          `json:"status"`
}

type ReminderFlagsResponse struct {
	HasDue  bool `json:"has_due"`
	HasLate bool `json:"has_late"`
}

// ListFilter selects which open loans a librarian listing returns.
type ListFilter string

const (
	FilterAll     ListFilter = "ALL"
	FilterDueSoon ListFilter = "DUE_SOON"
	FilterLate    ListFilter = "LATE"
)

func ParseListFilter(s string) (ListFilter, bool) {
	switch ListFilter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterDueSoon:
		return FilterDueSoon, true
	case FilterLate:
		return FilterLate, true
	}
	return "", false
}
