package circulation

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/db"
)

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ===== Service =====

type Service struct {
	store      LoanStore
	clock      Clock
	id         IDGen
	loanPeriod time.Duration
	classifier Classifier
	finePerDay decimal.Decimal
}

func NewService(sqlDB *sql.DB, cfg db.CirculationConfig) (*Service, error) {
	finePerDay, err := decimal.NewFromString(cfg.FinePerDay)
	if err != nil {
		return nil, fmt.Errorf("invalid fine_per_day %q: %w", cfg.FinePerDay, err)
	}
	if finePerDay.IsNegative() {
		return nil, fmt.Errorf("fine_per_day must be >= 0, got %s", finePerDay)
	}

	return &Service{
		store:      NewStore(sqlDB),
		clock:      realClock{},
		id:         ulidGen{},
		loanPeriod: time.Duration(cfg.LoanPeriodDays) * 24 * time.Hour,
		classifier: NewClassifier(cfg.ReminderWindowDays),
		finePerDay: finePerDay,
	}, nil
}

// Classifier exposes the single shared classifier value so that the
// reminder dispatcher sweeps with the same window the listings use.
func (s *Service) Classifier() Classifier { return s.classifier }

// CheckOut creates a loan for the borrower. The availability and
// single-active-loan checks run inside the store transaction; transient
// lock conflicts are retried a bounded number of times before surfacing
// as a conflict.
func (s *Service) CheckOut(ctx context.Context, borrowerID, bookID string) (LoanResponse, error) {
	if strings.TrimSpace(bookID) == "" {
		return LoanResponse{}, ErrInvalid("book_id is required")
	}

	now := s.clock.Now()
	m := &Loan{
		ID:           s.id.NewULID(now),
		BookID:       bookID,
		BorrowerID:   borrowerID,
		CheckedOutAt: now,
		DueAt:        now.Add(s.loanPeriod),
		FineOwed:     decimal.Zero,
		FinePaid:     decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := db.WithLockRetry(ctx, func() error {
		return s.store.ExecCheckOut(ctx, m)
	})
	if err != nil {
		if db.IsLockConflict(err) {
			return LoanResponse{}, ErrConflict("checkout conflicted with another write, please retry")
		}
		return LoanResponse{}, err
	}

	return s.buildLoanResponse(LoanWithBook{Loan: *m}), nil
}

// CheckIn closes the borrower's open loan with the given id.
func (s *Service) CheckIn(ctx context.Context, borrowerID, loanID string) (LoanResponse, error) {
	if strings.TrimSpace(loanID) == "" {
		return LoanResponse{}, ErrInvalid("id is required")
	}

	m, err := s.store.ExecCheckIn(ctx, loanID, borrowerID, s.clock.Now(), s.finePerDay)
	if err != nil {
		return LoanResponse{}, err
	}
	return s.buildLoanResponse(LoanWithBook{Loan: *m}), nil
}

func (s *Service) ListForBorrower(ctx context.Context, borrowerID string) ([]LoanResponse, error) {
	loans, err := s.store.ListByBorrower(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	return s.buildLoanResponses(loans), nil
}

// ListAll is the librarian view over open loans, optionally narrowed to
// due-soon or late through the shared classifier cutoffs.
func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]LoanResponse, error) {
	now := s.clock.Now()

	var loans []LoanWithBook
	var err error
	switch filter {
	case FilterAll, "":
		loans, err = s.store.ListOpen(ctx)
	case FilterDueSoon:
		from, to := s.classifier.DueSoonRange(now)
		loans, err = s.store.ListOpenDueBetween(ctx, from, to)
	case FilterLate:
		loans, err = s.store.ListOpenDueBefore(ctx, s.classifier.LateCutoff(now))
	default:
		return nil, ErrInvalid(fmt.Sprintf("unknown status filter %q", filter))
	}
	if err != nil {
		return nil, err
	}
	return s.buildLoanResponses(loans), nil
}

// ReminderFlags tells a borrower whether anything they hold is due soon or
// late, using the same cutoffs as everything else.
func (s *Service) ReminderFlags(ctx context.Context, borrowerID string) (ReminderFlagsResponse, error) {
	now := s.clock.Now()

	from, to := s.classifier.DueSoonRange(now)
	dueSoon, err := s.store.CountOpenDueBetweenForBorrower(ctx, borrowerID, from, to)
	if err != nil {
		return ReminderFlagsResponse{}, err
	}

	late, err := s.store.CountOpenDueBeforeForBorrower(ctx, borrowerID, s.classifier.LateCutoff(now))
	if err != nil {
		return ReminderFlagsResponse{}, err
	}

	return ReminderFlagsResponse{HasDue: dueSoon >= 1, HasLate: late >= 1}, nil
}

// Destroy hard-deletes a loan record. Reached only from the admin CLI.
func (s *Service) Destroy(ctx context.Context, loanID string) error {
	if strings.TrimSpace(loanID) == "" {
		return ErrInvalid("id is required")
	}
	return s.store.Destroy(ctx, loanID)
}

// ---- helpers ----

func (s *Service) buildLoanResponse(m LoanWithBook) LoanResponse {
	resp := LoanResponse{
		ID:           m.ID,
		BookID:       m.BookID,
		BookTitle:    m.BookTitle,
		BorrowerID:   m.BorrowerID,
		CheckedOutAt: m.CheckedOutAt,
		DueAt:        m.DueAt,
		Returned:     m.Returned,
		FineOwed:     m.FineOwed,
		FinePaid:     m.FinePaid,
		Status:       s.classifier.Classify(s.clock.Now(), m.DueAt, m.Returned),
	}
	if m.ReturnedAt.Valid {
		t := m.ReturnedAt.Time
		resp.ReturnedAt = &t
	}
	return resp
}

func (s *Service) buildLoanResponses(loans []LoanWithBook) []LoanResponse {
	out := make([]LoanResponse, 0, len(loans))
	for _, m := range loans {
		out = append(out, s.buildLoanResponse(m))
	}
	return out
}
