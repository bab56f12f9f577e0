package circulation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/db"
)

// LoanStore is what the service needs from persistence. The two Exec
// methods run their read-check-write sequences inside a single transaction
// with the relevant rows locked; callers retry them on transient lock
// conflicts.
type LoanStore interface {
	ExecCheckOut(ctx context.Context, loan *Loan) error
	ExecCheckIn(ctx context.Context, loanID, borrowerID string, now time.Time, finePerDay decimal.Decimal) (*Loan, error)
	ListByBorrower(ctx context.Context, borrowerID string) ([]LoanWithBook, error)
	ListOpen(ctx context.Context) ([]LoanWithBook, error)
	ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]LoanWithBook, error)
	ListOpenDueBefore(ctx context.Context, cutoff time.Time) ([]LoanWithBook, error)
	CountOpenDueBetweenForBorrower(ctx context.Context, borrowerID string, from, to time.Time) (int, error)
	CountOpenDueBeforeForBorrower(ctx context.Context, borrowerID string, cutoff time.Time) (int, error)
	Destroy(ctx context.Context, loanID string) error
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ---- Transactional methods ----

// ExecCheckOut performs the whole checkout atomically. Lock order is
// borrower row first, then book row; every checkout takes locks in that
// order, so concurrent checkouts cannot deadlock against each other.
// The borrower-row lock serialises the one-active-loan check for the same
// borrower across different books; the book-row lock serialises the
// availability check for the same book across different borrowers.
func (s *Store) ExecCheckOut(ctx context.Context, m *Loan) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		// 1. Lock borrower row.
		var one int
		if err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM users WHERE id = ? FOR UPDATE`, m.BorrowerID,
		).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound(fmt.Sprintf("borrower %s not available", m.BorrowerID))
			}
			return err
		}

		// 2. Lock book row and read the public shelf size.
		var publicQty int
		if err := tx.QueryRowContext(ctx,
			`SELECT public_shelf_quantity FROM books WHERE id = ? AND is_deleted = 0 FOR UPDATE`, m.BookID,
		).Scan(&publicQty); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound(fmt.Sprintf("book %s not available", m.BookID))
			}
			return err
		}

		// 3. Single active loan per borrower. The count is always 0 or 1 by
		// invariant, but report whatever is actually there.
		var pending int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM check_in_out WHERE borrower_id = ? AND returned = 0 AND is_deleted = 0`, m.BorrowerID,
		).Scan(&pending); err != nil {
			return err
		}
		if pending > 0 {
			return ErrConflict(fmt.Sprintf("you have %d %s still pending return", pending, booksWord(pending)))
		}

		// 4. Availability against the live borrow count.
		var open int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM check_in_out WHERE book_id = ? AND returned = 0 AND is_deleted = 0`, m.BookID,
		).Scan(&open); err != nil {
			return err
		}
		if open >= publicQty {
			return ErrConflict("book is not available for borrowing")
		}

		// 5. Insert the loan.
		const q = `
		INSERT INTO check_in_out
		(id, book_id, borrower_id, checked_out_at, due_at, returned, fine_owed, fine_paid, created_at, updated_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, 0)`
		_, err := tx.ExecContext(ctx, q,
			m.ID, m.BookID, m.BorrowerID, m.CheckedOutAt, m.DueAt,
			m.FineOwed, m.FinePaid, m.CreatedAt, m.UpdatedAt,
		)
		return err
	})
}

// ExecCheckIn closes an open loan owned by the borrower and assesses the
// fine. A loan that is already returned does not match the lookup, so a
// second check-in fails with NOT_FOUND rather than silently no-opping.
func (s *Store) ExecCheckIn(ctx context.Context, loanID, borrowerID string, now time.Time, finePerDay decimal.Decimal) (*Loan, error) {
	var m Loan
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const lockQ = `
		SELECT ` + loanColumns + `
		FROM check_in_out
		WHERE id = ? AND borrower_id = ? AND returned = 0 AND is_deleted = 0
		FOR UPDATE`
		if err := scanLoan(tx.QueryRowContext(ctx, lockQ, loanID, borrowerID), &m); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound(fmt.Sprintf("check in/out %s not available", loanID))
			}
			return err
		}

		m.Returned = true
		m.ReturnedAt = sql.NullTime{Time: now, Valid: true}
		m.FineOwed = AccrueFine(m.DueAt, now, finePerDay)
		m.UpdatedAt = now

		const updateQ = `
		UPDATE check_in_out
		SET returned = 1, returned_at = ?, fine_owed = ?, updated_at = ?
		WHERE id = ?`
		_, err := tx.ExecContext(ctx, updateQ, now, m.FineOwed, now, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Destroy hard-deletes a loan record. Administrative cleanup only; there is
// deliberately no business-rule guard here and no HTTP route to it.
func (s *Store) Destroy(ctx context.Context, loanID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM check_in_out WHERE id = ?`, loanID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound(fmt.Sprintf("check in/out %s not available", loanID))
	}
	return nil
}

// ---- Queries ----

const loanColumns = `id, book_id, borrower_id, checked_out_at, due_at, returned, returned_at,
	fine_owed, fine_paid, created_at, updated_at`

const loanWithBookColumns = `l.id, l.book_id, l.borrower_id, l.checked_out_at, l.due_at, l.returned, l.returned_at,
	l.fine_owed, l.fine_paid, l.created_at, l.updated_at, b.title`

func scanLoan(row *sql.Row, m *Loan) error {
	return row.Scan(
		&m.ID, &m.BookID, &m.BorrowerID, &m.CheckedOutAt, &m.DueAt, &m.Returned, &m.ReturnedAt,
		&m.FineOwed, &m.FinePaid, &m.CreatedAt, &m.UpdatedAt,
	)
}

func (s *Store) queryLoansWithBook(ctx context.Context, where string, args ...any) ([]LoanWithBook, error) {
	q := `
	SELECT ` + loanWithBookColumns + `
	FROM check_in_out l
	JOIN books b ON b.id = l.book_id
	WHERE l.is_deleted = 0 ` + where + `
	ORDER BY l.updated_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanWithBook
	for rows.Next() {
		var m LoanWithBook
		if err := rows.Scan(
			&m.ID, &m.BookID, &m.BorrowerID, &m.CheckedOutAt, &m.DueAt, &m.Returned, &m.ReturnedAt,
			&m.FineOwed, &m.FinePaid, &m.CreatedAt, &m.UpdatedAt, &m.BookTitle,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListByBorrower(ctx context.Context, borrowerID string) ([]LoanWithBook, error) {
	return s.queryLoansWithBook(ctx, `AND l.borrower_id = ?`, borrowerID)
}

func (s *Store) ListOpen(ctx context.Context) ([]LoanWithBook, error) {
	return s.queryLoansWithBook(ctx, `AND l.returned = 0`)
}

func (s *Store) ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]LoanWithBook, error) {
	return s.queryLoansWithBook(ctx, `AND l.returned = 0 AND l.due_at > ? AND l.due_at <= ?`, from, to)
}

func (s *Store) ListOpenDueBefore(ctx context.Context, cutoff time.Time) ([]LoanWithBook, error) {
	return s.queryLoansWithBook(ctx, `AND l.returned = 0 AND l.due_at <= ?`, cutoff)
}

func (s *Store) CountOpenDueBetweenForBorrower(ctx context.Context, borrowerID string, from, to time.Time) (int, error) {
	const q = `
	SELECT COUNT(*) FROM check_in_out
	WHERE borrower_id = ? AND returned = 0 AND is_deleted = 0 AND due_at > ? AND due_at <= ?`
	var n int
	err := s.db.QueryRowContext(ctx, q, borrowerID, from, to).Scan(&n)
	return n, err
}

func (s *Store) CountOpenDueBeforeForBorrower(ctx context.Context, borrowerID string, cutoff time.Time) (int, error) {
	const q = `
	SELECT COUNT(*) FROM check_in_out
	WHERE borrower_id = ? AND returned = 0 AND is_deleted = 0 AND due_at <= ?`
	var n int
	err := s.db.QueryRowContext(ctx, q, borrowerID, cutoff).Scan(&n)
	return n, err
}

// ---- Reminder targets (consumed by the reminders package) ----

const targetColumns = `l.id, l.book_id, l.borrower_id, l.checked_out_at, l.due_at, l.returned, l.returned_at,
	l.fine_owed, l.fine_paid, l.created_at, l.updated_at, b.title, u.email, u.first_name`

func (s *Store) queryTargets(ctx context.Context, where string, args ...any) ([]ReminderTarget, error) {
	q := `
	SELECT ` + targetColumns + `
	FROM check_in_out l
	JOIN books b ON b.id = l.book_id
	JOIN users u ON u.id = l.borrower_id
	WHERE l.is_deleted = 0 ` + where + `
	ORDER BY l.due_at ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReminderTarget
	for rows.Next() {
		var t ReminderTarget
		if err := rows.Scan(
			&t.ID, &t.BookID, &t.BorrowerID, &t.CheckedOutAt, &t.DueAt, &t.Returned, &t.ReturnedAt,
			&t.FineOwed, &t.FinePaid, &t.CreatedAt, &t.UpdatedAt, &t.BookTitle, &t.BorrowerEmail, &t.BorrowerFirstName,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) DueSoonTargets(ctx context.Context, from, to time.Time) ([]ReminderTarget, error) {
	return s.queryTargets(ctx, `AND l.returned = 0 AND l.due_at > ? AND l.due_at <= ?`, from, to)
}

func (s *Store) LateTargets(ctx context.Context, cutoff time.Time) ([]ReminderTarget, error) {
	return s.queryTargets(ctx, `AND l.returned = 0 AND l.due_at <= ?`, cutoff)
}

// Target returns one open loan with its borrower contact, for one-off
// librarian reminders.
func (s *Store) Target(ctx context.Context, loanID string) (*ReminderTarget, error) {
	targets, err := s.queryTargets(ctx, `AND l.returned = 0 AND l.id = ?`, loanID)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrNotFound(fmt.Sprintf("check in/out %s not available", loanID))
	}
	return &targets[0], nil
}

func booksWord(n int) string {
	if n == 1 {
		return "book"
	}
	return "books"
}
