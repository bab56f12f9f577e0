package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/db"
)

// BookStore is what the service needs from persistence. The MySQL Store is
// the production implementation; tests substitute an in-memory one.
type BookStore interface {
	Insert(ctx context.Context, b *Book) error
	GetWithCount(ctx context.Context, id string) (*BookWithCount, error)
	List(ctx context.Context) ([]BookWithCount, error)
	ExecEditDetails(ctx context.Context, id string, patch DetailsPatch, now time.Time) error
	ExecEditQuantities(ctx context.Context, id string, newPublic, newPrivate *int, now time.Time) error
	ExecSoftDelete(ctx context.Context, id string, now time.Time) error
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const bookColumns = `b.id, b.proprietor_id, b.title, b.author_name, b.description, b.img_url,
	b.total_quantity, b.public_shelf_quantity, b.private_shelf_quantity,
	b.created_at, b.updated_at`

// openLoanCounts aggregates live borrows per book; loans are never
// soft-deleted on return, so returned = 0 is the whole liveness condition.
const openLoanCounts = `
	SELECT book_id, COUNT(*) AS open_count
	FROM check_in_out
	WHERE returned = 0 AND is_deleted = 0
	GROUP BY book_id`

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(id, proprietor_id, title, author_name, description, img_url,
	 total_quantity, public_shelf_quantity, private_shelf_quantity,
	 created_at, updated_at, is_deleted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`
	_, err := s.db.ExecContext(ctx, q,
		b.ID, b.ProprietorID, b.Title, b.AuthorName, b.Description, b.ImgURL,
		b.TotalQuantity, b.PublicShelfQuantity, b.PrivateShelfQuantity,
		b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func scanBookWithCount(scanner interface{ Scan(dest ...any) error }) (*BookWithCount, error) {
	var b BookWithCount
	err := scanner.Scan(
		&b.ID, &b.ProprietorID, &b.Title, &b.AuthorName, &b.Description, &b.ImgURL,
		&b.TotalQuantity, &b.PublicShelfQuantity, &b.PrivateShelfQuantity,
		&b.CreatedAt, &b.UpdatedAt, &b.CurrentBorrowCount,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetWithCount(ctx context.Context, id string) (*BookWithCount, error) {
	q := `
	SELECT ` + bookColumns + `, COALESCE(c.open_count, 0)
	FROM books b
	LEFT JOIN (` + openLoanCounts + `) c ON c.book_id = b.id
	WHERE b.id = ? AND b.is_deleted = 0`

	b, err := scanBookWithCount(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound(fmt.Sprintf("book %s not available", id))
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) List(ctx context.Context) ([]BookWithCount, error) {
	q := `
	SELECT ` + bookColumns + `, COALESCE(c.open_count, 0)
	FROM books b
	LEFT JOIN (` + openLoanCounts + `) c ON c.book_id = b.id
	WHERE b.is_deleted = 0
	ORDER BY b.updated_at DESC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookWithCount
	for rows.Next() {
		b, err := scanBookWithCount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE is_deleted = 0`).Scan(&n)
	return n, err
}

func (s *Store) ExecEditDetails(ctx context.Context, id string, patch DetailsPatch, now time.Time) error {
	sb := strings.Builder{}
	sb.WriteString(`UPDATE books SET `)
	args := []any{}
	if patch.Title != nil {
		sb.WriteString(`title = ?, `)
		args = append(args, *patch.Title)
	}
	if patch.AuthorName != nil {
		sb.WriteString(`author_name = ?, `)
		args = append(args, *patch.AuthorName)
	}
	if patch.Description != nil {
		sb.WriteString(`description = ?, `)
		args = append(args, *patch.Description)
	}
	if patch.ImgURL != nil {
		sb.WriteString(`img_url = ?, `)
		args = append(args, *patch.ImgURL)
	}
	sb.WriteString(`updated_at = ? WHERE id = ? AND is_deleted = 0`)
	args = append(args, now, id)

	res, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		// Either unknown or already deleted; also hit when nothing changed,
		// which MySQL reports as 0 affected. Re-check existence to tell apart.
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM books WHERE id = ? AND is_deleted = 0`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return ErrNotFound(fmt.Sprintf("book %s not available", id))
		}
		return err
	}
	return nil
}

// ExecEditQuantities locks the book row, re-reads the live borrow count
// under the lock, and rejects a public-shelf shrink below copies currently
// lent out. total_quantity is always recomputed from the resulting pair.
func (s *Store) ExecEditQuantities(ctx context.Context, id string, newPublic, newPrivate *int, now time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var public, private int
		const lockQ = `
		SELECT public_shelf_quantity, private_shelf_quantity
		FROM books WHERE id = ? AND is_deleted = 0 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, lockQ, id).Scan(&public, &private); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound(fmt.Sprintf("book %s not available", id))
			}
			return err
		}

		var openCount int
		const countQ = `SELECT COUNT(*) FROM check_in_out WHERE book_id = ? AND returned = 0 AND is_deleted = 0`
		if err := tx.QueryRowContext(ctx, countQ, id).Scan(&openCount); err != nil {
			return err
		}

		if newPublic != nil {
			if *newPublic < openCount {
				return ErrConflict(fmt.Sprintf("book currently has %d borrowed %s", openCount, copiesWord(openCount)))
			}
			public = *newPublic
		}
		if newPrivate != nil {
			private = *newPrivate
		}

		const updateQ = `
		UPDATE books
		SET public_shelf_quantity = ?, private_shelf_quantity = ?, total_quantity = ?, updated_at = ?
		WHERE id = ?`
		_, err := tx.ExecContext(ctx, updateQ, public, private, public+private, now, id)
		return err
	})
}

// ExecSoftDelete locks the book row and refuses while any copy is out.
func (s *Store) ExecSoftDelete(ctx context.Context, id string, now time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM books WHERE id = ? AND is_deleted = 0 FOR UPDATE`, id).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound(fmt.Sprintf("book %s not available", id))
			}
			return err
		}

		var openCount int
		const countQ = `SELECT COUNT(*) FROM check_in_out WHERE book_id = ? AND returned = 0 AND is_deleted = 0`
		if err := tx.QueryRowContext(ctx, countQ, id).Scan(&openCount); err != nil {
			return err
		}
		if openCount > 0 {
			return ErrConflict(fmt.Sprintf("book currently has %d borrowed %s", openCount, copiesWord(openCount)))
		}

		const deleteQ = `UPDATE books SET is_deleted = 1, deleted_at = ?, updated_at = ? WHERE id = ?`
		_, err := tx.ExecContext(ctx, deleteQ, now, now, id)
		return err
	})
}

func copiesWord(n int) string {
	if n == 1 {
		return "copy"
	}
	return "copies"
}
