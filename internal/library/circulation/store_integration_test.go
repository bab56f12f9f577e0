package circulation

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Gated the same way as the books store suite: set LIBRARY_TEST_DSN to run
// against a throwaway MySQL database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("LIBRARY_TEST_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_DSN not set")
	}

	conn, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.Ping())
	t.Cleanup(func() { conn.Close() })

	stmts := []string{
		`DROP TABLE IF EXISTS check_in_out`,
		`DROP TABLE IF EXISTS books`,
		`DROP TABLE IF EXISTS users`,
		`CREATE TABLE users (
			id VARCHAR(26) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			role VARCHAR(20) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (id)
		) ENGINE=InnoDB`,
		`CREATE TABLE books (
			id VARCHAR(26) NOT NULL,
			proprietor_id VARCHAR(26) NOT NULL,
			title VARCHAR(255) NOT NULL,
			author_name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			img_url VARCHAR(512) NOT NULL,
			total_quantity INT NOT NULL,
			public_shelf_quantity INT NOT NULL,
			private_shelf_quantity INT NOT NULL,
			is_deleted TINYINT(1) NOT NULL DEFAULT 0,
			deleted_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (id)
		) ENGINE=InnoDB`,
		`CREATE TABLE check_in_out (
			id VARCHAR(26) NOT NULL,
			book_id VARCHAR(26) NOT NULL,
			borrower_id VARCHAR(26) NOT NULL,
			checked_out_at DATETIME NOT NULL,
			due_at DATETIME NOT NULL,
			returned TINYINT(1) NOT NULL DEFAULT 0,
			returned_at DATETIME NULL,
			fine_owed DECIMAL(10, 2) NOT NULL DEFAULT 0,
			fine_paid DECIMAL(10, 2) NOT NULL DEFAULT 0,
			is_deleted TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (id)
		) ENGINE=InnoDB`,
	}
	for _, q := range stmts {
		_, err := conn.Exec(q)
		require.NoError(t, err)
	}
	return conn
}

func seedBorrowerAndBook(t *testing.T, conn *sql.DB, borrowerID, bookID string, public int) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	_, err := conn.Exec(`
		INSERT INTO users (id, email, password_hash, first_name, role, created_at, updated_at)
		VALUES (?, CONCAT(?, '@x.dev'), 'x', 'Ada', 'borrower', ?, ?)`,
		borrowerID, borrowerID, now, now)
	require.NoError(t, err)

	_, err = conn.Exec(`
		INSERT INTO books
		(id, proprietor_id, title, author_name, description, img_url,
		 total_quantity, public_shelf_quantity, private_shelf_quantity, created_at, updated_at)
		VALUES (?, 'prop-1', 'Arrow of God', 'Chinua Achebe', 'd', 'https://picsum.photos/200', ?, ?, 0, ?, ?)`,
		bookID, public, public, now, now)
	require.NoError(t, err)
}

func newLoan(id, bookID, borrowerID string, now time.Time) *Loan {
	return &Loan{
		ID:           id,
		BookID:       bookID,
		BorrowerID:   borrowerID,
		CheckedOutAt: now,
		DueAt:        now.Add(45 * 24 * time.Hour),
		FineOwed:     decimal.Zero,
		FinePaid:     decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStoreCheckOutCheckIn(t *testing.T) {
	conn := setupTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedBorrowerAndBook(t, conn, "u1", "b1", 1)

	require.NoError(t, store.ExecCheckOut(ctx, newLoan("l1", "b1", "u1", now)))

	t.Run("second loan for the borrower conflicts", func(t *testing.T) {
		seedBorrowerAndBook(t, conn, "u1-unused", "b2", 1)
		err := store.ExecCheckOut(ctx, newLoan("l2", "b2", "u1", now))
		var api *APIError
		require.ErrorAs(t, err, &api)
		assert.Equal(t, CodeConflict, api.Code)
		assert.Equal(t, "you have 1 book still pending return", api.Message)
	})

	t.Run("exhausted public shelf conflicts", func(t *testing.T) {
		seedBorrowerAndBook(t, conn, "u2", "b3-unused", 1)
		err := store.ExecCheckOut(ctx, newLoan("l3", "b1", "u2", now))
		var api *APIError
		require.ErrorAs(t, err, &api)
		assert.Equal(t, CodeConflict, api.Code)
		assert.Equal(t, "book is not available for borrowing", api.Message)
	})

	t.Run("check-in closes the loan and frees the copy", func(t *testing.T) {
		returnedAt := now.Add(48 * time.Hour)
		m, err := store.ExecCheckIn(ctx, "l1", "u1", returnedAt, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, m.Returned)
		assert.True(t, m.ReturnedAt.Valid)

		// Second check-in of the same loan does not match.
		_, err = store.ExecCheckIn(ctx, "l1", "u1", returnedAt, decimal.Zero)
		var api *APIError
		require.ErrorAs(t, err, &api)
		assert.Equal(t, CodeNotFound, api.Code)

		require.NoError(t, store.ExecCheckOut(ctx, newLoan("l4", "b1", "u2", returnedAt)))
	})
}

func TestStoreCheckInAssessesFine(t *testing.T) {
	conn := setupTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedBorrowerAndBook(t, conn, "u1", "b1", 1)
	require.NoError(t, store.ExecCheckOut(ctx, newLoan("l1", "b1", "u1", now)))

	// Three days past due at 0.50 per day.
	returnedAt := now.Add((45 + 3) * 24 * time.Hour)
	m, err := store.ExecCheckIn(ctx, "l1", "u1", returnedAt, decimal.RequireFromString("0.50"))
	require.NoError(t, err)
	assert.True(t, m.FineOwed.Equal(decimal.RequireFromString("1.50")), "got %s", m.FineOwed)

	var stored decimal.Decimal
	require.NoError(t, conn.QueryRow(`SELECT fine_owed FROM check_in_out WHERE id = 'l1'`).Scan(&stored))
	assert.True(t, stored.Equal(decimal.RequireFromString("1.50")), "got %s", stored)
}

func TestStoreDueBuckets(t *testing.T) {
	conn := setupTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	cl := NewClassifier(14)

	seedLoan := func(id string, dueAt time.Time, returned int) {
		seedBorrowerAndBook(t, conn, "u-"+id, "b-"+id, 1)
		_, err := conn.Exec(`
			INSERT INTO check_in_out
			(id, book_id, borrower_id, checked_out_at, due_at, returned, fine_owed, fine_paid, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
			id, "b-"+id, "u-"+id, now.Add(-24*time.Hour), dueAt, returned, now, now)
		require.NoError(t, err)
	}
	seedLoan("late", now.Add(-48*time.Hour), 0)
	seedLoan("soon", now.Add(3*24*time.Hour), 0)
	seedLoan("current", now.Add(30*24*time.Hour), 0)
	seedLoan("closed", now.Add(-48*time.Hour), 1)

	late, err := store.ListOpenDueBefore(ctx, cl.LateCutoff(now))
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, "late", late[0].ID)

	from, to := cl.DueSoonRange(now)
	soon, err := store.ListOpenDueBetween(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, "soon", soon[0].ID)

	targets, err := store.LateTargets(ctx, cl.LateCutoff(now))
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "u-late@x.dev", targets[0].BorrowerEmail)
}
