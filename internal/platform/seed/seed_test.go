package seed

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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
			PRIMARY KEY (id),
			UNIQUE KEY uq_users_email (email)
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
	}
	for _, q := range stmts {
		_, err := conn.Exec(q)
		require.NoError(t, err)
	}
	return conn
}

func TestApplyIsIdempotent(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	cfg := Default()

	require.NoError(t, Apply(ctx, conn, cfg))
	require.NoError(t, Apply(ctx, conn, cfg))

	var users, books int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM books`).Scan(&books))
	assert.Equal(t, len(cfg.Users), users)
	assert.Equal(t, len(cfg.Books), books)

	var total, public, private int
	require.NoError(t, conn.QueryRow(`
		SELECT total_quantity, public_shelf_quantity, private_shelf_quantity
		FROM books WHERE title = 'Things Fall Apart'`).Scan(&total, &public, &private))
	assert.Equal(t, public+private, total)
}
