package db

import (
	"context"
	"errors"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

const lockRetryAttempts = 3

// IsLockConflict reports a MySQL lock wait timeout (1205) or deadlock (1213).
func IsLockConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1205 || me.Number == 1213
}

// WithLockRetry retries fn a bounded number of times when it fails with a
// transient lock conflict. Any other error returns immediately. The last
// lock error is returned as-is; callers map it to their conflict code.
func WithLockRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < lockRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !IsLockConflict(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return err
}
