package circulation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccrueFine(t *testing.T) {
	due := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	perDay := decimal.RequireFromString("0.50")

	tests := []struct {
		name       string
		returnedAt time.Time
		perDay     decimal.Decimal
		want       string
	}{
		{"returned early", due.Add(-24 * time.Hour), perDay, "0"},
		{"returned exactly on time", due, perDay, "0"},
		{"one minute late counts a full day", due.Add(time.Minute), perDay, "0.5"},
		{"exactly one day late", due.Add(24 * time.Hour), perDay, "0.5"},
		{"one day and a minute late", due.Add(24*time.Hour + time.Minute), perDay, "1"},
		{"ten days late", due.Add(10 * 24 * time.Hour), perDay, "5"},
		{"accrual disabled", due.Add(10 * 24 * time.Hour), decimal.Zero, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AccrueFine(due, tt.returnedAt, tt.perDay)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"want %s, got %s", tt.want, got)
		})
	}
}
