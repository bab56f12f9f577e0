package reminders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/circulation"
)

type fakeSource struct {
	dueSoon []circulation.ReminderTarget
	late    []circulation.ReminderTarget
}

func (f *fakeSource) DueSoonTargets(ctx context.Context, from, to time.Time) ([]circulation.ReminderTarget, error) {
	return f.dueSoon, nil
}

func (f *fakeSource) LateTargets(ctx context.Context, cutoff time.Time) ([]circulation.ReminderTarget, error) {
	return f.late, nil
}

func (f *fakeSource) Target(ctx context.Context, loanID string) (*circulation.ReminderTarget, error) {
	for _, t := range append(f.late, f.dueSoon...) {
		if t.ID == loanID {
			cp := t
			return &cp, nil
		}
	}
	return nil, circulation.ErrNotFound(fmt.Sprintf("check in/out %s not available", loanID))
}

type sentMail struct {
	to, subject string
}

type fakeNotifier struct {
	failFor map[string]bool // recipient -> fail
	sent    []sentMail
}

func (f *fakeNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f.failFor[to] {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject})
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func target(id, email string, dueAt time.Time) circulation.ReminderTarget {
	t := circulation.ReminderTarget{
		BookTitle:         "Things Fall Apart",
		BorrowerEmail:     email,
		BorrowerFirstName: "Ada",
	}
	t.ID = id
	t.DueAt = dueAt
	return t
}

func newTestDispatcher(src LoanSource, n Notifier, now time.Time) *Dispatcher {
	d := NewDispatcher(src, n, circulation.NewClassifier(14), time.Hour)
	d.clock = fixedClock{t: now}
	return d
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("notifies each bucket once", func(t *testing.T) {
		src := &fakeSource{
			late:    []circulation.ReminderTarget{target("l1", "late@x.dev", now.Add(-48*time.Hour))},
			dueSoon: []circulation.ReminderTarget{target("l2", "soon@x.dev", now.Add(3*24*time.Hour))},
		}
		notifier := &fakeNotifier{}
		d := newTestDispatcher(src, notifier, now)

		sent, err := d.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
		require.Len(t, notifier.sent, 2)
		assert.Equal(t, "Your Library Book is Late!", notifier.sent[0].subject)
		assert.Equal(t, "Your Library Book is Due Soon!", notifier.sent[1].subject)

		// Nothing changed, so the next sweep is silent.
		sent, err = d.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Len(t, notifier.sent, 2)
	})

	t.Run("escalation from due soon to late notifies again", func(t *testing.T) {
		src := &fakeSource{
			dueSoon: []circulation.ReminderTarget{target("l1", "ada@x.dev", now.Add(24*time.Hour))},
		}
		notifier := &fakeNotifier{}
		d := newTestDispatcher(src, notifier, now)

		_, err := d.Sweep(ctx)
		require.NoError(t, err)

		// The due date passes; the loan moves buckets.
		src.dueSoon = nil
		src.late = []circulation.ReminderTarget{target("l1", "ada@x.dev", now.Add(24*time.Hour))}

		sent, err := d.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, notifier.sent, 2)
		assert.Equal(t, "Your Library Book is Late!", notifier.sent[1].subject)

		// But never back down to a due-soon mail after a late one.
		src.late = nil
		src.dueSoon = []circulation.ReminderTarget{target("l1", "ada@x.dev", now.Add(24*time.Hour))}
		sent, err = d.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
	})

	t.Run("one failed delivery does not stop the sweep", func(t *testing.T) {
		src := &fakeSource{
			late: []circulation.ReminderTarget{
				target("l1", "broken@x.dev", now.Add(-48*time.Hour)),
				target("l2", "fine@x.dev", now.Add(-24*time.Hour)),
			},
		}
		notifier := &fakeNotifier{failFor: map[string]bool{"broken@x.dev": true}}
		d := newTestDispatcher(src, notifier, now)

		sent, err := d.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, "fine@x.dev", notifier.sent[0].to)

		// The failed recipient is retried on the next sweep.
		notifier.failFor = nil
		sent, err = d.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, "broken@x.dev", notifier.sent[1].to)
	})

	t.Run("a returned loan that reappears notifies again", func(t *testing.T) {
		src := &fakeSource{
			late: []circulation.ReminderTarget{target("l1", "ada@x.dev", now.Add(-48*time.Hour))},
		}
		notifier := &fakeNotifier{}
		d := newTestDispatcher(src, notifier, now)

		_, err := d.Sweep(ctx)
		require.NoError(t, err)

		// Loan leaves every bucket (returned); its de-dup entry is pruned.
		src.late = nil
		_, err = d.Sweep(ctx)
		require.NoError(t, err)

		// A fresh late loan reusing nothing but the id gets its own mail.
		src.late = []circulation.ReminderTarget{target("l1", "ada@x.dev", now.Add(-48*time.Hour))}
		sent, err := d.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})
}

func TestSendOne(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	src := &fakeSource{
		late:    []circulation.ReminderTarget{target("l1", "late@x.dev", now.Add(-48*time.Hour))},
		dueSoon: []circulation.ReminderTarget{target("l2", "soon@x.dev", now.Add(3*24*time.Hour))},
	}
	notifier := &fakeNotifier{}
	d := newTestDispatcher(src, notifier, now)

	t.Run("sends matching the classification", func(t *testing.T) {
		status, err := d.SendOne(ctx, "l1")
		require.NoError(t, err)
		assert.Equal(t, circulation.StatusLate, status)

		status, err = d.SendOne(ctx, "l2")
		require.NoError(t, err)
		assert.Equal(t, circulation.StatusDueSoon, status)
		assert.Len(t, notifier.sent, 2)
	})

	t.Run("bypasses sweep de-duplication", func(t *testing.T) {
		_, err := d.Sweep(ctx)
		require.NoError(t, err)
		before := len(notifier.sent)

		_, err = d.SendOne(ctx, "l1")
		require.NoError(t, err)
		assert.Len(t, notifier.sent, before+1)
	})

	t.Run("current loan sends nothing", func(t *testing.T) {
		src.dueSoon = append(src.dueSoon, target("l3", "fine@x.dev", now.Add(60*24*time.Hour)))
		before := len(notifier.sent)

		status, err := d.SendOne(ctx, "l3")
		require.NoError(t, err)
		assert.Equal(t, circulation.StatusCurrent, status)
		assert.Len(t, notifier.sent, before)
	})

	t.Run("unknown loan", func(t *testing.T) {
		_, err := d.SendOne(ctx, "nope")
		var api *circulation.APIError
		require.ErrorAs(t, err, &api)
		assert.Equal(t, circulation.CodeNotFound, api.Code)
	})
}
