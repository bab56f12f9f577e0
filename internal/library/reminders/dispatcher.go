package reminders

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/circulation"
)

// Notifier delivers one message. Failures are logged and skipped, never
// retried inline.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LoanSource is the slice of loan persistence the sweep needs; the
// circulation MySQL store implements it.
type LoanSource interface {
	DueSoonTargets(ctx context.Context, from, to time.Time) ([]circulation.ReminderTarget, error)
	LateTargets(ctx context.Context, cutoff time.Time) ([]circulation.ReminderTarget, error)
	Target(ctx context.Context, loanID string) (*circulation.ReminderTarget, error)
}

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Dispatcher periodically classifies open loans and notifies borrowers.
//
// De-duplication policy: at most one notification per loan per
// classification for the lifetime of the process; escalation from DUE_SOON
// to LATE notifies again. State is in memory, so a restart may resend —
// acceptable for reminder mail.
type Dispatcher struct {
	src        LoanSource
	notifier   Notifier
	classifier circulation.Classifier
	clock      Clock
	interval   time.Duration

	sweepMu sync.Mutex // single-flight guard for Sweep

	sentMu sync.Mutex
	sent   map[string]circulation.Status
}

func NewDispatcher(src LoanSource, notifier Notifier, classifier circulation.Classifier, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		src:        src,
		notifier:   notifier,
		classifier: classifier,
		clock:      realClock{},
		interval:   interval,
		sent:       make(map[string]circulation.Status),
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Printf("[INFO] reminder dispatcher started, interval %s", d.interval)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] reminder dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.Sweep(ctx); err != nil {
				log.Printf("[WARN] reminder sweep failed: %v", err)
			}
		}
	}
}

// Sweep classifies all open loans once and sends pending notifications.
// If another sweep is still running the tick is skipped. A failure to
// notify one borrower never aborts the rest.
func (d *Dispatcher) Sweep(ctx context.Context) (sent int, err error) {
	if !d.sweepMu.TryLock() {
		log.Println("[INFO] reminder sweep still running, skipping tick")
		return 0, nil
	}
	defer d.sweepMu.Unlock()

	now := d.clock.Now()

	from, to := d.classifier.DueSoonRange(now)
	dueSoon, err := d.src.DueSoonTargets(ctx, from, to)
	if err != nil {
		return 0, err
	}
	late, err := d.src.LateTargets(ctx, d.classifier.LateCutoff(now))
	if err != nil {
		return 0, err
	}

	alive := make(map[string]struct{}, len(dueSoon)+len(late))

	for _, t := range late {
		alive[t.ID] = struct{}{}
		if !d.markSent(t.ID, circulation.StatusLate) {
			continue
		}
		subject, body := LateEmail(t.BorrowerFirstName, t.BookTitle, t.DueAt)
		if err := d.notifier.Send(ctx, t.BorrowerEmail, subject, body); err != nil {
			log.Printf("[WARN] late reminder for loan %s failed: %v", t.ID, err)
			d.unmark(t.ID)
			continue
		}
		sent++
	}

	for _, t := range dueSoon {
		alive[t.ID] = struct{}{}
		if !d.markSent(t.ID, circulation.StatusDueSoon) {
			continue
		}
		subject, body := DueSoonEmail(t.BorrowerFirstName, t.BookTitle, t.DueAt)
		if err := d.notifier.Send(ctx, t.BorrowerEmail, subject, body); err != nil {
			log.Printf("[WARN] due-soon reminder for loan %s failed: %v", t.ID, err)
			d.unmark(t.ID)
			continue
		}
		sent++
	}

	d.prune(alive)
	return sent, nil
}

// SendOne sends a single reminder for one open loan, matching its current
// classification. Explicit librarian action bypasses the de-dup state.
// Returns the classification; CURRENT means nothing was sent.
func (d *Dispatcher) SendOne(ctx context.Context, loanID string) (circulation.Status, error) {
	t, err := d.src.Target(ctx, loanID)
	if err != nil {
		return "", err
	}

	status := d.classifier.Classify(d.clock.Now(), t.DueAt, t.Returned)
	switch status {
	case circulation.StatusLate:
		subject, body := LateEmail(t.BorrowerFirstName, t.BookTitle, t.DueAt)
		if err := d.notifier.Send(ctx, t.BorrowerEmail, subject, body); err != nil {
			return status, err
		}
	case circulation.StatusDueSoon:
		subject, body := DueSoonEmail(t.BorrowerFirstName, t.BookTitle, t.DueAt)
		if err := d.notifier.Send(ctx, t.BorrowerEmail, subject, body); err != nil {
			return status, err
		}
	}
	return status, nil
}

// markSent records (loan, status) and reports whether this pair has not
// been sent before. DUE_SOON after LATE does not re-notify.
func (d *Dispatcher) markSent(loanID string, status circulation.Status) bool {
	d.sentMu.Lock()
	defer d.sentMu.Unlock()

	prev, ok := d.sent[loanID]
	if ok && (prev == status || prev == circulation.StatusLate) {
		return false
	}
	d.sent[loanID] = status
	return true
}

func (d *Dispatcher) unmark(loanID string) {
	d.sentMu.Lock()
	defer d.sentMu.Unlock()
	delete(d.sent, loanID)
}

// prune drops de-dup entries for loans no longer in any reminder bucket
// (returned, destroyed, or drifted out of the window).
func (d *Dispatcher) prune(alive map[string]struct{}) {
	d.sentMu.Lock()
	defer d.sentMu.Unlock()
	for id := range d.sent {
		if _, ok := alive[id]; !ok {
			delete(d.sent, id)
		}
	}
}
