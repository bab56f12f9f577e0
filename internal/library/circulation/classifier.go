package circulation

import "time"

// Status is the due/late classification of a loan at a point in time.
type Status string

const (
	StatusCurrent Status = "CURRENT"
	StatusDueSoon Status = "DUE_SOON"
	StatusLate    Status = "LATE"
)

// Classifier owns the due-soon window. Exactly one value of this type,
// built from config, feeds the listing filters, the borrower reminder
// flags and the dispatcher sweep; the window previously lived as separate
// literals at those call sites and drifted apart.
type Classifier struct {
	window time.Duration
}

func NewClassifier(reminderWindowDays int) Classifier {
	return Classifier{window: time.Duration(reminderWindowDays) * 24 * time.Hour}
}

func (cl Classifier) Window() time.Duration { return cl.window }

// Classify is a pure function of (now, dueAt, returned).
// A loan due exactly now is LATE, not DUE_SOON: the late interval is closed
// at the boundary and the due-soon interval open, so the two never overlap.
func (cl Classifier) Classify(now, dueAt time.Time, returned bool) Status {
	if returned {
		return StatusCurrent
	}
	if !dueAt.After(now) {
		return StatusLate
	}
	if !dueAt.After(now.Add(cl.window)) {
		return StatusDueSoon
	}
	return StatusCurrent
}

// LateCutoff is the SQL-side form of the LATE rule: open loans with
// due_at <= cutoff are late.
func (cl Classifier) LateCutoff(now time.Time) time.Time { return now }

// DueSoonRange is the SQL-side form of the DUE_SOON rule: open loans with
// from < due_at <= to are due soon.
func (cl Classifier) DueSoonRange(now time.Time) (from, to time.Time) {
	return now, now.Add(cl.window)
}
