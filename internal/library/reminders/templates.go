package reminders

import (
	"fmt"
	"time"
)

const (
	dueSoonSubject = "Your Library Book is Due Soon!"
	lateSubject    = "Your Library Book is Late!"
)

func emailDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// DueSoonEmail renders the due-soon notice for one loan.
func DueSoonEmail(firstName, bookTitle string, dueAt time.Time) (subject, body string) {
	body = fmt.Sprintf(`<html>
                <body style="margin: 0; padding: 0; box-sizing: border-box; font-family: Arial, Helvetica, sans-serif;">
                    <p>Hello, %s,</p>
                    <p>Your borrowed copy of <strong>%s</strong> is due on %s. Please return it on time.</p>
                </body>
            </html>`, firstName, bookTitle, emailDate(dueAt))
	return dueSoonSubject, body
}

// LateEmail renders the late notice for one loan.
func LateEmail(firstName, bookTitle string, dueAt time.Time) (subject, body string) {
	body = fmt.Sprintf(`<html>
                <body style="margin: 0; padding: 0; box-sizing: border-box; font-family: Arial, Helvetica, sans-serif;">
                    <p>Hello, %s,</p>
                    <p>Your borrowed copy of <strong>%s</strong> was due on %s. Please return it as soon as possible.</p>
                </body>
            </html>`, firstName, bookTitle, emailDate(dueAt))
	return lateSubject, body
}
