package notify

import (
	"context"
	"log"

	"rollcall/internal/roll"
	"rollcall/internal/roster"
)

// Directory resolves students to guardian contacts.
type Directory interface {
	Contacts(ctx context.Context, studentIDs []string) (map[string]roster.Contact, error)
}

// LookupGap is an unjustified absence with no phone number on file.
type LookupGap struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

// Selection is the outcome of recipient resolution for one session.
type Selection struct {
	Absences      int
	Notifications []Notification
	Gaps          []LookupGap
}

// NoContacts reports absences for which no phone number could be found.
func (s Selection) NoContacts() bool {
	return s.Absences > 0 && len(s.Notifications) == 0
}

// LookupError wraps a failed directory query.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string { return "phone lookup failed: " + e.Err.Error() }

func (e *LookupError) Unwrap() error { return e.Err }

// Selector picks the guardians to notify for a session.
type Selector struct {
	dir Directory
}

// NewSelector creates a selector backed by dir.
func NewSelector(dir Directory) *Selector {
	return &Selector{dir: dir}
}

// Select keeps unjustified absences only and resolves them with one batched
// lookup. Justified absences and presences never produce a notification.
func (s *Selector) Select(ctx context.Context, session roll.Session) (Selection, error) {
	absent := session.Filter(roll.StatusAbsentUnjustified)
	if len(absent) == 0 {
		return Selection{}, nil
	}

	ids := make([]string, len(absent))
	for i, e := range absent {
		ids[i] = e.StudentID
	}
	contacts, err := s.dir.Contacts(ctx, ids)
	if err != nil {
		return Selection{Absences: len(absent)}, &LookupError{Err: err}
	}

	teacher := session.TeacherName
	if teacher == "" {
		teacher = DefaultTeacherName
	}
	sel := Selection{Absences: len(absent)}
	for _, e := range absent {
		c, ok := contacts[e.StudentID]
		if !ok || c.ParentPhone == "" {
			log.Printf("notify: no guardian phone for student %s (%s), skipping", e.StudentID, e.StudentName)
			lookupGaps.Inc()
			sel.Gaps = append(sel.Gaps, LookupGap{StudentID: e.StudentID, StudentName: e.StudentName})
			continue
		}
		name := c.StudentName
		if name == "" {
			name = e.StudentName
		}
		sel.Notifications = append(sel.Notifications, Notification{
			StudentID:   e.StudentID,
			To:          c.ParentPhone,
			StudentName: name,
			ClassName:   session.ClassName,
			TeacherName: teacher,
			Date:        session.Date,
			Status:      e.Status,
		})
	}
	return sel, nil
}
