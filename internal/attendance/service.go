package attendance

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rollcall/internal/notify"
	"rollcall/internal/roll"
)

// NoPhoneNumbers is the error reported when every unjustified absence lacks a phone number.
const NoPhoneNumbers = "no phone numbers available"

var saves = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rollcall_attendance_saves_total",
	Help: "Roll-call saves by outcome.",
}, []string{"result"})

// SessionStore is the persistence side of the pipeline.
type SessionStore interface {
	ReplaceSession(ctx context.Context, s roll.Session) error
	ListSessions(ctx context.Context, f SessionFilter) ([]roll.Session, error)
	StudentHistory(ctx context.Context, studentID string) ([]Record, error)
}

// RecordResult is what callers of RecordAttendance get back, always.
type RecordResult struct {
	Success bool               `json:"success"`
	Saved   bool               `json:"saved"`
	Sent    int                `json:"sent"`
	Failed  int                `json:"failed"`
	Skipped int                `json:"skipped"`
	Error   string             `json:"error,omitempty"`
	Results []notify.SMSResult `json:"results,omitempty"`
	Gaps    []notify.LookupGap `json:"gaps,omitempty"`
	// Err keeps the typed cause for callers; it is not serialized.
	Err error `json:"-"`
}

// Stats summarises one student's attendance.
type Stats struct {
	TotalSessions     int      `json:"total_sessions"`
	Present           int      `json:"present"`
	AbsentJustified   int      `json:"absent_justified"`
	AbsentUnjustified int      `json:"absent_unjustified"`
	AttendanceRate    int      `json:"attendance_rate"`
	History           []Record `json:"history"`
}

// Service saves roll calls and notifies guardians of unjustified absences.
type Service struct {
	store      SessionStore
	locker     Locker
	selector   *notify.Selector
	dispatcher *notify.Dispatcher
}

// NewService wires the pipeline stages together.
func NewService(store SessionStore, locker Locker, selector *notify.Selector, dispatcher *notify.Dispatcher) *Service {
	return &Service{store: store, locker: locker, selector: selector, dispatcher: dispatcher}
}

// RecordAttendance persists the session and then notifies guardians.
// The save is never undone because of a notification problem.
func (s *Service) RecordAttendance(ctx context.Context, session roll.Session) RecordResult {
	session = session.WithID()
	if err := session.Validate(); err != nil {
		saves.WithLabelValues("invalid").Inc()
		return RecordResult{Error: err.Error(), Err: err}
	}

	if err := s.save(ctx, session); err != nil {
		log.Printf("attendance: save %s failed: %v", session.ID, err)
		saves.WithLabelValues("failed").Inc()
		return RecordResult{Error: err.Error(), Err: err}
	}
	saves.WithLabelValues("saved").Inc()
	log.Printf("attendance: saved %s (%d students)", session.ID, len(session.Students))

	// The rows are committed; a caller going away must not stop guardians from being told.
	res := s.notify(context.WithoutCancel(ctx), session)
	res.Saved = true
	return res
}

func (s *Service) save(ctx context.Context, session roll.Session) error {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, lockKey(session.ClassID, session.Date))
		if err != nil {
			return &PersistenceError{Op: "lock", Err: err}
		}
		defer unlock()
	}
	return s.store.ReplaceSession(ctx, session)
}

func (s *Service) notify(ctx context.Context, session roll.Session) (res RecordResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("attendance: notification for %s panicked: %v", session.ID, r)
			res = RecordResult{Error: fmt.Sprintf("notification failed: %v", r)}
		}
	}()

	sel, err := s.selector.Select(ctx, session)
	if err != nil {
		log.Printf("attendance: %s: %v", session.ID, err)
		return RecordResult{Error: err.Error(), Err: err, Skipped: len(sel.Gaps)}
	}
	if sel.Absences == 0 {
		return RecordResult{Success: true}
	}
	if sel.NoContacts() {
		log.Printf("attendance: %s: %d unjustified absence(s), no phone numbers on file", session.ID, sel.Absences)
		return RecordResult{Error: NoPhoneNumbers, Skipped: len(sel.Gaps), Gaps: sel.Gaps}
	}

	out := s.dispatcher.Dispatch(ctx, sel.Notifications)
	return RecordResult{
		Success: out.Success(),
		Sent:    out.Sent,
		Failed:  out.Failed,
		Skipped: len(sel.Gaps),
		Results: out.Results,
		Gaps:    sel.Gaps,
	}
}

// ListSessions returns stored roll calls.
func (s *Service) ListSessions(ctx context.Context, f SessionFilter) ([]roll.Session, error) {
	return s.store.ListSessions(ctx, f)
}

// StudentStats computes attendance counts and rate for a student.
func (s *Service) StudentStats(ctx context.Context, studentID string) (Stats, error) {
	history, err := s.store.StudentHistory(ctx, studentID)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalSessions: len(history), History: history}
	if st.History == nil {
		st.History = []Record{}
	}
	for _, r := range history {
		switch r.Status {
		case roll.StatusPresent:
			st.Present++
		case roll.StatusAbsentJustified:
			st.AbsentJustified++
		case roll.StatusAbsentUnjustified:
			st.AbsentUnjustified++
		}
	}
	if st.TotalSessions > 0 {
		st.AttendanceRate = int(math.Round(float64(st.Present) / float64(st.TotalSessions) * 100))
	}
	return st, nil
}
