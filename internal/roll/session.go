package roll

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Status is the attendance state of one student in a roll call.
type Status string

const (
	StatusPresent           Status = "present"
	StatusAbsentJustified   Status = "absent_justified"
	StatusAbsentUnjustified Status = "absent_unjustified"
)

// DateLayout is the calendar date format used for sessions and rows.
const DateLayout = "2006-01-02"

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsentJustified, StatusAbsentUnjustified:
		return true
	default:
		return false
	}
}

// Present is the legacy boolean stored alongside the status.
func (s Status) Present() bool { return s == StatusPresent }

// Entry is one student's line in a roll call.
type Entry struct {
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`
	Status      Status `json:"status" validate:"required,oneof=present absent_justified absent_unjustified"`
	Note        string `json:"note,omitempty"`
}

// ClassSnapshot is the class data copied into a session when it is created.
// It is deliberately not refreshed from the class record afterwards.
type ClassSnapshot struct {
	ClassID     string
	ClassName   string
	TeacherName string
}

// Session is one class's roll call for one date.
type Session struct {
	ID          string  `json:"id"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	ClassID     string  `json:"class_id" validate:"required"`
	ClassName   string  `json:"class_name"`
	TeacherName string  `json:"teacher_name"`
	Students    []Entry `json:"students" validate:"dive"`
}

// SessionID derives the deterministic session identifier.
func SessionID(date, classID string) string {
	return "session-" + date + "-" + classID
}

// NewSession builds a session for the class snapshot on date.
func NewSession(date string, class ClassSnapshot, students []Entry) Session {
	if students == nil {
		students = []Entry{}
	}
	return Session{
		ID:          SessionID(date, class.ClassID),
		Date:        date,
		ClassID:     class.ClassID,
		ClassName:   class.ClassName,
		TeacherName: class.TeacherName,
		Students:    students,
	}
}

// Snapshot returns the class data the session was created with.
func (s Session) Snapshot() ClassSnapshot {
	return ClassSnapshot{ClassID: s.ClassID, ClassName: s.ClassName, TeacherName: s.TeacherName}
}

// WithID returns a copy of s whose ID matches its date and class.
func (s Session) WithID() Session {
	s.ID = SessionID(s.Date, s.ClassID)
	return s
}

// Filter returns the entries with the given status in roll-call order.
func (s Session) Filter(status Status) []Entry {
	var out []Entry
	for _, e := range s.Students {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// ValidationError lists the fields of a session that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid session: " + strings.Join(e.Fields, ", ")
}

var validate = validator.New()

// Validate checks the session shape. Duplicate student ids are not rejected.
func (s Session) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Fields: fields}
}
