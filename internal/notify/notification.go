package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"rollcall/internal/roll"
)

// DefaultTeacherName is used when a session carries no teacher.
const DefaultTeacherName = "Professeur"

// Notification is one guardian message, built for a single dispatch and
// never stored.
type Notification struct {
	StudentID   string      `json:"studentId,omitempty"`
	To          string      `json:"to"`
	StudentName string      `json:"studentName"`
	ClassName   string      `json:"className"`
	TeacherName string      `json:"teacherName"`
	Date        string      `json:"date"`
	Status      roll.Status `json:"status"`
}

// Validate checks the fields required before the transport is called.
func (n Notification) Validate() error {
	to := strings.TrimSpace(n.To)
	switch {
	case to == "":
		return &ValidationError{Field: "to", Message: "phone number is missing"}
	case !strings.HasPrefix(to, "+"):
		return &ValidationError{Field: "to", Message: "phone number must be in international format (+33...)"}
	case strings.TrimSpace(n.StudentName) == "":
		return &ValidationError{Field: "studentName", Message: "student name is missing"}
	case strings.TrimSpace(n.ClassName) == "":
		return &ValidationError{Field: "className", Message: "class name is missing"}
	}
	return nil
}

// ValidationError is a notification rejected before sending.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// Template renders message bodies.
type Template struct {
	Signature    string
	ContactPhone string
}

// Render formats the absence message for n.
func (t Template) Render(n Notification) string {
	teacher := n.TeacherName
	if teacher == "" {
		teacher = DefaultTeacherName
	}
	var b strings.Builder
	b.WriteString("Assalam wa3leykoum,\n\n")
	fmt.Fprintf(&b, "Nous vous informons que %s a été marqué(e) en absence non justifiée le %s au cours de %s\n\n",
		n.StudentName, FormatDate(n.Date), teacher)
	if t.ContactPhone != "" {
		fmt.Fprintf(&b, "Merci de contacter le %s pour justifier son absence.", t.ContactPhone)
	} else {
		b.WriteString("Merci de nous contacter pour justifier son absence.")
	}
	if t.Signature != "" {
		b.WriteString("\n\n")
		b.WriteString(t.Signature)
	}
	return b.String()
}

// FormatDate renders an ISO date as a long French date, e.g. "samedi 18 janvier 2025".
// Unparseable input is returned unchanged.
func FormatDate(date string) string {
	d, err := time.Parse(roll.DateLayout, date)
	if err != nil {
		return date
	}
	return monday.Format(d, "Monday 2 January 2006", monday.LocaleFrFR)
}
