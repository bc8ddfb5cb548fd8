package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when a note does not exist.
var ErrNotFound = errors.New("notes: not found")

// Type categorises a pedagogical note.
type Type string

const (
	TypeBehavior    Type = "behavior"
	TypeProgress    Type = "progress"
	TypeDifficulty  Type = "difficulty"
	TypeObservation Type = "observation"
	TypeGeneral     Type = "general"
)

var labels = map[Type]string{
	TypeBehavior:    "Comportement",
	TypeProgress:    "Progrès",
	TypeDifficulty:  "Difficulté",
	TypeObservation: "Observation",
	TypeGeneral:     "Général",
}

// Valid reports whether t is a known note type.
func (t Type) Valid() bool {
	_, ok := labels[t]
	return ok
}

// Label is the French name shown to teachers. Unknown types fall back to the raw value.
func (t Type) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// Note is a teacher's remark about a student.
type Note struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	TeacherID string    `json:"teacher_id,omitempty"`
	Type      Type      `json:"note_type"`
	Label     string    `json:"note_label"`
	Content   string    `json:"content"`
	Date      string    `json:"date"`
	IsShared  bool      `json:"is_shared"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput is the body of a note creation.
type CreateInput struct {
	StudentID string `json:"student_id" validate:"required"`
	Type      Type   `json:"note_type" validate:"required,oneof=behavior progress difficulty observation general"`
	Content   string `json:"content" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsShared  bool   `json:"is_shared"`
}

// UpdateInput is a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Type     *Type   `json:"note_type"`
	Content  *string `json:"content"`
	Date     *string `json:"date"`
	IsShared *bool   `json:"is_shared"`
}

// ValidationError lists rejected input fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid note: " + strings.Join(e.Fields, ", ")
}

var validate = validator.New()

func (in *CreateInput) normalize() error {
	in.Content = strings.TrimSpace(in.Content)
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Fields: fields}
}

func (in UpdateInput) apply(n *Note) error {
	var bad []string
	if in.Type != nil {
		if !in.Type.Valid() {
			bad = append(bad, "Type (oneof)")
		} else {
			n.Type = *in.Type
		}
	}
	if in.Content != nil {
		if c := strings.TrimSpace(*in.Content); c == "" {
			bad = append(bad, "Content (required)")
		} else {
			n.Content = c
		}
	}
	if in.Date != nil {
		if _, err := time.Parse(dateLayout, *in.Date); err != nil {
			bad = append(bad, "Date (datetime)")
		} else {
			n.Date = *in.Date
		}
	}
	if in.IsShared != nil {
		n.IsShared = *in.IsShared
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}
