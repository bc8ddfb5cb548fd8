package roster

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a class or student does not exist.
var ErrNotFound = errors.New("roster: not found")

// Student is a row of the students table.
type Student struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ClassID     string `json:"class_id"`
	ParentPhone string `json:"parent_phone,omitempty"`
}

// FullName is the display name used in roll calls and messages.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Class is a row of the classes table.
type Class struct {
	ID          string `json:"id"`
	ClassName   string `json:"class_name"`
	TeacherName string `json:"teacher_name"`
	Day         string `json:"day"`
	Level       string `json:"level"`
	Room        string `json:"room"`
}

// Contact is what the notification pipeline needs to reach a guardian.
type Contact struct {
	StudentID   string
	StudentName string
	ParentPhone string
}

// Repository reads students and classes from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Contacts looks up guardian phones for the given students in one query.
// Students without a row are absent from the map.
func (r *Repository) Contacts(ctx context.Context, studentIDs []string) (map[string]Contact, error) {
	out := make(map[string]Contact, len(studentIDs))
	if len(studentIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]any, len(studentIDs))
	for i, id := range studentIDs {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, COALESCE(parent_phone, '') FROM students WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.ParentPhone); err != nil {
			return nil, err
		}
		out[s.ID] = Contact{
			StudentID:   s.ID,
			StudentName: s.FullName(),
			ParentPhone: strings.TrimSpace(s.ParentPhone),
		}
	}
	return out, rows.Err()
}

// Class returns a single class by id.
func (r *Repository) Class(ctx context.Context, id string) (Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_name, COALESCE(teacher_name, ''), COALESCE(day, ''), COALESCE(level, ''), COALESCE(room, '')
		FROM classes WHERE id = $1
	`, id)
	var c Class
	if err := row.Scan(&c.ID, &c.ClassName, &c.TeacherName, &c.Day, &c.Level, &c.Room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Class{}, ErrNotFound
		}
		return Class{}, err
	}
	return c, nil
}

// StudentsByClass lists the students of a class in roll-call order.
func (r *Repository) StudentsByClass(ctx context.Context, classID string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, COALESCE(class_id, ''), COALESCE(parent_phone, '')
		FROM students
		WHERE class_id = $1
		ORDER BY last_name, first_name
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.ClassID, &s.ParentPhone); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
