package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrClassNotEmpty is returned when deleting a class that still has students.
	ErrClassNotEmpty = errors.New("roster: class still has students")
	// ErrUnknownClass is returned when a student is assigned to a class that does not exist.
	ErrUnknownClass = errors.New("roster: unknown class")
)

const foreignKeyViolation = "23503"

// ClassInput is the body of a class create or update.
type ClassInput struct {
	ClassName   string `json:"class_name" validate:"required,max=100"`
	TeacherName string `json:"teacher_name" validate:"max=100"`
	Day         string `json:"day" validate:"max=20"`
	Level       string `json:"level" validate:"max=20"`
	Room        string `json:"room" validate:"max=20"`
}

// StudentInput is the body of a student create or update. An empty ClassID leaves
// the student unassigned.
type StudentInput struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	ClassID     string `json:"class_id"`
	ParentPhone string `json:"parent_phone" validate:"omitempty,e164"`
}

// ValidationError lists rejected input fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid roster input: " + strings.Join(e.Fields, ", ")
}

var validate = validator.New()

func check(v any) error {
	err := validate.Struct(v)
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

// NormalizePhone drops the separators people type in phone numbers and turns a
// 00 international prefix into +. The result still has to pass e164.
func NormalizePhone(raw string) string {
	p := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '(', ')', '\t':
			return -1
		}
		return r
	}, raw)
	if strings.HasPrefix(p, "00") {
		p = "+" + p[2:]
	}
	return p
}

func (in *ClassInput) normalize() error {
	in.ClassName = strings.TrimSpace(in.ClassName)
	in.TeacherName = strings.TrimSpace(in.TeacherName)
	in.Day = strings.TrimSpace(in.Day)
	in.Level = strings.TrimSpace(in.Level)
	in.Room = strings.TrimSpace(in.Room)
	return check(in)
}

func (in *StudentInput) normalize() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.ClassID = strings.TrimSpace(in.ClassID)
	in.ParentPhone = NormalizePhone(in.ParentPhone)
	return check(in)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ListClasses returns every class by name.
func (r *Repository) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_name, COALESCE(teacher_name, ''), COALESCE(day, ''), COALESCE(level, ''), COALESCE(room, '')
		FROM classes
		ORDER BY class_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Class{}
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.ClassName, &c.TeacherName, &c.Day, &c.Level, &c.Room); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateClass validates and inserts a class.
func (r *Repository) CreateClass(ctx context.Context, in ClassInput) (Class, error) {
	if err := in.normalize(); err != nil {
		return Class{}, err
	}
	c := classFrom(uuid.NewString(), in)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO classes (id, class_name, teacher_name, day, level, room)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.ClassName, nullable(c.TeacherName), nullable(c.Day), nullable(c.Level), nullable(c.Room))
	if err != nil {
		return Class{}, err
	}
	return c, nil
}

// UpdateClass replaces every field of a class.
func (r *Repository) UpdateClass(ctx context.Context, id string, in ClassInput) (Class, error) {
	if err := in.normalize(); err != nil {
		return Class{}, err
	}
	c := classFrom(id, in)
	res, err := r.db.ExecContext(ctx, `
		UPDATE classes SET class_name = $2, teacher_name = $3, day = $4, level = $5, room = $6
		WHERE id = $1
	`, c.ID, c.ClassName, nullable(c.TeacherName), nullable(c.Day), nullable(c.Level), nullable(c.Room))
	if err := expectOne(res, err); err != nil {
		return Class{}, err
	}
	return c, nil
}

// DeleteClass removes an empty class. Students must be moved or deleted first.
func (r *Repository) DeleteClass(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var students int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE class_id = $1`, id).Scan(&students); err != nil {
		return err
	}
	if students > 0 {
		return fmt.Errorf("%w: %d students", ErrClassNotEmpty, students)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err := expectOne(res, err); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateStudent validates and inserts a student.
func (r *Repository) CreateStudent(ctx context.Context, in StudentInput) (Student, error) {
	if err := in.normalize(); err != nil {
		return Student{}, err
	}
	s := studentFrom(uuid.NewString(), in)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, first_name, last_name, class_id, parent_phone)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.FirstName, s.LastName, nullable(s.ClassID), nullable(s.ParentPhone))
	if err != nil {
		return Student{}, classError(err)
	}
	return s, nil
}

// UpdateStudent replaces every field of a student.
func (r *Repository) UpdateStudent(ctx context.Context, id string, in StudentInput) (Student, error) {
	if err := in.normalize(); err != nil {
		return Student{}, err
	}
	s := studentFrom(id, in)
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET first_name = $2, last_name = $3, class_id = $4, parent_phone = $5
		WHERE id = $1
	`, s.ID, s.FirstName, s.LastName, nullable(s.ClassID), nullable(s.ParentPhone))
	if err := expectOne(res, classError(err)); err != nil {
		return Student{}, err
	}
	return s, nil
}

// DeleteStudent removes a student together with their attendance and notes.
func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return expectOne(res, err)
}

func classFrom(id string, in ClassInput) Class {
	return Class{ID: id, ClassName: in.ClassName, TeacherName: in.TeacherName, Day: in.Day, Level: in.Level, Room: in.Room}
}

func studentFrom(id string, in StudentInput) Student {
	return Student{ID: id, FirstName: in.FirstName, LastName: in.LastName, ClassID: in.ClassID, ParentPhone: in.ParentPhone}
}

func classError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrUnknownClass
	}
	return err
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
