package notes

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

const noteColumns = `id, student_id, COALESCE(teacher_id, ''), note_type, content, date, is_shared, created_at, updated_at`

// Repository stores notes in the pedagogical_notes table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a note.
func (r *Repository) Create(ctx context.Context, n Note) error {
	var teacher any
	if n.TeacherID != "" {
		teacher = n.TeacherID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pedagogical_notes (id, student_id, teacher_id, note_type, content, date, is_shared, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.StudentID, teacher, string(n.Type), n.Content, n.Date, n.IsShared, n.CreatedAt, n.UpdatedAt)
	return err
}

// Get loads a note by id.
func (r *Repository) Get(ctx context.Context, id string) (Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM pedagogical_notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	return n, err
}

// ListByStudent returns a student's notes, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM pedagogical_notes WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Update writes the mutable fields of n.
func (r *Repository) Update(ctx context.Context, n Note) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pedagogical_notes
		SET note_type = $2, content = $3, date = $4, is_shared = $5, updated_at = $6
		WHERE id = $1
	`, n.ID, string(n.Type), n.Content, n.Date, n.IsShared, n.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes a note.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pedagogical_notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (Note, error) {
	var (
		n    Note
		typ  string
		date time.Time
	)
	if err := s.Scan(&n.ID, &n.StudentID, &n.TeacherID, &typ, &n.Content, &date, &n.IsShared, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return Note{}, err
	}
	n.Type = Type(typ)
	n.Label = n.Type.Label()
	n.Date = date.Format(dateLayout)
	return n, nil
}
