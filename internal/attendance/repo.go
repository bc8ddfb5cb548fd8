package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/roll"
)

// PersistenceError is a failed step of a session save.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("attendance %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Record is one persisted attendance row.
type Record struct {
	ClassID   string      `json:"class_id"`
	StudentID string      `json:"student_id"`
	Date      string      `json:"date"`
	Status    roll.Status `json:"status"`
	Note      string      `json:"note,omitempty"`
}

// DefaultSessionLimit caps ListSessions when no limit is given.
const DefaultSessionLimit = 100

// SessionFilter narrows ListSessions. Limit is a number of sessions.
type SessionFilter struct {
	ClassID string
	Limit   int
}

// Repository persists attendance rows in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceSession makes the rows for (class_id, date) equal the session's
// students. Delete and insert share one transaction, so readers never see an
// empty roll call and a failed save leaves the previous rows in place.
func (r *Repository) ReplaceSession(ctx context.Context, s roll.Session) error {
	date, err := time.Parse(roll.DateLayout, s.Date)
	if err != nil {
		return &PersistenceError{Op: "parse date", Err: err}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE class_id = $1 AND date = $2`, s.ClassID, date); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}

	for _, e := range s.Students {
		var note any
		if e.Note != "" {
			note = e.Note
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (id, class_id, student_id, date, present, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (class_id, student_id, date) DO UPDATE SET
				present = EXCLUDED.present,
				status = EXCLUDED.status,
				notes = EXCLUDED.notes,
				updated_at = NOW()
		`, uuid.NewString(), s.ClassID, e.StudentID, date, e.Status.Present(), string(e.Status), note)
		if err != nil {
			return &PersistenceError{Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

// ListSessions rebuilds sessions from stored rows, newest first. Limit counts
// sessions (distinct class and date), never rows, so a session is returned whole.
func (r *Repository) ListSessions(ctx context.Context, f SessionFilter) ([]roll.Session, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultSessionLimit
	}
	args := []any{}
	where := ""
	if f.ClassID != "" {
		args = append(args, f.ClassID)
		where = " WHERE class_id = $" + strconv.Itoa(len(args))
	}
	args = append(args, f.Limit)
	query := `WITH picked AS (
			SELECT DISTINCT class_id, date FROM attendance` + where + `
			ORDER BY date DESC, class_id LIMIT $` + strconv.Itoa(len(args)) + `
		)
		SELECT a.class_id, a.student_id, a.date, a.present, a.status, a.notes,
			c.class_name, COALESCE(c.teacher_name, ''), s.first_name, s.last_name
		FROM picked p
		JOIN attendance a ON a.class_id = p.class_id AND a.date = p.date
		JOIN classes c ON c.id = a.class_id
		JOIN students s ON s.id = a.student_id
		ORDER BY a.date DESC, c.class_name, s.last_name, s.first_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []roll.Session
	index := map[string]int{}
	for rows.Next() {
		var (
			classID, studentID, className, teacherName, first, last string
			date                                                     time.Time
			present                                                  bool
			status, notes                                            sql.NullString
		)
		if err := rows.Scan(&classID, &studentID, &date, &present, &status, &notes, &className, &teacherName, &first, &last); err != nil {
			return nil, err
		}
		day := date.Format(roll.DateLayout)
		id := roll.SessionID(day, classID)
		i, ok := index[id]
		if !ok {
			sessions = append(sessions, roll.NewSession(day, roll.ClassSnapshot{
				ClassID:     classID,
				ClassName:   className,
				TeacherName: teacherName,
			}, nil))
			i = len(sessions) - 1
			index[id] = i
		}
		sessions[i].Students = append(sessions[i].Students, roll.Entry{
			StudentID:   studentID,
			StudentName: strings.TrimSpace(first + " " + last),
			Status:      storedStatus(status, present),
			Note:        notes.String,
		})
	}
	return sessions, rows.Err()
}

// StudentHistory returns a student's attendance rows, newest first.
func (r *Repository) StudentHistory(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(class_id, ''), student_id, date, present, status, notes
		FROM attendance
		WHERE student_id = $1
		ORDER BY date DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec           Record
			date          time.Time
			present       bool
			status, notes sql.NullString
		)
		if err := rows.Scan(&rec.ClassID, &rec.StudentID, &date, &present, &status, &notes); err != nil {
			return nil, err
		}
		rec.Date = date.Format(roll.DateLayout)
		rec.Status = storedStatus(status, present)
		rec.Note = notes.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// storedStatus prefers the explicit status column; older rows only carry the boolean.
func storedStatus(status sql.NullString, present bool) roll.Status {
	if s := roll.Status(status.String); status.Valid && s.Valid() {
		return s
	}
	if present {
		return roll.StatusPresent
	}
	return roll.StatusAbsentUnjustified
}
