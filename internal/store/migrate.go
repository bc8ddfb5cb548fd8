package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// schema lists the tables the service touches. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS classes (
		id TEXT PRIMARY KEY,
		class_name TEXT NOT NULL,
		teacher_name TEXT,
		day TEXT,
		level TEXT,
		room TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		class_id TEXT REFERENCES classes(id) ON DELETE SET NULL,
		parent_phone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT,
		role TEXT NOT NULL DEFAULT 'teacher',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		present BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (class_id, student_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS attendance_student_date_idx ON attendance (student_id, date DESC)`,
	`CREATE TABLE IF NOT EXISTS pedagogical_notes (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		teacher_id TEXT,
		note_type TEXT NOT NULL,
		content TEXT NOT NULL,
		date DATE NOT NULL DEFAULT CURRENT_DATE,
		is_shared BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	log.Printf("store: schema up to date (%d statements)", len(schema))
	return nil
}
