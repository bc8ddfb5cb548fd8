package auth

import (
	"context"
	"database/sql"
	"errors"
)

// ErrProfileNotFound means the authenticated user has no profile row.
var ErrProfileNotFound = errors.New("auth: profile not found")

// Profile is the application-side identity of an authenticated user.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ProfileStore resolves a user id to its profile.
type ProfileStore interface {
	Profile(ctx context.Context, userID string) (Profile, error)
}

// ProfileRepository reads the profiles table.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a repo.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Profile implements ProfileStore.
func (r *ProfileRepository) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := r.db.QueryRowContext(ctx, `SELECT id, COALESCE(email, ''), COALESCE(role, '') FROM profiles WHERE id = $1`, userID).
		Scan(&p.ID, &p.Email, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	return p, err
}
