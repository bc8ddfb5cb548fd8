package notes

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence needed by Service.
type Store interface {
	Create(ctx context.Context, n Note) error
	Get(ctx context.Context, id string) (Note, error)
	ListByStudent(ctx context.Context, studentID string) ([]Note, error)
	Update(ctx context.Context, n Note) error
	Delete(ctx context.Context, id string) error
}

// Service holds the note business rules.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create validates input and stores a new note written by teacherID.
func (s *Service) Create(ctx context.Context, teacherID string, in CreateInput) (Note, error) {
	if err := in.normalize(); err != nil {
		return Note{}, err
	}
	now := s.now().UTC()
	if in.Date == "" {
		in.Date = now.Format(dateLayout)
	}
	n := Note{
		ID:        uuid.NewString(),
		StudentID: in.StudentID,
		TeacherID: teacherID,
		Type:      in.Type,
		Label:     in.Type.Label(),
		Content:   in.Content,
		Date:      in.Date,
		IsShared:  in.IsShared,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return Note{}, err
	}
	log.Printf("notes: %s created for student %s", n.ID, n.StudentID)
	return n, nil
}

// ListByStudent returns a student's notes, newest first.
func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]Note, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// Update applies a partial update and bumps updated_at.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Note, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if err := in.apply(&n); err != nil {
		return Note{}, err
	}
	n.Label = n.Type.Label()
	n.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, n); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
