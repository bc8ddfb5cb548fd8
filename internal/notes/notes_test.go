package notes

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created = time.Date(2025, 1, 18, 10, 0, 0, 0, time.UTC)
	day     = time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)
	columns = []string{"id", "student_id", "teacher_id", "note_type", "content", "date", "is_shared", "created_at", "updated_at"}
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	repo, mock := newMock(t)
	svc := NewService(repo)
	svc.now = func() time.Time { return created }
	return svc, mock
}

func TestType_Label(t *testing.T) {
	tests := map[Type]string{
		TypeBehavior:    "Comportement",
		TypeProgress:    "Progrès",
		TypeDifficulty:  "Difficulté",
		TypeObservation: "Observation",
		TypeGeneral:     "Général",
		Type("other"):   "other",
	}
	for typ, want := range tests {
		assert.Equal(t, want, typ.Label(), typ)
	}
	assert.False(t, Type("other").Valid())
}

func TestService_Create(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectExec(`INSERT INTO pedagogical_notes`).
		WithArgs(sqlmock.AnyArg(), "s1", "t1", "progress", "Lit couramment", "2025-01-18", false, created, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := svc.Create(context.Background(), "t1", CreateInput{
		StudentID: "s1",
		Type:      TypeProgress,
		Content:   "  Lit couramment ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "2025-01-18", n.Date)
	assert.Equal(t, "Progrès", n.Label)
	assert.Equal(t, "Lit couramment", n.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateRejects(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
	}{
		{name: "no content", in: CreateInput{StudentID: "s1", Type: TypeGeneral, Content: "   "}},
		{name: "bad type", in: CreateInput{StudentID: "s1", Type: "mood", Content: "x"}},
		{name: "no student", in: CreateInput{Type: TypeGeneral, Content: "x"}},
		{name: "bad date", in: CreateInput{StudentID: "s1", Type: TypeGeneral, Content: "x", Date: "18/01/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newService(t)
			_, err := svc.Create(context.Background(), "t1", tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestService_ListByStudent(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery(`FROM pedagogical_notes WHERE student_id = \$1 ORDER BY created_at DESC`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("n2", "s1", "", "behavior", "Bavarde", day, true, created, created).
			AddRow("n1", "s1", "t1", "general", "RAS", day.AddDate(0, 0, -7), false, created.AddDate(0, 0, -7), created.AddDate(0, 0, -7)))

	got, err := svc.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n2", got[0].ID)
	assert.Equal(t, "Comportement", got[0].Label)
	assert.Equal(t, "2025-01-11", got[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Update(t *testing.T) {
	svc, mock := newService(t)
	later := created.Add(time.Hour)
	svc.now = func() time.Time { return later }

	mock.ExpectQuery(`FROM pedagogical_notes WHERE id = \$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("n1", "s1", "t1", "general", "RAS", day, false, created, created))
	mock.ExpectExec(`UPDATE pedagogical_notes`).
		WithArgs("n1", "difficulty", "Lecture difficile", "2025-01-18", true, later).
		WillReturnResult(sqlmock.NewResult(0, 1))

	content, shared, typ := "Lecture difficile", true, TypeDifficulty
	n, err := svc.Update(context.Background(), "n1", UpdateInput{Type: &typ, Content: &content, IsShared: &shared})
	require.NoError(t, err)
	assert.Equal(t, "Difficulté", n.Label)
	assert.Equal(t, later, n.UpdatedAt)
	assert.Equal(t, created, n.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateRejectsEmptyContent(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery(`FROM pedagogical_notes WHERE id = \$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("n1", "s1", "t1", "general", "RAS", day, false, created, created))

	empty := ""
	_, err := svc.Update(context.Background(), "n1", UpdateInput{Content: &empty})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_NotFound(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery(`FROM pedagogical_notes WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectExec(`DELETE FROM pedagogical_notes WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.Update(context.Background(), "missing", UpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Delete(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectExec(`DELETE FROM pedagogical_notes WHERE id = \$1`).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, svc.Delete(context.Background(), "n1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
