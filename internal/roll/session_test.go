package roll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionID(t *testing.T) {
	assert.Equal(t, "session-2025-01-18-C1", SessionID("2025-01-18", "C1"))
}

func TestNewSession(t *testing.T) {
	class := ClassSnapshot{ClassID: "C1", ClassName: "D", TeacherName: "Mme. Sarhan"}
	s := NewSession("2025-01-18", class, nil)

	assert.Equal(t, "session-2025-01-18-C1", s.ID)
	assert.Equal(t, "D", s.ClassName)
	assert.Equal(t, "Mme. Sarhan", s.TeacherName)
	assert.NotNil(t, s.Students)
	assert.Equal(t, class, s.Snapshot())
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusPresent.Valid())
	assert.True(t, StatusAbsentJustified.Valid())
	assert.True(t, StatusAbsentUnjustified.Valid())
	assert.False(t, Status("late").Valid())
	assert.False(t, Status("").Valid())

	assert.True(t, StatusPresent.Present())
	assert.False(t, StatusAbsentJustified.Present())
	assert.False(t, StatusAbsentUnjustified.Present())
}

func TestSession_Filter(t *testing.T) {
	s := Session{Students: []Entry{
		{StudentID: "s1", Status: StatusPresent},
		{StudentID: "s2", Status: StatusAbsentUnjustified},
		{StudentID: "s3", Status: StatusAbsentJustified, Note: "Maladie"},
		{StudentID: "s4", Status: StatusAbsentUnjustified},
	}}

	got := s.Filter(StatusAbsentUnjustified)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[0].StudentID)
	assert.Equal(t, "s4", got[1].StudentID)
	assert.Empty(t, s.Filter("late"))
}

func TestSession_Validate(t *testing.T) {
	valid := Session{
		Date:    "2025-01-18",
		ClassID: "C1",
		Students: []Entry{
			{StudentID: "s1", Status: StatusPresent},
			{StudentID: "s2", Status: StatusAbsentUnjustified},
		},
	}

	tests := []struct {
		name    string
		mutate  func(s *Session)
		wantErr bool
	}{
		{name: "valid", mutate: func(s *Session) {}},
		{name: "empty roster", mutate: func(s *Session) { s.Students = nil }},
		{name: "duplicate students allowed", mutate: func(s *Session) {
			s.Students = append(s.Students, Entry{StudentID: "s1", Status: StatusPresent})
		}},
		{name: "missing class", mutate: func(s *Session) { s.ClassID = "" }, wantErr: true},
		{name: "missing date", mutate: func(s *Session) { s.Date = "" }, wantErr: true},
		{name: "date with time", mutate: func(s *Session) { s.Date = "2025-01-18T10:00:00Z" }, wantErr: true},
		{name: "unknown status", mutate: func(s *Session) { s.Students[0].Status = "late" }, wantErr: true},
		{name: "missing student id", mutate: func(s *Session) { s.Students[1].StudentID = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			s.Students = append([]Entry(nil), valid.Students...)
			tt.mutate(&s)

			err := s.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Fields)
		})
	}
}

func TestSession_WithID(t *testing.T) {
	s := Session{ID: "whatever", Date: "2025-01-18", ClassID: "C1"}.WithID()
	assert.Equal(t, "session-2025-01-18-C1", s.ID)
}
