package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/notes"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/roll"
	"rollcall/internal/roster"
)

// Attendance is the roll-call pipeline.
type Attendance interface {
	RecordAttendance(ctx context.Context, s roll.Session) attendance.RecordResult
	ListSessions(ctx context.Context, f attendance.SessionFilter) ([]roll.Session, error)
	StudentStats(ctx context.Context, studentID string) (attendance.Stats, error)
}

// Roster reads and administers classes and students.
type Roster interface {
	Class(ctx context.Context, id string) (roster.Class, error)
	StudentsByClass(ctx context.Context, classID string) ([]roster.Student, error)

	ListClasses(ctx context.Context) ([]roster.Class, error)
	CreateClass(ctx context.Context, in roster.ClassInput) (roster.Class, error)
	UpdateClass(ctx context.Context, id string, in roster.ClassInput) (roster.Class, error)
	DeleteClass(ctx context.Context, id string) error
	CreateStudent(ctx context.Context, in roster.StudentInput) (roster.Student, error)
	UpdateStudent(ctx context.Context, id string, in roster.StudentInput) (roster.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// Notes manages pedagogical notes.
type Notes interface {
	Create(ctx context.Context, teacherID string, in notes.CreateInput) (notes.Note, error)
	ListByStudent(ctx context.Context, studentID string) ([]notes.Note, error)
	Update(ctx context.Context, id string, in notes.UpdateInput) (notes.Note, error)
	Delete(ctx context.Context, id string) error
}

// Messenger sends absence notifications.
type Messenger interface {
	Send(ctx context.Context, n notify.Notification) notify.SMSResult
	Dispatch(ctx context.Context, batch []notify.Notification) notify.DispatchResult
}

// Publisher enqueues work for the worker.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Handler serves the HTTP API.
type Handler struct {
	attendance Attendance
	roster     Roster
	notes      Notes
	messenger  Messenger
	publisher  Publisher // nil disables async sends
}

// New creates a handler.
func New(att Attendance, ros Roster, nts Notes, messenger Messenger, publisher Publisher) *Handler {
	return &Handler{attendance: att, roster: ros, notes: nts, messenger: messenger, publisher: publisher}
}

// RouteOptions controls which routes are mounted and how they are guarded.
type RouteOptions struct {
	// PublicSMS mounts the unauthenticated /api/send-absence-sms endpoint.
	PublicSMS bool
	// Protect guards the whole /v1 group.
	Protect []gin.HandlerFunc
	// Admin additionally guards roster writes.
	Admin []gin.HandlerFunc
}

// Routes mounts the API.
func (h *Handler) Routes(r gin.IRouter, opts RouteOptions) {
	if opts.PublicSMS {
		r.POST("/api/send-absence-sms", h.SendAbsenceSMS)
	}

	v1 := r.Group("/v1", opts.Protect...)
	v1.POST("/sms/absence", h.SendAbsenceSMS)

	v1.POST("/attendance/sessions", h.RecordSession)
	v1.GET("/attendance/sessions", h.ListSessions)
	v1.GET("/students/:id/attendance", h.StudentAttendance)

	v1.GET("/classes/:id/roll-call", h.RollCall)
	v1.GET("/classes/:id/students", h.ClassStudents)

	v1.GET("/students/:id/notes", h.ListNotes)
	v1.POST("/students/:id/notes", h.CreateNote)
	v1.PATCH("/notes/:id", h.UpdateNote)
	v1.DELETE("/notes/:id", h.DeleteNote)

	admin := v1.Group("", opts.Admin...)
	admin.GET("/classes", h.ListClasses)
	admin.POST("/classes", h.CreateClass)
	admin.PUT("/classes/:id", h.UpdateClass)
	admin.DELETE("/classes/:id", h.DeleteClass)
	admin.POST("/students", h.CreateStudent)
	admin.PUT("/students/:id", h.UpdateStudent)
	admin.DELETE("/students/:id", h.DeleteStudent)
}

// Healthz reports liveness of the dependencies given.
func Healthz(checks map[string]func(ctx context.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		for name, check := range checks {
			ok := check(c.Request.Context())
			body[name] = ok
			if !ok {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}

func fail(c *gin.Context, status int, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
