package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/roll"
	"rollcall/internal/roster"
)

// ---------- Attendance ----------

// RecordSession saves a roll call and notifies guardians of unjustified absences.
func (h *Handler) RecordSession(c *gin.Context) {
	var s roll.Session
	if err := c.ShouldBindJSON(&s); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}

	res := h.attendance.RecordAttendance(c.Request.Context(), s)
	var verr *roll.ValidationError
	switch {
	case errors.As(res.Err, &verr):
		c.JSON(http.StatusUnprocessableEntity, res)
	case errors.Is(res.Err, attendance.ErrSessionBusy):
		c.JSON(http.StatusConflict, res)
	case !res.Saved:
		c.JSON(http.StatusInternalServerError, res)
	default:
		c.JSON(http.StatusOK, res)
	}
}

// ListSessions returns stored roll calls, optionally for one class.
func (h *Handler) ListSessions(c *gin.Context) {
	f := attendance.SessionFilter{ClassID: c.Query("class_id")}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			fail(c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		f.Limit = limit
	}
	sessions, err := h.attendance.ListSessions(c.Request.Context(), f)
	if err != nil {
		fail(c, http.StatusInternalServerError, "list sessions failed", err)
		return
	}
	if sessions == nil {
		sessions = []roll.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// StudentAttendance returns a student's history and rate.
func (h *Handler) StudentAttendance(c *gin.Context) {
	st, err := h.attendance.StudentStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, "load attendance failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ---------- Roster ----------

// RollCall builds a fresh session for the class with everyone marked present.
func (h *Handler) RollCall(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format(roll.DateLayout))
	if _, err := time.Parse(roll.DateLayout, date); err != nil {
		fail(c, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
		return
	}

	class, err := h.roster.Class(c.Request.Context(), c.Param("id"))
	if errors.Is(err, roster.ErrNotFound) {
		fail(c, http.StatusNotFound, "class not found", nil)
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "load class failed", err)
		return
	}
	students, err := h.roster.StudentsByClass(c.Request.Context(), class.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "load students failed", err)
		return
	}

	entries := make([]roll.Entry, 0, len(students))
	for _, s := range students {
		entries = append(entries, roll.Entry{StudentID: s.ID, StudentName: s.FullName(), Status: roll.StatusPresent})
	}
	c.JSON(http.StatusOK, roll.NewSession(date, roll.ClassSnapshot{
		ClassID:     class.ID,
		ClassName:   class.ClassName,
		TeacherName: class.TeacherName,
	}, entries))
}

// ClassStudents lists a class roster.
func (h *Handler) ClassStudents(c *gin.Context) {
	students, err := h.roster.StudentsByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, "load students failed", err)
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}
