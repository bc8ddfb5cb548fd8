package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/notes"
)

// ---------- Pedagogical notes ----------

// ListNotes returns a student's notes, newest first.
func (h *Handler) ListNotes(c *gin.Context) {
	list, err := h.notes.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, "list notes failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": list})
}

// CreateNote adds a note to the student in the path. The author is the
// caller's profile, or the token subject when no profile was loaded.
func (h *Handler) CreateNote(c *gin.Context) {
	var in notes.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	in.StudentID = c.Param("id")

	n, err := h.notes.Create(c.Request.Context(), author(c), in)
	if err != nil {
		noteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// UpdateNote applies a partial update; omitted fields are kept.
func (h *Handler) UpdateNote(c *gin.Context) {
	var in notes.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	n, err := h.notes.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		noteError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// DeleteNote removes a note. Unknown ids answer 404.
func (h *Handler) DeleteNote(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		noteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func author(c *gin.Context) string {
	if p, ok := auth.ProfileFrom(c); ok {
		return p.ID
	}
	if claims, ok := auth.ClaimsFrom(c); ok {
		return claims.Subject
	}
	return ""
}

func noteError(c *gin.Context, err error) {
	var verr *notes.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusUnprocessableEntity, "invalid note", err)
	case errors.Is(err, notes.ErrNotFound):
		fail(c, http.StatusNotFound, "note not found", nil)
	default:
		fail(c, http.StatusInternalServerError, "note operation failed", err)
	}
}
