package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/roster"
)

// ---------- Roster administration ----------

// ListClasses returns every class.
func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.roster.ListClasses(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "list classes failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *Handler) CreateClass(c *gin.Context) {
	var in roster.ClassInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	class, err := h.roster.CreateClass(c.Request.Context(), in)
	if err != nil {
		rosterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (h *Handler) UpdateClass(c *gin.Context) {
	var in roster.ClassInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	class, err := h.roster.UpdateClass(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		rosterError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// DeleteClass refuses with 409 while the class still has students.
func (h *Handler) DeleteClass(c *gin.Context) {
	if err := h.roster.DeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		rosterError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var in roster.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	s, err := h.roster.CreateStudent(c.Request.Context(), in)
	if err != nil {
		rosterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	var in roster.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	s, err := h.roster.UpdateStudent(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		rosterError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.roster.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		rosterError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func rosterError(c *gin.Context, err error) {
	var verr *roster.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusUnprocessableEntity, "invalid roster input", err)
	case errors.Is(err, roster.ErrNotFound):
		fail(c, http.StatusNotFound, "not found", nil)
	case errors.Is(err, roster.ErrUnknownClass):
		fail(c, http.StatusUnprocessableEntity, "unknown class", nil)
	case errors.Is(err, roster.ErrClassNotEmpty):
		fail(c, http.StatusConflict, "class still has students", err)
	default:
		fail(c, http.StatusInternalServerError, "roster operation failed", err)
	}
}
