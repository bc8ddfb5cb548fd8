package handler

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rollcall/internal/notify"
	"rollcall/internal/queue"
)

// ---------- Absence SMS ----------

// SendAbsenceSMS accepts one notification or an array of them.
// With ?async=true the batch is queued for the worker instead.
func (h *Handler) SendAbsenceSMS(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable body", err)
		return
	}
	raw = bytes.TrimSpace(raw)

	if len(raw) > 0 && raw[0] == '[' {
		var batch []notify.Notification
		if err := json.Unmarshal(raw, &batch); err != nil {
			fail(c, http.StatusBadRequest, "invalid JSON", err)
			return
		}
		if len(batch) == 0 {
			fail(c, http.StatusBadRequest, "no notifications to send", nil)
			return
		}
		if c.Query("async") == "true" {
			h.enqueue(c, batch)
			return
		}
		res := h.messenger.Dispatch(c.Request.Context(), batch)
		c.JSON(http.StatusOK, gin.H{
			"success": res.Success(),
			"sent":    res.Sent,
			"failed":  res.Failed,
			"results": res.Results,
		})
		return
	}

	var n notify.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	if n.To == "" || n.StudentName == "" || n.ClassName == "" {
		fail(c, http.StatusBadRequest, "missing fields (to, studentName, className required)", nil)
		return
	}
	if c.Query("async") == "true" {
		h.enqueue(c, []notify.Notification{n})
		return
	}

	res := h.messenger.Send(c.Request.Context(), n)
	if !res.Success {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error, "details": res.Reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sent":      1,
		"failed":    0,
		"messageId": res.MessageID,
		"results":   []notify.SMSResult{res},
	})
}

func (h *Handler) enqueue(c *gin.Context, batch []notify.Notification) {
	if h.publisher == nil {
		fail(c, http.StatusServiceUnavailable, "async sending is not configured", nil)
		return
	}
	body, err := json.Marshal(batch)
	if err != nil {
		fail(c, http.StatusInternalServerError, "encode batch", err)
		return
	}
	msg := queue.Message{ID: uuid.NewString(), Type: queue.TypeSMSBatch, Body: body, EnqueuedAt: time.Now().UTC()}
	if err := h.publisher.Publish(c.Request.Context(), msg); err != nil {
		log.Printf("handler: enqueue %s failed: %v", msg.ID, err)
		fail(c, http.StatusServiceUnavailable, "queue unavailable", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": len(batch), "id": msg.ID})
}
