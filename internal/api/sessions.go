package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/minutes/internal/carryover"
	"github.com/zulandar/minutes/internal/models"
)

type sessionView struct {
	ID      string                `json:"session_id"`
	Minute  *models.Minute        `json:"minute"`
	Pending []carryover.Candidate `json:"pending"`
}

func (h *handler) view(sess *carryover.Session) (sessionView, error) {
	pending, err := h.sessions.Pending(sess)
	if err != nil {
		return sessionView{}, err
	}
	if pending == nil {
		pending = []carryover.Candidate{}
	}
	return sessionView{ID: sess.ID, Minute: sess.Minute(), Pending: pending}, nil
}

func (h *handler) openSession(c *gin.Context) {
	sess, err := h.sessions.Open(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	v, err := h.view(sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *handler) session(c *gin.Context) (*carryover.Session, bool) {
	sess, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *handler) getSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	v, err := h.view(sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type importRequest struct {
	TaskID string `json:"task_id" binding:"required"`
}

// importTask imports one pending task. A repeated import of the same task
// is not an error; it reports imported=false and leaves the minute as is.
func (h *handler) importTask(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	imported, err := h.sessions.ImportTask(sess, req.TaskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"state":    sess.State(req.TaskID).String(),
		"minute":   sess.Minute(),
	})
}

func (h *handler) importAll(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, err := h.sessions.ImportAll(sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n, "minute": sess.Minute()})
}

func (h *handler) saveSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	saved, err := h.sessions.Save(sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handler) closeSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("sid")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
