package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/minutes/internal/carryover"
	"github.com/zulandar/minutes/internal/minute"
	"github.com/zulandar/minutes/internal/series"
	"github.com/zulandar/minutes/internal/task"
	"gorm.io/gorm"
)

type handler struct {
	db       *gorm.DB
	sessions *carryover.Registry

	// pollInterval and heartbeat pace the pending-task event stream.
	pollInterval time.Duration
	heartbeat    time.Duration
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handler) {
	api := router.Group("/api")

	api.GET("/series", h.listSeries)
	api.POST("/series", h.createSeries)
	api.GET("/series/:id/minutes", h.listMinutes)
	api.POST("/series/:id/minutes", h.createMinute)
	api.GET("/series/:id/pending-tasks", h.pendingTasks)
	api.GET("/series/:id/pending-tasks/events", h.pendingEvents)

	api.GET("/minutes/:id", h.getMinute)
	api.PUT("/minutes/:id", h.saveMinute)
	api.DELETE("/minutes/:id", h.deleteMinute)
	api.POST("/minutes/:id/finalize", h.finalizeMinute)
	api.GET("/minutes/:id/markdown", h.minuteMarkdown)
	api.POST("/minutes/:id/sessions", h.openSession)

	api.GET("/tasks", h.listTasks)
	api.GET("/tasks/:id", h.getTask)
	api.PATCH("/tasks/:id", h.patchTask)
	api.POST("/tasks/:id/notes", h.addTaskNote)

	api.GET("/sessions/:sid", h.getSession)
	api.POST("/sessions/:sid/import", h.importTask)
	api.POST("/sessions/:sid/import-all", h.importAll)
	api.POST("/sessions/:sid/save", h.saveSession)
	api.DELETE("/sessions/:sid", h.closeSession)
}

// errBadRequest marks request errors found before any store call.
var errBadRequest = errors.New("bad request")

// writeError maps store errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, series.ErrNotFound),
		errors.Is(err, minute.ErrNotFound),
		errors.Is(err, task.ErrNotFound),
		errors.Is(err, carryover.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, minute.ErrFinalized),
		errors.Is(err, minute.ErrDuplicateImport),
		errors.Is(err, task.ErrLineageTaken):
		status = http.StatusConflict
	case errors.Is(err, minute.ErrInvalid),
		errors.Is(err, task.ErrInvalidChange),
		errors.Is(err, carryover.ErrUnknownTask),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("api: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errBadRequest.Error() + ": " + err.Error()})
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
