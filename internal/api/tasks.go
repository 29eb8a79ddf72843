package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/task"
)

func (h *handler) listTasks(c *gin.Context) {
	list, err := task.List(h.db, task.ListFilters{
		SeriesID:    c.Query("series"),
		Status:      c.Query("status"),
		MinutesID:   c.Query("minutes"),
		Responsible: c.Query("responsible"),
		OpenOnly:    c.Query("open") == "true",
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []models.Task{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) getTask(c *gin.Context) {
	t, err := task.Get(h.db, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// taskPatch is the body of PATCH /api/tasks/:id. Absent fields are left
// unchanged; an empty due_date clears the due date.
type taskPatch struct {
	Subject      *string   `json:"subject"`
	Details      *string   `json:"details"`
	Status       *string   `json:"status"`
	Priority     *string   `json:"priority"`
	DueDate      *string   `json:"due_date"`
	Responsibles *[]string `json:"responsibles"`
}

func (p taskPatch) changes() ([]task.Change, error) {
	var cs []task.Change
	if p.Subject != nil {
		cs = append(cs, task.SetSubject(*p.Subject))
	}
	if p.Details != nil {
		cs = append(cs, task.SetDetails(*p.Details))
	}
	if p.Status != nil {
		cs = append(cs, task.SetStatus(*p.Status))
	}
	if p.Priority != nil {
		cs = append(cs, task.SetPriority(*p.Priority))
	}
	if p.DueDate != nil {
		if *p.DueDate == "" {
			cs = append(cs, task.ClearDueDate{})
		} else {
			d, err := parseDate(*p.DueDate)
			if err != nil {
				return nil, fmt.Errorf("due_date: %w", err)
			}
			cs = append(cs, task.SetDueDate(d))
		}
	}
	if p.Responsibles != nil {
		cs = append(cs, task.SetResponsibles(*p.Responsibles))
	}
	return cs, nil
}

func (h *handler) patchTask(c *gin.Context) {
	var p taskPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	cs, err := p.changes()
	if err != nil {
		badRequest(c, err)
		return
	}
	t, err := task.Update(h.db, c.Param("id"), cs...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type noteRequest struct {
	Author string `json:"author" binding:"required"`
	Body   string `json:"body" binding:"required"`
}

func (h *handler) addTaskNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	note, err := task.AddNote(h.db, c.Param("id"), req.Author, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}
