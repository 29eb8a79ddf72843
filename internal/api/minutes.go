package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/minutes/internal/carryover"
	"github.com/zulandar/minutes/internal/minute"
	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/series"
)

type createSeriesRequest struct {
	Name    string `json:"name" binding:"required"`
	Project string `json:"project"`
}

func (h *handler) listSeries(c *gin.Context) {
	list, err := series.List(h.db)
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []models.Series{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) createSeries(c *gin.Context) {
	var req createSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := series.Create(h.db, req.Name, req.Project)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *handler) listMinutes(c *gin.Context) {
	if _, err := series.Get(h.db, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	list, err := minute.List(h.db, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []models.Minute{}
	}
	c.JSON(http.StatusOK, list)
}

type createMinuteRequest struct {
	Date   string         `json:"date"`
	Topics []models.Topic `json:"topics"`
}

func (h *handler) createMinute(c *gin.Context) {
	var req createMinuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	opts := minute.CreateOpts{SeriesID: c.Param("id"), Topics: req.Topics}
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			badRequest(c, err)
			return
		}
		opts.Date = d
	}
	doc, err := minute.Create(h.db, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// pendingTasks lists the open action items of the series. With ?exclude
// set, tasks already imported into that minute and minutes after it are
// left out.
func (h *handler) pendingTasks(c *gin.Context) {
	cs, err := carryover.Resolve(h.db, c.Param("id"), c.Query("exclude"))
	if err != nil {
		writeError(c, err)
		return
	}
	if cs == nil {
		cs = []carryover.Candidate{}
	}
	c.JSON(http.StatusOK, cs)
}

func (h *handler) getMinute(c *gin.Context) {
	doc, err := minute.Get(h.db, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *handler) saveMinute(c *gin.Context) {
	var doc models.Minute
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, err)
		return
	}
	doc.ID = c.Param("id")
	saved, err := minute.Save(h.db, &doc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handler) deleteMinute(c *gin.Context) {
	if err := minute.Delete(h.db, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) finalizeMinute(c *gin.Context) {
	doc, err := minute.Finalize(h.db, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *handler) minuteMarkdown(c *gin.Context) {
	doc, err := minute.Get(h.db, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	s, err := series.Get(h.db, doc.SeriesID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(minute.Markdown(doc, s.Name)))
}
