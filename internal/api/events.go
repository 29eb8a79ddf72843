package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/minutes/internal/carryover"
	"github.com/zulandar/minutes/internal/series"
)

// pendingEvent is sent whenever the pending list of a series changes.
type pendingEvent struct {
	SeriesID string                `json:"series_id"`
	Count    int                   `json:"count"`
	Pending  []carryover.Candidate `json:"pending"`
}

// pendingEvents streams the pending tasks of a series as server-sent events.
// A "pending" event is written on connect and again each time the resolved
// list changes, so open editors see items imported or closed elsewhere.
func (h *handler) pendingEvents(c *gin.Context) {
	seriesID, exclude := c.Param("id"), c.Query("exclude")
	if _, err := series.Get(h.db, seriesID); err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	var last string
	poll := func() {
		cs, err := carryover.Resolve(h.db, seriesID, exclude)
		if err != nil {
			writeSSE(c.Writer, "error", gin.H{"error": err.Error()})
			c.Writer.Flush()
			return
		}
		if cs == nil {
			cs = []carryover.Candidate{}
		}
		evt := pendingEvent{SeriesID: seriesID, Count: len(cs), Pending: cs}
		data, err := json.Marshal(evt)
		if err != nil || string(data) == last {
			return
		}
		last = string(data)
		fmt.Fprintf(c.Writer, "event: pending\ndata: %s\n\n", data)
		c.Writer.Flush()
	}
	poll()

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.pollInterval)
	heartbeat := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			poll()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
}
