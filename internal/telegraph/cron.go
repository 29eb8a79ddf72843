package telegraph

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		return 0
	}
	return d
}

// SendDigests builds and sends one digest per series. A series that fails
// is logged and skipped; the first error is returned after all are tried.
func SendDigests(ctx context.Context, db *gorm.DB, adapter Adapter, channelID string, seriesIDs []string) error {
	var firstErr error
	for _, id := range seriesIDs {
		d, err := BuildDigest(db, id, time.Now())
		if err == nil {
			err = adapter.Send(ctx, FormatDigest(d, channelID))
		}
		if err != nil {
			log.Printf("telegraph: digest for series %s: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Scheduler sends digests on a cron schedule.
type Scheduler struct {
	DB        *gorm.DB
	Adapter   Adapter
	ChannelID string
	Schedule  string
	// SeriesIDs returns the series to report on at each run.
	SeriesIDs func() ([]string, error)
}

// Run blocks, sending digests at every fire time of the schedule until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := cronParser.Parse(s.Schedule); err != nil {
		return fmt.Errorf("telegraph: schedule %q: %w", s.Schedule, err)
	}
	for {
		wait := nextCronDuration(s.Schedule)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		ids, err := s.SeriesIDs()
		if err != nil {
			log.Printf("telegraph: list series: %v", err)
			continue
		}
		if err := SendDigests(ctx, s.DB, s.Adapter, s.ChannelID, ids); err != nil {
			log.Printf("telegraph: scheduled digest: %v", err)
		}
	}
}
