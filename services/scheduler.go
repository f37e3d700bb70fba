// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartHoursScheduler refreshes cached time-tracking totals on an interval.
func (s *HackatimeService) StartHoursScheduler(ctx context.Context) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			s.WarmCache(ctx)
		}),
	)

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("[HOURS] Scheduler shutdown error: %v", err)
		}
	}()
}
