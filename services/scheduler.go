// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRewardScheduler runs the second half of the level-up bonus saga:
// every two seconds it awards pending bonuses whose delay has elapsed.
// Bonuses written by the orchestrator survive restarts and are resolved on
// the next tick.
func (s *WalletService) StartRewardScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(2*time.Second),
		gocron.NewTask(func() {
			resolved, err := s.ResolveDuePendingBonuses(time.Now())
			if err != nil {
				log.Printf("[Scheduler] Pending bonus query error: %v", err)
				return
			}
			if resolved > 0 {
				log.Printf("✅ Resolved %d level-up bonus award(s)", resolved)
			}
		}),
	)
}
