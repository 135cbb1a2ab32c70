// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"wellness-engine/models"

	"github.com/go-co-op/gocron/v2"
)

// StartRankingWarmer refreshes the most-read global rankings on a fixed
// cadence so the cache stays hot between TTL expiries.
func (s *RankingService) StartRankingWarmer() {
	if !s.Cache.Enabled() {
		log.Println("⚠️  Ranking warmer skipped — cache disabled")
		return
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	queries := []RankingQuery{
		{Period: models.PeriodWeekly, Scope: models.ScopeGlobal, Metric: models.MetricXP},
		{Period: models.PeriodMonthly, Scope: models.ScopeGlobal, Metric: models.MetricXP},
		{Period: models.PeriodHistorical, Scope: models.ScopeGlobal, Metric: models.MetricXP},
		{Period: models.PeriodWeekly, Scope: models.ScopeGlobal, Metric: models.MetricStreak},
		{Period: models.PeriodWeekly, Scope: models.ScopeGlobal, Metric: models.MetricVictories},
	}

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			ctx := context.Background()
			for _, q := range queries {
				entries, err := s.refresh(ctx, q, time.Now().UTC())
				if err != nil {
					log.Printf("[Warmer] Failed to refresh %s/%s/%s: %v", q.Period, q.Scope, q.Metric, err)
					continue
				}
				s.Cache.Set(ctx, q.cacheKey(), entries)
			}
		}),
	)
	log.Println("✅ Ranking warmer running (every 1m)")
}
