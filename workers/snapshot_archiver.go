// workers/snapshot_archiver.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"wellness-engine/models"
	"wellness-engine/services"
	"wellness-engine/utils"
)

// SnapshotArchiver periodically serializes the global weekly XP ranking and
// uploads it to R2. The archive is an audit/export artifact only — the live
// ranking is always recomputed from the ledger.
type SnapshotArchiver struct {
	Rankings *services.RankingService
}

func NewSnapshotArchiver(rankings *services.RankingService) *SnapshotArchiver {
	return &SnapshotArchiver{Rankings: rankings}
}

// PollSnapshots archives on a fixed cadence until ctx is cancelled.
func PollSnapshots(ctx context.Context, archiver *SnapshotArchiver, interval time.Duration) {
	log.Println("Starting ranking snapshot archiver...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ranking snapshot archiver stopped.")
			return
		case <-ticker.C:
			if err := archiver.ArchiveOnce(ctx); err != nil {
				log.Printf("❌ Snapshot archive failed: %v", err)
			}
		}
	}
}

// ArchiveOnce builds the current global weekly and historical XP rankings and
// uploads both as one JSON document keyed by the week's Monday.
func (a *SnapshotArchiver) ArchiveOnce(ctx context.Context) error {
	weekly, err := a.Rankings.BuildRanking(ctx, services.RankingQuery{
		Period: models.PeriodWeekly,
		Scope:  models.ScopeGlobal,
		Metric: models.MetricXP,
	})
	if err != nil {
		return fmt.Errorf("failed to build weekly ranking: %w", err)
	}
	historical, err := a.Rankings.BuildRanking(ctx, services.RankingQuery{
		Period: models.PeriodHistorical,
		Scope:  models.ScopeGlobal,
		Metric: models.MetricXP,
	})
	if err != nil {
		return fmt.Errorf("failed to build historical ranking: %w", err)
	}

	snapshot := map[string]interface{}{
		"generated_at": time.Now().UTC(),
		"weekly":       weekly,
		"historical":   historical,
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	// One object per ISO week, overwritten as the week progresses
	weekday := int(time.Now().UTC().Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := utils.CanonicalDate(time.Now().UTC()).AddDate(0, 0, -(weekday - 1))
	key := fmt.Sprintf("snapshots/weekly/%s.json", monday.Format(utils.DateLayout))

	url, err := utils.UploadSnapshotToR2(ctx, key, payload, "application/json")
	if err != nil {
		return err
	}
	log.Printf("📦 Ranking snapshot archived: %s (%d participants)", url, weekly.TotalParticipants)
	return nil
}
