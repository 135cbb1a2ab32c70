package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"wellness-engine/models"
	"wellness-engine/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AwardResult is returned by every award path. Success=false means the
// idempotency constraint rejected a repeat completion for that local date —
// an expected condition, not an error.
type AwardResult struct {
	Success  bool  `json:"success"`
	XPEarned int64 `json:"xp_earned"`
	TotalXP  int64 `json:"total_xp"`
	Level    int   `json:"level"`
}

type LedgerService struct {
	DB         *gorm.DB
	Notifier   *AwardNotifier
	Milestones *MilestoneService
}

func NewLedgerService(db *gorm.DB, notifier *AwardNotifier, milestones *MilestoneService) *LedgerService {
	return &LedgerService{DB: db, Notifier: notifier, Milestones: milestones}
}

// streakMultiplier returns the XP bonus factor for a current streak length.
func streakMultiplier(streak int) float64 {
	switch {
	case streak >= 21:
		return 1.30
	case streak >= 7:
		return 1.20
	case streak >= 3:
		return 1.10
	default:
		return 1.00
	}
}

// awardAmount computes floor(baseXP × multiplier) for the user's streak.
func awardAmount(baseXP int64, streak int) int64 {
	return int64(math.Floor(float64(baseXP) * streakMultiplier(streak)))
}

// AwardMission grants XP for a completed mission, at most once per
// (user, mission, local date). The composite unique index plus the
// insert-or-nothing makes the idempotency check and the insert one atomic
// operation: concurrent double-taps cannot both succeed.
func (s *LedgerService) AwardMission(externalUserID, missionID string, baseXP int64, localDate time.Time, meta models.CompletionMetadata) (*AwardResult, error) {
	if baseXP <= 0 {
		return nil, fmt.Errorf("baseXP must be positive, got %d", baseXP)
	}
	localDate = utils.CanonicalDate(localDate)

	category := meta.Category
	if def, ok := models.MissionByID(missionID); ok {
		category = def.Category
	}

	result := &AwardResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prog, err := ensureProgressTx(tx, externalUserID)
		if err != nil {
			return err
		}

		earned := awardAmount(baseXP, prog.CurrentStreak)
		award := models.MissionAward{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			MissionID:      missionID,
			AwardDate:      localDate,
			Category:       category,
			XPGranted:      earned,
			Metadata:       meta,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "external_user_id"}, {Name: "mission_id"}, {Name: "award_date"},
			},
			DoNothing: true,
		}).Create(&award)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			// Duplicate award — already completed today, no XP change
			result.TotalXP = prog.TotalXP
			result.Level = ResolveLevel(prog.TotalXP).Level
			return nil
		}

		newTotal, err := s.creditXPTx(tx, externalUserID, earned, map[string]interface{}{
			"total_missions": gorm.Expr("total_missions + 1"),
		})
		if err != nil {
			return err
		}

		result.Success = true
		result.XPEarned = earned
		result.TotalXP = newTotal
		result.Level = ResolveLevel(newTotal).Level
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		log.Printf("🏅 XP awarded: %s → +%d for %s on %s (total=%d, lvl=%d)",
			externalUserID, result.XPEarned, missionID,
			localDate.Format(utils.DateLayout), result.TotalXP, result.Level)
		s.afterAward(externalUserID, "mission", missionID, result)
	} else {
		log.Printf("🔁 Duplicate mission completion ignored: %s/%s/%s",
			externalUserID, missionID, localDate.Format(utils.DateLayout))
	}
	return result, nil
}

// AwardPerfectDay grants the flat daily bonus once every mission in the
// required set has an award record for localDate. Keyed on a synthetic mission
// ID so the same unique constraint enforces once-per-date. Also grants one
// power token.
func (s *LedgerService) AwardPerfectDay(externalUserID string, localDate time.Time) (*AwardResult, error) {
	localDate = utils.CanonicalDate(localDate)

	required := models.DailyRequiredSet()
	ids := make([]string, 0, len(required))
	for _, m := range required {
		ids = append(ids, m.ID)
	}

	var completed int64
	if err := s.DB.Model(&models.MissionAward{}).
		Where("external_user_id = ? AND award_date = ? AND mission_id IN ?", externalUserID, localDate, ids).
		Count(&completed).Error; err != nil {
		return nil, err
	}
	if completed < int64(len(ids)) {
		return &AwardResult{}, nil
	}

	result := &AwardResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prog, err := ensureProgressTx(tx, externalUserID)
		if err != nil {
			return err
		}

		award := models.MissionAward{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			MissionID:      models.PerfectDayMissionID,
			AwardDate:      localDate,
			XPGranted:      models.PerfectDayBonusXP,
			Metadata:       models.CompletionMetadata{},
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "external_user_id"}, {Name: "mission_id"}, {Name: "award_date"},
			},
			DoNothing: true,
		}).Create(&award)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			result.TotalXP = prog.TotalXP
			result.Level = ResolveLevel(prog.TotalXP).Level
			return nil
		}

		newTotal, err := s.creditXPTx(tx, externalUserID, models.PerfectDayBonusXP, map[string]interface{}{
			"total_perfect_days": gorm.Expr("total_perfect_days + 1"),
			"power_tokens":       gorm.Expr("power_tokens + 1"),
		})
		if err != nil {
			return err
		}

		result.Success = true
		result.XPEarned = models.PerfectDayBonusXP
		result.TotalXP = newTotal
		result.Level = ResolveLevel(newTotal).Level
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		log.Printf("🌟 Perfect day: %s on %s → +%d XP, +1 token",
			externalUserID, localDate.Format(utils.DateLayout), result.XPEarned)
		s.afterAward(externalUserID, "perfect_day", models.PerfectDayMissionID, result)
	}
	return result, nil
}

// RecordVictory appends a victory record and credits its flat bonus. No daily
// limit and no multiplier; the record is immutable once created.
func (s *LedgerService) RecordVictory(externalUserID string, localDate time.Time, text string, public bool) (*models.Victory, *AwardResult, error) {
	localDate = utils.CanonicalDate(localDate)

	victory := &models.Victory{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		LocalDate:      localDate,
		Text:           text,
		Public:         public,
		XPGranted:      models.VictoryBonusXP,
	}

	result := &AwardResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := ensureProgressTx(tx, externalUserID); err != nil {
			return err
		}
		if err := tx.Create(victory).Error; err != nil {
			return err
		}
		newTotal, err := s.creditXPTx(tx, externalUserID, models.VictoryBonusXP, map[string]interface{}{
			"total_victories": gorm.Expr("total_victories + 1"),
		})
		if err != nil {
			return err
		}
		result.Success = true
		result.XPEarned = models.VictoryBonusXP
		result.TotalXP = newTotal
		result.Level = ResolveLevel(newTotal).Level
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("🏆 Victory recorded: %s → +%d XP (total=%d)",
		externalUserID, result.XPEarned, result.TotalXP)
	s.afterAward(externalUserID, "victory", "", result)
	return victory, result, nil
}

// GrantXP credits XP with no ledger entry — admin escape hatch.
func (s *LedgerService) GrantXP(externalUserID string, xp int64, reason string) (*AwardResult, error) {
	if xp <= 0 {
		return nil, fmt.Errorf("xp must be positive, got %d", xp)
	}
	result := &AwardResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := ensureProgressTx(tx, externalUserID); err != nil {
			return err
		}
		newTotal, err := s.creditXPTx(tx, externalUserID, xp, nil)
		if err != nil {
			return err
		}
		result.Success = true
		result.XPEarned = xp
		result.TotalXP = newTotal
		result.Level = ResolveLevel(newTotal).Level
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🛠️ Admin XP grant: %s → +%d (reason: %s)", externalUserID, xp, reason)
	s.afterAward(externalUserID, "admin_grant", "", result)
	return result, nil
}

// creditXPTx increments the cumulative score (and any extra counters) in tx
// and returns the post-increment total read back from the same statement, so
// concurrent awards never report a stale score. Crossing a level boundary
// stamps last_level_up_at.
func (s *LedgerService) creditXPTx(tx *gorm.DB, externalUserID string, earned int64, extra map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{
		"total_xp": gorm.Expr("total_xp + ?", earned),
	}
	for col, expr := range extra {
		updates[col] = expr
	}

	var updated models.UserProgress
	res := tx.Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "total_xp"}}}).
		Where("external_user_id = ?", externalUserID).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}

	if ResolveLevel(updated.TotalXP).Level > ResolveLevel(updated.TotalXP-earned).Level {
		now := time.Now()
		if err := tx.Model(&models.UserProgress{}).
			Where("external_user_id = ?", externalUserID).
			Update("last_level_up_at", &now).Error; err != nil {
			return 0, err
		}
	}
	return updated.TotalXP, nil
}

// afterAward runs the post-commit side effects: subscriber notification and
// milestone checks. Both are fire-and-forget.
func (s *LedgerService) afterAward(externalUserID, kind, missionID string, result *AwardResult) {
	if s.Notifier != nil {
		s.Notifier.Publish(AwardEvent{
			ExternalUserID: externalUserID,
			Kind:           kind,
			MissionID:      missionID,
			XPEarned:       result.XPEarned,
			TotalXP:        result.TotalXP,
			Level:          result.Level,
			OccurredAt:     time.Now().UTC(),
		})
	}
	if s.Milestones != nil {
		_ = s.Milestones.AutoAward(externalUserID)
	}
}
