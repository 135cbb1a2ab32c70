package services

import (
	"log"

	"wellness-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MilestoneService struct {
	DB *gorm.DB
}

func NewMilestoneService(db *gorm.DB) *MilestoneService {
	return &MilestoneService{DB: db}
}

// AutoAward checks all milestone thresholds for a user after a progress update
// and records the ones newly met.
func (s *MilestoneService) AutoAward(externalUserID string) error {
	var prog models.UserProgress
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
		return err
	}

	for _, def := range models.MilestoneCatalog {
		if !s.meetsThreshold(&prog, def.Threshold) {
			continue
		}
		milestone := models.UserMilestone{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Code:           def.Code,
		}
		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "code"}},
			DoNothing: true,
		}).Create(&milestone)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("🎖️ Milestone awarded: %s → %s", def.Name, externalUserID)
		}
	}
	return nil
}

func (s *MilestoneService) meetsThreshold(prog *models.UserProgress, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case "total_missions":
			if prog.TotalMissions < required {
				return false
			}
		case "total_victories":
			if prog.TotalVictories < required {
				return false
			}
		case "total_perfect_days":
			if prog.TotalPerfectDays < required {
				return false
			}
		case "current_streak":
			if int64(prog.CurrentStreak) < required {
				return false
			}
		case "longest_streak":
			if int64(prog.LongestStreak) < required {
				return false
			}
		case "level":
			if int64(ResolveLevel(prog.TotalXP).Level) < required {
				return false
			}
		case "power_tokens":
			if prog.PowerTokens < required {
				return false
			}
		}
	}
	return true
}
