package services

import (
	"errors"

	"wellness-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressService struct {
	DB *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db}
}

// ensureProgressTx loads the user's progress row inside tx, creating it on
// first contact. The OnConflict no-op insert makes concurrent first requests
// safe: whichever writer loses just re-reads the winner's row.
func ensureProgressTx(tx *gorm.DB, externalUserID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if err == nil {
		return &prog, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	prog = models.UserProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		RankingVisible: true,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&prog)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error; err != nil {
			return nil, err
		}
	}
	return &prog, nil
}

// GetProgress returns the user's progress record (created if missing) plus the
// resolved level.
func (s *ProgressService) GetProgress(externalUserID string) (*models.UserProgress, LevelInfo, error) {
	var prog *models.UserProgress
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		p, err := ensureProgressTx(tx, externalUserID)
		if err != nil {
			return err
		}
		prog = p
		return nil
	})
	if err != nil {
		return nil, LevelInfo{}, err
	}
	return prog, ResolveLevel(prog.TotalXP), nil
}

// SetRankingVisibility toggles the user's leaderboard opt-out. Hidden users
// disappear from public rankings but keep their own rank lookup.
func (s *ProgressService) SetRankingVisibility(externalUserID string, visible bool) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := ensureProgressTx(tx, externalUserID); err != nil {
			return err
		}
		return tx.Model(&models.UserProgress{}).
			Where("external_user_id = ?", externalUserID).
			Update("ranking_visible", visible).Error
	})
}

// Milestones returns the milestones the user has earned.
func (s *ProgressService) Milestones(externalUserID string) ([]models.UserMilestone, error) {
	var milestones []models.UserMilestone
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("awarded_at ASC").
		Find(&milestones).Error
	return milestones, err
}
