package services

import (
	"errors"
	"fmt"
	"log"

	"wellness-engine/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCircleNotFound = errors.New("circle not found")

type CircleService struct {
	DB *gorm.DB
}

func NewCircleService(db *gorm.DB) *CircleService {
	return &CircleService{DB: db}
}

// CreateCircle creates a circle with a URL-safe slug derived from its name and
// enrolls the creator as the first member. Slug collisions get a short uuid
// suffix.
func (s *CircleService) CreateCircle(ownerID, name string) (*models.Circle, error) {
	if name == "" {
		return nil, fmt.Errorf("circle name is required")
	}

	circleSlug := slug.Make(name)
	var existing int64
	if err := s.DB.Model(&models.Circle{}).Where("slug = ?", circleSlug).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		circleSlug = fmt.Sprintf("%s-%s", circleSlug, uuid.NewString()[:8])
	}

	circle := &models.Circle{
		ID:      uuid.NewString(),
		Name:    name,
		Slug:    circleSlug,
		OwnerID: ownerID,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(circle).Error; err != nil {
			return err
		}
		member := models.CircleMember{
			ID:             uuid.NewString(),
			CircleID:       circle.ID,
			ExternalUserID: ownerID,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("⭕ Circle created: %s (%s) by %s", circle.Name, circle.Slug, ownerID)
	return circle, nil
}

// JoinCircle adds the user to the circle identified by slug. Joining twice is
// a no-op.
func (s *CircleService) JoinCircle(externalUserID, circleSlug string) (*models.Circle, error) {
	var circle models.Circle
	if err := s.DB.Where("slug = ?", circleSlug).First(&circle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCircleNotFound
		}
		return nil, err
	}

	member := models.CircleMember{
		ID:             uuid.NewString(),
		CircleID:       circle.ID,
		ExternalUserID: externalUserID,
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "circle_id"}, {Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&member)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("➕ %s joined circle %s", externalUserID, circle.Slug)
	}
	return &circle, nil
}

// ListCircles returns the circles the user belongs to.
func (s *CircleService) ListCircles(externalUserID string) ([]models.Circle, error) {
	var circles []models.Circle
	err := s.DB.
		Joins("JOIN circle_members ON circle_members.circle_id = circles.id").
		Where("circle_members.external_user_id = ?", externalUserID).
		Order("circles.created_at ASC").
		Find(&circles).Error
	return circles, err
}
