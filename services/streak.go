package services

import (
	"log"
	"time"

	"wellness-engine/models"
	"wellness-engine/utils"

	"gorm.io/gorm"
)

// StreakResult reports the outcome of a daily check-in. Accepted=false covers
// both the idempotent same-day repeat and a rejected out-of-order date; it is
// never an error.
type StreakResult struct {
	Accepted      bool       `json:"accepted"`
	OutOfOrder    bool       `json:"out_of_order,omitempty"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastCheckIn   *time.Time `json:"last_check_in_date,omitempty"`
}

type StreakService struct {
	DB *gorm.DB
}

func NewStreakService(db *gorm.DB) *StreakService {
	return &StreakService{DB: db}
}

// applyCheckIn runs the streak transition for today against prog, mutating it
// in place. Transitions:
//
//	no prior check-in      → streak = 1
//	same day               → no-op (idempotent repeat)
//	checked in yesterday   → streak + 1
//	missed a day or more   → streak resets to 1
//	today before last date → rejected (clock skew / replay)
//
// Longest streak is raised to match after every accepted transition.
func applyCheckIn(prog *models.UserProgress, today time.Time) (changed, rejected bool) {
	today = utils.CanonicalDate(today)

	if prog.LastCheckInDate == nil {
		prog.CurrentStreak = 1
	} else {
		switch diff := utils.DaysBetween(*prog.LastCheckInDate, today); {
		case diff == 0:
			return false, false
		case diff == 1:
			prog.CurrentStreak++
		case diff > 1:
			prog.CurrentStreak = 1
		default:
			return false, true
		}
	}

	d := today
	prog.LastCheckInDate = &d
	if prog.CurrentStreak > prog.LongestStreak {
		prog.LongestStreak = prog.CurrentStreak
	}
	return true, false
}

// CheckIn applies one daily check-in and persists streak, longest streak and
// last check-in date as a single atomic update. On persistence failure nothing
// is reported as committed; the caller retries the whole check-in.
func (s *StreakService) CheckIn(externalUserID string, today time.Time) (*StreakResult, error) {
	var result StreakResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prog, err := ensureProgressTx(tx, externalUserID)
		if err != nil {
			return err
		}

		changed, rejected := applyCheckIn(prog, today)
		result = StreakResult{
			Accepted:      changed,
			OutOfOrder:    rejected,
			CurrentStreak: prog.CurrentStreak,
			LongestStreak: prog.LongestStreak,
			LastCheckIn:   prog.LastCheckInDate,
		}
		if !changed {
			if rejected {
				log.Printf("⏪ Out-of-order check-in ignored for %s (last=%v, got=%v)",
					externalUserID, prog.LastCheckInDate, today)
			}
			return nil
		}

		return tx.Model(&models.UserProgress{}).
			Where("external_user_id = ?", externalUserID).
			Updates(map[string]interface{}{
				"current_streak":     prog.CurrentStreak,
				"longest_streak":     prog.LongestStreak,
				"last_check_in_date": prog.LastCheckInDate,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	if result.Accepted {
		log.Printf("🔥 Check-in: %s → streak=%d (longest=%d)",
			externalUserID, result.CurrentStreak, result.LongestStreak)
	}
	return &result, nil
}
