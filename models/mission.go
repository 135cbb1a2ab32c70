package models

// MissionCategory classifies catalog missions by the product surface they belong to.
type MissionCategory string

const (
	MissionCategoryJournal   MissionCategory = "journal"
	MissionCategoryScan      MissionCategory = "scan"
	MissionCategoryGuided    MissionCategory = "guided"
	MissionCategoryCommunity MissionCategory = "community"
	MissionCategoryCheckIn   MissionCategory = "checkin"
)

// MissionDef: static config supplied by the content catalog. The engine treats
// this as read-only configuration keyed by mission ID.
type MissionDef struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category MissionCategory `json:"category"`
	BaseXP   int64           `json:"base_xp"`
	Required bool            `json:"required"` // part of the perfect-day required set
}

// PerfectDayMissionID is the synthetic mission keying the once-per-day bonus,
// so the same (user, mission, date) unique constraint guards it.
const PerfectDayMissionID = "perfect_day"

const (
	PerfectDayBonusXP = 15 // flat, no multiplier
	VictoryBonusXP    = 10 // flat, no multiplier, no daily limit
)

// MissionCatalog lists the daily missions (normally loaded from the content
// service; kept in code like the badge triggers were).
var MissionCatalog = []MissionDef{
	{
		ID:       "daily_journal",
		Name:     "Write a journal entry",
		Category: MissionCategoryJournal,
		BaseXP:   25,
		Required: true,
	},
	{
		ID:       "situation_scan",
		Name:     "Scan a situation",
		Category: MissionCategoryScan,
		BaseXP:   20,
		Required: true,
	},
	{
		ID:       "guided_breathing",
		Name:     "Complete a breathing exercise",
		Category: MissionCategoryGuided,
		BaseXP:   15,
		Required: true,
	},
	{
		ID:       "gratitude_note",
		Name:     "Leave a gratitude note",
		Category: MissionCategoryJournal,
		BaseXP:   10,
		Required: false,
	},
	{
		ID:       "community_visit",
		Name:     "Visit the community feed",
		Category: MissionCategoryCommunity,
		BaseXP:   5,
		Required: false,
	},
}

// MissionByID looks up a catalog mission.
func MissionByID(id string) (MissionDef, bool) {
	for _, m := range MissionCatalog {
		if m.ID == id {
			return m, true
		}
	}
	return MissionDef{}, false
}

// DailyRequiredSet returns the missions that must all be completed on a local
// date before the perfect-day bonus unlocks.
func DailyRequiredSet() []MissionDef {
	var required []MissionDef
	for _, m := range MissionCatalog {
		if m.Required {
			required = append(required, m)
		}
	}
	return required
}
