package models

// RankingPeriod selects the aggregation window for a ranking.
type RankingPeriod string

const (
	PeriodWeekly     RankingPeriod = "weekly"
	PeriodMonthly    RankingPeriod = "monthly"
	PeriodHistorical RankingPeriod = "historical"
)

func (p RankingPeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodHistorical:
		return true
	}
	return false
}

// RankingScope selects the candidate population.
type RankingScope string

const (
	ScopeGlobal  RankingScope = "global"
	ScopeCircle  RankingScope = "circle"
	ScopeCountry RankingScope = "country"
)

func (s RankingScope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeCircle, ScopeCountry:
		return true
	}
	return false
}

// RankingMetric selects the sortable value.
type RankingMetric string

const (
	MetricXP        RankingMetric = "xp"
	MetricStreak    RankingMetric = "streak"
	MetricVictories RankingMetric = "victories"
)

func (m RankingMetric) Valid() bool {
	switch m {
	case MetricXP, MetricStreak, MetricVictories:
		return true
	}
	return false
}

// RankEntry is one participant's row in a computed ranking.
type RankEntry struct {
	Rank           int     `json:"rank"`
	RankDelta      int     `json:"rank_delta"` // previousRank - currentRank; positive = moved up
	ExternalUserID string  `json:"external_user_id"`
	Alias          string  `json:"alias"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Level          int     `json:"level"`
	CurrentStreak  int     `json:"current_streak"`
	Value          int64   `json:"value"`
	Visible        bool    `json:"visible"`
}

// Ranking is a transient, engine-computed projection — never the source of
// truth for a user's own score. All keeps every candidate (hidden users
// included) so self-lookup works even when the public list excludes them.
type Ranking struct {
	Period            RankingPeriod `json:"period"`
	Scope             RankingScope  `json:"scope"`
	Metric            RankingMetric `json:"metric"`
	Podium            []RankEntry   `json:"podium"`
	Entries           []RankEntry   `json:"entries"`
	TotalParticipants int           `json:"total_participants"`

	All []RankEntry `json:"-"`
}

// FindSelf locates a user's own entry regardless of visibility or list
// truncation. Returns nil when the user is not in the candidate population.
func (r *Ranking) FindSelf(externalUserID string) *RankEntry {
	for i := range r.All {
		if r.All[i].ExternalUserID == externalUserID {
			return &r.All[i]
		}
	}
	return nil
}
