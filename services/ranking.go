package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"wellness-engine/models"

	"gorm.io/gorm"
)

type RankingService struct {
	DB    *gorm.DB
	Cache *RankingCache
}

func NewRankingService(db *gorm.DB, cache *RankingCache) *RankingService {
	return &RankingService{DB: db, Cache: cache}
}

// RankingQuery names the three independent filter dimensions plus the
// optional level band. RequesterID selects the population for the circle and
// country scopes and is always resolvable via Ranking.FindSelf afterwards.
type RankingQuery struct {
	Period      models.RankingPeriod
	Scope       models.RankingScope
	Metric      models.RankingMetric
	LevelFilter int // 0 = no filter
	RequesterID string
	Limit       int // public list truncation; 0 = no truncation
}

func (q RankingQuery) cacheKey() string {
	scopeKey := "-"
	if q.Scope != models.ScopeGlobal {
		// circle/country populations depend on who is asking
		scopeKey = q.RequesterID
	}
	return fmt.Sprintf("ranking:%s:%s:%s:%d:%s", q.Period, q.Scope, q.Metric, q.LevelFilter, scopeKey)
}

// BuildRanking computes the ordered participant list for (period, scope,
// metric), with rank deltas against the immediately preceding window. Pure
// read: it runs concurrently with award writes and tolerates eventually
// consistent snapshots. An unresolvable population yields an empty ranking,
// never an error.
func (s *RankingService) BuildRanking(ctx context.Context, q RankingQuery) (*models.Ranking, error) {
	if !q.Period.Valid() || !q.Scope.Valid() || !q.Metric.Valid() {
		return nil, fmt.Errorf("invalid ranking query %s/%s/%s", q.Period, q.Scope, q.Metric)
	}

	if s.Cache.Enabled() {
		if cached, ok := s.Cache.Get(ctx, q.cacheKey()); ok {
			return s.assemble(q, cached), nil
		}
	}

	entries, err := s.refresh(ctx, q, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if s.Cache.Enabled() {
		s.Cache.Set(ctx, q.cacheKey(), entries)
	}
	return s.assemble(q, entries), nil
}

// refresh recomputes the full candidate list (hidden users included) for the
// current window and stamps rank deltas from the previous comparable window.
func (s *RankingService) refresh(ctx context.Context, q RankingQuery, now time.Time) ([]models.RankEntry, error) {
	start, end := windowFor(q.Period, now)
	entries, err := s.computeWindow(ctx, q, start, end)
	if err != nil {
		return nil, err
	}

	if q.Period != models.PeriodHistorical {
		prevStart, prevEnd := previousWindowFor(q.Period, now)
		previous, err := s.computeWindow(ctx, q, prevStart, prevEnd)
		if err != nil {
			// Missing history means "no change", not a failed request
			log.Printf("⚠️ Previous-window ranking unavailable (%s/%s/%s): %v", q.Period, q.Scope, q.Metric, err)
		} else {
			applyDeltas(entries, previous)
		}
	}
	return entries, nil
}

// computeWindow selects the population, aggregates each candidate's metric
// value over [start, end), and returns the ranked list.
func (s *RankingService) computeWindow(ctx context.Context, q RankingQuery, start, end time.Time) ([]models.RankEntry, error) {
	population, err := s.loadPopulation(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(population) == 0 {
		return []models.RankEntry{}, nil
	}

	ids := make([]string, 0, len(population))
	for _, p := range population {
		ids = append(ids, p.ExternalUserID)
	}

	values, err := s.windowValues(ctx, q.Metric, population, ids, start, end)
	if err != nil {
		return nil, err
	}

	profiles, err := s.loadProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RankEntry, 0, len(population))
	for _, p := range population {
		level := ResolveLevel(p.TotalXP).Level
		if q.LevelFilter > 0 && level != q.LevelFilter {
			continue
		}
		entry := models.RankEntry{
			ExternalUserID: p.ExternalUserID,
			Alias:          p.ExternalUserID,
			Level:          level,
			CurrentStreak:  p.CurrentStreak,
			Value:          values[p.ExternalUserID],
			Visible:        p.RankingVisible,
		}
		if mirror, ok := profiles[p.ExternalUserID]; ok {
			entry.Alias = mirror.Alias
			entry.AvatarURL = mirror.AvatarURL
		}
		entries = append(entries, entry)
	}

	rankEntries(entries)
	return entries, nil
}

// loadPopulation resolves the candidate population for the scope. An
// unresolvable population (no circle membership, unknown country) returns an
// empty slice.
func (s *RankingService) loadPopulation(ctx context.Context, q RankingQuery) ([]models.UserProgress, error) {
	db := s.DB.WithContext(ctx)
	var population []models.UserProgress

	switch q.Scope {
	case models.ScopeGlobal:
		if err := db.Find(&population).Error; err != nil {
			return nil, err
		}

	case models.ScopeCircle:
		var ids []string
		memberOf := db.Model(&models.CircleMember{}).
			Select("circle_id").
			Where("external_user_id = ?", q.RequesterID)
		if err := db.Model(&models.CircleMember{}).
			Distinct("external_user_id").
			Where("circle_id IN (?)", memberOf).
			Pluck("external_user_id", &ids).Error; err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		if err := db.Where("external_user_id IN ?", ids).Find(&population).Error; err != nil {
			return nil, err
		}

	case models.ScopeCountry:
		var me models.ProfileMirror
		err := db.Where("external_user_id = ?", q.RequesterID).First(&me).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && me.CountryCode == nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var ids []string
		if err := db.Model(&models.ProfileMirror{}).
			Where("country_code = ?", *me.CountryCode).
			Pluck("external_user_id", &ids).Error; err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		if err := db.Where("external_user_id IN ?", ids).Find(&population).Error; err != nil {
			return nil, err
		}
	}

	return population, nil
}

// windowValues aggregates the metric per candidate. Historical reads the
// denormalized counters; weekly/monthly sum the award and victory history in
// [start, end). The streak metric is always the current streak length.
func (s *RankingService) windowValues(ctx context.Context, metric models.RankingMetric, population []models.UserProgress, ids []string, start, end time.Time) (map[string]int64, error) {
	values := make(map[string]int64, len(population))
	db := s.DB.WithContext(ctx)

	historical := start.IsZero() && end.IsZero()
	if metric == models.MetricStreak || historical {
		for _, p := range population {
			switch metric {
			case models.MetricXP:
				values[p.ExternalUserID] = p.TotalXP
			case models.MetricStreak:
				values[p.ExternalUserID] = int64(p.CurrentStreak)
			case models.MetricVictories:
				values[p.ExternalUserID] = p.TotalVictories
			}
		}
		return values, nil
	}

	type userValue struct {
		ExternalUserID string
		Value          int64
	}
	var rows []userValue

	switch metric {
	case models.MetricXP:
		if err := db.Model(&models.MissionAward{}).
			Select("external_user_id, COALESCE(SUM(xp_granted), 0) AS value").
			Where("external_user_id IN ?", ids).
			Where("award_date >= ? AND award_date < ?", start, end).
			Group("external_user_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			values[r.ExternalUserID] += r.Value
		}
		var victoryRows []userValue
		if err := db.Model(&models.Victory{}).
			Select("external_user_id, COALESCE(SUM(xp_granted), 0) AS value").
			Where("external_user_id IN ?", ids).
			Where("local_date >= ? AND local_date < ?", start, end).
			Group("external_user_id").
			Scan(&victoryRows).Error; err != nil {
			return nil, err
		}
		for _, r := range victoryRows {
			values[r.ExternalUserID] += r.Value
		}

	case models.MetricVictories:
		if err := db.Model(&models.Victory{}).
			Select("external_user_id, COUNT(*) AS value").
			Where("external_user_id IN ?", ids).
			Where("local_date >= ? AND local_date < ?", start, end).
			Group("external_user_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			values[r.ExternalUserID] = r.Value
		}
	}

	return values, nil
}

func (s *RankingService) loadProfiles(ctx context.Context, ids []string) (map[string]models.ProfileMirror, error) {
	var mirrors []models.ProfileMirror
	if err := s.DB.WithContext(ctx).Where("external_user_id IN ?", ids).Find(&mirrors).Error; err != nil {
		return nil, err
	}
	profiles := make(map[string]models.ProfileMirror, len(mirrors))
	for _, m := range mirrors {
		profiles[m.ExternalUserID] = m
	}
	return profiles, nil
}

// rankEntries sorts descending by value and assigns 1-based ranks.
// Tie-break: ascending user ID — stable and deterministic across runs.
func rankEntries(entries []models.RankEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].ExternalUserID < entries[j].ExternalUserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// applyDeltas stamps rank_delta = previousRank - currentRank; candidates
// absent from the previous window keep delta 0.
func applyDeltas(current, previous []models.RankEntry) {
	prevRanks := make(map[string]int, len(previous))
	for _, e := range previous {
		prevRanks[e.ExternalUserID] = e.Rank
	}
	for i := range current {
		if prev, ok := prevRanks[current[i].ExternalUserID]; ok {
			current[i].RankDelta = prev - current[i].Rank
		}
	}
}

// assemble projects the full candidate list into the public shape: hidden
// users are filtered from Entries (their population ranks stand, so the
// public sequence may skip numbers) but stay reachable through FindSelf.
func (s *RankingService) assemble(q RankingQuery, all []models.RankEntry) *models.Ranking {
	visible := make([]models.RankEntry, 0, len(all))
	for _, e := range all {
		if e.Visible {
			visible = append(visible, e)
		}
	}

	podium := visible
	if len(podium) > 3 {
		podium = podium[:3]
	}
	entries := visible
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	return &models.Ranking{
		Period:            q.Period,
		Scope:             q.Scope,
		Metric:            q.Metric,
		Podium:            podium,
		Entries:           entries,
		TotalParticipants: len(all),
		All:               all,
	}
}

// windowFor returns the [start, end) aggregation window: calendar-aligned ISO
// weeks (Monday start) and calendar months, both in UTC. Historical returns
// the zero window, meaning all time.
func windowFor(period models.RankingPeriod, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch period {
	case models.PeriodWeekly:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started the previous Monday
		}
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7)
	case models.PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}
	}
}

// previousWindowFor returns the immediately preceding window of the same
// length, used for rank-delta computation.
func previousWindowFor(period models.RankingPeriod, now time.Time) (time.Time, time.Time) {
	start, _ := windowFor(period, now)
	switch period {
	case models.PeriodWeekly:
		return start.AddDate(0, 0, -7), start
	case models.PeriodMonthly:
		return start.AddDate(0, -1, 0), start
	default:
		return time.Time{}, time.Time{}
	}
}
