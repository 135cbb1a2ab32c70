package services

import (
	"context"
	"testing"
	"time"

	"wellness-engine/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func entry(userID string, value int64, visible bool) models.RankEntry {
	return models.RankEntry{ExternalUserID: userID, Alias: userID, Value: value, Visible: visible}
}

func TestRankEntriesSortsDescendingWithStableTieBreak(t *testing.T) {
	entries := []models.RankEntry{
		entry("user-c", 50, true),
		entry("user-a", 120, true),
		entry("user-b", 50, true),
		entry("user-d", 200, true),
	}
	rankEntries(entries)

	require.Len(t, entries, 4)
	assert.Equal(t, "user-d", entries[0].ExternalUserID)
	assert.Equal(t, "user-a", entries[1].ExternalUserID)
	// Equal values tie-break on ascending user ID
	assert.Equal(t, "user-b", entries[2].ExternalUserID)
	assert.Equal(t, "user-c", entries[3].ExternalUserID)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestRankEntriesDeterministic(t *testing.T) {
	build := func() []models.RankEntry {
		return []models.RankEntry{
			entry("u3", 10, true),
			entry("u1", 10, true),
			entry("u2", 30, true),
		}
	}
	first := build()
	second := build()
	rankEntries(first)
	rankEntries(second)
	assert.Equal(t, first, second)
}

func TestApplyDeltas(t *testing.T) {
	current := []models.RankEntry{
		entry("u1", 100, true),
		entry("u2", 80, true),
		entry("u3", 60, true),
	}
	rankEntries(current)

	previous := []models.RankEntry{
		entry("u2", 90, true),
		entry("u1", 70, true),
	}
	rankEntries(previous)

	applyDeltas(current, previous)

	assert.Equal(t, 1, current[0].RankDelta)  // u1: 2 → 1
	assert.Equal(t, -1, current[1].RankDelta) // u2: 1 → 2
	assert.Equal(t, 0, current[2].RankDelta)  // u3: no history → no change
}

func TestAssembleFiltersHiddenButKeepsSelfLookup(t *testing.T) {
	all := []models.RankEntry{
		entry("u1", 100, true),
		entry("u2", 80, false), // opted out of public rankings
		entry("u3", 60, true),
	}
	rankEntries(all)

	svc := &RankingService{}
	ranking := svc.assemble(RankingQuery{
		Period: models.PeriodWeekly,
		Scope:  models.ScopeGlobal,
		Metric: models.MetricXP,
	}, all)

	require.Len(t, ranking.Entries, 2)
	for _, e := range ranking.Entries {
		assert.NotEqual(t, "u2", e.ExternalUserID)
	}
	assert.Equal(t, 3, ranking.TotalParticipants)

	self := ranking.FindSelf("u2")
	require.NotNil(t, self)
	assert.Equal(t, 2, self.Rank)
	assert.Equal(t, int64(80), self.Value)
}

func TestAssemblePodiumAndTruncation(t *testing.T) {
	all := []models.RankEntry{
		entry("u1", 500, true),
		entry("u2", 400, true),
		entry("u3", 300, true),
		entry("u4", 200, true),
		entry("u5", 100, true),
	}
	rankEntries(all)

	svc := &RankingService{}
	ranking := svc.assemble(RankingQuery{Limit: 2}, all)

	require.Len(t, ranking.Podium, 3)
	assert.Equal(t, "u1", ranking.Podium[0].ExternalUserID)
	require.Len(t, ranking.Entries, 2)

	// Truncated out of the list, still findable
	self := ranking.FindSelf("u5")
	require.NotNil(t, self)
	assert.Equal(t, 5, self.Rank)
}

func TestFindSelfUnknownUser(t *testing.T) {
	svc := &RankingService{}
	ranking := svc.assemble(RankingQuery{}, []models.RankEntry{entry("u1", 10, true)})
	assert.Nil(t, ranking.FindSelf("stranger"))
}

func TestWindowForWeeklyIsCalendarAligned(t *testing.T) {
	// Wednesday 2026-08-26 → ISO week Mon 24th .. Mon 31st
	now := time.Date(2026, time.August, 26, 15, 30, 0, 0, time.UTC)
	start, end := windowFor(models.PeriodWeekly, now)
	assert.Equal(t, time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC), end)

	prevStart, prevEnd := previousWindowFor(models.PeriodWeekly, now)
	assert.Equal(t, time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC), prevStart)
	assert.Equal(t, start, prevEnd)
}

func TestWindowForWeeklySundayBelongsToPriorMonday(t *testing.T) {
	now := time.Date(2026, time.August, 30, 8, 0, 0, 0, time.UTC) // Sunday
	start, _ := windowFor(models.PeriodWeekly, now)
	assert.Equal(t, time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC), start)
}

func TestWindowForMonthly(t *testing.T) {
	now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	start, end := windowFor(models.PeriodMonthly, now)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), end)

	prevStart, prevEnd := previousWindowFor(models.PeriodMonthly, now)
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), prevStart)
	assert.Equal(t, start, prevEnd)
}

func TestWindowForHistoricalIsAllTime(t *testing.T) {
	start, end := windowFor(models.PeriodHistorical, time.Now())
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestComputeWindowHistoricalGlobal(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT (.+) FROM "user_progresses"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "external_user_id", "total_xp", "current_streak", "total_victories", "ranking_visible",
		}).
			AddRow("id-1", "user-1", int64(900), 4, int64(2), true).
			AddRow("id-2", "user-2", int64(1500), 9, int64(5), true).
			AddRow("id-3", "user-3", int64(1500), 1, int64(0), false))

	mock.ExpectQuery(`SELECT (.+) FROM "profile_mirrors"`).
		WillReturnRows(sqlmock.NewRows([]string{"external_user_id", "alias"}).
			AddRow("user-1", "Sunny").
			AddRow("user-2", "Willow"))

	svc := NewRankingService(db, nil)
	entries, err := svc.computeWindow(context.Background(), RankingQuery{
		Period: models.PeriodHistorical,
		Scope:  models.ScopeGlobal,
		Metric: models.MetricXP,
	}, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// user-2 and user-3 tie at 1500; user-2 wins the ID tie-break
	assert.Equal(t, "user-2", entries[0].ExternalUserID)
	assert.Equal(t, "Willow", entries[0].Alias)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "user-3", entries[1].ExternalUserID)
	assert.False(t, entries[1].Visible)
	assert.Equal(t, "user-3", entries[1].Alias) // no mirror → falls back to the ID
	assert.Equal(t, "user-1", entries[2].ExternalUserID)
	assert.Equal(t, int64(900), entries[2].Value)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeWindowCircleScope(t *testing.T) {
	db, mock := newMockDB(t)

	// Population = everyone sharing a circle with the requester
	mock.ExpectQuery(`SELECT DISTINCT (.+) FROM "circle_members"`).
		WillReturnRows(sqlmock.NewRows([]string{"external_user_id"}).
			AddRow("user-1").
			AddRow("user-2"))

	mock.ExpectQuery(`SELECT (.+) FROM "user_progresses"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "external_user_id", "total_xp", "current_streak", "ranking_visible",
		}).
			AddRow("id-1", "user-1", int64(300), 2, true).
			AddRow("id-2", "user-2", int64(700), 5, true))

	mock.ExpectQuery(`SELECT (.+) FROM "profile_mirrors"`).
		WillReturnRows(sqlmock.NewRows([]string{"external_user_id", "alias"}).
			AddRow("user-1", "Sunny").
			AddRow("user-2", "Willow"))

	svc := NewRankingService(db, nil)
	entries, err := svc.computeWindow(context.Background(), RankingQuery{
		Period:      models.PeriodHistorical,
		Scope:       models.ScopeCircle,
		Metric:      models.MetricXP,
		RequesterID: "user-1",
	}, time.Time{}, time.Time{})
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "user-2", entries[0].ExternalUserID)
	assert.Equal(t, "Willow", entries[0].Alias)
	assert.Equal(t, int64(700), entries[0].Value)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "user-1", entries[1].ExternalUserID)
	assert.Equal(t, 2, entries[1].Rank)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeWindowCircleScopeNoMembership(t *testing.T) {
	db, mock := newMockDB(t)

	// A requester in no circle gets an empty ranking, not an error, and no
	// further queries run
	mock.ExpectQuery(`SELECT DISTINCT (.+) FROM "circle_members"`).
		WillReturnRows(sqlmock.NewRows([]string{"external_user_id"}))

	svc := NewRankingService(db, nil)
	entries, err := svc.computeWindow(context.Background(), RankingQuery{
		Period:      models.PeriodHistorical,
		Scope:       models.ScopeCircle,
		Metric:      models.MetricXP,
		RequesterID: "loner",
	}, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, mock.ExpectationsWereMet())
}
