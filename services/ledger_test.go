package services

import (
	"testing"

	"wellness-engine/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreakMultiplierBoundaries(t *testing.T) {
	cases := []struct {
		streak int
		want   float64
	}{
		{0, 1.00},
		{2, 1.00},
		{3, 1.10},
		{6, 1.10},
		{7, 1.20},
		{20, 1.20},
		{21, 1.30},
		{100, 1.30},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, streakMultiplier(tc.streak), 1e-9, "streak=%d", tc.streak)
	}
}

func TestAwardAmountFloorsMultipliedXP(t *testing.T) {
	cases := []struct {
		baseXP int64
		streak int
		want   int64
	}{
		{20, 2, 20},
		{20, 3, 22},
		{20, 7, 24},
		{20, 21, 26}, // floor(20 × 1.30)
		{25, 3, 27},  // floor(25 × 1.10) = floor(27.5)
		{25, 0, 25},
		{15, 7, 18},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, awardAmount(tc.baseXP, tc.streak), "baseXP=%d streak=%d", tc.baseXP, tc.streak)
	}
}

// Walks the end-to-end progression scenario through the pure engine parts:
// fresh user checks in, completes a 25 XP mission without multiplier, builds a
// three-day streak, completes the same mission again with the ×1.10 bonus.
func TestProgressionScenario(t *testing.T) {
	prog := &models.UserProgress{}

	// Day 1: check in, complete the mission
	changed, _ := applyCheckIn(prog, day(0))
	require.True(t, changed)
	assert.Equal(t, 1, prog.CurrentStreak)

	earned := awardAmount(25, prog.CurrentStreak)
	assert.Equal(t, int64(25), earned)
	prog.TotalXP += earned
	assert.Equal(t, 1, ResolveLevel(prog.TotalXP).Level) // sqrt(25)/10 → level 1

	// Days 2 and 3
	applyCheckIn(prog, day(1))
	applyCheckIn(prog, day(2))
	assert.Equal(t, 3, prog.CurrentStreak)

	earned = awardAmount(25, prog.CurrentStreak)
	assert.Equal(t, int64(27), earned)
	prog.TotalXP += earned
	assert.Equal(t, int64(52), prog.TotalXP)
	assert.Equal(t, 1, ResolveLevel(prog.TotalXP).Level)
}

func TestDailyRequiredSetDrivesPerfectDay(t *testing.T) {
	required := models.DailyRequiredSet()
	require.NotEmpty(t, required)
	for _, m := range required {
		assert.True(t, m.Required)
		assert.Greater(t, m.BaseXP, int64(0))
	}
}

func progressRow(userID string, totalXP int64, streak int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "external_user_id", "total_xp", "current_streak", "ranking_visible"}).
		AddRow("prog-"+userID, userID, totalXP, streak, true)
}

// Completing the same mission twice on the same local date must leave exactly
// one ledger row and move the score exactly once: the conflict on
// (user, mission, date) resolves to DO NOTHING and the second call never
// touches user_progresses.
func TestAwardMissionIdempotentUnderRepeat(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewLedgerService(db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "user_progresses"`).
		WillReturnRows(progressRow("user-1", 0, 0))
	mock.ExpectQuery(`INSERT INTO "mission_awards" (.+) ON CONFLICT (.+) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("award-1"))
	mock.ExpectQuery(`UPDATE "user_progresses" SET (.+) RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"total_xp"}).AddRow(int64(25)))
	mock.ExpectCommit()

	first, err := svc.AwardMission("user-1", "daily_journal", 25, day(0), models.CompletionMetadata{})
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, int64(25), first.XPEarned)
	assert.Equal(t, int64(25), first.TotalXP)

	// Identical repeat: the insert returns no row, so no score update follows
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "user_progresses"`).
		WillReturnRows(progressRow("user-1", 25, 0))
	mock.ExpectQuery(`INSERT INTO "mission_awards" (.+) ON CONFLICT (.+) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	repeat, err := svc.AwardMission("user-1", "daily_journal", 25, day(0), models.CompletionMetadata{})
	require.NoError(t, err)
	assert.False(t, repeat.Success)
	assert.Equal(t, int64(0), repeat.XPEarned)
	assert.Equal(t, int64(25), repeat.TotalXP)

	require.NoError(t, mock.ExpectationsWereMet())
}

// The reported total comes from the increment's RETURNING clause, not from the
// row read at transaction start, so a concurrent award that lands in between
// is reflected in the response.
func TestAwardMissionReportsPostIncrementTotal(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewLedgerService(db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "user_progresses"`).
		WillReturnRows(progressRow("user-2", 100, 0))
	mock.ExpectQuery(`INSERT INTO "mission_awards" (.+) ON CONFLICT (.+) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("award-2"))
	// Another award moved the score between the read and the increment
	mock.ExpectQuery(`UPDATE "user_progresses" SET (.+) RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"total_xp"}).AddRow(int64(150)))
	mock.ExpectCommit()

	result, err := svc.AwardMission("user-2", "situation_scan", 20, day(1), models.CompletionMetadata{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(150), result.TotalXP)
	assert.Equal(t, ResolveLevel(150).Level, result.Level)

	require.NoError(t, mock.ExpectationsWereMet())
}
