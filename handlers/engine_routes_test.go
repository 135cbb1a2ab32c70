package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"wellness-engine/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

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

// A mission completion whose perfect-day check hits a transient failure still
// reports the mission XP, marks the bonus as retryable and never swallows the
// failure silently.
func TestMissionCompleteSurfacesPerfectDayFailure(t *testing.T) {
	db, mock := newMockDB(t)

	// The mission award itself lands
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "user_progresses"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "external_user_id", "total_xp", "current_streak", "ranking_visible",
		}).AddRow("prog-1", "user-1", int64(0), 0, true))
	mock.ExpectQuery(`INSERT INTO "mission_awards" (.+) ON CONFLICT (.+) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("award-1"))
	mock.ExpectQuery(`UPDATE "user_progresses" SET (.+) RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"total_xp"}).AddRow(int64(25)))
	mock.ExpectCommit()

	// The perfect-day completeness check fails
	mock.ExpectQuery(`SELECT count(.+) FROM "mission_awards"`).
		WillReturnError(errors.New("connection reset"))

	app := fiber.New()
	ledger := services.NewLedgerService(db, nil, nil)
	SetupEngineRoutes(app,
		services.NewStreakService(db),
		ledger,
		services.NewProgressService(db),
		services.NewMilestoneService(db),
	)

	body := strings.NewReader(`{"mission_id":"daily_journal","date":"2026-03-01"}`)
	req := httptest.NewRequest("POST", "/s/missions/complete", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(25), payload["xp_earned"])
	assert.Equal(t, true, payload["perfect_day_retryable"])
	_, claimed := payload["perfect_day"]
	assert.False(t, claimed)

	require.NoError(t, mock.ExpectationsWereMet())
}
