// handlers/ranking_routes.go
package handlers

import (
	"strconv"

	"wellness-engine/middleware"
	"wellness-engine/models"
	"wellness-engine/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRankingRoutes wires the leaderboard surface. Ranking reads are pure and
// cancellable; they never mutate state.
func SetupRankingRoutes(app *fiber.App, rankingService *services.RankingService) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/rankings", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		query := services.RankingQuery{
			Period:      models.RankingPeriod(c.Query("period", string(models.PeriodWeekly))),
			Scope:       models.RankingScope(c.Query("scope", string(models.ScopeGlobal))),
			Metric:      models.RankingMetric(c.Query("metric", string(models.MetricXP))),
			RequesterID: userID,
		}
		if raw := c.Query("level"); raw != "" {
			level, err := strconv.Atoi(raw)
			if err != nil || level < 1 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "level must be a positive integer",
				})
			}
			query.LevelFilter = level
		}
		if limit, err := strconv.Atoi(c.Query("limit", "50")); err == nil && limit > 0 {
			query.Limit = limit
		}

		if !query.Period.Valid() || !query.Scope.Valid() || !query.Metric.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid period, scope or metric",
			})
		}

		ranking, err := rankingService.BuildRanking(c.Context(), query)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build ranking",
				"cause": err.Error(),
			})
		}

		// The requester always finds their own entry, even when hidden or
		// truncated out of the public list.
		return c.JSON(fiber.Map{
			"period":             ranking.Period,
			"scope":              ranking.Scope,
			"metric":             ranking.Metric,
			"podium":             ranking.Podium,
			"entries":            ranking.Entries,
			"total_participants": ranking.TotalParticipants,
			"self":               ranking.FindSelf(userID),
		})
	})
}
