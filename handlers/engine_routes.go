// handlers/engine_routes.go
package handlers

import (
	"log"

	"wellness-engine/middleware"
	"wellness-engine/models"
	"wellness-engine/services"
	"wellness-engine/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupEngineRoutes wires the check-in, mission, victory and progress surface.
// The gateway forwards paths like /api/v1/wellness/s/checkin -> /s/checkin.
func SetupEngineRoutes(
	app *fiber.App,
	streakService *services.StreakService,
	ledgerService *services.LedgerService,
	progressService *services.ProgressService,
	milestoneService *services.MilestoneService,
) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/checkin", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Date string `json:"date"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON",
					"cause": err.Error(),
				})
			}
		}
		today, err := utils.ParseDateParam(req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid date",
				"cause": err.Error(),
			})
		}

		result, err := streakService.CheckIn(userID, today)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "check-in failed, please retry",
				"cause": err.Error(),
			})
		}
		if result.Accepted {
			_ = milestoneService.AutoAward(userID) // fire-and-forget
		}
		return c.JSON(result)
	})

	securedGroup.Post("/missions/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			MissionID string                    `json:"mission_id"`
			Date      string                    `json:"date"`
			Metadata  models.CompletionMetadata `json:"metadata"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		def, ok := models.MissionByID(req.MissionID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown mission",
			})
		}
		localDate, err := utils.ParseDateParam(req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid date",
				"cause": err.Error(),
			})
		}

		result, err := ledgerService.AwardMission(userID, def.ID, def.BaseXP, localDate, req.Metadata)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "mission award failed, please retry",
				"cause": err.Error(),
			})
		}

		response := fiber.Map{
			"success":   result.Success,
			"xp_earned": result.XPEarned,
			"total_xp":  result.TotalXP,
			"level":     result.Level,
		}
		// The bonus check runs even for duplicate completions, so a retry of
		// the mission can still claim a bonus lost to an earlier failure.
		perfect, perfectErr := ledgerService.AwardPerfectDay(userID, localDate)
		switch {
		case perfectErr != nil:
			log.Printf("⚠️ Perfect-day check failed for %s on %s: %v",
				userID, localDate.Format(utils.DateLayout), perfectErr)
			response["perfect_day_retryable"] = true
		case perfect.Success:
			response["perfect_day"] = perfect
		}
		return c.JSON(response)
	})

	securedGroup.Post("/victories", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Text   string `json:"text"`
			Public bool   `json:"public"`
			Date   string `json:"date"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Text == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "victory text is required",
			})
		}
		localDate, err := utils.ParseDateParam(req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid date",
				"cause": err.Error(),
			})
		}

		victory, result, err := ledgerService.RecordVictory(userID, localDate, req.Text, req.Public)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "victory recording failed, please retry",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"victory":   victory,
			"xp_earned": result.XPEarned,
			"total_xp":  result.TotalXP,
			"level":     result.Level,
		})
	})

	securedGroup.Get("/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		prog, level, err := progressService.GetProgress(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}
		milestones, err := progressService.Milestones(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load milestones",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"id":                 prog.ID,
			"total_xp":           prog.TotalXP,
			"power_tokens":       prog.PowerTokens,
			"level":              level.Level,
			"xp_into_level":      level.XPIntoLevel,
			"xp_for_next_level":  level.XPForNextLevel,
			"progress_percent":   level.ProgressPercent,
			"current_streak":     prog.CurrentStreak,
			"longest_streak":     prog.LongestStreak,
			"last_check_in_date": prog.LastCheckInDate,
			"total_missions":     prog.TotalMissions,
			"total_victories":    prog.TotalVictories,
			"total_perfect_days": prog.TotalPerfectDays,
			"ranking_visible":    prog.RankingVisible,
			"last_level_up_at":   prog.LastLevelUpAt,
			"milestones":         milestones,
		})
	})

	securedGroup.Get("/missions", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"missions": models.MissionCatalog})
	})

	securedGroup.Put("/settings/visibility", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Visible *bool `json:"visible"`
		}
		if err := c.BodyParser(&req); err != nil || req.Visible == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "body must carry a boolean 'visible' field",
			})
		}
		if err := progressService.SetRankingVisibility(userID, *req.Visible); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update visibility",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ranking_visible": *req.Visible})
	})

	securedGroup.Get("/awards/stream", ledgerService.StreamAwardsSSE)

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" || req.XP <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_id and a positive xp are required",
			})
		}

		result, err := ledgerService.GrantXP(req.UserID, req.XP, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP grant failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message":  "XP granted successfully",
			"user_id":  req.UserID,
			"xp":       req.XP,
			"total_xp": result.TotalXP,
			"level":    result.Level,
		})
	})
}
