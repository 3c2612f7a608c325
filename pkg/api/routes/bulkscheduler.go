package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/scheduler"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	statusCacheKey        = "tripscheduler:status"
	depotAnalysisCacheKey = "tripscheduler:depot-analysis"

	ReportCacheExpiration = 30 * time.Second
)

// BulkScheduler serves the bulk scheduling endpoints. Cache is optional.
type BulkScheduler struct {
	Engine *scheduler.Engine
	Cache  *cache.Cache[string]
}

func BulkSchedulerRouter(router fiber.Router, handler *BulkScheduler) {
	router.Get("/status", handler.status)
	router.Post("/generate", handler.generate)
	router.Get("/depot-analysis", handler.depotAnalysis)
	router.Post("/cleanup", handler.cleanup)
	router.Get("/trips", handler.trips)
}

func (h *BulkScheduler) status(c *fiber.Ctx) error {
	return h.cachedReport(c, statusCacheKey, "Failed to get scheduler status", func(ctx context.Context) (interface{}, error) {
		return h.Engine.Reporter().Status(ctx, scheduler.StatusTargets{
			TripsPerDepotPerDay: h.Engine.Config.TargetTripsPerDepotPerDay,
			DaysToSchedule:      h.Engine.Config.TargetDaysToSchedule,
		})
	})
}

func (h *BulkScheduler) depotAnalysis(c *fiber.Ctx) error {
	return h.cachedReport(c, depotAnalysisCacheKey, "Failed to analyze depot readiness", func(ctx context.Context) (interface{}, error) {
		return h.Engine.Reporter().DepotAnalysis(ctx)
	})
}

func (h *BulkScheduler) generate(c *fiber.Ctx) error {
	var request scheduler.GenerateRequest
	if err := c.BodyParser(&request); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	summary, err := h.Engine.Generate(c.UserContext(), request)
	if err != nil {
		return sendEngineError(c, "Failed to generate bulk trips", err)
	}

	if !summary.DryRun {
		h.invalidateReports(c.UserContext())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Successfully generated %d trips across %d depots", summary.TotalGenerated, summary.DepotsProcessed),
		"data":    summary,
	})
}

func (h *BulkScheduler) cleanup(c *fiber.Ctx) error {
	var request scheduler.CleanupRequest
	if err := c.BodyParser(&request); err != nil {
		return sendError(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	deleted, err := h.Engine.Cleanup(c.UserContext(), request)
	if err != nil {
		return sendEngineError(c, "Failed to cleanup trips", err)
	}

	h.invalidateReports(c.UserContext())

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      fmt.Sprintf("Deleted %d trips", deleted),
		"deletedCount": deleted,
	})
}

func (h *BulkScheduler) trips(c *fiber.Ctx) error {
	dateQuery := c.Query("date")
	if dateQuery == "" {
		return sendError(c, fiber.StatusBadRequest, "A date must be provided", errors.New("missing date query parameter"))
	}

	date, err := scheduler.ParseDate(dateQuery, h.Engine.Config.Location)
	if err != nil {
		return sendEngineError(c, "Failed to list trips", err)
	}

	var depotID *primitive.ObjectID
	if depotQuery := c.Query("depotId"); depotQuery != "" {
		id, err := primitive.ObjectIDFromHex(depotQuery)
		if err != nil {
			return sendError(c, fiber.StatusBadRequest, "Depot ID must be a valid ObjectID", err)
		}
		depotID = &id
	}

	trips, err := h.Engine.TripsForDate(c.UserContext(), date, depotID)
	if err != nil {
		return sendEngineError(c, "Failed to list trips", err)
	}

	groups := []string{"basic"}
	if c.QueryBool("detailed") {
		groups = append(groups, "detailed")
	}

	tripsReduced, err := sheriff.Marshal(&sheriff.Options{Groups: groups}, trips)
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Sheriff could not reduce Trips", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    tripsReduced,
	})
}

func (h *BulkScheduler) cachedReport(c *fiber.Ctx, key string, failure string, build func(ctx context.Context) (interface{}, error)) error {
	ctx := c.UserContext()

	if h.Cache != nil {
		if cached, err := h.Cache.Get(ctx, key); err == nil {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			c.Set("X-Cache", "HIT")
			return c.SendString(cached)
		}
	}

	report, err := build(ctx)
	if err != nil {
		return sendEngineError(c, failure, err)
	}

	body, err := json.Marshal(fiber.Map{
		"success": true,
		"data":    report,
	})
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, failure, err)
	}

	if h.Cache != nil {
		if err := h.Cache.Set(ctx, key, string(body), store.WithExpiration(ReportCacheExpiration)); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache report")
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set("X-Cache", "MISS")
	return c.Send(body)
}

func (h *BulkScheduler) invalidateReports(ctx context.Context) {
	if h.Cache == nil {
		return
	}

	for _, key := range []string{statusCacheKey, depotAnalysisCacheKey} {
		if err := h.Cache.Delete(ctx, key); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("Failed to invalidate cached report")
		}
	}
}

// errorStatus maps engine errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, scheduler.ErrInvalidConfiguration), errors.Is(err, scheduler.ErrNoActiveDepots):
		return fiber.StatusBadRequest
	case errors.Is(err, scheduler.ErrRunInProgress):
		return fiber.StatusConflict
	case errors.Is(err, scheduler.ErrResourceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func sendEngineError(c *fiber.Ctx, failure string, err error) error {
	status := errorStatus(err)

	message := failure
	var configErr *scheduler.ConfigError
	switch {
	case errors.As(err, &configErr):
		message = configErr.Message
	case errors.Is(err, scheduler.ErrNoActiveDepots):
		message = "No active depots found for scheduling"
	}

	return sendError(c, status, message, err)
}

func sendError(c *fiber.Ctx, status int, message string, err error) error {
	c.Status(status)
	return c.JSON(fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}
