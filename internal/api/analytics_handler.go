package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pulseapp/pulse/internal/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler exposes the read-side aggregates.
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	badgeService     service.BadgeService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService service.AnalyticsService, badgeService service.BadgeService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		badgeService:     badgeService,
	}
}

// Overview returns the headline training summary.
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	overview, err := h.analyticsService.GetOverview(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute overview")
		return
	}
	c.JSON(http.StatusOK, overview)
}

// WeeklyVolume returns the last 8 Monday-anchored weeks.
func (h *AnalyticsHandler) WeeklyVolume(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	points, err := h.analyticsService.GetWeeklyVolume(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute weekly volume")
		return
	}
	c.JSON(http.StatusOK, points)
}

// PersonalRecords returns best efforts for the most-trained exercises.
func (h *AnalyticsHandler) PersonalRecords(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	records, err := h.analyticsService.GetPersonalRecords(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute personal records")
		return
	}
	c.JSON(http.StatusOK, records)
}

// History returns recent finished workouts with their aggregates.
// Query param: limit (default 10).
func (h *AnalyticsHandler) History(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			abortWithError(c, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.analyticsService.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load workout history")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Calendar buckets a month's workouts by day in the requested timezone.
// Query params: year, month (1-12), tz (IANA name, optional).
func (h *AnalyticsHandler) Calendar(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	now := time.Now()
	year := now.Year()
	month := now.Month()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid year")
			return
		}
		year = parsed
	}
	if raw := c.Query("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			abortWithError(c, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}
		month = time.Month(parsed)
	}

	days, err := h.analyticsService.GetCalendar(c.Request.Context(), userID, year, month, c.Query("tz"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			abortWithError(c, http.StatusBadRequest, "Invalid timezone or date")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to build calendar")
		}
		return
	}
	c.JSON(http.StatusOK, days)
}

// Streak returns the maintained streak record.
func (h *AnalyticsHandler) Streak(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	streak, err := h.badgeService.GetStreak(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load streak")
		return
	}
	c.JSON(http.StatusOK, streak)
}
