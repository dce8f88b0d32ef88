package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BadgeHandler exposes badge definitions and earned records.
type BadgeHandler struct {
	badgeService service.BadgeService
}

// NewBadgeHandler creates a new BadgeHandler.
func NewBadgeHandler(badgeService service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

// --- Request/Response Structs ---

type AwardBadgeRequest struct {
	BadgeCode string  `json:"badge_code" binding:"required"`
	UserID    *string `json:"user_id"` // Defaults to the caller
}

// EarnedBadgeResponse pairs a badge definition with its earned status.
type EarnedBadgeResponse struct {
	Badge    domain.Badge `json:"badge"`
	Earned   bool         `json:"earned"`
	EarnedAt *time.Time   `json:"earnedAt,omitempty"`
}

// --- Handler Methods ---

// List returns every badge definition.
func (h *BadgeHandler) List(c *gin.Context) {
	badges, err := h.badgeService.ListBadges(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load badges")
		return
	}
	if badges == nil {
		badges = []domain.Badge{}
	}
	c.JSON(http.StatusOK, badges)
}

// Get returns one badge definition.
func (h *BadgeHandler) Get(c *gin.Context) {
	badgeID, ok := pathObjectID(c, "badgeId")
	if !ok {
		return
	}

	badge, err := h.badgeService.GetBadge(c.Request.Context(), badgeID)
	if err != nil {
		if errors.Is(err, service.ErrBadgeNotFound) {
			abortWithError(c, http.StatusNotFound, "Badge not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load badge")
		}
		return
	}
	c.JSON(http.StatusOK, badge)
}

// ListForUser returns all badges with the given user's earned status.
func (h *BadgeHandler) ListForUser(c *gin.Context) {
	userID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}

	badges, err := h.badgeService.ListBadges(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load badges")
		return
	}
	earned, err := h.badgeService.ListEarned(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load earned badges")
		return
	}

	earnedAt := make(map[primitive.ObjectID]time.Time, len(earned))
	for _, ub := range earned {
		earnedAt[ub.BadgeID] = ub.AwardedAt
	}

	response := make([]EarnedBadgeResponse, 0, len(badges))
	for _, badge := range badges {
		entry := EarnedBadgeResponse{Badge: badge}
		if at, ok := earnedAt[badge.ID]; ok {
			entry.Earned = true
			entry.EarnedAt = &at
		}
		response = append(response, entry)
	}
	c.JSON(http.StatusOK, response)
}

// Award grants a badge by code. Repeating the call reports the badge as
// already earned instead of failing.
func (h *BadgeHandler) Award(c *gin.Context) {
	callerID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req AwardBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID := callerID
	if req.UserID != nil && *req.UserID != "" {
		parsed, err := primitive.ObjectIDFromHex(*req.UserID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid user_id format")
			return
		}
		userID = parsed
	}

	badge, err := h.badgeService.GetBadgeByCode(c.Request.Context(), req.BadgeCode)
	if err != nil {
		if errors.Is(err, service.ErrBadgeNotFound) {
			abortWithError(c, http.StatusNotFound, "Badge not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load badge")
		}
		return
	}

	result, err := h.badgeService.Award(c.Request.Context(), userID, badge.ID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to award badge")
		return
	}

	message := "Badge awarded"
	if result.AlreadyEarned {
		message = "Badge already earned"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"userBadge": result.UserBadge,
	})
}
