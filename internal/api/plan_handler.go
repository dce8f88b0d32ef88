package api

import (
	"errors"
	"fmt"
	"net/http"

	"pulseapp/pulse/internal/ai"
	"pulseapp/pulse/internal/repository"
	"pulseapp/pulse/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler proxies AI routine requests and manages stored plans.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request Structs ---

type AdaptRoutineRequest struct {
	CurrentRoutine map[string]any `json:"currentRoutine" binding:"required"`
	Feedback       string         `json:"feedback"`
}

type ExplainRoutineRequest struct {
	Routine map[string]any `json:"routine" binding:"required"`
}

type ChatRequest struct {
	Message string           `json:"message" binding:"required"`
	History []map[string]any `json:"history"`
}

type SavePlanRequest struct {
	Plan map[string]any `json:"plan" binding:"required"`
}

// --- Handler Methods ---

// Generate asks the orchestrator for a routine matching the user's
// profile and equipment.
func (h *PlanHandler) Generate(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	h.relay(c, func() (*ai.Response, error) {
		return h.planService.GenerateRoutine(c.Request.Context(), userID)
	})
}

// Adapt sends the current routine and recent logs for adjustment.
func (h *PlanHandler) Adapt(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req AdaptRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.relay(c, func() (*ai.Response, error) {
		return h.planService.AdaptRoutine(c.Request.Context(), userID, req.CurrentRoutine, req.Feedback)
	})
}

// Explain requests a plain-language routine explanation.
func (h *PlanHandler) Explain(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ExplainRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.relay(c, func() (*ai.Response, error) {
		return h.planService.ExplainRoutine(c.Request.Context(), userID, req.Routine)
	})
}

// Chat forwards a free-form coaching message.
func (h *PlanHandler) Chat(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.relay(c, func() (*ai.Response, error) {
		return h.planService.Chat(c.Request.Context(), userID, req.Message, req.History)
	})
}

// relay forwards the orchestrator's status and body verbatim; transport
// failures become 502.
func (h *PlanHandler) relay(c *gin.Context, call func() (*ai.Response, error)) {
	resp, err := call()
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrUpstreamUnavailable):
			abortWithError(c, http.StatusBadGateway, "AI service is unreachable")
		case errors.Is(err, service.ErrInvalidInput):
			abortWithError(c, http.StatusBadRequest, "Invalid request body")
		case errors.Is(err, repository.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "User not found")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to process AI request")
		}
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// Save stores an orchestrator-produced plan as the active one.
func (h *PlanHandler) Save(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.SavePlan(c.Request.Context(), userID, req.Plan)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			abortWithError(c, http.StatusBadRequest, "Plan document cannot be empty")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to save plan")
		}
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// Active returns the user's active plan.
func (h *PlanHandler) Active(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetActivePlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No active plan")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load plan")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}
