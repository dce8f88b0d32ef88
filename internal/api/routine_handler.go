package api

import (
	"errors"
	"fmt"
	"net/http"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"
	"pulseapp/pulse/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoutineHandler exposes routine CRUD.
type RoutineHandler struct {
	routineService service.RoutineService
}

// NewRoutineHandler creates a new RoutineHandler.
func NewRoutineHandler(routineService service.RoutineService) *RoutineHandler {
	return &RoutineHandler{routineService: routineService}
}

// --- Request Structs ---

type PlannedSetRequest struct {
	TargetReps     *int     `json:"targetReps" binding:"omitempty,min=0"`
	TargetWeightKg *float64 `json:"targetWeightKg" binding:"omitempty,min=0"`
}

type RoutineExerciseRequest struct {
	ExerciseName      string              `json:"exerciseName" binding:"required"`
	ExerciseLibraryID *string             `json:"exerciseLibraryId"`
	Sets              []PlannedSetRequest `json:"sets"`
	RestSeconds       int                 `json:"restSeconds" binding:"omitempty,min=0,max=600"`
	Notes             string              `json:"notes"`
}

type RoutineRequest struct {
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description"`
	Exercises   []RoutineExerciseRequest `json:"exercises"`
}

func (r RoutineRequest) toExercises() ([]domain.RoutineExercise, error) {
	exercises := make([]domain.RoutineExercise, 0, len(r.Exercises))
	for _, ex := range r.Exercises {
		exercise := domain.RoutineExercise{
			ExerciseName: ex.ExerciseName,
			RestSeconds:  ex.RestSeconds,
			Notes:        ex.Notes,
		}
		if ex.ExerciseLibraryID != nil && *ex.ExerciseLibraryID != "" {
			id, err := primitive.ObjectIDFromHex(*ex.ExerciseLibraryID)
			if err != nil {
				return nil, fmt.Errorf("invalid exerciseLibraryId for %q", ex.ExerciseName)
			}
			exercise.ExerciseLibraryID = &id
		}
		for _, set := range ex.Sets {
			exercise.SetsData = append(exercise.SetsData, domain.PlannedSet{
				TargetReps:     set.TargetReps,
				TargetWeightKg: set.TargetWeightKg,
			})
		}
		exercises = append(exercises, exercise)
	}
	return exercises, nil
}

// --- Handler Methods ---

// Create stores a new routine for the authenticated user.
func (h *RoutineHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req RoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exercises, err := req.toExercises()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	routine, err := h.routineService.CreateRoutine(c.Request.Context(), userID, req.Name, req.Description, exercises)
	if err != nil {
		h.routineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, routine)
}

// List returns the user's active routines.
func (h *RoutineHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	routines, err := h.routineService.ListActive(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load routines")
		return
	}
	if routines == nil {
		routines = []domain.Routine{}
	}
	c.JSON(http.StatusOK, routines)
}

// Get returns one routine.
func (h *RoutineHandler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	routineID, ok := pathObjectID(c, "routineId")
	if !ok {
		return
	}

	routine, err := h.routineService.GetRoutine(c.Request.Context(), userID, routineID)
	if err != nil {
		h.routineError(c, err)
		return
	}
	c.JSON(http.StatusOK, routine)
}

// Update replaces a routine's name, description and exercise list.
func (h *RoutineHandler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	routineID, ok := pathObjectID(c, "routineId")
	if !ok {
		return
	}

	var req RoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exercises, err := req.toExercises()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	routine, err := h.routineService.UpdateRoutine(c.Request.Context(), userID, routineID, req.Name, req.Description, exercises)
	if err != nil {
		h.routineError(c, err)
		return
	}
	c.JSON(http.StatusOK, routine)
}

// Delete soft-deactivates a routine. Past workouts keep referencing it.
func (h *RoutineHandler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	routineID, ok := pathObjectID(c, "routineId")
	if !ok {
		return
	}

	if err := h.routineService.Deactivate(c.Request.Context(), userID, routineID); err != nil {
		h.routineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoutineHandler) routineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Routine not found")
	case errors.Is(err, service.ErrRoutineNameRequired), errors.Is(err, service.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, "Invalid routine data")
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to process routine")
	}
}
