package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"pulseapp/pulse/internal/domain"
	"pulseapp/pulse/internal/repository"
	"pulseapp/pulse/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler exposes the workout session lifecycle.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- Request Structs ---

type StartWorkoutRequest struct {
	RoutineID *string `json:"routineId"`
	Name      string  `json:"name"`
}

type UpdateSetRequest struct {
	WeightKg  *float64 `json:"weightKg"`
	Reps      *int     `json:"reps"`
	Completed *bool    `json:"completed"`
	RPE       *float64 `json:"rpe"`
	SetType   *string  `json:"setType"`
}

type CompleteSetRequest struct {
	WeightKg *float64 `json:"weightKg"`
	Reps     *int     `json:"reps"`
}

type AddSetRequest struct {
	ExerciseName      string  `json:"exerciseName" binding:"required"`
	ExerciseLibraryID *string `json:"exerciseLibraryId"`
}

// --- Handler Methods ---

// Start begins a workout session. When the user already has one in
// progress the existing session is returned with 409 so clients can
// adopt it instead of erroring.
func (h *WorkoutHandler) Start(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req StartWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var routineID *primitive.ObjectID
	if req.RoutineID != nil && *req.RoutineID != "" {
		id, err := primitive.ObjectIDFromHex(*req.RoutineID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid routineId format")
			return
		}
		routineID = &id
	}

	sess, err := h.workoutService.StartWorkout(c.Request.Context(), userID, routineID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkoutAlreadyActive):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "A workout is already in progress",
				"session": sess,
			})
		case errors.Is(err, repository.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "Routine not found")
		case errors.Is(err, service.ErrInvalidInput):
			abortWithError(c, http.StatusBadRequest, "A workout needs a routine or a name")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to start workout")
		}
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// GetActive returns the in-progress session, or 404 when there is none.
func (h *WorkoutHandler) GetActive(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	sess, err := h.workoutService.GetActive(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No active workout")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load active workout")
		}
		return
	}

	c.JSON(http.StatusOK, sess)
}

// Get returns one workout with its sets.
func (h *WorkoutHandler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	workoutID, ok := pathObjectID(c, "workoutId")
	if !ok {
		return
	}

	workout, sets, err := h.workoutService.GetWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Workout not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load workout")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"workout": workout, "sets": sets})
}

// Finish completes the session.
func (h *WorkoutHandler) Finish(c *gin.Context) {
	h.transition(c, h.workoutService.Finish)
}

// Cancel discards the session.
func (h *WorkoutHandler) Cancel(c *gin.Context) {
	h.transition(c, h.workoutService.Cancel)
}

func (h *WorkoutHandler) transition(c *gin.Context, op func(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	workoutID, ok := pathObjectID(c, "workoutId")
	if !ok {
		return
	}

	workout, err := op(c.Request.Context(), userID, workoutID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "Workout not found")
		case errors.Is(err, service.ErrWorkoutFinished):
			abortWithError(c, http.StatusConflict, "Workout is already finished")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update workout")
		}
		return
	}

	c.JSON(http.StatusOK, workout)
}

// UpdateSet applies a partial update; only fields present in the body
// are written.
func (h *WorkoutHandler) UpdateSet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}

	var req UpdateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	patch := repository.SetPatch{
		WeightKg:  req.WeightKg,
		Reps:      req.Reps,
		Completed: req.Completed,
		RPE:       req.RPE,
	}
	if req.SetType != nil {
		setType := domain.NormalizeSetType(*req.SetType)
		patch.SetType = &setType
	}

	set, err := h.workoutService.UpdateSet(c.Request.Context(), userID, setID, patch)
	if err != nil {
		h.setMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// CompleteSet marks a set done, merging in the supplied weight/reps.
func (h *WorkoutHandler) CompleteSet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}

	var req CompleteSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	completed := true
	patch := repository.SetPatch{
		WeightKg:  req.WeightKg,
		Reps:      req.Reps,
		Completed: &completed,
	}

	set, err := h.workoutService.UpdateSet(c.Request.Context(), userID, setID, patch)
	if err != nil {
		h.setMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// AddSet appends a set for an exercise in the active workout.
func (h *WorkoutHandler) AddSet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	workoutID, ok := pathObjectID(c, "workoutId")
	if !ok {
		return
	}

	var req AddSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var libraryID *primitive.ObjectID
	if req.ExerciseLibraryID != nil && *req.ExerciseLibraryID != "" {
		id, err := primitive.ObjectIDFromHex(*req.ExerciseLibraryID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exerciseLibraryId format")
			return
		}
		libraryID = &id
	}

	set, err := h.workoutService.AddSet(c.Request.Context(), userID, workoutID, req.ExerciseName, libraryID)
	if err != nil {
		h.setMutationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, set)
}

// DeleteSet removes a set row; later indices keep their gaps.
func (h *WorkoutHandler) DeleteSet(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}

	if err := h.workoutService.DeleteSet(c.Request.Context(), userID, setID); err != nil {
		h.setMutationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkoutHandler) setMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Set or workout not found")
	case errors.Is(err, service.ErrWorkoutFinished):
		abortWithError(c, http.StatusConflict, "Workout is already finished")
	case errors.Is(err, service.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, "Invalid set data")
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to update set")
	}
}
