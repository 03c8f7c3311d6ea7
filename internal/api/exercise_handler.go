package api

import (
	"fmt"
	"net/http"

	"peakform/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler exposes the flat exercise catalog.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

type CreateExerciseRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// CreateExercise adds a catalog record; posting an existing
// name+category pair returns the existing record.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.Create(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// GetExercise retrieves one catalog record by id.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exercise, err := h.exerciseService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercise)
}

// ListExercises retrieves the whole catalog.
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	exercises, err := h.exerciseService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}
