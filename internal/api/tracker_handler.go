package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"alcyxob/fitness-tracker/internal/backup"
	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackerHandler serves profiles, workouts, templates and progress.
type TrackerHandler struct {
	trackerService service.TrackerService
}

// NewTrackerHandler creates a new TrackerHandler.
func NewTrackerHandler(trackerService service.TrackerService) *TrackerHandler {
	return &TrackerHandler{trackerService: trackerService}
}

// --- Request Structs ---

type CreateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}

type SaveTemplateRequest struct {
	Name      string         `json:"name" binding:"required"`
	Exercises []domain.Entry `json:"exercises" binding:"required,min=1"`
}

// RequestIDHeader carries the client's submission id for duplicate-submit protection.
const RequestIDHeader = "X-Request-ID"

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed), errors.Is(err, backup.ErrInvalidBackup):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrNothingToRepeat):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoCurrentProfile),
		errors.Is(err, service.ErrDuplicateSubmit),
		errors.Is(err, service.ErrProfileLimit),
		errors.Is(err, service.ErrImportWhileSignedIn):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotSignedIn):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrExportStorageMissing):
		abortWithError(c, http.StatusNotImplemented, err.Error())
	case errors.Is(err, service.ErrRemoteOperation):
		abortWithError(c, http.StatusBadGateway, err.Error())
	default:
		log.Printf("ERROR: Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// --- Profiles ---

// ListProfiles GET /api/v1/profiles
func (h *TrackerHandler) ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, h.trackerService.ListProfiles())
}

// CreateProfile POST /api/v1/profiles
func (h *TrackerHandler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	profile, err := h.trackerService.CreateProfile(c.Request.Context(), req.Name, req.Color, req.Emoji)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// SwitchProfile POST /api/v1/profiles/:profileId/select
func (h *TrackerHandler) SwitchProfile(c *gin.Context) {
	if err := h.trackerService.SwitchProfile(c.Request.Context(), c.Param("profileId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteProfile DELETE /api/v1/profiles/:profileId
func (h *TrackerHandler) DeleteProfile(c *gin.Context) {
	if err := h.trackerService.DeleteProfile(c.Request.Context(), c.Param("profileId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Workouts ---

// ListWorkouts GET /api/v1/workouts
func (h *TrackerHandler) ListWorkouts(c *gin.Context) {
	workouts, err := h.trackerService.ListWorkouts()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// AddWorkout POST /api/v1/workouts
func (h *TrackerHandler) AddWorkout(c *gin.Context) {
	var entry domain.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	workout, err := h.trackerService.AddWorkout(c.Request.Context(), c.GetHeader(RequestIDHeader), entry)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workout)
}

// UpdateWorkout PUT /api/v1/workouts/:workoutId
func (h *TrackerHandler) UpdateWorkout(c *gin.Context) {
	var entry domain.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	workout, err := h.trackerService.UpdateWorkout(c.Request.Context(), c.Param("workoutId"), entry)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// DeleteWorkout DELETE /api/v1/workouts/:workoutId
func (h *TrackerHandler) DeleteWorkout(c *gin.Context) {
	if err := h.trackerService.DeleteWorkout(c.Request.Context(), c.Param("workoutId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RepeatLast GET /api/v1/workouts/repeat-last
func (h *TrackerHandler) RepeatLast(c *gin.Context) {
	entry, err := h.trackerService.RepeatLast()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// SuggestBodyPart GET /api/v1/workouts/suggest-body-part
func (h *TrackerHandler) SuggestBodyPart(c *gin.Context) {
	part, err := h.trackerService.SuggestBodyPart()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bodyPart": part})
}

// --- Templates ---

// ListTemplates GET /api/v1/templates
func (h *TrackerHandler) ListTemplates(c *gin.Context) {
	templates, err := h.trackerService.ListTemplates()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// SaveTemplate POST /api/v1/templates
func (h *TrackerHandler) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	template, err := h.trackerService.SaveTemplate(c.Request.Context(), req.Name, req.Exercises)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// LoadTemplate GET /api/v1/templates/:templateId/entry
func (h *TrackerHandler) LoadTemplate(c *gin.Context) {
	entry, err := h.trackerService.LoadTemplate(c.Param("templateId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteTemplate DELETE /api/v1/templates/:templateId
func (h *TrackerHandler) DeleteTemplate(c *gin.Context) {
	if err := h.trackerService.DeleteTemplate(c.Request.Context(), c.Param("templateId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Progress ---

// Stats GET /api/v1/stats
func (h *TrackerHandler) Stats(c *gin.Context) {
	stats, err := h.trackerService.Stats()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
