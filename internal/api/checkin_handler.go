package api

import (
	"fmt"
	"net/http"

	"peakform/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckInHandler exposes the check-in scheduler surface.
type CheckInHandler struct {
	checkInService service.CheckInService
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(checkInService service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInService: checkInService}
}

// --- DTOs ---

// SubmitCheckInRequest identifies the check-in by id or by client id
// and carries the submission payload.
type SubmitCheckInRequest struct {
	CheckInID *string `json:"checkInId,omitempty"`
	ClientID  *string `json:"clientId,omitempty"`
	service.CheckInSubmission
}

type ConfirmPhotoRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type RequestPhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// checkInRefFromRequest translates the hex id pair of a request into a
// service reference.
func checkInRefFromRequest(c *gin.Context, checkInID, clientID *string) (service.CheckInRef, bool) {
	var ref service.CheckInRef
	if checkInID != nil && *checkInID != "" {
		id, err := primitive.ObjectIDFromHex(*checkInID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid checkInId format")
			return ref, false
		}
		ref.CheckInID = &id
	}
	if clientID != nil && *clientID != "" {
		id, err := primitive.ObjectIDFromHex(*clientID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid clientId format")
			return ref, false
		}
		ref.ClientID = &id
	}
	return ref, true
}

// --- Listings ---

// ListCheckIns buckets every check-in for coach review.
func (h *CheckInHandler) ListCheckIns(c *gin.Context) {
	buckets, err := h.checkInService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// ListMyCheckIns buckets the calling client's check-ins.
func (h *CheckInHandler) ListMyCheckIns(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}

	buckets, err := h.checkInService.ListForClient(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// FindCheckIn resolves a check-in by id or client id query parameter.
func (h *CheckInHandler) FindCheckIn(c *gin.Context) {
	checkInID := c.Query("id")
	clientID := c.Query("clientId")
	ref, ok := checkInRefFromRequest(c, &checkInID, &clientID)
	if !ok {
		return
	}

	checkIn, err := h.checkInService.Get(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// GetMyCheckIn resolves the calling client's check-in through their
// active template.
func (h *CheckInHandler) GetMyCheckIn(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}

	checkIn, err := h.checkInService.Get(c.Request.Context(), service.CheckInRef{ClientID: &caller.UserID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// --- Submission ---

// SubmitCheckIn updates a check-in and closes out any supplied sessions
// in the same transaction. Coach route.
func (h *CheckInHandler) SubmitCheckIn(c *gin.Context) {
	var req SubmitCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	ref, ok := checkInRefFromRequest(c, req.CheckInID, req.ClientID)
	if !ok {
		return
	}

	checkIn, err := h.checkInService.Submit(c.Request.Context(), ref, req.CheckInSubmission)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// SubmitMyCheckIn lets a client submit their own check-in. The coach
// comment field is not theirs to set.
func (h *CheckInHandler) SubmitMyCheckIn(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}

	var submission service.CheckInSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	submission.CoachComment = nil

	checkIn, err := h.checkInService.Submit(c.Request.Context(), service.CheckInRef{ClientID: &caller.UserID}, submission)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// --- Progress Photos ---

// RequestPhotoUpload issues a presigned upload URL for a progress photo.
func (h *CheckInHandler) RequestPhotoUpload(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}
	checkInID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RequestPhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	response, err := h.checkInService.RequestPhotoUpload(c.Request.Context(), caller.UserID, checkInID, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ConfirmPhotoUpload records photo metadata after a completed upload.
func (h *CheckInHandler) ConfirmPhotoUpload(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}
	checkInID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.checkInService.ConfirmPhotoUpload(c.Request.Context(), caller.UserID, checkInID, req.ObjectKey, req.FileName, req.Size, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// GetCheckInPhotos lists a check-in's photos with viewing URLs.
func (h *CheckInHandler) GetCheckInPhotos(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}
	checkInID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	photos, err := h.checkInService.GetPhotos(c.Request.Context(), caller, checkInID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}
