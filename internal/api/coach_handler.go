package api

import (
	"fmt"
	"net/http"

	"peakform/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler exposes coach-side operations: managed clients, template
// authoring and assignment.
type CoachHandler struct {
	coachService  service.CoachService
	clientService service.ClientService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService, clientService service.ClientService) *CoachHandler {
	return &CoachHandler{
		coachService:  coachService,
		clientService: clientService,
	}
}

// --- DTOs ---

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

// templateRefFromQuery builds the id/slug dual lookup reference from
// query parameters. Supplying both or neither is rejected downstream.
func templateRefFromQuery(c *gin.Context) (service.TemplateRef, bool) {
	ref := service.TemplateRef{Slug: c.Query("slug")}
	if idStr := c.Query("id"); idStr != "" {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid id format")
			return ref, false
		}
		ref.ID = &id
	}
	return ref, true
}

// --- Client Management ---

// AddClientByEmail associates an existing client user with the coach.
func (h *CoachHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token")
		return
	}

	client, err := h.coachService.AddClientByEmail(c.Request.Context(), caller.UserID, req.ClientEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetClients lists the coach's managed clients.
func (h *CoachHandler) GetClients(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token")
		return
	}

	clients, err := h.coachService.GetClients(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(clients))
}

// --- Template Authoring ---

// CreateTemplate builds a coach template graph.
func (h *CoachHandler) CreateTemplate(c *gin.Context) {
	var input service.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token")
		return
	}

	template, err := h.coachService.CreateTemplate(c.Request.Context(), caller.UserID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// ListTemplates retrieves all coach templates.
func (h *CoachHandler) ListTemplates(c *gin.Context) {
	templates, err := h.coachService.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// FindTemplate retrieves one template by id or slug query parameter.
func (h *CoachHandler) FindTemplate(c *gin.Context) {
	ref, ok := templateRefFromQuery(c)
	if !ok {
		return
	}

	template, err := h.coachService.GetTemplate(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// UpdateTemplate applies a partial update, including session reordering.
func (h *CoachHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update service.TemplateUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template, err := h.coachService.UpdateTemplate(c.Request.Context(), id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// DeleteTemplate removes a template graph.
func (h *CoachHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.coachService.DeleteTemplate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddSession appends a session to a template.
func (h *CoachHandler) AddSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.TemplateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template, err := h.coachService.AddSession(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// UpdateSession applies a partial update to one template session.
func (h *CoachHandler) UpdateSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update service.TemplateSessionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template, err := h.coachService.UpdateSession(c.Request.Context(), id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// --- Assignment ---

// AssignTemplate instantiates a client template, from a source template
// or from inline ad hoc sessions, together with its check-in.
func (h *CoachHandler) AssignTemplate(c *gin.Context) {
	var input service.AssignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	clientTemplate, err := h.coachService.AssignTemplate(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clientTemplate)
}

// ListClientTemplates lets a coach view one client's templates.
func (h *CoachHandler) ListClientTemplates(c *gin.Context) {
	clientID, ok := parseIDParam(c, "clientId")
	if !ok {
		return
	}

	templates, err := h.clientService.ListTemplates(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetClientActiveTemplate lets a coach view one client's active
// template; an invariant violation surfaces as a conflict.
func (h *CoachHandler) GetClientActiveTemplate(c *gin.Context) {
	clientID, ok := parseIDParam(c, "clientId")
	if !ok {
		return
	}

	template, err := h.clientService.GetActiveTemplate(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}
