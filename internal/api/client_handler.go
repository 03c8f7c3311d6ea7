package api

import (
	"fmt"
	"net/http"
	"strconv"

	"peakform/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ClientHandler exposes the client-side surface: the caller's own
// template graphs and the progression tracker. The mutating routes are
// shared with coaches; the service enforces per-client scoping.
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// ListMyTemplates lists the caller's templates.
func (h *ClientHandler) ListMyTemplates(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}

	templates, err := h.clientService.ListTemplates(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// FindMyTemplate retrieves one of the caller's templates by id or slug.
func (h *ClientHandler) FindMyTemplate(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}
	ref, ok := templateRefFromQuery(c)
	if !ok {
		return
	}

	template, err := h.clientService.GetTemplate(c.Request.Context(), caller.UserID, ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// GetMyActiveTemplate resolves the caller's single active template.
func (h *ClientHandler) GetMyActiveTemplate(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}

	template, err := h.clientService.GetActiveTemplate(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// UpdateClientTemplate applies a partial update to a client template.
func (h *ClientHandler) UpdateClientTemplate(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update service.ClientTemplateUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template, err := h.clientService.UpdateTemplate(c.Request.Context(), caller, id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// DeleteClientTemplate removes a client template graph.
func (h *ClientHandler) DeleteClientTemplate(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.clientService.DeleteTemplate(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateClientSession appends a session to a client template. The
// caller's role decides whether the exercise rows become structured
// exercises or free-form training entries.
func (h *ClientHandler) CreateClientSession(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.ClientSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template, err := h.clientService.CreateSession(c.Request.Context(), caller, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// UpdateClientSession applies completion/replacement semantics to one
// client session.
func (h *ClientHandler) UpdateClientSession(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update service.ClientSessionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	session, err := h.clientService.UpdateSession(c.Request.Context(), caller, id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// NextSession returns the caller's lowest-order pending session. A null
// session means every session of the active template is complete.
func (h *ClientHandler) NextSession(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}

	session, err := h.clientService.NextSession(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// TrainingLog returns the caller's completed sessions, optionally
// windowed by page and pageSize query parameters.
func (h *ClientHandler) TrainingLog(c *gin.Context) {
	caller, err := callerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token")
		return
	}

	page, pageSize := 0, 0
	if v := c.Query("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			abortWithError(c, http.StatusBadRequest, "page must be an integer")
			return
		}
	}
	if v := c.Query("pageSize"); v != "" {
		if pageSize, err = strconv.Atoi(v); err != nil {
			abortWithError(c, http.StatusBadRequest, "pageSize must be an integer")
			return
		}
	}

	sessions, err := h.clientService.TrainingLog(c.Request.Context(), caller.UserID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}
