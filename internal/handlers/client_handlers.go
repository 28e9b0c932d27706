package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fintechbank_backend/internal/metrics"
	"fintechbank_backend/internal/models"
	"fintechbank_backend/internal/services"
	"fintechbank_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	msgEmailExists     = "A client with this email already exists."
	msgAccountExists   = "A client with this account number already exists."
	msgDuplicateClient = "A client with the same email, account number or identification number already exists."
	msgClientNotFound  = "Client not found."
	msgInternalError   = "Internal server error."
)

// ClientHandler holds the client service.
type ClientHandler struct {
	clientService services.ClientService
	metrics       *metrics.Metrics
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(cs services.ClientService, m *metrics.Metrics) *ClientHandler {
	return &ClientHandler{clientService: cs, metrics: m}
}

// CreateClient handles the creation of a new client.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req services.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("CreateClient: failed to bind JSON", map[string]interface{}{"error": err.Error()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	if err := services.ValidateCreateClient(&req, today()); err != nil {
		h.respondServiceError(c, err, "CreateClient")
		return
	}
	if h.rejectDuplicates(c, 0, &req.Email, &req.AccountNumber) {
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), req)
	if err != nil {
		h.respondServiceError(c, err, "CreateClient")
		return
	}
	h.metrics.ClientsCreated.Inc()
	c.JSON(http.StatusCreated, client)
}

// GetClients handles the paginated, filtered client listing.
func (h *ClientHandler) GetClients(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		utils.RespondValidationFailed(c, "page", "must be an integer")
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(services.DefaultPageSize)))
	if err != nil {
		utils.RespondValidationFailed(c, "size", "must be an integer")
		return
	}

	result, err := h.clientService.ListClients(c.Request.Context(), services.ListClientsParams{
		Page:       page,
		PageSize:   size,
		Name:       c.Query("nombre"),
		ClientType: models.ClientType(c.Query("tipo_cliente")),
	})
	if err != nil {
		h.respondServiceError(c, err, "GetClients")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetClientByID handles fetching a single client by ID.
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, ok := parseClientID(c)
	if !ok {
		return
	}

	client, err := h.clientService.GetClientByID(c.Request.Context(), clientID)
	if err != nil {
		h.respondServiceError(c, err, "GetClientByID")
		return
	}
	c.JSON(http.StatusOK, client)
}

// GetClientByEmail handles lookup by email address.
func (h *ClientHandler) GetClientByEmail(c *gin.Context) {
	client, err := h.clientService.GetClientByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondServiceError(c, err, "GetClientByEmail")
		return
	}
	c.JSON(http.StatusOK, client)
}

// GetClientByAccountNumber handles lookup by account number.
func (h *ClientHandler) GetClientByAccountNumber(c *gin.Context) {
	client, err := h.clientService.GetClientByAccountNumber(c.Request.Context(), c.Param("numero"))
	if err != nil {
		h.respondServiceError(c, err, "GetClientByAccountNumber")
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient handles a partial update of a client.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := parseClientID(c)
	if !ok {
		return
	}

	var req services.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("UpdateClient: failed to bind JSON", map[string]interface{}{"error": err.Error(), "client_id": clientID})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.clientService.GetClientByID(ctx, clientID); err != nil {
		h.respondServiceError(c, err, "UpdateClient")
		return
	}
	if err := services.ValidateUpdateClient(&req, today()); err != nil {
		h.respondServiceError(c, err, "UpdateClient")
		return
	}
	if h.rejectDuplicates(c, clientID, req.Email, req.AccountNumber) {
		return
	}

	client, err := h.clientService.UpdateClient(ctx, clientID, req)
	if err != nil {
		h.respondServiceError(c, err, "UpdateClient")
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient handles deleting a client.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, ok := parseClientID(c)
	if !ok {
		return
	}

	deleted, err := h.clientService.DeleteClient(c.Request.Context(), clientID)
	if err != nil {
		h.respondServiceError(c, err, "DeleteClient")
		return
	}
	if !deleted {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, msgClientNotFound, ""))
		return
	}
	h.metrics.ClientsDeleted.Inc()
	c.Status(http.StatusNoContent)
}

func today() models.Date {
	return models.DateOf(time.Now())
}

func parseClientID(c *gin.Context) (int64, bool) {
	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "id", "must be an integer")
		return 0, false
	}
	return clientID, true
}

// rejectDuplicates looks up the supplied email and account number and, when
// another client (not selfID) already holds one of them, answers with a
// field-specific message. It reports whether a response was written.
func (h *ClientHandler) rejectDuplicates(c *gin.Context, selfID int64, email, accountNumber *string) bool {
	ctx := c.Request.Context()
	checks := []struct {
		field   string
		value   *string
		message string
		lookup  func(context.Context, string) (*models.Client, error)
	}{
		{"correo_electronico", email, msgEmailExists, h.clientService.GetClientByEmail},
		{"numero_cuenta", accountNumber, msgAccountExists, h.clientService.GetClientByAccountNumber},
	}

	for _, check := range checks {
		if check.value == nil || *check.value == "" {
			continue
		}
		existing, err := check.lookup(ctx, *check.value)
		switch {
		case err == nil && existing.ID != selfID:
			h.metrics.DuplicateClient.WithLabelValues(check.field).Inc()
			apiErr := utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeConflict, check.message, "")
			apiErr.Field = check.field
			utils.RespondWithError(c, apiErr)
			return true
		case err != nil && !errors.Is(err, services.ErrClientNotFound):
			h.respondServiceError(c, err, "duplicate pre-check")
			return true
		}
	}
	return false
}

// respondServiceError maps a service error to its HTTP response. Internal
// failures are logged in full and answered with a generic message.
func (h *ClientHandler) respondServiceError(c *gin.Context, err error, op string) {
	switch services.KindOf(err) {
	case services.KindValidation:
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			utils.RespondValidationFailed(c, verr.Field, verr.Reason)
			return
		}
		utils.RespondValidationFailed(c, "", err.Error())
	case services.KindDuplicateField:
		utils.LogWarn(op+": unique constraint rejected write", map[string]interface{}{"error": err.Error(), "request_id": c.GetString(utils.RequestIDKey)})
		h.metrics.DuplicateClient.WithLabelValues("unknown").Inc()
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeConflict, msgDuplicateClient, ""))
	case services.KindNotFound:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, msgClientNotFound, ""))
	default:
		utils.LogError(err, op+": unexpected error", map[string]interface{}{"request_id": c.GetString(utils.RequestIDKey)})
		utils.RespondInternalError(c, msgInternalError)
	}
}
