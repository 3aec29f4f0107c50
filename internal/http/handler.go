package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Taskify-udl/taskify-contracts/internal/http/middleware"
	"github.com/Taskify-udl/taskify-contracts/internal/model"
	"github.com/Taskify-udl/taskify-contracts/internal/service"
)

type NotificationReader interface {
	ListNotifications(ctx context.Context, identityID uuid.UUID, limit int) ([]model.Notification, error)
}

type Handler struct {
	contracts     *service.ContractService
	verification  *service.VerificationService
	detector      *service.DetectorService
	exports       *service.ExportService
	notifications NotificationReader
	log           zerolog.Logger
}

func NewHandler(
	contracts *service.ContractService,
	verification *service.VerificationService,
	detector *service.DetectorService,
	exports *service.ExportService,
	notifications NotificationReader,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		contracts:     contracts,
		verification:  verification,
		detector:      detector,
		exports:       exports,
		notifications: notifications,
		log:           log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/:id", h.getContract)
	protected.POST("/contracts/:id/transition", h.transition)
	protected.POST("/contracts/:id/verify", h.verifyCode)
	protected.PATCH("/contracts/:id/schedule", h.reschedule)
	protected.GET("/contracts/:id/certificate", h.certificate)
	protected.POST("/contracts/export", h.exportHistory)
	protected.GET("/notifications", h.listNotifications)
	protected.POST("/detector/run", h.runDetector)
}

type contractResponse struct {
	ID             string  `json:"id"`
	RequesterID    string  `json:"requester_id"`
	ProviderID     string  `json:"provider_id"`
	ServiceID      string  `json:"service_id"`
	Description    string  `json:"description,omitempty"`
	ScheduledStart string  `json:"scheduled_start"`
	AgreedPrice    float64 `json:"agreed_price"`
	Status         string  `json:"status"`
	StartCode      string  `json:"start_code,omitempty"`
	EndCode        string  `json:"end_code,omitempty"`
	StartCodeUsed  bool    `json:"start_code_used"`
	EndCodeUsed    bool    `json:"end_code_used"`
	CreatedAt      string  `json:"created_at"`
}

// toContractResponse hides the verification codes from everyone except the
// requester, whose device displays them to the provider on site.
func toContractResponse(contract *model.Contract, principal model.Principal) contractResponse {
	resp := contractResponse{
		ID:             contract.ID.String(),
		RequesterID:    contract.RequesterID.String(),
		ProviderID:     contract.ProviderID.String(),
		Description:    contract.Description,
		ServiceID:      contract.ServiceID.String(),
		ScheduledStart: contract.ScheduledStart.Format(time.RFC3339),
		AgreedPrice:    contract.AgreedPrice,
		Status:         string(contract.Status),
		StartCodeUsed:  contract.StartCodeUsed,
		EndCodeUsed:    contract.EndCodeUsed,
		CreatedAt:      contract.CreatedAt.Format(time.RFC3339),
	}
	if principal.UserID == contract.RequesterID {
		resp.StartCode = contract.StartCode
		resp.EndCode = contract.EndCode
	}
	return resp
}

type createContractRequest struct {
	ProviderID     string  `json:"provider_id" binding:"required"`
	ServiceID      string  `json:"service_id" binding:"required"`
	Description    string  `json:"description"`
	ScheduledStart string  `json:"scheduled_start" binding:"required"`
	AgreedPrice    float64 `json:"agreed_price"`
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	providerID, err := uuid.Parse(strings.TrimSpace(req.ProviderID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider_id"})
		return
	}
	serviceID, err := uuid.Parse(strings.TrimSpace(req.ServiceID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service_id"})
		return
	}
	scheduledStart, err := parseTime(req.ScheduledStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_start"})
		return
	}

	contract, err := h.contracts.CreateContract(c.Request.Context(), service.CreateContractInput{
		Principal:      principal,
		ProviderID:     providerID,
		ServiceID:      serviceID,
		Description:    req.Description,
		ScheduledStart: scheduledStart,
		AgreedPrice:    req.AgreedPrice,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toContractResponse(contract, principal))
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contracts, err := h.contracts.ListContracts(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	responses := make([]contractResponse, 0, len(contracts))
	for i := range contracts {
		responses = append(responses, toContractResponse(&contracts[i], principal))
	}
	c.JSON(http.StatusOK, gin.H{"contracts": responses})
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.contracts.GetContract(c.Request.Context(), contractID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContractResponse(contract, principal))
}

type transitionRequest struct {
	Target string `json:"target" binding:"required"`
}

func (h *Handler) transition(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := model.ContractStatus(strings.ToUpper(strings.TrimSpace(req.Target)))
	contract, err := h.contracts.Transition(c.Request.Context(), service.TransitionInput{
		ContractID: contractID,
		Principal:  principal,
		Target:     target,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContractResponse(contract, principal))
}

type verifyCodeRequest struct {
	Code  string `json:"code" binding:"required"`
	Phase string `json:"phase" binding:"required"`
}

func (h *Handler) verifyCode(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	phase := model.VerificationPhase(strings.ToUpper(strings.TrimSpace(req.Phase)))
	contract, err := h.verification.VerifyCode(c.Request.Context(), service.VerifyCodeInput{
		ContractID: contractID,
		Principal:  principal,
		Code:       req.Code,
		Phase:      phase,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContractResponse(contract, principal))
}

type rescheduleRequest struct {
	ScheduledStart string `json:"scheduled_start" binding:"required"`
}

func (h *Handler) reschedule(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scheduledStart, err := parseTime(req.ScheduledStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_start"})
		return
	}

	contract, err := h.contracts.Reschedule(c.Request.Context(), contractID, principal, scheduledStart)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toContractResponse(contract, principal))
}

func (h *Handler) certificate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	result, err := h.exports.CompletionCertificate(c.Request.Context(), contractID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) exportHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.exports.HistoryExport(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	notifications, err := h.notifications.ListNotifications(c.Request.Context(), principal.UserID, 50)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *Handler) runDetector(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	if err := h.detector.RunCycle(c.Request.Context(), principal.UserID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrContractTerminal),
		errors.Is(err, service.ErrPhaseViolation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCodeMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStoreUnavailable):
		h.log.Error().Err(err).Msg("store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
