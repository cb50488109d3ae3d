package subscribe

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/project-delta/newsletter/internal/pkg/response"
	"go.uber.org/zap"
)

// Handler exposes the subscription lifecycle over HTTP.
type Handler struct {
	svc *Service
	log *zap.Logger

	// confirmRedirectURL, when non-empty, is where GET /confirm redirects
	// after a successful verification (a hosted confirmation page).
	confirmRedirectURL string
}

func NewHandler(svc *Service, log *zap.Logger, confirmRedirectURL string) *Handler {
	return &Handler{svc: svc, log: log, confirmRedirectURL: confirmRedirectURL}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/subscribe", h.subscribe)
	rg.GET("/confirm", h.confirm)
	rg.POST("/verify", h.verify)
	rg.DELETE("/unsubscribe", h.unsubscribe)
	rg.POST("/request-unsubscribe", h.requestUnsubscribe)
	rg.POST("/confirm-unsubscribe", h.confirmUnsubscribe)
}

func (h *Handler) subscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "a valid email address is required")
		return
	}

	err := h.svc.Subscribe(c.Request.Context(), dto.Email)
	switch {
	case err == nil:
		response.OK(c, gin.H{"message": "confirmation mail sent"})
	case errors.Is(err, ErrAlreadySubscribed):
		response.Conflict(c, "this address is already confirmed")
	default:
		h.log.Error("subscribe failed", zap.String("address", dto.Email), zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "missing token")
		return
	}

	_, err := h.svc.ConfirmToken(c.Request.Context(), token)
	switch {
	case err == nil:
		if h.confirmRedirectURL != "" {
			c.Redirect(http.StatusFound, h.confirmRedirectURL)
			return
		}
		response.OK(c, gin.H{"message": "subscription confirmed"})
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "invalid or expired token")
	default:
		h.log.Error("confirm failed", zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) verify(c *gin.Context) {
	var dto VerifyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email and code are required")
		return
	}

	err := h.svc.VerifyCode(c.Request.Context(), dto.Email, dto.Code)
	switch {
	case err == nil:
		response.OK(c, gin.H{"message": "subscription confirmed"})
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "no pending subscription for this address")
	case errors.Is(err, ErrAlreadyVerified):
		response.Conflict(c, "this address is already confirmed")
	case errors.Is(err, ErrSecretExpired):
		response.Unauthorized(c, "code expired, subscribe again to get a new one")
	case errors.Is(err, ErrSecretMismatch):
		response.Unauthorized(c, "wrong code")
	default:
		h.log.Error("verify failed", zap.String("address", dto.Email), zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) unsubscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "a valid email address is required")
		return
	}

	err := h.svc.Unsubscribe(c.Request.Context(), dto.Email)
	switch {
	case err == nil:
		response.OK(c, gin.H{"message": "unsubscribed"})
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "email address not found")
	default:
		h.log.Error("unsubscribe failed", zap.String("address", dto.Email), zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) requestUnsubscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "a valid email address is required")
		return
	}

	err := h.svc.RequestUnsubscribe(c.Request.Context(), dto.Email)
	switch {
	case err == nil:
		response.OK(c, gin.H{"message": "unsubscribe code sent"})
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "no confirmed subscription for this address")
	default:
		h.log.Error("request-unsubscribe failed", zap.String("address", dto.Email), zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) confirmUnsubscribe(c *gin.Context) {
	var dto VerifyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email and code are required")
		return
	}

	err := h.svc.ConfirmUnsubscribe(c.Request.Context(), dto.Email, dto.Code)
	switch {
	case err == nil:
		response.OK(c, gin.H{"message": "unsubscribed"})
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "email address not found")
	case errors.Is(err, ErrSecretExpired):
		response.Unauthorized(c, "code expired, request unsubscribe again")
	case errors.Is(err, ErrSecretMismatch):
		response.Unauthorized(c, "wrong code")
	default:
		h.log.Error("confirm-unsubscribe failed", zap.String("address", dto.Email), zap.Error(err))
		response.InternalError(c)
	}
}
