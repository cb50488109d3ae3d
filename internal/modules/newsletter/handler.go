package newsletter

import (
	"github.com/gin-gonic/gin"
	"github.com/project-delta/newsletter/internal/pkg/response"
	"go.uber.org/zap"
)

// NewsletterDTO is the body for POST /send-newsletter.
type NewsletterDTO struct {
	Subject string `json:"subject" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/send-newsletter", h.send)
	rg.GET("/test-mail", h.testMail)
}

func (h *Handler) send(c *gin.Context) {
	var dto NewsletterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "subject and content are required")
		return
	}

	sent, err := h.svc.Broadcast(c.Request.Context(), dto.Subject, dto.Content)
	if err != nil {
		h.log.Error("broadcast failed", zap.String("subject", dto.Subject), zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"message": "newsletter sent", "recipients": sent})
}

func (h *Handler) testMail(c *gin.Context) {
	if err := h.svc.SendTest(); err != nil {
		h.log.Error("test mail failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"message": "test mail sent"})
}
