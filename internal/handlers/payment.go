// internal/handlers/payment.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/highdeium-backend/internal/i18n"
	"github.com/javajoker/highdeium-backend/internal/services"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

// maxWebhookBody caps the signed payload read from the processor.
const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /payments/intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreatePaymentIntentRequest
	if !bindJSON(c, &req) || !validRequest(c, &req) {
		return
	}

	response, err := h.paymentService.CreatePaymentIntent(c.Request.Context(), userID, req.BookID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}

// POST /payments/purchase
func (h *PaymentHandler) ConfirmPurchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.ConfirmPurchaseRequest
	if !bindJSON(c, &req) || !validRequest(c, &req) {
		return
	}

	purchase, err := h.paymentService.ConfirmPurchase(c.Request.Context(), userID, req.BookID, req.PaymentIntentID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyPurchaseCompleted),
		"purchase": purchase,
	})
}

// POST /payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logrus.WithError(err).Warn("Failed to read webhook body")
		utils.BadRequestResponse(c, "", nil)
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"received": true,
	})
}

func respondPaymentError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrConflict) {
		lang := utils.GetLangFromContext(c)
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPurchaseExists))
		return
	}
	respondError(c, err)
}
