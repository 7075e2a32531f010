package handlers

import (
	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/gin-gonic/gin"
)

// PaymentHandler charges cards for authenticated identities.
type PaymentHandler struct {
	payments portssvc.PaymentSvc
}

func NewPaymentHandler(payments portssvc.PaymentSvc) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Charge godoc
// @Summary Charge card
// @Tags payment
// @Accept json
// @Produce json
// @Param charge body dto.ChargeRequest true "Charge"
// @Success 200 {object} dto.Response{data=domain.Charge}
// @Failure 400 {object} dto.Response "Declined or invalid amount"
// @Failure 403 {object} dto.Response
// @Security BearerAuth
// @Router /api/payment/charge [post]
func (h *PaymentHandler) Charge(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ChargeRequest
	if !bindJSON(c, &req) {
		return
	}
	charge, err := h.payments.Charge(c.Request.Context(), claims, domain.ChargeRequest{
		Amount:      req.Amount,
		SourceToken: req.StripeToken.ID,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, codePayment)
		return
	}
	respondOK(c, "Card Charged", charge)
}
