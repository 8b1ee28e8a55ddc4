package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"

	"github.com/hounsou/bookstore/internal/checkout"
	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

// Checkout performs the whole cart-to-order flow. On failure the cart is
// untouched so the user can retry without rebuilding it.
func (s *Server) Checkout(ctx *gin.Context) {
	log := logger.Get()
	uid := ctx.GetString("uid")

	var form checkout.Form
	if err := ctx.ShouldBindJSON(&form); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}

	order, err := s.orders.PlaceOrder(uid, form)
	if err != nil {
		var vErrs validator.ValidationErrors
		switch {
		case errors.As(err, &vErrs), errors.Is(err, models.ErrInvalidPaymentMethod):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, storerrors.ErrEmptyCart):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, storerrors.ErrStockExhausted):
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("uid", uid).Msg("checkout failed")
			ctx.JSON(http.StatusBadGateway, gin.H{"error": "checkout failed, your cart was not changed"})
		}
		return
	}

	// Explicit navigation payload for the payment-instructions view.
	ctx.JSON(http.StatusCreated, gin.H{
		"oid":            order.OID,
		"number":         order.Number,
		"total":          order.Total,
		"total_display":  models.FormatPrice(order.Total),
		"payment_method": order.PaymentMethod,
	})
}

// PaymentInstructions renders the static per-carrier transfer instructions
// for an order the caller owns.
func (s *Server) PaymentInstructions(ctx *gin.Context) {
	uid := ctx.GetString("uid")

	order, _, err := s.storage.GetOrder(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, storerrors.ErrOrderNotFound) {
			ctx.String(http.StatusNotFound, err.Error())
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	if order.UID != uid {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"oid":            order.OID,
		"number":         order.Number,
		"total":          order.Total,
		"total_display":  models.FormatPrice(order.Total),
		"payment_method": order.PaymentMethod,
		"instructions":   checkout.Instructions(order.PaymentMethod),
	})
}
