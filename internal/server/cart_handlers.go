package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

type addToCartRequest struct {
	BID      string `json:"bid" binding:"required"`
	Quantity int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) ViewCart(ctx *gin.Context) {
	uid := ctx.GetString("uid")
	lines, err := s.cart.Load(uid)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "cart temporarily unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"items":       lines,
		"total_price": s.cart.TotalPrice(uid),
		"total_items": s.cart.TotalItems(uid),
	})
}

func (s *Server) AddToCart(ctx *gin.Context) {
	log := logger.Get()
	uid := ctx.GetString("uid")

	var req addToCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := s.cart.Add(uid, req.BID, req.Quantity); err != nil {
		s.cartError(ctx, err)
		log.Debug().Err(err).Str("uid", uid).Str("bid", req.BID).Msg("add to cart rejected")
		return
	}
	s.respondCart(ctx, uid)
}

func (s *Server) UpdateCartItem(ctx *gin.Context) {
	uid := ctx.GetString("uid")
	itemID := ctx.Param("id")

	var req updateQuantityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}

	if err := s.cart.UpdateQuantity(uid, itemID, req.Quantity); err != nil {
		s.cartError(ctx, err)
		return
	}
	s.respondCart(ctx, uid)
}

func (s *Server) RemoveCartItem(ctx *gin.Context) {
	uid := ctx.GetString("uid")
	if err := s.cart.Remove(uid, ctx.Param("id")); err != nil {
		s.cartError(ctx, err)
		return
	}
	s.respondCart(ctx, uid)
}

func (s *Server) ClearCart(ctx *gin.Context) {
	uid := ctx.GetString("uid")
	if err := s.cart.Clear(uid); err != nil {
		s.cartError(ctx, err)
		return
	}
	s.respondCart(ctx, uid)
}

func (s *Server) respondCart(ctx *gin.Context, uid string) {
	ctx.JSON(http.StatusOK, gin.H{
		"items":       s.cart.Snapshot(uid),
		"total_price": s.cart.TotalPrice(uid),
		"total_items": s.cart.TotalItems(uid),
	})
}

// cartError maps cart failures onto one user-facing message each; raw store
// errors never reach the client.
func (s *Server) cartError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, storerrors.ErrStockExhausted):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, storerrors.ErrBookNotFound), errors.Is(err, storerrors.ErrCartItemNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "cart update failed, please retry"})
	}
}
