package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

func (s *Server) Dashboard(ctx *gin.Context) {
	log := logger.Get()
	stats, err := s.stats.Dashboard()
	if err != nil {
		log.Error().Err(err).Msg("dashboard aggregation failed")
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "dashboard temporarily unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

func (s *Server) ListOrders(ctx *gin.Context) {
	orders, err := s.storage.GetOrders()
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "orders temporarily unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, orders)
}

func (s *Server) UpdateOrderStatus(ctx *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.storage.UpdateOrderStatus(ctx.Param("id"), status); err != nil {
		s.orderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "order status updated"})
}

func (s *Server) UpdatePaymentStatus(ctx *gin.Context) {
	var req struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}
	status, err := models.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.storage.UpdatePaymentStatus(ctx.Param("id"), status); err != nil {
		s.orderError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "payment status updated"})
}

func (s *Server) RecentOrders(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.hub.Recent())
}

func (s *Server) ClearRecentOrders(ctx *gin.Context) {
	s.hub.ClearNewOrders()
	ctx.JSON(http.StatusOK, gin.H{"message": "recent orders cleared"})
}

// OrdersFeed upgrades the admin connection to the realtime order feed.
func (s *Server) OrdersFeed(ctx *gin.Context) {
	s.hub.ServeWS(ctx.Writer, ctx.Request)
}

func (s *Server) orderError(ctx *gin.Context, err error) {
	if errors.Is(err, storerrors.ErrOrderNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusBadGateway, gin.H{"error": "order update failed, please retry"})
}
