package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt/v4"

	"github.com/hounsou/bookstore/internal/admin"
	"github.com/hounsou/bookstore/internal/analytics"
	"github.com/hounsou/bookstore/internal/cart"
	"github.com/hounsou/bookstore/internal/catalog"
	"github.com/hounsou/bookstore/internal/checkout"
	"github.com/hounsou/bookstore/internal/config"
	"github.com/hounsou/bookstore/internal/domain/consts"
	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	"github.com/hounsou/bookstore/internal/notify"
)

var SecretKey = "VerySecurKey2000Cat" //nolint:gochecknoglobals //demo var

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Role   string
}

// Storage is the full data-store contract the storefront consumes.
type Storage interface {
	GetActiveBooks() ([]models.Book, error)
	GetBook(bid string) (models.Book, error)

	GetCartLines(uid string) ([]models.CartLine, error)
	FindCartItem(uid, bid string) (models.CartItem, error)
	InsertCartItem(models.CartItem) (string, error)
	UpdateCartQuantity(itemID string, quantity int) error
	DeleteCartItem(itemID string) error
	ClearCart(uid string) error

	GetCustomer(uid string) (models.Customer, error)
	UpsertCustomer(models.Customer) (string, error)

	CreateOrder(models.Order, []models.OrderItem) (models.Order, error)
	GetOrder(oid string) (models.Order, []models.OrderItem, error)
	GetOrders() ([]models.Order, error)
	OrdersSince(t time.Time) ([]models.Order, error)
	UpdateOrderStatus(oid string, status models.OrderStatus) error
	UpdatePaymentStatus(oid string, status models.PaymentStatus) error

	SaveUser(models.User) (string, error)
	ValidUser(models.User) (string, error)
	GetUser(uid string) (models.User, error)

	SaveEvent(models.AnalyticsEvent) error
	EventsSince(t time.Time) ([]models.AnalyticsEvent, error)
}

type Server struct {
	serv    *http.Server
	cfg     config.Config
	valid   *validator.Validate
	storage Storage
	books   *catalog.Reader
	cart    *cart.Manager
	orders  *checkout.Builder
	stats   *admin.Aggregator
	hub     *notify.Hub
	events  *analytics.Sink
	ErrChan chan error
}

// New wires the service objects in dependency order: the analytics sink and
// notifier first, the cart on top of the store, checkout on top of both.
func New(cfg config.Config, stor Storage) *Server {
	serv := http.Server{ //nolint:gosec // not today
		Addr: cfg.Addr,
	}
	events := analytics.New(stor, cfg.AnalyticsURL)
	hub := notify.NewHub()
	cartMgr := cart.New(stor, events)
	return &Server{
		serv:    &serv,
		cfg:     cfg,
		valid:   validator.New(),
		storage: stor,
		books:   catalog.New(stor),
		cart:    cartMgr,
		orders:  checkout.New(stor, cartMgr, hub, events),
		stats:   admin.New(stor),
		hub:     hub,
		events:  events,
		ErrChan: make(chan error),
	}
}

func (s *Server) Run(ctx context.Context) error {
	log := logger.Get()
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/books", s.ListBooks)
	router.GET("/books/featured", s.FeaturedBooks)
	router.GET("/books/:id", s.BookInfo)
	router.POST("/events", s.RecordEvent)

	auth := router.Group("/auth")
	{
		auth.POST("/register", s.Register)
		auth.POST("/login", s.Login)
		auth.POST("/logout", s.JWTAuthMiddleware(), s.Logout)
	}

	userArea := router.Group("/", s.JWTAuthMiddleware())
	{
		userArea.GET("/cart", s.ViewCart)
		userArea.POST("/cart", s.AddToCart)
		userArea.PATCH("/cart/:id", s.UpdateCartItem)
		userArea.DELETE("/cart/:id", s.RemoveCartItem)
		userArea.DELETE("/cart", s.ClearCart)
		userArea.POST("/checkout", s.Checkout)
		userArea.GET("/orders/:id/payment-instructions", s.PaymentInstructions)
		userArea.GET("/profile", s.Profile)
		userArea.PUT("/profile", s.UpdateProfile)
	}

	adminArea := router.Group("/admin", s.JWTAuthMiddleware(), s.AdminOnly())
	{
		adminArea.GET("/dashboard", s.Dashboard)
		adminArea.GET("/orders", s.ListOrders)
		adminArea.PATCH("/orders/:id/status", s.UpdateOrderStatus)
		adminArea.PATCH("/orders/:id/payment", s.UpdatePaymentStatus)
		adminArea.GET("/orders/recent", s.RecentOrders)
		adminArea.POST("/orders/recent/clear", s.ClearRecentOrders)
		adminArea.GET("/ws/orders", s.OrdersFeed)
	}

	s.serv.Handler = router
	log.Info().Str("host", s.serv.Addr).Msg("server started")
	if err := s.serv.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) ShutdownServer() error {
	s.hub.Close()
	return s.serv.Shutdown(context.Background())
}

func (s *Server) JWTAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log := logger.Get()

		tokenHeader := ctx.GetHeader("Authorization")
		if tokenHeader == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenParts := strings.Split(tokenHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := validToken(tokenParts[1])
		if err != nil {
			log.Error().Err(err).Msg("validate jwt failed")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		ctx.Set("uid", claims.UserID)
		ctx.Set("role", claims.Role)
		ctx.Next()
	}
}

// AdminOnly gates the dashboard; it runs after JWTAuthMiddleware.
func (s *Server) AdminOnly() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString("role") != "admin" {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		ctx.Next()
	}
}

func validToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func createJWTToken(uid, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(consts.TokenTTL)),
		},
		UserID: uid,
		Role:   role,
	})
	tokenStr, err := token.SignedString([]byte(SecretKey))
	if err != nil {
		return "", err
	}
	return tokenStr, nil
}
