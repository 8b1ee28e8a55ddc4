package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

type authRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Pass     string `json:"pass" validate:"required,min=8"`
	AdminKey string `json:"adminKey"`
}

func (s *Server) Register(ctx *gin.Context) {
	log := logger.Get()
	var req authRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}
	if err := s.valid.Struct(req); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}

	role := "user"
	if s.cfg.AdminKey != "" && req.AdminKey == s.cfg.AdminKey {
		role = "admin"
	}

	uid, err := s.storage.SaveUser(models.User{
		Email: req.Email,
		Pass:  req.Pass,
		Role:  role,
	})
	if err != nil {
		if errors.Is(err, storerrors.ErrUserExists) {
			ctx.String(http.StatusConflict, "User already exists")
			return
		}
		log.Error().Err(err).Msg("save user failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	token, err := createJWTToken(uid, role)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Header("Authorization", token)
	ctx.String(http.StatusCreated, token)
}

func (s *Server) Login(ctx *gin.Context) {
	log := logger.Get()
	var req authRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("unmarshal body failed")
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}

	uid, err := s.storage.ValidUser(models.User{Email: req.Email, Pass: req.Pass})
	if err != nil {
		if errors.Is(err, storerrors.ErrUserNotFound) {
			ctx.String(http.StatusNotFound, "invalid login or password")
			return
		}
		if errors.Is(err, storerrors.ErrInvalidPassword) {
			ctx.String(http.StatusUnauthorized, err.Error())
			return
		}
		log.Error().Err(err).Msg("validate user failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	user, err := s.storage.GetUser(uid)
	if err != nil {
		log.Error().Err(err).Msg("failed to retrieve user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "unable to fetch user details"})
		return
	}

	// The persisted cart survives sign-out; reload it into the session now.
	if _, err := s.cart.Load(uid); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("cart reload on login failed")
	}

	token, err := createJWTToken(uid, user.Role)
	if err != nil {
		log.Error().Err(err).Msg("create jwt failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	ctx.Header("Authorization", token)
	ctx.JSON(http.StatusOK, gin.H{"uid": uid, "role": user.Role, "token": token})
}

// Logout tears the session down: the in-memory cart snapshot is dropped,
// persisted cart rows are left alone.
func (s *Server) Logout(ctx *gin.Context) {
	uid := ctx.GetString("uid")
	s.cart.Forget(uid)
	ctx.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (s *Server) Profile(ctx *gin.Context) {
	uid := ctx.GetString("uid")
	customer, err := s.storage.GetCustomer(uid)
	if err != nil {
		if errors.Is(err, storerrors.ErrCustomerNotFound) {
			ctx.String(http.StatusNotFound, err.Error())
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	ctx.JSON(http.StatusOK, customer)
}

func (s *Server) UpdateProfile(ctx *gin.Context) {
	log := logger.Get()
	uid := ctx.GetString("uid")

	var customer models.Customer
	if err := ctx.ShouldBindJSON(&customer); err != nil {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}
	customer.UID = uid
	if err := s.valid.Struct(customer); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cid, err := s.storage.UpsertCustomer(customer)
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("profile upsert failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	customer.CID = cid
	ctx.JSON(http.StatusOK, customer)
}

// RecordEvent ingests a client-side analytics event. Always 202: the sink
// swallows its own failures.
func (s *Server) RecordEvent(ctx *gin.Context) {
	var req struct {
		Name      string         `json:"name" validate:"required"`
		SessionID string         `json:"session_id"`
		UID       string         `json:"uid"`
		Attrs     map[string]any `json:"attrs"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Name == "" {
		ctx.String(http.StatusBadRequest, "incorrectly entered data")
		return
	}
	s.events.Record(req.Name, req.SessionID, req.UID, req.Attrs)
	ctx.Status(http.StatusAccepted)
}
