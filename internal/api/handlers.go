package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/litigation-tracker/internal/blob"
	"github.com/rongwang/litigation-tracker/internal/importer"
	"github.com/rongwang/litigation-tracker/internal/metrics"
	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/service"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes bounds document uploads and import manifests.
const DefaultMaxUploadBytes int64 = 50 << 20

// Options configures a Handler. Zero values fall back to defaults.
type Options struct {
	Logger             *zap.Logger
	Metrics            *metrics.Metrics
	LoginRatePerMinute int
	MaxUploadBytes     int64
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Handler serves the HTTP API
type Handler struct {
	svc       service.Service
	blobs     blob.Store
	importer  *importer.Importer
	logger    *zap.Logger
	metrics   *metrics.Metrics
	loginRate int
	maxUpload int64
	ready     func(ctx context.Context) error
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, blobs blob.Store, im *importer.Importer, opts Options) *Handler {
	h := &Handler{
		svc:       svc,
		blobs:     blobs,
		importer:  im,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		loginRate: opts.LoginRatePerMinute,
		maxUpload: opts.MaxUploadBytes,
		ready:     opts.Ready,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.maxUpload <= 0 {
		h.maxUpload = DefaultMaxUploadBytes
	}
	return h
}

// SetupRoutes registers every route on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group("/api")
	api.POST("/auth/login", LoginRateLimit(h.loginRate), h.Login)

	authed := api.Group("")
	authed.Use(h.AuthMiddleware())
	{
		authed.GET("/me", h.Me)
		authed.POST("/me/password", h.ChangePassword)
		authed.GET("/dashboard", h.Dashboard)

		cases := authed.Group("/cases")
		cases.GET("", h.ListCases)
		cases.POST("", h.CreateCase)
		cases.GET("/:id", h.GetCase)
		cases.PUT("/:id", h.UpdateCase)
		cases.POST("/:id/status", h.TransitionCase)
		cases.GET("/:id/parties", h.ListParties)
		cases.POST("/:id/parties", h.AddParty)
		cases.GET("/:id/hearings", h.ListHearings)
		cases.POST("/:id/hearings", h.AddHearing)
		cases.GET("/:id/documents", h.ListDocuments)
		cases.POST("/:id/documents", h.UploadDocument)

		authed.GET("/documents/:id", h.GetDocument)
		authed.GET("/documents/:id/download", h.DownloadDocument)

		authed.POST("/import", h.Import)
		authed.GET("/import/template", h.ImportTemplate)

		users := authed.Group("/users")
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.PATCH("/:username", h.UpdateUser)
		users.DELETE("/:username", h.DeleteUser)
		users.POST("/:username/password", h.ResetPassword)
	}
}

func (h *Handler) Health(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(c.Request.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			abortWithError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Authentication

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Username and password are required")
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), identityFrom(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Password changed"})
}

// User management

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UsersResponse{Status: "success", Users: users, MaxUsers: service.MaxUsers})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), identityFrom(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.UserResponse{Status: "success", User: user})
}

// UpdateUser changes the active flag and/or role of an account.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Active == nil && req.Role == nil {
		badRequest(c, "Nothing to update")
		return
	}

	upd := models.UserUpdate{Active: req.Active}
	if req.Role != nil {
		role := models.Role(*req.Role)
		upd.Role = &role
	}
	user, err := h.svc.UpdateUser(c.Request.Context(), identityFrom(c), c.Param("username"), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), identityFrom(c), c.Param("username")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "User deleted"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), identityFrom(c), c.Param("username"), req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Password reset"})
}
