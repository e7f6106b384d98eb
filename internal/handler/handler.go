// Package handler serves the HTTP JSON API. Every body it writes is an
// api.Response envelope.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"grab-a-time/internal/account"
	"grab-a-time/internal/api"
	"grab-a-time/internal/booking"
	"grab-a-time/internal/handle"
	"grab-a-time/internal/middleware"
	"grab-a-time/internal/model"
	"grab-a-time/internal/store"
)

type Handler struct {
	meetings *booking.Service
	accounts *account.Service
	secret   string
	limiter  *middleware.RateLimiter
	log      *zap.Logger
	proxies  []string
}

type Option func(*Handler)

// WithTrustedProxies lists the addresses or CIDRs whose X-Forwarded-For is
// believed. With none, the client IP is always the peer address.
func WithTrustedProxies(proxies []string) Option {
	return func(h *Handler) { h.proxies = proxies }
}

func New(meetings *booking.Service, accounts *account.Service, secret string, limiter *middleware.RateLimiter, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{meetings: meetings, accounts: accounts, secret: secret, limiter: limiter, log: log}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Router builds the gin engine with every route mounted.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	// rate limiting keys on ClientIP, which must not come from a spoofable header
	if err := r.SetTrustedProxies(h.proxies); err != nil {
		h.log.Error("invalid trusted proxies, trusting none", zap.Strings("proxies", h.proxies), zap.Error(err))
		r.SetTrustedProxies(nil)
	}
	r.Use(h.recovery())
	r.Use(h.requestLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := middleware.RateLimitHTTP(h.limiter, h.log)

	owner := r.Group("/owner")
	{
		owner.POST("/register", limit, h.register)
		owner.POST("/login", limit, h.login)
		owner.POST("/refresh", limit, h.refresh)
		owner.POST("/logout", middleware.OwnerAuth(h.secret), h.logout)
		owner.POST("/:ownerID/meeting/", limit, h.bookMeeting)
	}

	guest := r.Group("/meeting")
	{
		guest.GET("/:handle", h.getMeeting)
		guest.PUT("/:handle", h.editMeeting)
		guest.DELETE("/:handle", h.cancelMeeting)
	}

	my := r.Group("/my", middleware.OwnerAuth(h.secret))
	{
		my.GET("/meeting/", h.listMyMeetings)
		my.GET("/meeting/:handle", h.getMyMeeting)
		my.DELETE("/meeting/:handle", h.cancelMyMeeting)
	}

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, api.Success(gin.H{"status": "up"}))
}

// fail maps a service error onto a status code and an error envelope.
// Unknown errors are logged and reported as a bare "internal error".
func (h *Handler) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, handle.ErrInvalidHandle),
		errors.Is(err, model.ErrInvalidField),
		errors.Is(err, model.ErrInvalidTimestamp),
		errors.Is(err, model.ErrInvalidDuration),
		errors.Is(err, booking.ErrInPast),
		errors.Is(err, account.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrOwnerNotFound):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrSlotTaken),
		errors.Is(err, store.ErrDuplicateEmail):
		code = http.StatusConflict
	case errors.Is(err, account.ErrBadCredentials):
		code = http.StatusUnauthorized
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal error"
	}
	c.AbortWithStatusJSON(code, api.Error[any](msg))
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.Error[any](msg))
}

func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		h.log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.Error[any]("internal error"))
	})
}

func (h *Handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
