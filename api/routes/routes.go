package routes

import (
	"errors"
	"net/http"
	"time"

	"staffingauth/api/handler"
	"staffingauth/api/middleware"
	"staffingauth/internal/dto"
	"staffingauth/internal/entity"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Tokens         *handler.TokenHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	MailRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	Logger         logrus.FieldLogger
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	tokenHandler *handler.TokenHandler,
	authMiddleware middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
	logger logrus.FieldLogger,
) *Router {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Tokens:         tokenHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		MailRate:       middleware.NewRateLimiter(rate.Every(20*time.Second), 3, 10*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
		Gatherer:       gatherer,
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	e.HideBanner = true
	e.HTTPErrorHandler = r.errorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: r.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "x-client-info", "apikey"},
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			r.Logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
			}).Info("request")
			return nil
		},
	}))

	e.POST("/auth/register", r.Auth.Register, r.MailRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	e.POST("/auth/verification/send", r.Tokens.SendVerification, r.MailRate.Middleware())
	e.POST("/auth/verify-email", r.Tokens.VerifyEmail, r.AuthRate.Middleware())
	e.POST("/auth/password/forgot", r.Tokens.PasswordForgot, r.MailRate.Middleware())
	e.POST("/auth/password/reset", r.Tokens.PasswordReset, r.AuthRate.Middleware())

	admin := e.Group("/admin", r.AuthMiddleware.RequireAuth, middleware.RequireRole(string(entity.RoleAdmin)))
	admin.POST("/tokens/sweep", r.Tokens.AdminSweep)
	admin.GET("/users/:id/token-events", r.Tokens.AdminTokenEvents)

	if r.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{})))
	}
}

// errorHandler renders echo errors (404, 405, 401 from middleware, 429) with
// the same body shape as handler errors.
func (r *Router) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	} else {
		r.Logger.WithError(err).Error("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, dto.ErrorResponse{Error: message})
	}
	if err != nil {
		r.Logger.WithError(err).Warn("write error response")
	}
}
