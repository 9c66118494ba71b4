package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/omnireplyhq/omnireply/internal/auth"
	"github.com/omnireplyhq/omnireply/internal/handlers"
)

// requestValidator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

type Server struct {
	echo *echo.Echo
	addr string
}

func NewServer(log *slog.Logger, addr string, jwtSecret string, pingHandler *handlers.PingHandler, messageHandler *handlers.MessageHandler, telegramHandler *handlers.TelegramHandler) *Server {
	if addr == "" {
		addr = ":8080"
	}
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("error", v.Error))
				log.LogAttrs(c.Request().Context(), slog.LevelWarn, "request", attrs...)
				return nil
			}
			log.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	e.Use(auth.JWTMiddleware(jwtSecret, func(c echo.Context) bool {
		return shouldSkipJWT(c.Request().URL.Path)
	}))

	if pingHandler != nil {
		pingHandler.Register(e)
	}
	if messageHandler != nil {
		messageHandler.Register(e)
	}
	if telegramHandler != nil {
		telegramHandler.Register(e)
	}

	return &Server{
		echo: e,
		addr: addr,
	}
}

// shouldSkipJWT exempts health probes and platform webhooks from token
// auth. Webhook updates carry no tenant token; the tenant is bound into
// the webhook URL when it is registered with the platform.
func shouldSkipJWT(path string) bool {
	if path == "/ping" || path == "/health" {
		return true
	}
	return strings.HasPrefix(path, "/webhooks/")
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
