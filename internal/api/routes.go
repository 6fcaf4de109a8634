package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/auth"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/websocket"
)

// ServiceName is reported by the health check
const ServiceName = "empathy-avatar"

// RouteConfig configures the web front end
// - WebRoot: directory served at / (skipped when missing)
// - JWTSecret: when set, /ws requires a listener token
type RouteConfig struct {
	WebRoot   string
	JWTSecret []byte
}

// InitRoutes initializes all HTTP routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, config RouteConfig, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:    "ok",
			Service:   ServiceName,
			Listeners: hub.ClientCount(),
		})
	})

	// WebSocket endpoint, JWT protected when a secret is configured
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, config.JWTSecret, logger)
	})

	if config.WebRoot != "" {
		if info, err := os.Stat(config.WebRoot); err == nil && info.IsDir() {
			e.Static("/", config.WebRoot)
			logger.Info("Serving web root", zap.String("dir", config.WebRoot))
		} else {
			logger.Warn("Web root not found, static files disabled", zap.String("dir", config.WebRoot))
		}
	}
}

// websocketWithAuth attaches a listener after checking its token
func websocketWithAuth(hub *websocket.Hub, c echo.Context, secret []byte, logger *zap.Logger) error {
	if len(secret) == 0 {
		return hub.Serve(c, c.QueryParam("name"))
	}

	token := bearerToken(c.Request())
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Listener token is required in Authorization header or token query parameter",
		})
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired listener token",
		})
	}

	logger.Info("WebSocket connection authenticated", zap.String("name", claims.Name))
	return hub.Serve(c, claims.Name)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
