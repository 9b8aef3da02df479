package middleware

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	ExposeHeaders    []string
	MaxAge           int
}

// NewCORSConfig allows the web client plus any CORS_ALLOWED_ORIGINS. An
// empty or "*" client URL allows every origin without credentials.
func NewCORSConfig(clientURL string) *CORSConfig {
	cfg := &CORSConfig{
		AllowMethods:  []string{"GET", "HEAD", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        86400,
	}

	clientURL = strings.TrimSpace(clientURL)
	if clientURL == "" || clientURL == "*" {
		cfg.AllowOrigins = []string{"*"}
		return cfg
	}

	cfg.AllowOrigins = []string{strings.TrimRight(clientURL, "/")}
	if envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); envOrigins != "" {
		for _, origin := range strings.Split(envOrigins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, trimmed)
			}
		}
	}
	cfg.AllowCredentials = true
	return cfg
}

// CORSWithConfig creates a CORS middleware with custom configuration
func CORSWithConfig(config *CORSConfig) echo.MiddlewareFunc {
	return echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     config.AllowOrigins,
		AllowMethods:     config.AllowMethods,
		AllowHeaders:     config.AllowHeaders,
		AllowCredentials: config.AllowCredentials,
		ExposeHeaders:    config.ExposeHeaders,
		MaxAge:           config.MaxAge,
	})
}
