package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the comma-separated origins to call the API. "*" allows any
// origin.
func CORS(origins string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept", CorrelationIDHeader, LegacyCorrelationIDHeader},
		ExposeHeaders:    []string{CorrelationIDHeader, TraceIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o == "" {
			continue
		}
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			cfg.AllowOrigins = nil
			break
		}
		cfg.AllowOrigins = append(cfg.AllowOrigins, o)
	}
	if len(cfg.AllowOrigins) == 0 && cfg.AllowOriginFunc == nil {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}

	return cors.New(cfg)
}
