package cors

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the API CORS policy on top of gin-contrib/cors. An empty origin
// list reflects any origin so browser clients can still send credentials.
func New(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}

	origins := normalizeOrigins(allowedOrigins)
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// normalizeOrigins drops trailing slashes and anything that is not an http(s) origin.
func normalizeOrigins(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, origin := range raw {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			out = append(out, origin)
		}
	}
	return out
}
