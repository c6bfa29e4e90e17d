package middleware

import (
	"net/http"

	"PulseChat/global"

	"github.com/gin-gonic/gin"
)

// Origin answers CORS preflight and stamps the allow headers for the origins
// configured in global.Conf. Requests without an Origin header pass through.
func Origin() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string) bool {
	for _, o := range global.Conf.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
