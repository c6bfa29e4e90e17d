package security

import (
	"net/http"
	"strings"

	"PulseChat/global"
	"PulseChat/logger"
	"PulseChat/tools/errs"
	sec "PulseChat/tools/security"

	"github.com/gin-gonic/gin"
)

// context key the downstream handlers read the authenticated user id from
const CtxUserIDKey = "authUserID"

type Options struct {
	Secret []byte
}

func DefaultOptions() *Options {
	return &Options{Secret: global.GetJwtSecret()}
}

// Middleware validates "Authorization: Bearer <access token>" and stores the
// authenticated user id in the gin context.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		var token string
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[len("bearer "):])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthorized)
			return
		}

		claims, err := sec.Verify(sec.DefaultOptions(opts.Secret), token, sec.TokenAccess)
		if err != nil {
			// log the digest, never the token itself
			logger.Warnf("bearer token rejected hash=%s: %v", sec.HashToken(token), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid.WithDetail(err.Error()))
			return
		}

		c.Set(CtxUserIDKey, claims.UserID())
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
