package tenant

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKey is the gin context key the validated tenant context is
// stored under. It does not survive the request.
const ContextKey = "tenant_context"

// Middleware runs the boundary enforcer for every request. Rejections
// answer with a generic 403 body; the specific reason stays in logs and
// metrics so it cannot guide an attacker probing the boundary.
func Middleware(enforcer *Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &Request{
			Path:   c.Request.URL.Path,
			Host:   c.Request.Host,
			Header: c.Request.Header,
		}

		tc, err := enforcer.Enforce(c.Request.Context(), req)
		if err != nil {
			var rejection *RejectionError
			if errors.As(err, &rejection) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "Forbidden",
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			return
		}

		if tc != nil {
			c.Set(ContextKey, tc)
		}

		c.Next()
	}
}

// FromGin returns the validated tenant context attached to the request,
// or nil for exempt paths.
func FromGin(c *gin.Context) *Context {
	value, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}

	tc, ok := value.(*Context)
	if !ok {
		return nil
	}

	return tc
}
