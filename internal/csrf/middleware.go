package csrf

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderName is the request and response header carrying CSRF tokens
const HeaderName = "X-CSRF-Token"

// FormFieldName is the form field carrying CSRF tokens on SSR traffic
const FormFieldName = "csrf_token"

// Middleware runs the CSRF engine for every request and applies the
// engine's response mutation decisions. Session and user identity, when
// present, come from values earlier middleware stored on the context.
func Middleware(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &Request{
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			Host:        c.Request.Host,
			ContentType: c.ContentType(),
			Referer:     c.Request.Referer(),
			HeaderToken: c.GetHeader(HeaderName),
			FormToken:   c.PostForm(FormFieldName),
		}

		if cookie, err := c.Cookie(engine.Policy().Cookie.Name); err == nil {
			req.CookieToken = cookie
		}

		decision := engine.Check(req, c.GetString("session_id"), c.GetString("user_id"))

		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Forbidden",
			})
			return
		}

		if decision.FreshToken != "" {
			applyDecision(c, decision)
		}

		c.Next()
	}
}

// applyDecision attaches the fresh token per the engine's delivery choice
func applyDecision(c *gin.Context, d Decision) {
	if d.SetHeader {
		c.Header(HeaderName, d.FreshToken)
	}

	if d.SetCookie {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     d.Cookie.Name,
			Value:    d.FreshToken,
			Path:     d.Cookie.Path,
			Domain:   d.Cookie.Domain,
			Secure:   d.Cookie.Secure,
			HttpOnly: d.Cookie.HttpOnly,
			SameSite: d.Cookie.SameSite,
		})
	}
}
