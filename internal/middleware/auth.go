// Package middleware holds the gin middleware shared by every route: session
// loading, role checks, ban enforcement, rate limiting and flash messages.
package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"inspection-portal/internal/auth"
	"inspection-portal/internal/config"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/ratelimit"
)

const (
	actorKey = "actor"
	tokenKey = "session_token"
)

// CurrentActor returns the authenticated actor, if any
func CurrentActor(c *gin.Context) (policy.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return policy.Actor{}, false
	}
	a, ok := v.(policy.Actor)
	return a, ok
}

// SessionToken returns the token of the current session
func SessionToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// SetSessionCookie writes the session cookie. Remembered sessions persist
// across browser restarts; others are browser-session cookies.
func SetSessionCookie(c *gin.Context, cfg config.SessionConfig, sess *models.Session) {
	maxAge := 0
	if sess.Remember {
		maxAge = int(time.Until(sess.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, sess.Token, maxAge, "/", "", cfg.Secure, true)
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(c *gin.Context, cfg config.SessionConfig) {
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
}

// LoadSession resolves the session cookie into the current actor.
// Requests without a valid session continue anonymously.
func LoadSession(sessions auth.SessionService, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		actor, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) {
				log.Printf("[Session] failed to resolve session: %v", err)
			}
			ClearSessionCookie(c, cfg)
			c.Next()
			return
		}

		c.Set(actorKey, actor)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// Require lets the request through only if the actor may perform action.
// Anonymous users go to /login; others go back to their own dashboard.
func Require(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			AddFlash(c, "error", "Please log in first")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		decision := policy.Authorize(actor, action)
		if decision.Allowed {
			c.Next()
			return
		}

		home := policy.DashboardPath(actor.Role)
		if c.Request.URL.Path == home {
			// Redirecting home would loop
			c.JSON(http.StatusForbidden, gin.H{"error": decision.Reason})
			c.Abort()
			return
		}
		AddFlash(c, "error", "You are not allowed to do that: "+decision.Reason)
		c.Redirect(http.StatusFound, home)
		c.Abort()
	}
}

// RequireLogin lets any authenticated actor through
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentActor(c); !ok {
			AddFlash(c, "error", "Please log in first")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// BanGuard ends the session of a banned user and sends them to /banned,
// except on paths starting with one of the exempt prefixes
func BanGuard(sessions auth.SessionService, cfg config.SessionConfig, exemptPrefixes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok || !actor.Banned || isExempt(c.Request.URL.Path, exemptPrefixes) {
			c.Next()
			return
		}

		if err := sessions.DestroyUserSessions(c.Request.Context(), actor.ID); err != nil {
			log.Printf("[Ban] failed to destroy sessions user_id=%d: %v", actor.ID, err)
		}
		ClearSessionCookie(c, cfg)
		c.Set(actorKey, nil)

		log.Printf("[Ban] logged out banned user_id=%d path=%s", actor.ID, c.Request.URL.Path)
		c.Redirect(http.StatusFound, "/banned")
		c.Abort()
	}
}

func isExempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// RateLimit returns a Gin middleware that enforces rate limiting per client IP
func RateLimit(rl *ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !rl.AllowRequest(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   rl.GetStats(key),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
