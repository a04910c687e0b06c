package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-portal/internal/auth"
	"inspection-portal/internal/config"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/ratelimit"
)

type fakeSessions struct {
	actors    map[string]policy.Actor
	destroyed []uint
}

func (f *fakeSessions) Login(context.Context, string, string, bool) (*models.Session, error) {
	return nil, auth.ErrInvalidCredentials
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (policy.Actor, error) {
	a, ok := f.actors[token]
	if !ok {
		return policy.Actor{}, auth.ErrInvalidSession
	}
	return a, nil
}

func (f *fakeSessions) Logout(_ context.Context, token string) error {
	delete(f.actors, token)
	return nil
}

func (f *fakeSessions) DestroyUserSessions(_ context.Context, userID uint) error {
	f.destroyed = append(f.destroyed, userID)
	for tok, a := range f.actors {
		if a.ID == userID {
			delete(f.actors, tok)
		}
	}
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(sessions *fakeSessions) *gin.Engine {
	cfg := config.DefaultConfig()
	r := gin.New()
	r.Use(LoadSession(sessions, cfg.Session))
	r.Use(BanGuard(sessions, cfg.Session, cfg.Server.BanExemptPrefixes))

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/dashboard", Require(policy.ViewOwnerDashboard), ok)
	r.GET("/inspector/dashboard", Require(policy.ViewInspectorDashboard), ok)
	r.GET("/admin/dashboard", Require(policy.ViewAdminDashboard), ok)
	r.GET("/messages", RequireLogin(), ok)
	r.GET("/static/app.css", ok)
	r.GET("/banned", ok)
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: config.DefaultConfig().Session.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRedirectsWrongRole(t *testing.T) {
	sessions := &fakeSessions{actors: map[string]policy.Actor{
		"owner": {ID: 1, Role: models.RoleOwner, Approved: true},
		"insp":  {ID: 2, Role: models.RoleInspector, Approved: true},
		"admin": {ID: 3, Role: models.RoleAdmin, Approved: true},
	}}
	r := newRouter(sessions)

	tests := []struct {
		token, path, location string
	}{
		{"owner", "/admin/dashboard", "/dashboard"},
		{"owner", "/inspector/dashboard", "/dashboard"},
		{"insp", "/dashboard", "/inspector/dashboard"},
		{"insp", "/admin/dashboard", "/inspector/dashboard"},
		{"admin", "/dashboard", "/admin/dashboard"},
		{"admin", "/inspector/dashboard", "/admin/dashboard"},
		{"", "/dashboard", "/login"},
		{"bogus", "/admin/dashboard", "/login"},
	}
	for _, tt := range tests {
		w := get(r, tt.path, tt.token)
		assert.Equal(t, http.StatusFound, w.Code, "%s %s", tt.token, tt.path)
		assert.Equal(t, tt.location, w.Header().Get("Location"), "%s %s", tt.token, tt.path)
		assert.NotContains(t, w.Body.String(), `"ok"`)
	}

	assert.Equal(t, http.StatusOK, get(r, "/dashboard", "owner").Code)
	assert.Equal(t, http.StatusOK, get(r, "/messages", "insp").Code)
}

func TestUnapprovedInspectorDoesNotLoop(t *testing.T) {
	sessions := &fakeSessions{actors: map[string]policy.Actor{
		"pending": {ID: 4, Role: models.RoleInspector},
	}}
	w := get(newRouter(sessions), "/inspector/dashboard", "pending")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "awaiting approval")
}

func TestBanGuard(t *testing.T) {
	sessions := &fakeSessions{actors: map[string]policy.Actor{
		"banned":  {ID: 5, Role: models.RoleOwner, Approved: true, Banned: true},
		"banned2": {ID: 6, Role: models.RoleOwner, Approved: true, Banned: true},
	}}
	r := newRouter(sessions)

	// Exempt paths are served without ending the session
	assert.Equal(t, http.StatusOK, get(r, "/static/app.css", "banned").Code)
	assert.Empty(t, sessions.destroyed)

	w := get(r, "/messages", "banned")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/banned", w.Header().Get("Location"))
	assert.Equal(t, []uint{5}, sessions.destroyed)

	// The session is gone: the next request is anonymous
	w = get(r, "/messages", "banned")
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = get(r, "/dashboard", "banned2")
	assert.Equal(t, "/banned", w.Header().Get("Location"))
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(ratelimit.NewRateLimiter(2, 0, true)), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestFlashRoundTrip(t *testing.T) {
	r := gin.New()
	r.GET("/set", func(c *gin.Context) {
		AddFlash(c, "success", "Saved")
		AddFlash(c, "info", "Twice")
		c.Redirect(http.StatusSeeOther, "/show")
	})
	r.GET("/show", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"messages": PopFlashes(c)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// The browser keeps the last value set for a cookie name
	req := httptest.NewRequest(http.MethodGet, "/show", nil)
	req.AddCookie(cookies[len(cookies)-1])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "Saved")
	assert.Contains(t, w.Body.String(), "Twice")
}
