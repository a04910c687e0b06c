package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection-portal/internal/auth"
	"inspection-portal/internal/config"
	"inspection-portal/internal/middleware"
	"inspection-portal/internal/policy"
)

// AuthHandler handles signup, login and logout
type AuthHandler struct {
	auth *auth.Service
	cfg  config.SessionConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *auth.Service, cfg config.SessionConfig) *AuthHandler {
	return &AuthHandler{auth: svc, cfg: cfg}
}

type loginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Remember bool   `json:"remember" form:"remember"`
}

// LoginPage returns the pending messages for the login screen
func (h *AuthHandler) LoginPage(c *gin.Context) {
	page(c, gin.H{"page": "login"})
}

// Signup registers an owner or inspector account
func (h *AuthHandler) Signup(c *gin.Context) {
	var in auth.SignupInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}

	msg := "Account created, please log in"
	if user.IsPendingInspector() {
		msg = "Account created. An admin must approve inspector accounts before you can inspect"
	}
	done(c, msg, "/login")
}

// Login starts a session and sends the user to their dashboard
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginForm
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), in.Email, in.Password, in.Remember)
	if errors.Is(err, auth.ErrBanned) {
		c.Redirect(http.StatusSeeOther, "/banned")
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	actor, err := h.auth.Resolve(c.Request.Context(), sess.Token)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.SetSessionCookie(c, h.cfg, sess)
	done(c, "Welcome back", policy.DashboardPath(actor.Role))
}

// Logout ends the current session
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c); token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			log.Printf("[Auth] logout failed: %v", err)
		}
	}
	middleware.ClearSessionCookie(c, h.cfg)
	done(c, "You have been logged out", "/login")
}

// Banned is shown to users whose account was banned
func (h *AuthHandler) Banned(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"error":   "Account banned",
		"message": "Your account has been banned. Contact an administrator.",
	})
}

// Health reports liveness
func (h *AuthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
