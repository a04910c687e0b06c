package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/middleware"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
)

// fail writes the response for a service error. User mistakes get their
// category status; anything else is a system fault and is logged.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		middleware.AddFlash(c, "error", apperr.Message(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": apperr.Message(err)})
	case errors.Is(err, apperr.ErrNotFound):
		middleware.AddFlash(c, "error", apperr.Message(err))
		c.JSON(http.StatusNotFound, gin.H{"error": apperr.Message(err)})
	case errors.Is(err, apperr.ErrForbidden):
		middleware.AddFlash(c, "error", apperr.Message(err))
		c.Redirect(http.StatusFound, home(c))
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": apperr.Message(err)})
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// done flashes a success message and redirects after a form post
func done(c *gin.Context, message, location string) {
	middleware.AddFlash(c, "success", message)
	c.Redirect(http.StatusSeeOther, location)
}

// page renders a GET response with the pending flash messages
func page(c *gin.Context, body gin.H) {
	body["messages"] = middleware.PopFlashes(c)
	c.JSON(http.StatusOK, body)
}

func home(c *gin.Context) string {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return "/login"
	}
	return policy.DashboardPath(actor.Role)
}

// actor returns the current actor; routes using it sit behind Require
func actor(c *gin.Context) policy.Actor {
	a, _ := middleware.CurrentActor(c)
	return a
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// parseAmount reads an optional decimal amount ("150.00") from the form
func parseAmount(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	cents, err := models.ParseAmount(raw)
	if err != nil {
		return nil, apperr.Validation("amount must be a decimal number with at most two places")
	}
	return &cents, nil
}
