package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection-portal/internal/dashboard"
	"inspection-portal/internal/properties"
	"inspection-portal/internal/search"
	"inspection-portal/internal/workflow"
)

// OwnerHandler serves the owner's dashboard, properties and requests
type OwnerHandler struct {
	dashboard  *dashboard.Service
	properties *properties.Service
	workflow   *workflow.Service
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(dash *dashboard.Service, props *properties.Service, wf *workflow.Service) *OwnerHandler {
	return &OwnerHandler{dashboard: dash, properties: props, workflow: wf}
}

// Dashboard returns the owner's summary
func (h *OwnerHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Owner(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"stats": stats})
}

// ListProperties returns the owner's properties
func (h *OwnerHandler) ListProperties(c *gin.Context) {
	props, err := h.properties.List(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"properties": props, "count": len(props)})
}

// AddProperty registers a property
func (h *OwnerHandler) AddProperty(c *gin.Context) {
	var in properties.Input
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.properties.Add(c.Request.Context(), actor(c), in); err != nil {
		fail(c, err)
		return
	}
	done(c, "Property added", "/properties")
}

// DeleteProperty removes one of the owner's properties
func (h *OwnerHandler) DeleteProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.properties.Delete(c.Request.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	done(c, "Property deleted", "/properties")
}

// ListRequests returns the owner's requests, optionally narrowed by ?status=
func (h *OwnerHandler) ListRequests(c *gin.Context) {
	reqs, err := h.workflow.List(c.Request.Context(), actor(c), search.ParseStatuses(c.Query("status"))...)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"requests": reqs, "count": len(reqs)})
}

// CreateRequest files a new inspection request
func (h *OwnerHandler) CreateRequest(c *gin.Context) {
	var in workflow.CreateInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := h.workflow.CreateRequest(c.Request.Context(), actor(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	done(c, "Inspection requested", fmt.Sprintf("/requests/%d", req.ID))
}

// PayRequest pays for an approved or completed request.
// The amount field is optional and defaults to the fee.
func (h *OwnerHandler) PayRequest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	amount, err := parseAmount(c.PostForm("amount"))
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := h.workflow.Pay(c.Request.Context(), actor(c), id, amount); err != nil {
		fail(c, err)
		return
	}
	done(c, "Payment received", fmt.Sprintf("/requests/%d", id))
}

// RequestHandler serves request detail to any participant
type RequestHandler struct {
	workflow *workflow.Service
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(wf *workflow.Service) *RequestHandler {
	return &RequestHandler{workflow: wf}
}

// Get returns a request with its report, payment and history
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.workflow.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"detail": detail})
}

// History returns the status changes of a request
func (h *RequestHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	changes, err := h.workflow.History(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": changes, "count": len(changes)})
}
