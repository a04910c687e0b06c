package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection-portal/internal/dashboard"
	"inspection-portal/internal/models"
	"inspection-portal/internal/search"
	"inspection-portal/internal/workflow"
)

// InspectorHandler serves the inspector's work queue
type InspectorHandler struct {
	dashboard *dashboard.Service
	workflow  *workflow.Service
}

// NewInspectorHandler creates a new inspector handler
func NewInspectorHandler(dash *dashboard.Service, wf *workflow.Service) *InspectorHandler {
	return &InspectorHandler{dashboard: dash, workflow: wf}
}

// Dashboard returns the inspector's summary
func (h *InspectorHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Inspector(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"stats": stats})
}

// ListRequests returns requests assigned to the inspector. Without ?status=
// it shows the ones still waiting for a decision.
func (h *InspectorHandler) ListRequests(c *gin.Context) {
	statuses := search.ParseStatuses(c.Query("status"))
	if c.Query("status") == "" {
		statuses = []models.RequestStatus{models.StatusAssigned}
	}
	reqs, err := h.workflow.List(c.Request.Context(), actor(c), statuses...)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"requests": reqs, "count": len(reqs)})
}

// Decide files the inspection report for an assigned request
func (h *InspectorHandler) Decide(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in workflow.DecisionInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.workflow.Decide(c.Request.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	done(c, fmt.Sprintf("Request %s", report.Decision.Status()), "/inspector/requests")
}

// Complete closes an approved request
func (h *InspectorHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.workflow.Complete(c.Request.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	done(c, "Request completed", fmt.Sprintf("/requests/%d", id))
}
