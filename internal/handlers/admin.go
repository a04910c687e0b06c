package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inspection-portal/internal/accounts"
	"inspection-portal/internal/cleanup"
	"inspection-portal/internal/dashboard"
	"inspection-portal/internal/ledger"
	"inspection-portal/internal/messaging"
	"inspection-portal/internal/models"
	"inspection-portal/internal/scheduler"
	"inspection-portal/internal/search"
	"inspection-portal/internal/snapshot"
	"inspection-portal/internal/workflow"
)

// AdminServices are the services behind the admin routes
type AdminServices struct {
	Dashboard *dashboard.Service
	Accounts  *accounts.Service
	Workflow  *workflow.Service
	Ledger    *ledger.Service
	Messaging *messaging.Service
	Searcher  search.Searcher
}

// AdminHandler handles admin-related requests
type AdminHandler struct {
	svc             AdminServices
	scheduler       *scheduler.Scheduler
	snapshotService *snapshot.Service
	cleanupService  *cleanup.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, svc AdminServices) *AdminHandler {
	return &AdminHandler{
		svc:             svc,
		scheduler:       sched,
		snapshotService: snapshot.NewService(db),
		cleanupService:  cleanup.NewService(db),
	}
}

// Dashboard returns system statistics
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard.Admin(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	body := gin.H{"stats": stats}

	changes, err := h.snapshotService.GetRecentChanges(10)
	if err != nil {
		log.Printf("Failed to get recent changes: %v", err)
	} else {
		body["recent_changes"] = changes
	}

	deleteStats, err := h.cleanupService.GetDeleteStats()
	if err != nil {
		log.Printf("Failed to get delete stats: %v", err)
	} else {
		body["deletions"] = deleteStats
	}

	page(c, body)
}

// ListRequests returns requests, optionally narrowed by ?status=, together
// with the inspectors available for assignment
func (h *AdminHandler) ListRequests(c *gin.Context) {
	reqs, err := h.svc.Workflow.List(c.Request.Context(), actor(c), search.ParseStatuses(c.Query("status"))...)
	if err != nil {
		fail(c, err)
		return
	}
	inspectors, err := h.svc.Accounts.AvailableInspectors(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{
		"requests":   reqs,
		"count":      len(reqs),
		"inspectors": inspectors,
	})
}

// Assign gives a pending request to an inspector
func (h *AdminHandler) Assign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	inspectorID, err := strconv.ParseUint(c.PostForm("inspector_id"), 10, 64)
	if err != nil || inspectorID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inspector_id"})
		return
	}
	if _, err := h.svc.Workflow.Assign(c.Request.Context(), actor(c), id, uint(inspectorID)); err != nil {
		fail(c, err)
		return
	}
	done(c, fmt.Sprintf("Request %d assigned", id), "/admin/requests")
}

// Complete closes an approved request on the inspector's behalf
func (h *AdminHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Workflow.Complete(c.Request.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	done(c, fmt.Sprintf("Request %d completed", id), "/admin/requests")
}

// PendingInspectors lists inspectors awaiting approval
func (h *AdminHandler) PendingInspectors(c *gin.Context) {
	users, err := h.svc.Accounts.PendingInspectors(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"inspectors": users, "count": len(users)})
}

// ApproveInspector lets a pending inspector work
func (h *AdminHandler) ApproveInspector(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.svc.Accounts.Approve(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	done(c, fmt.Sprintf("Inspector %s approved", user.Email), "/admin/inspectors/pending")
}

// RejectInspector deletes a pending inspector
func (h *AdminHandler) RejectInspector(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Accounts.Reject(c.Request.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	done(c, "Inspector rejected and removed", "/admin/inspectors/pending")
}

// Ban blocks a user; their session ends on their next request
func (h *AdminHandler) Ban(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Accounts.Ban(c.Request.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	done(c, fmt.Sprintf("User %d banned", id), "/admin/dashboard")
}

// Unban lifts a ban
func (h *AdminHandler) Unban(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Accounts.Unban(c.Request.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	done(c, fmt.Sprintf("User %d unbanned", id), "/admin/dashboard")
}

// Balance returns the accumulated payments
func (h *AdminHandler) Balance(c *gin.Context) {
	balance, err := h.svc.Ledger.Balance(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{
		"balance":        balance,
		"balance_amount": models.FormatAmount(balance),
	})
}

// Reconcile recomputes the balance from the ledger
func (h *AdminHandler) Reconcile(c *gin.Context) {
	result, err := h.svc.Ledger.Reconcile(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	log.Printf("Admin: Reconcile entries=%d ledger=%d repaired=%v", result.Entries, result.Ledger, result.Repaired)
	c.JSON(http.StatusOK, result)
}

// Complaints lists complaints; ?resolved=true|false narrows
func (h *AdminHandler) Complaints(c *gin.Context) {
	var resolved *bool
	if raw := c.Query("resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resolved"})
			return
		}
		resolved = &v
	}
	list, err := h.svc.Messaging.Complaints(c.Request.Context(), resolved)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"complaints": list, "count": len(list)})
}

// ResolveComplaint closes a complaint with a response
func (h *AdminHandler) ResolveComplaint(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Messaging.Resolve(c.Request.Context(), actor(c), id, c.PostForm("response")); err != nil {
		fail(c, err)
		return
	}
	done(c, "Complaint resolved", "/admin/complaints")
}

// Search looks up requests, properties and users
func (h *AdminHandler) Search(c *gin.Context) {
	params := search.FilterParams{
		Query:    c.Query("q"),
		Statuses: search.ParseStatuses(c.Query("status")),
		Type:     models.RequestType(c.Query("type")),
		Role:     models.Role(c.Query("role")),
		Limit:    int64(queryLimit(c, 20)),
	}
	results, err := h.svc.Searcher.Search(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// RunMaintenance manually triggers the daily job
func (h *AdminHandler) RunMaintenance(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available",
		})
		return
	}

	log.Println("Admin: Manual maintenance trigger requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: Manual maintenance failed: %v", err)
		} else {
			log.Println("Admin: Manual maintenance completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Maintenance job started",
		"status":  "running",
	})
}

// RunCleanup purges expired sessions
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		MaxDeletionCount int  `json:"max_deletion_count"` // Safety limit (default: 100000)
		DryRun           bool `json:"dry_run"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := cleanup.DefaultCleanupConfig()
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	config.DryRun = req.DryRun

	log.Printf("Admin: Running cleanup (max: %d, dry-run: %v)", config.MaxDeletionCount, config.DryRun)

	result, err := h.cleanupService.PurgeSessions(config)
	if err != nil {
		log.Printf("Admin: Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDeleteLogs returns recent delete log entries
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	logs, err := h.cleanupService.GetRecentDeleteLogs(queryLimit(c, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetRecentChanges returns recent request status changes
func (h *AdminHandler) GetRecentChanges(c *gin.Context) {
	changes, err := h.snapshotService.GetRecentChanges(queryLimit(c, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes": changes,
		"count":   len(changes),
	})
}

// GetSnapshots returns the daily status snapshots
func (h *AdminHandler) GetSnapshots(c *gin.Context) {
	snapshots, err := h.snapshotService.GetHistory(queryLimit(c, 30))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
