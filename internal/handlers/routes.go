package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inspection-portal/internal/accounts"
	"inspection-portal/internal/auth"
	"inspection-portal/internal/config"
	"inspection-portal/internal/dashboard"
	"inspection-portal/internal/ledger"
	"inspection-portal/internal/messaging"
	"inspection-portal/internal/middleware"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/properties"
	"inspection-portal/internal/ratelimit"
	"inspection-portal/internal/repository"
	"inspection-portal/internal/scheduler"
	"inspection-portal/internal/search"
	"inspection-portal/internal/workflow"
)

// Services is everything the routes need
type Services struct {
	DB         *gorm.DB
	Store      repository.Store
	Auth       *auth.Service
	Accounts   *accounts.Service
	Properties *properties.Service
	Workflow   *workflow.Service
	Messaging  *messaging.Service
	Ledger     *ledger.Service
	Dashboard  *dashboard.Service
	Searcher   search.Searcher
	Scheduler  *scheduler.Scheduler
	Limiter    *ratelimit.RateLimiter
}

// Register installs session handling and every route on r
func Register(r *gin.Engine, cfg *config.Config, s Services) {
	r.Use(middleware.LoadSession(s.Auth, cfg.Session))
	r.Use(middleware.BanGuard(s.Auth, cfg.Session, cfg.Server.BanExemptPrefixes))

	authHandler := NewAuthHandler(s.Auth, cfg.Session)
	ownerHandler := NewOwnerHandler(s.Dashboard, s.Properties, s.Workflow)
	requestHandler := NewRequestHandler(s.Workflow)
	inspectorHandler := NewInspectorHandler(s.Dashboard, s.Workflow)
	adminHandler := NewAdminHandler(s.DB, s.Scheduler, AdminServices{
		Dashboard: s.Dashboard,
		Accounts:  s.Accounts,
		Workflow:  s.Workflow,
		Ledger:    s.Ledger,
		Messaging: s.Messaging,
		Searcher:  s.Searcher,
	})
	panelHandler := NewPanelHandler(s.Store)
	messageHandler := NewMessageHandler(s.Messaging)

	r.GET("/health", authHandler.Health)
	r.GET("/banned", authHandler.Banned)
	r.GET("/login", authHandler.LoginPage)
	r.POST("/logout", authHandler.Logout)

	limited := r.Group("/")
	if s.Limiter != nil {
		limited.Use(middleware.RateLimit(s.Limiter))
	}
	limited.POST("/signup", authHandler.Signup)
	limited.POST("/login", authHandler.Login)

	// Owner
	r.GET("/dashboard", middleware.Require(policy.ViewOwnerDashboard), ownerHandler.Dashboard)
	props := r.Group("/properties", middleware.Require(policy.ManageProperties))
	{
		props.GET("", ownerHandler.ListProperties)
		props.POST("", ownerHandler.AddProperty)
		props.POST("/:id/delete", ownerHandler.DeleteProperty)
	}
	r.GET("/requests", middleware.Require(policy.CreateRequest), ownerHandler.ListRequests)
	r.POST("/requests", middleware.Require(policy.CreateRequest), ownerHandler.CreateRequest)
	r.POST("/requests/:id/pay", middleware.Require(policy.PayRequest), ownerHandler.PayRequest)

	// Any participant
	r.GET("/requests/:id", middleware.Require(policy.ViewRequest), requestHandler.Get)
	r.GET("/requests/:id/history", middleware.Require(policy.ViewRequest), requestHandler.History)

	// Inspector
	inspector := r.Group("/inspector")
	{
		inspector.GET("/dashboard", middleware.Require(policy.ViewInspectorDashboard), inspectorHandler.Dashboard)
		inspector.GET("/requests", middleware.Require(policy.DecideRequest), inspectorHandler.ListRequests)
		inspector.POST("/requests/:id/decide", middleware.Require(policy.DecideRequest), inspectorHandler.Decide)
		inspector.POST("/requests/:id/complete", middleware.Require(policy.CompleteRequest), inspectorHandler.Complete)
	}

	// Admin
	admin := r.Group("/admin")
	{
		admin.GET("/dashboard", middleware.Require(policy.ViewAdminDashboard), adminHandler.Dashboard)
		admin.GET("/requests", middleware.Require(policy.AssignInspector), adminHandler.ListRequests)
		admin.POST("/requests/:id/assign", middleware.Require(policy.AssignInspector), adminHandler.Assign)
		admin.POST("/requests/:id/complete", middleware.Require(policy.CompleteRequest), adminHandler.Complete)
		admin.GET("/inspectors/pending", middleware.Require(policy.ApproveInspectors), adminHandler.PendingInspectors)
		admin.POST("/inspectors/:id/approve", middleware.Require(policy.ApproveInspectors), adminHandler.ApproveInspector)
		admin.POST("/inspectors/:id/reject", middleware.Require(policy.ApproveInspectors), adminHandler.RejectInspector)
		admin.POST("/users/:id/ban", middleware.Require(policy.BanUsers), adminHandler.Ban)
		admin.POST("/users/:id/unban", middleware.Require(policy.BanUsers), adminHandler.Unban)
		admin.GET("/balance", middleware.Require(policy.ViewBalance), adminHandler.Balance)
		admin.POST("/balance/reconcile", middleware.Require(policy.ViewBalance), adminHandler.Reconcile)
		admin.GET("/complaints", middleware.Require(policy.ResolveComplaints), adminHandler.Complaints)
		admin.POST("/complaints/:id/resolve", middleware.Require(policy.ResolveComplaints), adminHandler.ResolveComplaint)
		admin.GET("/search", middleware.Require(policy.BrowseRecords), adminHandler.Search)
		admin.GET("/panel/:entity", middleware.Require(policy.BrowseRecords), panelHandler.List)
		admin.GET("/changes", middleware.Require(policy.BrowseRecords), adminHandler.GetRecentChanges)
		admin.GET("/snapshots", middleware.Require(policy.BrowseRecords), adminHandler.GetSnapshots)
		admin.GET("/deletions", middleware.Require(policy.BrowseRecords), adminHandler.GetDeleteLogs)
		admin.POST("/maintenance/run", middleware.Require(policy.BrowseRecords), adminHandler.RunMaintenance)
		admin.POST("/maintenance/cleanup", middleware.Require(policy.BrowseRecords), adminHandler.RunCleanup)
	}

	// Messages and complaints
	msgs := r.Group("/messages", middleware.Require(policy.SendMessages))
	{
		msgs.GET("", messageHandler.Inbox)
		msgs.GET("/sent", messageHandler.Sent)
		msgs.POST("", messageHandler.Send)
		msgs.POST("/:id/read", messageHandler.MarkRead)
	}
	r.POST("/complaints", middleware.Require(policy.FileComplaint), messageHandler.FileComplaint)
}
