// Package policy is the single authorization predicate for every handler.
package policy

import "inspection-portal/internal/models"

// Actor is the authenticated user as seen by authorization
type Actor struct {
	ID       uint
	Email    string
	Role     models.Role
	Approved bool
	Banned   bool
}

// ActorFromUser builds an Actor from a stored user
func ActorFromUser(u *models.User) Actor {
	return Actor{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Approved: u.IsApproved,
		Banned:   u.IsBanned,
	}
}

// Action is something an actor may try to do
type Action string

const (
	ViewOwnerDashboard     Action = "owner.dashboard"
	ManageProperties       Action = "owner.properties"
	CreateRequest          Action = "owner.request.create"
	PayRequest             Action = "owner.request.pay"
	ViewInspectorDashboard Action = "inspector.dashboard"
	DecideRequest          Action = "inspector.request.decide"
	CompleteRequest        Action = "request.complete"
	ViewAdminDashboard     Action = "admin.dashboard"
	AssignInspector        Action = "admin.request.assign"
	ApproveInspectors      Action = "admin.inspectors"
	BanUsers               Action = "admin.users.ban"
	ViewBalance            Action = "admin.balance"
	ResolveComplaints      Action = "admin.complaints"
	BrowseRecords          Action = "admin.records"
	SendMessages           Action = "messages.send"
	FileComplaint          Action = "complaints.file"
	ViewRequest            Action = "request.view"
)

// Decision is the outcome of Authorize
type Decision struct {
	Allowed bool
	Reason  string
}

var (
	allow = Decision{Allowed: true}

	rules = map[Action][]models.Role{
		ViewOwnerDashboard:     {models.RoleOwner},
		ManageProperties:       {models.RoleOwner},
		CreateRequest:          {models.RoleOwner},
		PayRequest:             {models.RoleOwner},
		ViewInspectorDashboard: {models.RoleInspector},
		DecideRequest:          {models.RoleInspector},
		CompleteRequest:        {models.RoleInspector, models.RoleAdmin},
		ViewAdminDashboard:     {models.RoleAdmin},
		AssignInspector:        {models.RoleAdmin},
		ApproveInspectors:      {models.RoleAdmin},
		BanUsers:               {models.RoleAdmin},
		ViewBalance:            {models.RoleAdmin},
		ResolveComplaints:      {models.RoleAdmin},
		BrowseRecords:          {models.RoleAdmin},
		SendMessages:           {models.RoleOwner, models.RoleInspector, models.RoleAdmin},
		FileComplaint:          {models.RoleOwner, models.RoleInspector, models.RoleAdmin},
		ViewRequest:            {models.RoleOwner, models.RoleInspector, models.RoleAdmin},
	}
)

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether actor may perform action. Unknown actions are denied.
func Authorize(actor Actor, action Action) Decision {
	if actor.ID == 0 {
		return deny("login required")
	}
	if actor.Banned {
		return deny("account is banned")
	}

	roles, ok := rules[action]
	if !ok {
		return deny("unknown action")
	}
	if !hasRole(roles, actor.Role) {
		return deny("not permitted for role " + string(actor.Role))
	}
	// Inspectors act only once an admin approved them
	if actor.Role == models.RoleInspector && !actor.Approved {
		return deny("inspector account awaiting approval")
	}
	return allow
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, role := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// DashboardPath returns the landing page for a role
func DashboardPath(r models.Role) string {
	switch r {
	case models.RoleAdmin:
		return "/admin/dashboard"
	case models.RoleInspector:
		return "/inspector/dashboard"
	case models.RoleOwner:
		return "/dashboard"
	}
	return "/login"
}
