package domain

type ctxKey string

const (
	TenantIDCtxKey      ctxKey = "tp-tenantId"
	RequesterIDCtxKey   ctxKey = "tp-requesterId"
	RequesterRoleCtxKey ctxKey = "tp-requesterRole"
)

// Headers are set by the upstream gateway after it authenticated the caller.
const (
	TenantIDHeader      = "X-Tenant-ID"
	RequesterIDHeader   = "X-User-ID"
	RequesterRoleHeader = "X-User-Role"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleReviewer Role = "reviewer"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleReviewer, RoleEmployee:
		return true
	}
	return false
}

// Policy actions.
const (
	ActionApproveTimesheet = "timesheet.approve"
	ActionApproveLeave     = "leave.approve"
	ActionManageInvoice    = "invoice.manage"
)

const (
	DefaultPageLimit = 25
	MaxPageLimit     = 100
)

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window into the allowed range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Requester identifies who performs an operation.
type Requester struct {
	TenantID string
	UserID   string
	Role     Role
}
