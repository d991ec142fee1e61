package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin            UserRole = "ADMIN"
	RolePlacementOfficer UserRole = "PLACEMENT_OFFICER"
	RoleFaculty          UserRole = "FACULTY"
	RoleStudent          UserRole = "STUDENT"
)

// Capability names a permission checked at the engine boundary. Roles
// are data, not types; variants map onto capability sets below.
type Capability string

const (
	CapabilityReviewNOC        Capability = "noc:review"
	CapabilityReadAllNOC       Capability = "noc:read-all"
	CapabilityIssueCertificate Capability = "cert:issue"
	CapabilityExportData       Capability = "data:export"
)

var roleCapabilities = map[UserRole]map[Capability]struct{}{
	RoleAdmin: {
		CapabilityReviewNOC:        {},
		CapabilityReadAllNOC:       {},
		CapabilityIssueCertificate: {},
		CapabilityExportData:       {},
	},
	RolePlacementOfficer: {
		CapabilityReviewNOC:        {},
		CapabilityReadAllNOC:       {},
		CapabilityIssueCertificate: {},
		CapabilityExportData:       {},
	},
	RoleFaculty: {
		CapabilityReviewNOC:  {},
		CapabilityReadAllNOC: {},
	},
	RoleStudent: {},
}

// HasCapability reports whether the role grants the capability.
func HasCapability(role UserRole, cap Capability) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	_, ok = caps[cap]
	return ok
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Department   *string    `db:"department" json:"department,omitempty"`
	RollNumber   *string    `db:"roll_number" json:"roll_number,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
