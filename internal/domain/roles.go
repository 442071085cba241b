package domain

import "fmt"

// Role governs which operations and pages a profile may access.
// It is a closed set: guest, advertiser, admin. Anything else is rejected
// at parse time so an unknown role can never fall through a switch silently.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleAdvertiser Role = "advertiser"
	RoleAdmin      Role = "admin"
)

// ParseRole converts a stored string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleGuest, RoleAdvertiser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// IsValid reports whether the role is one of the three known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleAdvertiser, RoleAdmin:
		return true
	}
	return false
}

// Allows reports whether a caller with this role satisfies the required role.
// Admin is a superset: it satisfies every requirement. Pure function of the
// two roles.
func (r Role) Allows(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// LandingPath returns the dashboard path a caller with this role should be
// redirected to when it hits a page it cannot access.
func (r Role) LandingPath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleAdvertiser:
		return "/advertiser-dashboard"
	default:
		return "/dashboard"
	}
}
