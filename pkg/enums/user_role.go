package enums

import "fmt"

// UserRole identifies what an authenticated user may do.
type UserRole string

const (
	UserRoleCustomer   UserRole = "customer"
	UserRoleAccounting UserRole = "accounting"
	UserRoleAdmin      UserRole = "admin"
	UserRolePresident  UserRole = "president"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleAccounting,
	UserRoleAdmin,
	UserRolePresident,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to back-office staff.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAccounting || r == UserRoleAdmin || r == UserRolePresident
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
