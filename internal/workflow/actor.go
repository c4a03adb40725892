package workflow

import (
	"github.com/google/uuid"

	"github.com/macado/b2b-backend/pkg/enums"
)

// Actor is the authenticated identity a request runs as. Services receive it explicitly.
type Actor struct {
	UserID     uuid.UUID
	Role       enums.UserRole
	CustomerID *uuid.UUID
	// SessionID is the access token id; empty outside HTTP requests.
	SessionID string
}

// IsStaff reports whether the actor works in the back office.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// OwnsCustomer reports whether a customer-role actor is bound to customerID.
func (a Actor) OwnsCustomer(customerID uuid.UUID) bool {
	return a.Role == enums.UserRoleCustomer && a.CustomerID != nil && *a.CustomerID == customerID
}
