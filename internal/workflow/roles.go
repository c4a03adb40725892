package workflow

import (
	"fmt"

	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
)

// Action names a gated staff operation.
type Action string

const (
	ActionStartReview       Action = "application.start_review"
	ActionSaveReview        Action = "application.save_review"
	ActionSubmitForApproval Action = "application.submit_for_approval"
	ActionApprove           Action = "application.approve"
	ActionReject            Action = "application.reject"
	ActionEditCustomer      Action = "customer.edit"
	ActionUpdateOrderStatus Action = "order.update_status"
	ActionCreateManualOrder Action = "order.create_manual"
	ActionManageUsers       Action = "user.manage"
)

var actionRoles = map[Action][]enums.UserRole{
	ActionStartReview:       {enums.UserRoleAccounting, enums.UserRoleAdmin},
	ActionSaveReview:        {enums.UserRoleAccounting, enums.UserRoleAdmin},
	ActionSubmitForApproval: {enums.UserRoleAccounting, enums.UserRoleAdmin},
	ActionApprove:           {enums.UserRolePresident, enums.UserRoleAdmin},
	ActionReject:            {enums.UserRoleAccounting, enums.UserRolePresident, enums.UserRoleAdmin},
	ActionEditCustomer:      {enums.UserRoleAccounting, enums.UserRoleAdmin},
	ActionUpdateOrderStatus: {enums.UserRoleAccounting, enums.UserRoleAdmin},
	ActionCreateManualOrder: {enums.UserRoleAccounting, enums.UserRoleAdmin},
	ActionManageUsers:       {enums.UserRoleAdmin},
}

// RolesFor lists the roles allowed to perform action.
func RolesFor(action Action) []enums.UserRole {
	roles := actionRoles[action]
	out := make([]enums.UserRole, len(roles))
	copy(out, roles)
	return out
}

// Authorize returns a forbidden error when the actor's role may not perform action.
func Authorize(actor Actor, action Action) error {
	for _, role := range actionRoles[action] {
		if actor.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %q may not perform %s", actor.Role, action))
}
