// Package workflow holds the status transition tables for applications, customers and
// orders, and the role gates staff actions pass through.
package workflow

import (
	"fmt"

	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
)

var applicationNext = map[enums.ApplicationStatus]map[enums.ApplicationStatus]bool{
	enums.ApplicationStatusPending: {
		enums.ApplicationStatusAccountingReview: true,
		enums.ApplicationStatusRejected:         true,
	},
	enums.ApplicationStatusAccountingReview: {
		enums.ApplicationStatusApprovalPending: true,
		enums.ApplicationStatusRejected:        true,
	},
	enums.ApplicationStatusApprovalPending: {
		enums.ApplicationStatusApproved: true,
		enums.ApplicationStatusRejected: true,
	},
	enums.ApplicationStatusApproved: {},
	enums.ApplicationStatusRejected: {},
}

var orderNext = map[enums.OrderStatus]map[enums.OrderStatus]bool{
	enums.OrderStatusPending: {
		enums.OrderStatusConfirmed: true,
		enums.OrderStatusCancelled: true,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderStatusProcessing: true,
		enums.OrderStatusCancelled:  true,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusShipped:   true,
		enums.OrderStatusCancelled: true,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered: true,
		enums.OrderStatusCancelled: true,
	},
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

var applicationActions = map[enums.ApplicationStatus]Action{
	enums.ApplicationStatusAccountingReview: ActionStartReview,
	enums.ApplicationStatusApprovalPending:  ActionSubmitForApproval,
	enums.ApplicationStatusApproved:         ActionApprove,
	enums.ApplicationStatusRejected:         ActionReject,
}

// CanTransitionApplication reports whether from → to is a legal application move.
func CanTransitionApplication(from, to enums.ApplicationStatus) bool {
	return applicationNext[from][to]
}

// CanTransitionOrder reports whether from → to is a legal order move.
func CanTransitionOrder(from, to enums.OrderStatus) bool {
	return orderNext[from][to]
}

// CanTransitionCustomer reports whether a customer may move to status. Any known status is
// reachable from any other.
func CanTransitionCustomer(from, to enums.CustomerStatus) bool {
	return from.IsValid() && to.IsValid()
}

// ApplicationTransition authorizes actor and validates from → to.
func ApplicationTransition(actor Actor, from, to enums.ApplicationStatus) error {
	action, ok := applicationActions[to]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("application cannot be moved to %q", to))
	}
	if err := Authorize(actor, action); err != nil {
		return err
	}
	if !CanTransitionApplication(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("application cannot move from %s to %s", from, to))
	}
	return nil
}

// OrderTransition authorizes actor and validates from → to.
func OrderTransition(actor Actor, from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	if err := Authorize(actor, ActionUpdateOrderStatus); err != nil {
		return err
	}
	if !CanTransitionOrder(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order cannot move from %s to %s", from, to))
	}
	return nil
}

// CustomerTransition authorizes actor and validates the status change.
func CustomerTransition(actor Actor, from, to enums.CustomerStatus) error {
	if err := Authorize(actor, ActionEditCustomer); err != nil {
		return err
	}
	if !CanTransitionCustomer(from, to) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid customer status %q", to))
	}
	return nil
}
