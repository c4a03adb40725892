package workflow

import (
	"testing"

	"github.com/google/uuid"

	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
)

func actorWith(role enums.UserRole) Actor {
	return Actor{UserID: uuid.New(), Role: role}
}

func TestCanTransitionApplication(t *testing.T) {
	allowed := [][2]enums.ApplicationStatus{
		{enums.ApplicationStatusPending, enums.ApplicationStatusAccountingReview},
		{enums.ApplicationStatusPending, enums.ApplicationStatusRejected},
		{enums.ApplicationStatusAccountingReview, enums.ApplicationStatusApprovalPending},
		{enums.ApplicationStatusAccountingReview, enums.ApplicationStatusRejected},
		{enums.ApplicationStatusApprovalPending, enums.ApplicationStatusApproved},
		{enums.ApplicationStatusApprovalPending, enums.ApplicationStatusRejected},
	}
	for _, pair := range allowed {
		if !CanTransitionApplication(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]enums.ApplicationStatus{
		{enums.ApplicationStatusPending, enums.ApplicationStatusApproved},
		{enums.ApplicationStatusPending, enums.ApplicationStatusApprovalPending},
		{enums.ApplicationStatusAccountingReview, enums.ApplicationStatusApproved},
		{enums.ApplicationStatusApproved, enums.ApplicationStatusRejected},
		{enums.ApplicationStatusRejected, enums.ApplicationStatusPending},
		{enums.ApplicationStatusApprovalPending, enums.ApplicationStatusAccountingReview},
	}
	for _, pair := range denied {
		if CanTransitionApplication(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
}

func TestRejectionReachableFromEveryNonTerminalApplicationState(t *testing.T) {
	for _, from := range []enums.ApplicationStatus{
		enums.ApplicationStatusPending,
		enums.ApplicationStatusAccountingReview,
		enums.ApplicationStatusApprovalPending,
	} {
		if err := ApplicationTransition(actorWith(enums.UserRolePresident), from, enums.ApplicationStatusRejected); err != nil {
			t.Fatalf("reject from %s: %v", from, err)
		}
	}
}

func TestApplicationTransition_RoleGates(t *testing.T) {
	cases := []struct {
		role enums.UserRole
		from enums.ApplicationStatus
		to   enums.ApplicationStatus
		code pkgerrors.Code
	}{
		{enums.UserRoleAccounting, enums.ApplicationStatusPending, enums.ApplicationStatusAccountingReview, ""},
		{enums.UserRolePresident, enums.ApplicationStatusPending, enums.ApplicationStatusAccountingReview, pkgerrors.CodeForbidden},
		{enums.UserRoleAccounting, enums.ApplicationStatusApprovalPending, enums.ApplicationStatusApproved, pkgerrors.CodeForbidden},
		{enums.UserRolePresident, enums.ApplicationStatusApprovalPending, enums.ApplicationStatusApproved, ""},
		{enums.UserRoleAdmin, enums.ApplicationStatusApprovalPending, enums.ApplicationStatusApproved, ""},
		{enums.UserRoleCustomer, enums.ApplicationStatusPending, enums.ApplicationStatusRejected, pkgerrors.CodeForbidden},
		{enums.UserRoleAdmin, enums.ApplicationStatusPending, enums.ApplicationStatusApproved, pkgerrors.CodeStateConflict},
		{enums.UserRoleAdmin, enums.ApplicationStatusRejected, enums.ApplicationStatusRejected, pkgerrors.CodeStateConflict},
		{enums.UserRoleAdmin, enums.ApplicationStatusAccountingReview, enums.ApplicationStatusPending, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		err := ApplicationTransition(actorWith(tc.role), tc.from, tc.to)
		if tc.code == "" {
			if err != nil {
				t.Fatalf("%s %s->%s: unexpected error %v", tc.role, tc.from, tc.to, err)
			}
			continue
		}
		if !pkgerrors.IsCode(err, tc.code) {
			t.Fatalf("%s %s->%s: expected %s, got %v", tc.role, tc.from, tc.to, tc.code, err)
		}
	}
}

func TestOrderTransition(t *testing.T) {
	admin := actorWith(enums.UserRoleAdmin)
	chain := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	}
	for i := 0; i+1 < len(chain); i++ {
		if err := OrderTransition(admin, chain[i], chain[i+1]); err != nil {
			t.Fatalf("%s -> %s: %v", chain[i], chain[i+1], err)
		}
		if err := OrderTransition(admin, chain[i], enums.OrderStatusCancelled); err != nil {
			t.Fatalf("cancel from %s: %v", chain[i], err)
		}
	}

	if err := OrderTransition(admin, enums.OrderStatusPending, enums.OrderStatusShipped); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected skipping states to conflict, got %v", err)
	}
	if err := OrderTransition(admin, enums.OrderStatusDelivered, enums.OrderStatusCancelled); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected terminal order to conflict, got %v", err)
	}
	if err := OrderTransition(admin, enums.OrderStatusCancelled, enums.OrderStatusPending); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected cancelled order to conflict, got %v", err)
	}
	if err := OrderTransition(admin, enums.OrderStatusPending, "lost"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown status to be invalid, got %v", err)
	}
	if err := OrderTransition(actorWith(enums.UserRolePresident), enums.OrderStatusPending, enums.OrderStatusConfirmed); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected president to be forbidden, got %v", err)
	}
}

func TestCustomerTransitionIsFree(t *testing.T) {
	statuses := []enums.CustomerStatus{enums.CustomerStatusActive, enums.CustomerStatusInactive, enums.CustomerStatusSuspended}
	accounting := actorWith(enums.UserRoleAccounting)
	for _, from := range statuses {
		for _, to := range statuses {
			if err := CustomerTransition(accounting, from, to); err != nil {
				t.Fatalf("%s -> %s: %v", from, to, err)
			}
		}
	}
	if err := CustomerTransition(accounting, enums.CustomerStatusActive, "deleted"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if err := CustomerTransition(actorWith(enums.UserRoleCustomer), enums.CustomerStatusActive, enums.CustomerStatusInactive); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected customer role to be forbidden, got %v", err)
	}
}

func TestActorOwnsCustomer(t *testing.T) {
	customerID := uuid.New()
	actor := Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer, CustomerID: &customerID}
	if !actor.OwnsCustomer(customerID) {
		t.Fatal("expected actor to own its customer")
	}
	if actor.OwnsCustomer(uuid.New()) {
		t.Fatal("expected actor not to own another customer")
	}
	staff := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin, CustomerID: &customerID}
	if staff.OwnsCustomer(customerID) {
		t.Fatal("staff never own a customer account")
	}
}

func TestRolesForReturnsCopy(t *testing.T) {
	roles := RolesFor(ActionApprove)
	roles[0] = enums.UserRoleCustomer
	if err := Authorize(actorWith(enums.UserRolePresident), ActionApprove); err != nil {
		t.Fatalf("mutating the returned slice must not change gates: %v", err)
	}
}

func TestManageUsersIsAdminOnly(t *testing.T) {
	for _, role := range []enums.UserRole{enums.UserRoleCustomer, enums.UserRoleAccounting, enums.UserRolePresident} {
		if err := Authorize(actorWith(role), ActionManageUsers); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
			t.Fatalf("role %s: expected forbidden, got %v", role, err)
		}
	}
	if err := Authorize(actorWith(enums.UserRoleAdmin), ActionManageUsers); err != nil {
		t.Fatalf("admin should manage users: %v", err)
	}
}
