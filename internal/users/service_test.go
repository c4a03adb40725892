package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macado/b2b-backend/internal/customers"
	"github.com/macado/b2b-backend/internal/workflow"
	"github.com/macado/b2b-backend/pkg/config"
	"github.com/macado/b2b-backend/pkg/db/dbtest"
	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) (Service, *Repository, *models.Customer) {
	t.Helper()
	conn := dbtest.Open(t)
	customer := &models.Customer{
		CompanyName:  "Kyoto Tea House",
		ContactName:  "Tanaka",
		Email:        "buyer@kyoto-tea.example",
		Address:      "Kyoto",
		BusinessType: "cafe",
		Status:       enums.CustomerStatusActive,
	}
	require.NoError(t, conn.Create(customer).Error)

	repo := NewRepository(conn)
	svc, err := NewService(repo, customers.NewRepository(conn), testPasswordCfg)
	require.NoError(t, err)
	return svc, repo, customer
}

func adminActor() workflow.Actor {
	return workflow.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
}

func TestCreateCustomerUserWithTempPassword(t *testing.T) {
	svc, repo, customer := newTestService(t)
	ctx := context.Background()

	result, err := svc.Create(ctx, adminActor(), CreateInput{
		Email:      " Portal@Kyoto-Tea.example ",
		Name:       "Tanaka Portal",
		Role:       enums.UserRoleCustomer,
		CustomerID: &customer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "portal@kyoto-tea.example", result.User.Email)
	assert.Len(t, result.TempPassword, tempPasswordLength)
	require.NotNil(t, result.User.CustomerID)
	assert.Equal(t, customer.ID, *result.User.CustomerID)

	stored, err := repo.FindByEmail(ctx, "PORTAL@kyoto-tea.example")
	require.NoError(t, err)
	ok, err := security.VerifyPassword(result.TempPassword, stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	listed, err := svc.ListByCustomer(ctx, workflow.Actor{Role: enums.UserRoleCustomer, CustomerID: &customer.ID}, customer.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	other := uuid.New()
	_, err = svc.ListByCustomer(ctx, workflow.Actor{Role: enums.UserRoleCustomer, CustomerID: &other}, customer.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}

func TestCreateValidatesBindingAndRole(t *testing.T) {
	svc, _, customer := newTestService(t)
	ctx := context.Background()
	missing := uuid.New()

	cases := []struct {
		name  string
		actor workflow.Actor
		input CreateInput
		code  pkgerrors.Code
	}{
		{"non-admin", workflow.Actor{Role: enums.UserRoleAccounting}, CreateInput{Email: "a@x.jp", Name: "A", Role: enums.UserRoleAccounting}, pkgerrors.CodeForbidden},
		{"customer without binding", adminActor(), CreateInput{Email: "b@x.jp", Name: "B", Role: enums.UserRoleCustomer}, pkgerrors.CodeValidation},
		{"staff with binding", adminActor(), CreateInput{Email: "c@x.jp", Name: "C", Role: enums.UserRoleAccounting, CustomerID: &customer.ID}, pkgerrors.CodeValidation},
		{"unknown customer", adminActor(), CreateInput{Email: "d@x.jp", Name: "D", Role: enums.UserRoleCustomer, CustomerID: &missing}, pkgerrors.CodeNotFound},
		{"bad role", adminActor(), CreateInput{Email: "e@x.jp", Name: "E", Role: "owner"}, pkgerrors.CodeValidation},
		{"weak password", adminActor(), CreateInput{Email: "f@x.jp", Name: "F", Role: enums.UserRolePresident, Password: "short"}, pkgerrors.CodeValidation},
		{"bad email", adminActor(), CreateInput{Email: "nope", Name: "G", Role: enums.UserRoleAdmin}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.actor, tc.input)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "expected %s, got %v", tc.code, err)
		})
	}
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	input := CreateInput{Email: "staff@maca.example", Name: "Staff", Role: enums.UserRoleAccounting, Password: "long-enough-password"}

	result, err := svc.Create(ctx, adminActor(), input)
	require.NoError(t, err)
	assert.Empty(t, result.TempPassword)

	_, err = svc.Create(ctx, adminActor(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestSetActive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	admin := adminActor()

	created, err := svc.Create(ctx, admin, CreateInput{Email: "p@maca.example", Name: "President", Role: enums.UserRolePresident})
	require.NoError(t, err)

	updated, err := svc.SetActive(ctx, admin, created.User.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.SetActive(ctx, admin, admin.UserID, false)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	_, err = svc.SetActive(ctx, admin, uuid.New(), true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}
