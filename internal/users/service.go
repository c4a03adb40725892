package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/internal/workflow"
	"github.com/macado/b2b-backend/pkg/config"
	"github.com/macado/b2b-backend/pkg/db"
	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/security"
)

const tempPasswordLength = 16

// Service manages logins for staff and customer users.
type Service interface {
	Create(ctx context.Context, actor workflow.Actor, input CreateInput) (*CreateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	ListByCustomer(ctx context.Context, actor workflow.Actor, customerID uuid.UUID) ([]UserDTO, error)
	SetActive(ctx context.Context, actor workflow.Actor, id uuid.UUID, active bool) (*UserDTO, error)
}

type customerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type service struct {
	repo        *Repository
	customers   customerFinder
	passwordCfg config.PasswordConfig
}

// NewService builds the user management service.
func NewService(repo *Repository, customers customerFinder, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer finder required")
	}
	return &service{repo: repo, customers: customers, passwordCfg: passwordCfg}, nil
}

func (s *service) Create(ctx context.Context, actor workflow.Actor, input CreateInput) (*CreateResult, error) {
	if err := workflow.Authorize(actor, workflow.ActionManageUsers); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email address")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}
	if err := s.checkCustomerBinding(ctx, input.Role, input.CustomerID); err != nil {
		return nil, err
	}

	password := input.Password
	temp := ""
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
		}
		password, temp = generated, generated
	} else if err := security.ValidatePassword(password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "weak password")
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         input.Role,
		CustomerID:   input.CustomerID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a user with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return &CreateResult{User: FromModel(user), TempPassword: temp}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) ListByCustomer(ctx context.Context, actor workflow.Actor, customerID uuid.UUID) ([]UserDTO, error) {
	if !actor.IsStaff() && !actor.OwnsCustomer(customerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot list users of another customer")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) SetActive(ctx context.Context, actor workflow.Actor, id uuid.UUID, active bool) (*UserDTO, error) {
	if err := workflow.Authorize(actor, workflow.ActionManageUsers); err != nil {
		return nil, err
	}
	if id == actor.UserID && !active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot deactivate your own login")
	}
	ok, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.Get(ctx, id)
}

// checkCustomerBinding enforces that customer logins point at an existing customer and staff logins do not.
func (s *service) checkCustomerBinding(ctx context.Context, role enums.UserRole, customerID *uuid.UUID) error {
	if role != enums.UserRoleCustomer {
		if customerID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "staff users cannot be bound to a customer")
		}
		return nil
	}
	if customerID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer users require customer_id")
	}
	if _, err := s.customers.FindByID(ctx, *customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return nil
}
