package applications

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/macado/b2b-backend/internal/customers"
	"github.com/macado/b2b-backend/internal/workflow"
	"github.com/macado/b2b-backend/pkg/db"
	"github.com/macado/b2b-backend/pkg/db/models"
	"github.com/macado/b2b-backend/pkg/enums"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/logger"
	"github.com/macado/b2b-backend/pkg/metrics"
	"github.com/macado/b2b-backend/pkg/pagination"
)

var phonePattern = regexp.MustCompile(`^[\d\-\(\)\+\s]+$`)

// Service drives applications from public submission to approval or rejection.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*ApplicationDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ApplicationDTO, error)
	Summary(ctx context.Context) (map[enums.ApplicationStatus]int64, error)
	StartAccountingReview(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ApplicationDTO, error)
	SaveAccountingReview(ctx context.Context, actor workflow.Actor, id uuid.UUID, input ReviewInput) (*ApplicationDTO, error)
	SubmitForApproval(ctx context.Context, actor workflow.Actor, id uuid.UUID, input ReviewInput) (*ApplicationDTO, error)
	Approve(ctx context.Context, actor workflow.Actor, id uuid.UUID, input ApprovalInput) (*ApprovalResult, error)
	Reject(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*ApplicationDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Terms bound the review values staff may enter.
type Terms struct {
	MaxDiscount         decimal.Decimal
	DefaultPaymentTerms int
}

type service struct {
	repo      *Repository
	customers *customers.Repository
	tx        txRunner
	terms     Terms
	logg      *logger.Logger
	metrics   *metrics.Domain
	now       func() time.Time
}

// NewService constructs the application workflow service.
func NewService(repo *Repository, customerRepo *customers.Repository, tx txRunner, terms Terms, logg *logger.Logger, m *metrics.Domain) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("application repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if terms.DefaultPaymentTerms <= 0 {
		terms.DefaultPaymentTerms = 30
	}
	return &service{
		repo:      repo,
		customers: customerRepo,
		tx:        tx,
		terms:     terms,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*ApplicationDTO, error) {
	application, err := s.newApplication(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, application)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "an application with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
	}
	dto := NewApplicationDTO(created)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	limit := pagination.NormalizeLimit(input.Limit)
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, ListQuery{
		Status: input.Status,
		Search: input.Search,
		Cursor: cursor,
		Limit:  pagination.LimitWithBuffer(input.Limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	items := make([]ApplicationDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewApplicationDTO(&rows[i]))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ApplicationDTO, error) {
	application, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := NewApplicationDTO(application)
	return &dto, nil
}

func (s *service) Summary(ctx context.Context) (map[enums.ApplicationStatus]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count applications")
	}
	return counts, nil
}

func (s *service) StartAccountingReview(ctx context.Context, actor workflow.Actor, id uuid.UUID) (*ApplicationDTO, error) {
	return s.transition(ctx, actor, id, enums.ApplicationStatusAccountingReview, func(*models.Application) (map[string]any, error) {
		return map[string]any{"reviewed_by": actor.UserID}, nil
	})
}

func (s *service) SaveAccountingReview(ctx context.Context, actor workflow.Actor, id uuid.UUID, input ReviewInput) (*ApplicationDTO, error) {
	if err := workflow.Authorize(actor, workflow.ActionSaveReview); err != nil {
		return nil, err
	}
	updates, err := s.reviewUpdates(input)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if current.Status != enums.ApplicationStatusAccountingReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("review can only be saved during accounting_review, application is %s", current.Status))
	}
	updates["reviewed_by"] = actor.UserID

	ok, err := s.repo.UpdateWhereStatus(ctx, id, enums.ApplicationStatusAccountingReview, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save accounting review")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application changed while saving review")
	}
	return s.Get(ctx, id)
}

func (s *service) SubmitForApproval(ctx context.Context, actor workflow.Actor, id uuid.UUID, input ReviewInput) (*ApplicationDTO, error) {
	updates, err := s.reviewUpdates(input)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, enums.ApplicationStatusApprovalPending, func(current *models.Application) (map[string]any, error) {
		externalID := current.ExternalAccountingID
		if input.ExternalAccountingID != nil {
			externalID = input.ExternalAccountingID
		}
		if externalID == nil || strings.TrimSpace(*externalID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "external accounting id is required before approval")
		}
		updates["reviewed_by"] = actor.UserID
		return updates, nil
	})
}

func (s *service) Reject(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string) (*ApplicationDTO, error) {
	return s.transition(ctx, actor, id, enums.ApplicationStatusRejected, func(*models.Application) (map[string]any, error) {
		updates := map[string]any{
			"decided_by": actor.UserID,
			"decided_at": s.now().UTC(),
		}
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			updates["notes"] = trimmed
		}
		return updates, nil
	})
}

// Approve marks the application approved and creates its customer in one transaction.
func (s *service) Approve(ctx context.Context, actor workflow.Actor, id uuid.UUID, input ApprovalInput) (*ApprovalResult, error) {
	if err := s.validateApproval(input); err != nil {
		return nil, err
	}

	var result ApprovalResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customerRepo := s.customers.WithTx(tx)

		current, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if current.Status == enums.ApplicationStatusApproved {
			return s.alreadyApproved(ctx, customerRepo, current)
		}
		if err := workflow.ApplicationTransition(actor, current.Status, enums.ApplicationStatusApproved); err != nil {
			return err
		}

		applyApproval(current, input)
		now := s.now().UTC()
		ok, err := repo.UpdateWhereStatus(ctx, id, enums.ApplicationStatusApprovalPending, map[string]any{
			"status":          enums.ApplicationStatusApproved,
			"discount_rate":   current.DiscountRate,
			"credit_limit":    current.CreditLimit,
			"payment_terms":   current.PaymentTerms,
			"special_pricing": current.SpecialPricing,
			"notes":           current.Notes,
			"decided_by":      actor.UserID,
			"decided_at":      now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve application")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application changed while approving")
		}

		customer, err := customerRepo.Create(ctx, customerFromApplication(current))
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a customer with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer from application")
		}

		approved, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		result = ApprovalResult{
			Application: NewApplicationDTO(approved),
			Customer:    customers.NewCustomerDTO(customer),
		}
		return nil
	})
	if err != nil {
		s.metrics.IncTransitionFailure("application", string(pkgerrors.As(err).Code()))
		return nil, err
	}

	s.metrics.IncTransition("application", string(enums.ApplicationStatusApproved))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"application_id": id.String(),
		"customer_id":    result.Customer.ID.String(),
	})
	s.logg.Info(logCtx, "application approved")
	return &result, nil
}

// alreadyApproved distinguishes a repeated approval from an approval whose customer is missing.
func (s *service) alreadyApproved(ctx context.Context, customerRepo *customers.Repository, application *models.Application) error {
	_, err := customerRepo.FindByApplicationID(ctx, application.ID)
	switch {
	case err == nil:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "application is already approved")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeInconsistentState, "application is approved but has no customer")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer for application")
	}
}

// transition moves the application to `to` with a conditional update on its current status.
func (s *service) transition(ctx context.Context, actor workflow.Actor, id uuid.UUID, to enums.ApplicationStatus, extra func(*models.Application) (map[string]any, error)) (*ApplicationDTO, error) {
	dto, err := s.doTransition(ctx, actor, id, to, extra)
	if err != nil {
		s.metrics.IncTransitionFailure("application", string(pkgerrors.As(err).Code()))
		return nil, err
	}
	s.metrics.IncTransition("application", string(to))
	return dto, nil
}

func (s *service) doTransition(ctx context.Context, actor workflow.Actor, id uuid.UUID, to enums.ApplicationStatus, extra func(*models.Application) (map[string]any, error)) (*ApplicationDTO, error) {
	current, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.ApplicationTransition(actor, current.Status, to); err != nil {
		return nil, err
	}
	updates, err := extra(current)
	if err != nil {
		return nil, err
	}
	updates["status"] = to

	ok, err := s.repo.UpdateWhereStatus(ctx, id, current.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update application status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application status changed concurrently")
	}
	return s.Get(ctx, id)
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Application, error) {
	application, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return application, nil
}

func (s *service) newApplication(input SubmitInput) (*models.Application, error) {
	required := []struct{ field, value string }{
		{"company_name", input.CompanyName},
		{"contact_name", input.ContactName},
		{"email", input.Email},
		{"address", input.Address},
		{"business_type", input.BusinessType},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required fields missing").WithDetails(map[string]any{"fields": missing})
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email address")
	}
	if !input.TermsAgreed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terms must be agreed to")
	}

	application := &models.Application{
		CompanyName:   strings.TrimSpace(input.CompanyName),
		ContactName:   strings.TrimSpace(input.ContactName),
		Email:         email,
		Address:       strings.TrimSpace(input.Address),
		BusinessType:  strings.TrimSpace(input.BusinessType),
		TermsAgreedAt: s.now().UTC(),
		Status:        enums.ApplicationStatusPending,
		PaymentTerms:  s.terms.DefaultPaymentTerms,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		if !phonePattern.MatchString(phone) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone may only contain digits, spaces and + - ( )")
		}
		application.Phone = &phone
	}
	return application, nil
}

func (s *service) reviewUpdates(input ReviewInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.ExternalAccountingID != nil {
		if trimmed := strings.TrimSpace(*input.ExternalAccountingID); trimmed != "" {
			updates["external_accounting_id"] = trimmed
		} else {
			updates["external_accounting_id"] = nil
		}
	}
	if input.DiscountRate != nil {
		if err := s.checkDiscount(*input.DiscountRate); err != nil {
			return nil, err
		}
		updates["discount_rate"] = *input.DiscountRate
	}
	if input.CreditLimit != nil {
		if *input.CreditLimit < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must be non-negative")
		}
		updates["credit_limit"] = *input.CreditLimit
	}
	if input.PaymentTerms != nil {
		if *input.PaymentTerms < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment terms must be non-negative")
		}
		updates["payment_terms"] = *input.PaymentTerms
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}
	return updates, nil
}

func (s *service) validateApproval(input ApprovalInput) error {
	if input.DiscountRate != nil {
		if err := s.checkDiscount(*input.DiscountRate); err != nil {
			return err
		}
	}
	if input.CreditLimit != nil && *input.CreditLimit < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit limit must be non-negative")
	}
	if input.PaymentTerms != nil && *input.PaymentTerms < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment terms must be non-negative")
	}
	for productID, price := range input.SpecialPricing {
		if err := price.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid special pricing for product "+productID.String())
		}
	}
	return nil
}

func (s *service) checkDiscount(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(s.terms.MaxDiscount) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("discount rate must be within [0,%s]", s.terms.MaxDiscount))
	}
	return nil
}

func applyApproval(application *models.Application, input ApprovalInput) {
	if input.DiscountRate != nil {
		application.DiscountRate = *input.DiscountRate
	}
	if input.CreditLimit != nil {
		application.CreditLimit = *input.CreditLimit
	}
	if input.PaymentTerms != nil {
		application.PaymentTerms = *input.PaymentTerms
	}
	if input.SpecialPricing != nil {
		application.SpecialPricing = input.SpecialPricing.Clone()
	}
	if input.Notes != nil {
		notes := strings.TrimSpace(*input.Notes)
		application.Notes = &notes
	}
}

func customerFromApplication(application *models.Application) *models.Customer {
	applicationID := application.ID
	return &models.Customer{
		ApplicationID:        &applicationID,
		CompanyName:          application.CompanyName,
		ContactName:          application.ContactName,
		Email:                application.Email,
		Phone:                application.Phone,
		Address:              application.Address,
		BusinessType:         application.BusinessType,
		ExternalAccountingID: application.ExternalAccountingID,
		DiscountRate:         application.DiscountRate,
		CreditLimit:          application.CreditLimit,
		PaymentTerms:         application.PaymentTerms,
		SpecialPricing:       application.SpecialPricing.Clone(),
		Status:               enums.CustomerStatusActive,
		Notes:                application.Notes,
	}
}
