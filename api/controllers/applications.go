package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/api/responses"
	"github.com/macado/b2b-backend/api/validators"
	"github.com/macado/b2b-backend/internal/applications"
	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/logger"
	"github.com/macado/b2b-backend/pkg/types"
)

type submitApplicationRequest struct {
	CompanyName  string `json:"company_name" validate:"required,max=200"`
	ContactName  string `json:"contact_name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,max=40"`
	Address      string `json:"address" validate:"required,max=500"`
	BusinessType string `json:"business_type" validate:"required,max=100"`
	TermsAgreed  bool   `json:"terms_agreed"`
}

type reviewRequest struct {
	ExternalAccountingID *string          `json:"external_accounting_id" validate:"omitempty,max=100"`
	DiscountRate         *decimal.Decimal `json:"discount_rate"`
	CreditLimit          *int64           `json:"credit_limit" validate:"omitempty,gte=0"`
	PaymentTerms         *int             `json:"payment_terms" validate:"omitempty,gte=0,lte=365"`
	Notes                *string          `json:"notes" validate:"omitempty,max=2000"`
}

func (r reviewRequest) toInput() applications.ReviewInput {
	return applications.ReviewInput{
		ExternalAccountingID: r.ExternalAccountingID,
		DiscountRate:         r.DiscountRate,
		CreditLimit:          r.CreditLimit,
		PaymentTerms:         r.PaymentTerms,
		Notes:                r.Notes,
	}
}

type approveRequest struct {
	DiscountRate   *decimal.Decimal     `json:"discount_rate"`
	CreditLimit    *int64               `json:"credit_limit" validate:"omitempty,gte=0"`
	PaymentTerms   *int                 `json:"payment_terms" validate:"omitempty,gte=0,lte=365"`
	SpecialPricing types.SpecialPricing `json:"special_pricing"`
	Notes          *string              `json:"notes" validate:"omitempty,max=2000"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// ApplicationSubmit is the public application form endpoint.
func ApplicationSubmit(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body submitApplicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Submit(r.Context(), applications.SubmitInput{
			CompanyName:  body.CompanyName,
			ContactName:  body.ContactName,
			Email:        body.Email,
			Phone:        body.Phone,
			Address:      body.Address,
			BusinessType: body.BusinessType,
			TermsAgreed:  body.TermsAgreed,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ApplicationList(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := applications.ListInput{
			Search: queryString(r, "q", 100),
			Limit:  page.Limit,
			Cursor: page.Cursor,
		}
		if raw := queryString(r, "status", 40); raw != "" {
			status := enums.ApplicationStatus(raw)
			input.Status = &status
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ApplicationSummary(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

func ApplicationDetail(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		application, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

func ApplicationStartReview(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		application, err := svc.StartAccountingReview(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// ApplicationSaveReview stores the accounting form without advancing the application.
func ApplicationSaveReview(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		application, err := svc.SaveAccountingReview(r.Context(), actor, id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

func ApplicationSubmitForApproval(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		application, err := svc.SubmitForApproval(r.Context(), actor, id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}

// ApplicationApprove approves the application and returns it with the customer it created.
func ApplicationApprove(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body approveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Approve(r.Context(), actor, id, applications.ApprovalInput{
			DiscountRate:   body.DiscountRate,
			CreditLimit:    body.CreditLimit,
			PaymentTerms:   body.PaymentTerms,
			SpecialPricing: body.SpecialPricing,
			Notes:          body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ApplicationReject(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "applications")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		application, err := svc.Reject(r.Context(), actor, id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}
