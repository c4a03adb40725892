package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/macado/b2b-backend/api/responses"
	"github.com/macado/b2b-backend/api/validators"
	"github.com/macado/b2b-backend/internal/customers"
	"github.com/macado/b2b-backend/pkg/enums"
	"github.com/macado/b2b-backend/pkg/logger"
	"github.com/macado/b2b-backend/pkg/types"
)

type updateCustomerRequest struct {
	CompanyName          *string               `json:"company_name" validate:"omitempty,max=200"`
	ContactName          *string               `json:"contact_name" validate:"omitempty,max=200"`
	Email                *string               `json:"email" validate:"omitempty,email"`
	Phone                *string               `json:"phone" validate:"omitempty,max=40"`
	Address              *string               `json:"address" validate:"omitempty,max=500"`
	BusinessType         *string               `json:"business_type" validate:"omitempty,max=100"`
	ExternalAccountingID *string               `json:"external_accounting_id" validate:"omitempty,max=100"`
	DiscountRate         *decimal.Decimal      `json:"discount_rate"`
	CreditLimit          *int64                `json:"credit_limit" validate:"omitempty,gte=0"`
	PaymentTerms         *int                  `json:"payment_terms" validate:"omitempty,gte=0,lte=365"`
	Status               *enums.CustomerStatus `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	Notes                *string               `json:"notes" validate:"omitempty,max=2000"`
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "customers")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := customers.ListInput{
			Search: queryString(r, "q", 100),
			Limit:  page.Limit,
			Cursor: page.Cursor,
		}
		if raw := queryString(r, "status", 40); raw != "" {
			status := enums.CustomerStatus(raw)
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

func CustomerDetail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "customers")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "customers")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Update(r.Context(), actor, id, customers.UpdateInput{
			CompanyName:          body.CompanyName,
			ContactName:          body.ContactName,
			Email:                body.Email,
			Phone:                body.Phone,
			Address:              body.Address,
			BusinessType:         body.BusinessType,
			ExternalAccountingID: body.ExternalAccountingID,
			DiscountRate:         body.DiscountRate,
			CreditLimit:          body.CreditLimit,
			PaymentTerms:         body.PaymentTerms,
			Status:               body.Status,
			Notes:                body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// CustomerSetSpecialPrice accepts {"type":"fixed","price":500} or {"type":"discount","discount_rate":10}.
func CustomerSetSpecialPrice(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "customers")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var price types.SpecialPrice
		if err := validators.DecodeJSONBody(r, &price); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.SetSpecialPrice(r.Context(), actor, id, productID, price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerClearSpecialPrice(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "customers")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.ClearSpecialPrice(r.Context(), actor, id, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}
