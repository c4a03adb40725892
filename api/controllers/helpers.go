package controllers

import (
	"net/http"
	"strings"

	"github.com/macado/b2b-backend/api/middleware"
	"github.com/macado/b2b-backend/api/responses"
	"github.com/macado/b2b-backend/api/validators"
	"github.com/macado/b2b-backend/internal/workflow"
	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
	"github.com/macado/b2b-backend/pkg/logger"
	"github.com/macado/b2b-backend/pkg/pagination"
)

func serviceUnavailable(logg *logger.Logger, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
	}
}

func actorFrom(r *http.Request) (workflow.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return workflow.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func queryString(r *http.Request, key string, maxLen int) string {
	return validators.SanitizeString(r.URL.Query().Get(key), maxLen)
}
