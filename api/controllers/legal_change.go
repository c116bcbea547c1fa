package controllers

import (
	"net/http"
	"strings"

	"github.com/landlordheaven/heaven-backend/api/responses"
	"github.com/landlordheaven/heaven-backend/api/validators"
	"github.com/landlordheaven/heaven-backend/internal/legalchange"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/pagination"
)

// Legal-change endpoints answer with {success, data|error}.

func LegalChangeList(svc legalchange.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteResultError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "legal change service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()

		list, err := svc.List(r.Context(), query.Get("state"), strings.TrimSpace(query.Get("cursor")), limit)
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, list)
	}
}

// LegalChangeGet returns an event with its latest history, or the full audit
// log when include=fullAuditLog is passed.
func LegalChangeGet(svc legalchange.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteResultError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "legal change service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "eventId", "event id")
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), id, validators.QueryIncludes(r, "include", "fullAuditLog"))
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, detail)
	}
}

func LegalChangePushPRStatus(svc legalchange.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteResultError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "legal change service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "eventId", "event id")
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.PushPRStatus(r.Context(), id)
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, status)
	}
}

func LegalChangePushPR(svc legalchange.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteResultError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "legal change service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "eventId", "event id")
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithEventID(ctx, id.String())
		}
		result, err := svc.PushPR(ctx, actor, id)
		if err != nil {
			responses.WriteResultError(ctx, logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, result)
	}
}

func LegalChangeAction(svc legalchange.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteResultError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "legal change service unavailable"))
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "eventId", "event id")
		if err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}

		var body dto.LegalChangeActionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteResultError(r.Context(), logg, w, err)
			return
		}
		body.Reason = validators.CleanText(body.Reason, 1000)

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithEventID(ctx, id.String())
		}
		detail, err := svc.Apply(ctx, actor, id, body)
		if err != nil {
			responses.WriteResultError(ctx, logg, w, err)
			return
		}
		responses.WriteResult(w, http.StatusOK, detail)
	}
}
