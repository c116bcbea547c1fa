package controllers

import (
	"net/http"

	"github.com/landlordheaven/heaven-backend/api/responses"
	"github.com/landlordheaven/heaven-backend/internal/adminstats"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

func AdminStats(svc adminstats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}
		stats, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
