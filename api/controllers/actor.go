package controllers

import (
	"net/http"

	"github.com/landlordheaven/heaven-backend/api/middleware"
	"github.com/landlordheaven/heaven-backend/api/responses"
	"github.com/landlordheaven/heaven-backend/pkg/auth"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

// requireActor returns the authenticated actor or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return auth.Actor{}, false
	}
	return actor, true
}
