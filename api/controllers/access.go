package controllers

import (
	"net/http"

	"github.com/landlordheaven/heaven-backend/api/responses"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

// AdminCheckAccess confirms the caller holds admin rights. Authentication and
// the admin gate run in middleware; reaching the handler means access is granted.
func AdminCheckAccess(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		if !actor.Admin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
			return
		}
		responses.WriteJSON(w, http.StatusOK, dto.AccessResponse{Authorized: true})
	}
}
