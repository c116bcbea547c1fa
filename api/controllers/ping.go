package controllers

import (
	"net/http"

	"github.com/landlordheaven/heaven-backend/api/middleware"
	"github.com/landlordheaven/heaven-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if actor, ok := middleware.ActorFromContext(r.Context()); ok {
			payload["user_id"] = actor.UserID.String()
			if actor.Admin {
				payload["scope"] = "admin"
			}
		}
		responses.WriteSuccess(w, payload)
	}
}
