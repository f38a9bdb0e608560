package handlers

import (
	"net/http"

	"parkeasy/internal/auth"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/util"

	"go.uber.org/zap"
)

func MyActivity(log *audit.Log, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := log.Activities(r.Context(), auth.Subject(r.Context()), util.ParseInt(r.URL.Query().Get("page"), 1))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, page)
	}
}

// ActivityLog lists every user's activity, or one user's with ?user_id=.
func ActivityLog(log *audit.Log, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := log.Activities(r.Context(), q.Get("user_id"), util.ParseInt(q.Get("page"), 1))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, page)
	}
}

func AdminActionLog(log *audit.Log, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := log.AdminActions(r.Context(), util.ParseInt(r.URL.Query().Get("page"), 1))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, page)
	}
}
