package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/smartapplicant/internal/db"
	"github.com/jonathan/smartapplicant/internal/server/middleware"
)

// ListApplicationsResponse is returned by GET /applications.
type ListApplicationsResponse struct {
	Applications []db.Application `json:"applications"`
	Count        int              `json:"count"`
}

// handleListApplications lists archived applications of the caller's session.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.GetSessionID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filters := db.ApplicationFilters{
		SessionID: sessionID,
		Company:   r.URL.Query().Get("company"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.writeError(w, r, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		filters.Limit = limit
	}

	apps, err := s.archive.ListApplications(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if apps == nil {
		apps = []db.Application{}
	}
	s.jsonResponse(w, http.StatusOK, ListApplicationsResponse{Applications: apps, Count: len(apps)})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.GetSessionID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("app_id"))
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "id", Message: "invalid application ID"})
		return
	}

	app, err := s.archive.GetApplication(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if app == nil || app.SessionID != sessionID {
		s.writeError(w, r, ErrApplicationNotFound)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}
