package api

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/soaringjerry/Surveyor/internal/middleware"
	"github.com/soaringjerry/Surveyor/internal/services"
)

// GET /api/dashboard
func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, err := rt.surveys.Dashboard()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /api/surveys?status=DRAFT|PUBLISHED
func (rt *Router) handleListSurveys(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status := services.SurveyStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	list, err := rt.surveys.ListSurveys(status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"surveys": list})
}

// POST /api/surveys
func (rt *Router) handleCreateSurvey(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	adminID, _ := middleware.AdminIDFromContext(r.Context())
	var draft services.SurveyDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	sv, err := rt.surveys.CreateSurvey(adminID, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sv)
}

// GET /api/surveys/:id
func (rt *Router) handleGetSurvey(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sv, err := rt.surveys.GetSurvey(ps.ByName("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sv.Questions = services.OrderedQuestions(sv)
	writeJSON(w, http.StatusOK, sv)
}

// POST /api/surveys/:id/status {status}
func (rt *Router) handleSetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Status services.SurveyStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sv, err := rt.surveys.SetStatus(ps.ByName("id"), services.SurveyStatus(strings.ToUpper(string(req.Status))))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}
