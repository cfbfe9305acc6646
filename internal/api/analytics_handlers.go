package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/soaringjerry/Surveyor/internal/middleware"
	"github.com/soaringjerry/Surveyor/internal/services"
	"github.com/soaringjerry/Surveyor/internal/utils"
)

type analyticsResponse struct {
	*services.AnalyticsResult
	Message string `json:"message,omitempty"`
}

func (rt *Router) dateRange(r *http.Request) (services.DateRange, error) {
	q := r.URL.Query()
	return services.ParseDateRange(q.Get("from"), q.Get("to"), rt.loc)
}

// GET /api/analytics/:id?from=YYYY-MM-DD&to=YYYY-MM-DD
func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rng, err := rt.dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.analytics.Analyze(ps.ByName("id"), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := analyticsResponse{AnalyticsResult: res}
	if res.State != services.StateReady {
		out.Message = utils.T(middleware.LocaleFromContext(r.Context()), "analytics."+string(res.State))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/analytics/:id/export?format=csv|xlsx&from=&to=
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rng, err := rt.dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.exports.Export(services.ExportParams{
		SurveyID: ps.ByName("id"),
		Format:   r.URL.Query().Get("format"),
		Range:    rng,
		Locale:   middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, res)
}

// GET /api/analytics/:id/report?from=&to=
func (rt *Router) handleReport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rng, err := rt.dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.reports.Render(ps.ByName("id"), rng, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, res)
}
