package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/soaringjerry/Surveyor/internal/middleware"
	"github.com/soaringjerry/Surveyor/internal/services"
	"github.com/soaringjerry/Surveyor/internal/utils"
)

type Options struct {
	Store         Store
	Authenticator *middleware.Authenticator
	// Verifier enables Turnstile checks on public submissions when set.
	Verifier      services.Verifier
	// ReportFont is an optional TrueType face for CJK text in PDF reports.
	ReportFont    []byte
	Location      *time.Location
	SessionTTL    time.Duration
	SecureCookies bool
	Commit        string
	BuildTime     string
}

type Router struct {
	store         Store
	authn         *middleware.Authenticator
	loc           *time.Location
	secureCookies bool
	commit        string
	buildTime     string

	surveys   *services.SurveyService
	responses *services.ResponseService
	analytics *services.AnalyticsService
	exports   *services.ExportService
	reports   *services.ReportService
	auth      *services.AuthService
}

func NewRouter(opts Options) *Router {
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	authn := opts.Authenticator
	if authn == nil {
		authn = middleware.NewAuthenticator("")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	analytics := services.NewAnalyticsService(store, loc)
	return &Router{
		store:         store,
		authn:         authn,
		loc:           loc,
		secureCookies: opts.SecureCookies,
		commit:        opts.Commit,
		buildTime:     opts.BuildTime,
		surveys:       services.NewSurveyService(store),
		responses:     services.NewResponseService(store, opts.Verifier),
		analytics:     analytics,
		exports:       services.NewExportService(store, loc),
		reports:       services.NewReportService(analytics, opts.ReportFont),
		auth:          services.NewAuthService(store, authn.SignToken, opts.SessionTTL),
	}
}

// Auth exposes the auth service for startup bootstrapping.
func (rt *Router) Auth() *services.AuthService { return rt.auth }

func (rt *Router) Register(r *httprouter.Router) {
	r.GET("/health", rt.handleHealth)
	r.GET("/version", rt.handleVersion)

	r.GET("/api/public/surveys/:id", rt.handlePublicSurvey)
	r.POST("/api/public/surveys/:id/responses", rt.handleSubmit)

	r.POST("/api/auth/login", rt.handleLogin)
	r.POST("/api/auth/logout", rt.handleLogout)

	r.GET("/api/dashboard", middleware.RequireAdmin(rt.handleDashboard))
	r.GET("/api/surveys", middleware.RequireAdmin(rt.handleListSurveys))
	r.POST("/api/surveys", middleware.RequireAdmin(rt.handleCreateSurvey))
	r.GET("/api/surveys/:id", middleware.RequireAdmin(rt.handleGetSurvey))
	r.POST("/api/surveys/:id/status", middleware.RequireAdmin(rt.handleSetStatus))

	r.GET("/api/analytics/:id", middleware.RequireAdmin(rt.handleAnalytics))
	r.GET("/api/analytics/:id/export", middleware.RequireAdmin(rt.handleExport))
	r.GET("/api/analytics/:id/report", middleware.RequireAdmin(rt.handleReport))
}

// Handler returns the routed API with session parsing applied.
func (rt *Router) Handler() http.Handler {
	r := httprouter.New()
	rt.Register(r)
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.ErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, v interface{}) {
		slog.Error("handler panic", "path", req.URL.Path, "panic", v)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal error")
	}
	return rt.authn.WithAuth(r)
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"name":       "Surveyor API",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.commit,
		"build_time": rt.buildTime,
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]any{"commit": rt.commit, "build_time": rt.buildTime})
}

// publicSurvey is the respondent view: no authorship or timestamps.
type publicSurvey struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Category    services.Category    `json:"category"`
	Questions   []*services.Question `json:"questions"`
}

// GET /api/public/surveys/:id
func (rt *Router) handlePublicSurvey(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sv, err := rt.surveys.GetPublishedSurvey(ps.ByName("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publicSurvey{
		ID:          sv.ID,
		Title:       sv.Title,
		Description: sv.Description,
		Category:    sv.Category,
		Questions:   services.OrderedQuestions(sv),
	})
}

// POST /api/public/surveys/:id/responses
// { answers: {question_id: value}, turnstile_token?: string }
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Answers        map[string]json.RawMessage `json:"answers"`
		TurnstileToken string                     `json:"turnstile_token"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.responses.Submit(services.SubmitRequest{
		SurveyID:       ps.ByName("id"),
		Answers:        req.Answers,
		TurnstileToken: req.TurnstileToken,
		RemoteIP:       middleware.ClientIP(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "response_id": res.ResponseID, "answers": res.AnswersCount})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ttl := rt.auth.TokenTTL()
	middleware.SetSessionCookie(w, res.Token, ttl, rt.secureCookies)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      res.Token,
		"admin_id":   res.AdminID,
		"role":       res.Role,
		"expires_in": int(ttl.Seconds()),
	})
}

// POST /api/auth/logout
func (rt *Router) handleLogout(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	middleware.ClearSessionCookie(w, rt.secureCookies)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
