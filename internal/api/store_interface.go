package api

import (
	"time"

	"github.com/soaringjerry/Surveyor/internal/services"
)

// Store is the persistence surface shared by the memory store and db.SQLStore.
type Store interface {
	AddSurvey(sv *services.Survey) error
	GetSurvey(id string) (*services.Survey, error)
	ListSurveys(status services.SurveyStatus) ([]*services.Survey, error)
	UpdateSurveyStatus(id string, status services.SurveyStatus, at time.Time) (bool, error)

	AddResponse(r *services.Response) error
	ListResponsesBySurvey(surveyID string) ([]*services.Response, error)
	CountResponses() (int, error)

	AddAdmin(a *services.Admin) error
	FindAdminByEmail(email string) (*services.Admin, error)
}

var (
	_ Store                   = (*memoryStore)(nil)
	_ services.SurveyStore    = Store(nil)
	_ services.ResponseStore  = Store(nil)
	_ services.AnalyticsStore = Store(nil)
	_ services.ExportStore    = Store(nil)
	_ services.AuthStore      = Store(nil)
)
