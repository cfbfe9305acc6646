package services

import (
	"strings"
	"time"

	"github.com/soaringjerry/Surveyor/internal/utils"
)

type ExportStore interface {
	GetSurvey(id string) (*Survey, error)
	ListResponsesBySurvey(surveyID string) ([]*Response, error)
}

type ExportParams struct {
	SurveyID string
	Format   string
	Range    DateRange
	Locale   string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
	loc   *time.Location
}

func NewExportService(store ExportStore, loc *time.Location) *ExportService {
	if loc == nil {
		loc = time.Local
	}
	return &ExportService{store: store, loc: loc}
}

func (s *ExportService) Export(params ExportParams) (*ExportResult, error) {
	if strings.TrimSpace(params.SurveyID) == "" {
		return nil, NewInvalidError("survey_id required")
	}
	format := strings.ToLower(strings.TrimSpace(params.Format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return nil, NewInvalidError("unsupported format")
	}
	sv, err := s.store.GetSurvey(params.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	rs, err := s.store.ListResponsesBySurvey(params.SurveyID)
	if err != nil {
		return nil, err
	}
	filtered := FilterResponses(rs, params.Range)
	tbl := BuildExportRows(sv, filtered, func(t time.Time) string {
		return utils.FormatTimestamp(params.Locale, t.In(s.loc))
	})

	switch format {
	case "xlsx":
		b, err := ExportTableXLSX(tbl)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			Filename:    sv.Title + "_responses.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        b,
		}, nil
	default:
		b, err := ExportTableCSV(tbl)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: sv.Title + "_responses.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	}
}
