package services

import (
	"strings"
	"time"
)

type AnalyticsStore interface {
	GetSurvey(id string) (*Survey, error)
	ListResponsesBySurvey(surveyID string) ([]*Response, error)
}

type AnalyticsState string

const (
	StateNoSurvey      AnalyticsState = "no_survey"
	StateNoResponses   AnalyticsState = "no_responses"
	StateFilteredEmpty AnalyticsState = "filtered_empty"
	StateReady         AnalyticsState = "ready"
)

type AnalyticsResult struct {
	State        AnalyticsState  `json:"state"`
	Survey       *Survey         `json:"survey,omitempty"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to,omitempty"`
	RawResponses int             `json:"raw_responses"`
	Summary      *Summary        `json:"summary,omitempty"`
	Questions    []QuestionStats `json:"questions"`
	Timeseries   []DailyCount    `json:"timeseries"`

	filtered []*Response
}

// Filtered exposes the responses that survived the date filter.
func (r *AnalyticsResult) Filtered() []*Response { return r.filtered }

type AnalyticsService struct {
	store AnalyticsStore
	loc   *time.Location
}

func NewAnalyticsService(store AnalyticsStore, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{store: store, loc: loc}
}

func (s *AnalyticsService) Location() *time.Location { return s.loc }

// Analyze loads the survey and its responses and recomputes every summary from scratch.
func (s *AnalyticsService) Analyze(surveyID string, rng DateRange) (*AnalyticsResult, error) {
	res := &AnalyticsResult{
		State:      StateNoSurvey,
		Questions:  []QuestionStats{},
		Timeseries: []DailyCount{},
	}
	if !rng.From.IsZero() {
		res.From = rng.From.Format(dateLayout)
	}
	if !rng.To.IsZero() {
		res.To = rng.To.Format(dateLayout)
	}
	if strings.TrimSpace(surveyID) == "" {
		return res, nil
	}
	sv, err := s.store.GetSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	res.Survey = sv
	responses, err := s.store.ListResponsesBySurvey(surveyID)
	if err != nil {
		return nil, err
	}
	res.RawResponses = len(responses)
	if len(responses) == 0 {
		res.State = StateNoResponses
		return res, nil
	}
	filtered := FilterResponses(responses, rng)
	res.filtered = filtered
	res.Questions = AggregateQuestions(sv, filtered)
	res.Timeseries = Timeseries(filtered, s.loc)
	res.Summary = Summarize(sv, filtered)
	if len(filtered) == 0 {
		res.State = StateFilteredEmpty
	} else {
		res.State = StateReady
	}
	return res, nil
}
