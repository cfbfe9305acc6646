package services

import (
	"errors"
	"testing"
	"time"
)

type stubSurveyStore struct {
	surveys   map[string]*Survey
	responses []*Response
	admins    map[string]*Admin
	err       error
}

func newStubSurveyStore() *stubSurveyStore {
	return &stubSurveyStore{surveys: map[string]*Survey{}, admins: map[string]*Admin{}}
}

func (s *stubSurveyStore) AddSurvey(sv *Survey) error {
	if s.err != nil {
		return s.err
	}
	copy := *sv
	s.surveys[sv.ID] = &copy
	return nil
}

func (s *stubSurveyStore) GetSurvey(id string) (*Survey, error) {
	if s.err != nil {
		return nil, s.err
	}
	if sv, ok := s.surveys[id]; ok {
		copy := *sv
		return &copy, nil
	}
	return nil, nil
}

func (s *stubSurveyStore) ListSurveys(status SurveyStatus) ([]*Survey, error) {
	out := []*Survey{}
	for _, sv := range s.surveys {
		if status == "" || sv.Status == status {
			copy := *sv
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *stubSurveyStore) UpdateSurveyStatus(id string, status SurveyStatus, at time.Time) (bool, error) {
	sv, ok := s.surveys[id]
	if !ok {
		return false, nil
	}
	sv.Status = status
	sv.UpdatedAt = at
	return true, nil
}

func (s *stubSurveyStore) CountResponses() (int, error) { return len(s.responses), nil }

func (s *stubSurveyStore) AddResponse(r *Response) error {
	if s.err != nil {
		return s.err
	}
	s.responses = append(s.responses, r)
	return nil
}

func (s *stubSurveyStore) ListResponsesBySurvey(surveyID string) ([]*Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []*Response{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubSurveyStore) FindAdminByEmail(email string) (*Admin, error) {
	if a, ok := s.admins[email]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, nil
}

func (s *stubSurveyStore) AddAdmin(a *Admin) error {
	if _, ok := s.admins[a.Email]; ok {
		return errors.New("duplicate admin")
	}
	copy := *a
	s.admins[a.Email] = &copy
	return nil
}

func seededStore() *stubSurveyStore {
	store := newStubSurveyStore()
	store.surveys["S1"] = &Survey{
		ID: "S1", Title: "Customer Pulse", Category: CategoryProfessional, Status: StatusPublished,
		Questions: []*Question{
			{ID: "Q1", SurveyID: "S1", Text: "Rate us", Type: QuestionRating, Position: 0},
			{ID: "Q2", SurveyID: "S1", Text: "Channels", Type: QuestionMultipleChoice, Options: []string{"Web", "Phone"}, Position: 1},
			{ID: "Q3", SurveyID: "S1", Text: "Comments", Type: QuestionLongText, Position: 2},
		},
	}
	store.surveys["S2"] = &Survey{ID: "S2", Title: "Empty", Category: CategoryIndustrial, Status: StatusDraft}
	store.responses = []*Response{
		mkResponse("R1", time.Date(2025, 9, 10, 9, 0, 0, 0, time.UTC), ans("Q1", 8), ans("Q2", []string{"Web"}), ans("Q3", "Fast")),
		mkResponse("R2", time.Date(2025, 9, 12, 18, 0, 0, 0, time.UTC), ans("Q1", 6), ans("Q2", []string{"Web", "Phone"})),
		mkResponse("R3", time.Date(2025, 9, 15, 7, 0, 0, 0, time.UTC), ans("Q1", 9)),
	}
	return store
}

func TestAnalyzeReady(t *testing.T) {
	svc := NewAnalyticsService(seededStore(), time.UTC)
	res, err := svc.Analyze("S1", DateRange{})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if res.State != StateReady {
		t.Fatalf("state = %s", res.State)
	}
	if res.Summary == nil || res.Summary.TotalResponses != 3 || res.Summary.TotalQuestions != 3 {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}
	if len(res.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(res.Questions))
	}
	if res.Questions[1].Chart[0].Value != 2 {
		t.Fatalf("expected Web=2, got %+v", res.Questions[1].Chart)
	}
	if len(res.Timeseries) != 3 {
		t.Fatalf("unexpected timeseries: %+v", res.Timeseries)
	}
}

func TestAnalyzeDateFilter(t *testing.T) {
	svc := NewAnalyticsService(seededStore(), time.UTC)
	rng, _ := ParseDateRange("2025-09-11", "2025-09-12", time.UTC)
	res, err := svc.Analyze("S1", rng)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if res.Summary.TotalResponses != 1 || len(res.Filtered()) != 1 {
		t.Fatalf("expected only R2, got %+v", res.Summary)
	}
	if res.From != "2025-09-11" || res.To != "2025-09-12" {
		t.Fatalf("range echo = %s..%s", res.From, res.To)
	}
	if res.RawResponses != 3 {
		t.Fatalf("raw responses = %d", res.RawResponses)
	}
}

func TestAnalyzeFilteredEmpty(t *testing.T) {
	svc := NewAnalyticsService(seededStore(), time.UTC)
	rng, _ := ParseDateRange("2026-01-01", "", time.UTC)
	res, err := svc.Analyze("S1", rng)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if res.State != StateFilteredEmpty || res.Summary != nil {
		t.Fatalf("state=%s summary=%+v", res.State, res.Summary)
	}
	if len(res.Questions) != 3 {
		t.Fatalf("questions must still be listed")
	}
	for _, q := range res.Questions {
		if q.TotalResponses != 0 || q.ChartTotal() != 0 || len(q.TextAnswers) != 0 {
			t.Fatalf("expected zeroed stats: %+v", q)
		}
	}
}

func TestAnalyzeEmptyStates(t *testing.T) {
	svc := NewAnalyticsService(seededStore(), time.UTC)
	res, err := svc.Analyze("", DateRange{})
	if err != nil || res.State != StateNoSurvey || res.Summary != nil {
		t.Fatalf("no survey: %+v %v", res, err)
	}
	res, err = svc.Analyze("S2", DateRange{})
	if err != nil || res.State != StateNoResponses || len(res.Questions) != 0 {
		t.Fatalf("no responses: %+v %v", res, err)
	}
	if _, err := svc.Analyze("missing", DateRange{}); err == nil {
		t.Fatalf("expected not found")
	} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestAnalyzeStoreError(t *testing.T) {
	store := seededStore()
	store.err = errors.New("boom")
	if _, err := NewAnalyticsService(store, time.UTC).Analyze("S1", DateRange{}); err == nil {
		t.Fatalf("expected store error")
	}
}
