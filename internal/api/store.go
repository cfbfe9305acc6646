package api

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/Surveyor/internal/services"
)

type memoryStore struct {
	mu           sync.RWMutex
	surveys      map[string]*services.Survey
	responses    []*services.Response
	adminsByMail map[string]*services.Admin
}

// NewMemoryStore returns a process-local Store. Data is lost on restart.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		surveys:      map[string]*services.Survey{},
		responses:    []*services.Response{},
		adminsByMail: map[string]*services.Admin{},
	}
}

func cloneSurvey(sv *services.Survey) *services.Survey {
	if sv == nil {
		return nil
	}
	cp := *sv
	cp.Questions = make([]*services.Question, 0, len(sv.Questions))
	for _, q := range sv.Questions {
		if q == nil {
			continue
		}
		qc := *q
		qc.Options = append([]string(nil), q.Options...)
		cp.Questions = append(cp.Questions, &qc)
	}
	return &cp
}

func cloneResponse(r *services.Response) *services.Response {
	cp := *r
	cp.Answers = make([]*services.Answer, 0, len(r.Answers))
	for _, a := range r.Answers {
		if a == nil {
			continue
		}
		ac := *a
		ac.Value = append(services.AnswerValue(nil), a.Value...)
		cp.Answers = append(cp.Answers, &ac)
	}
	return &cp
}

func (s *memoryStore) AddSurvey(sv *services.Survey) error {
	if sv == nil || sv.ID == "" {
		return services.NewInvalidError("survey id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; ok {
		return services.NewConflictError("survey already exists")
	}
	s.surveys[sv.ID] = cloneSurvey(sv)
	return nil
}

func (s *memoryStore) GetSurvey(id string) (*services.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSurvey(s.surveys[id]), nil
}

// ListSurveys returns surveys newest first; an empty status lists all.
func (s *memoryStore) ListSurveys(status services.SurveyStatus) ([]*services.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		if status == "" || sv.Status == status {
			out = append(out, cloneSurvey(sv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryStore) UpdateSurveyStatus(id string, status services.SurveyStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[id]
	if !ok {
		return false, nil
	}
	sv.Status = status
	sv.UpdatedAt = at
	return true, nil
}

func (s *memoryStore) AddResponse(r *services.Response) error {
	if r == nil || r.ID == "" {
		return services.NewInvalidError("response id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[r.SurveyID]; !ok {
		return services.NewNotFoundError("survey not found")
	}
	s.responses = append(s.responses, cloneResponse(r))
	return nil
}

// ListResponsesBySurvey returns responses in submission order.
func (s *memoryStore) ListResponsesBySurvey(surveyID string) ([]*services.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.Response{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			out = append(out, cloneResponse(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *memoryStore) CountResponses() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.responses), nil
}

func (s *memoryStore) AddAdmin(a *services.Admin) error {
	if a == nil || strings.TrimSpace(a.Email) == "" {
		return services.NewInvalidError("admin email required")
	}
	key := adminKey(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adminsByMail[key]; ok {
		return services.NewConflictError("admin email already registered")
	}
	cp := *a
	cp.Email = key
	s.adminsByMail[key] = &cp
	return nil
}

func (s *memoryStore) FindAdminByEmail(email string) (*services.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adminsByMail[adminKey(email)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func adminKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }
