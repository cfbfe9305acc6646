package services

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SurveyStore interface {
	AddSurvey(sv *Survey) error
	GetSurvey(id string) (*Survey, error)
	ListSurveys(status SurveyStatus) ([]*Survey, error)
	UpdateSurveyStatus(id string, status SurveyStatus, at time.Time) (bool, error)
	CountResponses() (int, error)
}

// SurveyDraft is the admin-authored payload for a new survey.
type SurveyDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Publish     bool            `json:"publish"`
	Questions   []QuestionDraft `json:"questions"`
}

type QuestionDraft struct {
	Text     string       `json:"question_text"`
	Type     QuestionType `json:"question_type"`
	Options  []string     `json:"options"`
	Required bool         `json:"is_required"`
}

type DashboardStats struct {
	TotalSurveys   int       `json:"total_surveys"`
	TotalResponses int       `json:"total_responses"`
	PublishedCount int       `json:"published_surveys"`
	DraftCount     int       `json:"draft_surveys"`
	RecentSurveys  []*Survey `json:"recent_surveys"`
}

const recentSurveysLimit = 5

type SurveyService struct {
	store SurveyStore
	now   func() time.Time
	newID func() string
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (s *SurveyService) CreateSurvey(adminID string, draft SurveyDraft) (*Survey, error) {
	if adminID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, NewInvalidError("title required")
	}
	if !draft.Category.Valid() {
		return nil, NewInvalidError("invalid category")
	}
	if len(draft.Questions) == 0 {
		return nil, NewInvalidError("at least one question required")
	}
	now := s.now()
	sv := &Survey{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		Category:    draft.Category,
		Status:      StatusDraft,
		CreatedBy:   adminID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if draft.Publish {
		sv.Status = StatusPublished
	}
	for i, qd := range draft.Questions {
		text := strings.TrimSpace(qd.Text)
		if text == "" {
			return nil, NewInvalidError("question text required")
		}
		if !qd.Type.Valid() {
			return nil, NewInvalidError("invalid question type: " + string(qd.Type))
		}
		q := &Question{
			ID:       s.newID(),
			SurveyID: sv.ID,
			Text:     text,
			Type:     qd.Type,
			Required: qd.Required,
			Position: i,
		}
		if qd.Type.IsChoice() {
			for _, opt := range qd.Options {
				if o := strings.TrimSpace(opt); o != "" {
					q.Options = append(q.Options, o)
				}
			}
			if len(q.Options) == 0 {
				return nil, NewInvalidError("choice question requires options: " + text)
			}
		}
		sv.Questions = append(sv.Questions, q)
	}
	if err := s.store.AddSurvey(sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *SurveyService) SetStatus(id string, status SurveyStatus) (*Survey, error) {
	if !status.Valid() {
		return nil, NewInvalidError("invalid status")
	}
	ok, err := s.store.UpdateSurveyStatus(id, status, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewNotFoundError("survey not found")
	}
	return s.store.GetSurvey(id)
}

func (s *SurveyService) ListSurveys(status SurveyStatus) ([]*Survey, error) {
	if status != "" && !status.Valid() {
		return nil, NewInvalidError("invalid status")
	}
	return s.store.ListSurveys(status)
}

func (s *SurveyService) GetSurvey(id string) (*Survey, error) {
	sv, err := s.store.GetSurvey(id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	return sv, nil
}

// GetPublishedSurvey hides drafts from the public.
func (s *SurveyService) GetPublishedSurvey(id string) (*Survey, error) {
	sv, err := s.GetSurvey(id)
	if err != nil {
		return nil, err
	}
	if sv.Status != StatusPublished {
		return nil, NewNotFoundError("survey not found")
	}
	return sv, nil
}

func (s *SurveyService) Dashboard() (*DashboardStats, error) {
	all, err := s.store.ListSurveys("")
	if err != nil {
		return nil, err
	}
	responses, err := s.store.CountResponses()
	if err != nil {
		return nil, err
	}
	st := &DashboardStats{TotalSurveys: len(all), TotalResponses: responses}
	for _, sv := range all {
		switch sv.Status {
		case StatusPublished:
			st.PublishedCount++
		case StatusDraft:
			st.DraftCount++
		}
	}
	recent := append([]*Survey(nil), all...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentSurveysLimit {
		recent = recent[:recentSurveysLimit]
	}
	st.RecentSurveys = recent
	return st, nil
}
