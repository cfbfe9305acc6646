package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ResponseStore abstracts persistence operations required by ResponseService.
type ResponseStore interface {
	GetSurvey(id string) (*Survey, error)
	AddResponse(r *Response) error
}

// Verifier checks an anti-bot token for a submission.
type Verifier interface {
	Verify(token, remoteIP string) (bool, error)
}

// SubmitRequest transports the decoded public submission into the service layer.
type SubmitRequest struct {
	SurveyID       string
	Answers        map[string]json.RawMessage
	TurnstileToken string
	RemoteIP       string
}

type SubmitResult struct {
	ResponseID   string
	AnswersCount int
}

var (
	// ErrSurveyClosed is returned when a submission targets a draft survey.
	ErrSurveyClosed = errors.New("survey is not accepting responses")
	// ErrTurnstileVerificationFailed indicates Cloudflare Turnstile verification failed.
	ErrTurnstileVerificationFailed = errors.New("turnstile verification failed")
)

// ResponseService hosts the public submission workflow.
type ResponseService struct {
	store    ResponseStore
	verifier Verifier
	now      func() time.Time
	newID    func() string
}

// NewResponseService constructs a service bound to the provided persistence interface.
// A nil verifier disables Turnstile checks.
func NewResponseService(store ResponseStore, verifier Verifier) *ResponseService {
	return &ResponseService{
		store:    store,
		verifier: verifier,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *ResponseService) Submit(req SubmitRequest) (*SubmitResult, error) {
	if s.store == nil {
		return nil, errors.New("response service store is nil")
	}
	if req.SurveyID == "" || req.Answers == nil {
		return nil, NewInvalidError("Invalid request payload.")
	}
	sv, err := s.store.GetSurvey(req.SurveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	if sv.Status != StatusPublished {
		return nil, ErrSurveyClosed
	}

	if s.verifier != nil {
		ok, err := s.verifier.Verify(req.TurnstileToken, req.RemoteIP)
		if err != nil || !ok {
			return nil, ErrTurnstileVerificationFailed
		}
	}

	resp := &Response{ID: s.newID(), SurveyID: sv.ID, SubmittedAt: s.now()}
	for _, q := range OrderedQuestions(sv) {
		raw, ok := req.Answers[q.ID]
		val := AnswerValue(raw)
		if !ok || val.Empty() {
			if q.Required {
				return nil, NewInvalidError("answer required: " + q.Text)
			}
			if !ok {
				continue
			}
		}
		resp.Answers = append(resp.Answers, &Answer{
			ID:         s.newID(),
			ResponseID: resp.ID,
			QuestionID: q.ID,
			Value:      append(AnswerValue(nil), val...),
		})
	}

	if err := s.store.AddResponse(resp); err != nil {
		return nil, err
	}
	return &SubmitResult{ResponseID: resp.ID, AnswersCount: len(resp.Answers)}, nil
}
