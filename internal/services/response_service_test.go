package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type stubVerifier struct {
	ok     bool
	err    error
	tokens []string
}

func (v *stubVerifier) Verify(token, remoteIP string) (bool, error) {
	v.tokens = append(v.tokens, token)
	return v.ok, v.err
}

func submitStore() *stubSurveyStore {
	store := newStubSurveyStore()
	store.surveys["S1"] = &Survey{
		ID: "S1", Title: "Pulse", Status: StatusPublished,
		Questions: []*Question{
			{ID: "Q1", Text: "Name", Type: QuestionShortText, Required: true, Position: 0},
			{ID: "Q2", Text: "Score", Type: QuestionRating, Position: 1},
			{ID: "Q3", Text: "Extra", Type: QuestionLongText, Position: 2},
		},
	}
	store.surveys["D1"] = &Survey{ID: "D1", Title: "Draft", Status: StatusDraft}
	return store
}

func rawAnswers(kv map[string]string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		out[k] = json.RawMessage(v)
	}
	return out
}

func TestSubmitStoresAnswers(t *testing.T) {
	store := submitStore()
	svc := NewResponseService(store, nil)
	fixed := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	res, err := svc.Submit(SubmitRequest{
		SurveyID: "S1",
		Answers:  rawAnswers(map[string]string{"Q1": `"Ada"`, "Q2": `7`, "QX": `"ignored"`}),
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.AnswersCount != 2 {
		t.Fatalf("expected 2 answers, got %d", res.AnswersCount)
	}
	if len(store.responses) != 1 {
		t.Fatalf("expected stored response")
	}
	r := store.responses[0]
	if r.ID != res.ResponseID || !r.SubmittedAt.Equal(fixed) {
		t.Fatalf("unexpected response: %+v", r)
	}
	if a := r.AnswerFor("Q2"); a == nil || a.Value.String() != "7" {
		t.Fatalf("unexpected Q2 answer: %+v", a)
	}
	if r.AnswerFor("Q3") != nil {
		t.Fatalf("absent optional answer must not be stored")
	}
}

func TestSubmitRequiresRequiredAnswers(t *testing.T) {
	svc := NewResponseService(submitStore(), nil)
	for _, answers := range []map[string]string{
		{"Q2": `5`},
		{"Q1": `"  "`},
		{"Q1": `null`},
	} {
		_, err := svc.Submit(SubmitRequest{SurveyID: "S1", Answers: rawAnswers(answers)})
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorInvalid {
			t.Fatalf("expected invalid error for %v, got %v", answers, err)
		}
	}
}

func TestSubmitRejectsDraftsAndUnknown(t *testing.T) {
	svc := NewResponseService(submitStore(), nil)
	if _, err := svc.Submit(SubmitRequest{SurveyID: "D1", Answers: rawAnswers(nil)}); !errors.Is(err, ErrSurveyClosed) {
		t.Fatalf("expected ErrSurveyClosed, got %v", err)
	}
	_, err := svc.Submit(SubmitRequest{SurveyID: "nope", Answers: rawAnswers(nil)})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Submit(SubmitRequest{SurveyID: "S1"}); err == nil {
		t.Fatalf("expected invalid payload error")
	}
}

func TestSubmitTurnstile(t *testing.T) {
	store := submitStore()
	v := &stubVerifier{ok: false}
	svc := NewResponseService(store, v)
	req := SubmitRequest{SurveyID: "S1", Answers: rawAnswers(map[string]string{"Q1": `"Ada"`}), TurnstileToken: "tok"}
	if _, err := svc.Submit(req); !errors.Is(err, ErrTurnstileVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
	v.ok = true
	if _, err := svc.Submit(req); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if len(v.tokens) != 2 || v.tokens[1] != "tok" {
		t.Fatalf("unexpected verifier calls: %v", v.tokens)
	}
	if len(store.responses) != 1 {
		t.Fatalf("expected 1 stored response, got %d", len(store.responses))
	}
}

func TestSubmitStoreError(t *testing.T) {
	store := submitStore()
	svc := NewResponseService(store, nil)
	store.err = errors.New("db down")
	if _, err := svc.Submit(SubmitRequest{SurveyID: "S1", Answers: rawAnswers(map[string]string{"Q1": `"x"`})}); err == nil {
		t.Fatalf("expected store error")
	}
}
