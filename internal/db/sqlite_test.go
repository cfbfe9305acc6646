package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Surveyor/internal/services"
)

// TestSQLiteRoundTrip runs against a real sqlite file; it is skipped when the
// driver is unavailable (cgo disabled).
func TestSQLiteRoundTrip(t *testing.T) {
	conn, err := Open(DialectSQLite, filepath.Join(t.TempDir(), "data", "surveyor.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer conn.Close()
	require.NoError(t, RunMigrations(conn, DialectSQLite, ""))
	require.NoError(t, RunMigrations(conn, DialectSQLite, ""))

	s, err := NewSQLStore(conn, DialectSQLite)
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sv := &services.Survey{
		ID: "S1", Title: "Pulse", Category: services.CategoryIndustrial, Status: services.StatusPublished,
		CreatedAt: now, UpdatedAt: now,
		Questions: []*services.Question{
			{ID: "Q2", Text: "Second", Type: services.QuestionRating, Position: 1},
			{ID: "Q1", Text: "First", Type: services.QuestionMultipleChoice, Options: []string{"a", "b"}, Position: 0},
		},
	}
	require.NoError(t, s.AddSurvey(sv))
	err = s.AddSurvey(sv)
	se, ok := services.AsServiceError(err)
	require.True(t, ok, "duplicate survey should be a conflict: %v", err)
	assert.Equal(t, services.ErrorConflict, se.Code)

	for i, v := range []any{[]string{"a", "b"}, []string{"a"}} {
		r := &services.Response{
			ID:          "R" + string(rune('1'+i)),
			SurveyID:    "S1",
			SubmittedAt: now.Add(time.Duration(i) * time.Hour),
			Answers:     []*services.Answer{{ID: "A" + string(rune('1'+i)), QuestionID: "Q1", Value: services.NewAnswerValue(v)}},
		}
		require.NoError(t, s.AddResponse(r))
	}
	assert.Error(t, s.AddResponse(&services.Response{ID: "RX", SurveyID: "missing", SubmittedAt: now}))

	got, err := s.GetSurvey("S1")
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "Q1", got.Questions[0].ID)

	rs, err := s.ListResponsesBySurvey("S1")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	stats := services.AggregateQuestions(got, rs)
	assert.Equal(t, []services.ChartPoint{{Name: "a", Value: 2}, {Name: "b", Value: 1}}, stats[0].Chart)

	n, err := s.CountResponses()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
