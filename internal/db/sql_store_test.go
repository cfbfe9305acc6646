package db

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Surveyor/internal/services"
)

var (
	surveyQueryColumns   = []string{"id", "title", "description", "category", "status", "created_by", "created_at", "updated_at"}
	questionQueryColumns = []string{"id", "question_text", "question_type", "options", "is_required", "order_index"}
	responseQueryColumns = []string{"id", "submitted_at"}
	answerQueryColumns   = []string{"id", "response_id", "question_id", "answer_value"}
	adminQueryColumns    = []string{"id", "email", "role", "pass_hash", "created_at"}
)

func newMockStore(t *testing.T, dialect Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	if dialect == DialectSQLite {
		mock.ExpectExec("PRAGMA foreign_keys").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("PRAGMA journal_mode").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("PRAGMA synchronous").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	s, err := NewSQLStore(conn, dialect)
	require.NoError(t, err)
	return s, mock
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", rebind(DialectPostgres, q))
	assert.Equal(t, q, rebind(DialectSQLite, q))
}

func TestAddSurveyWritesQuestionsInOneTransaction(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	sv := &services.Survey{
		ID: "S1", Title: "Pulse", Category: services.CategoryProfessional, Status: services.StatusDraft,
		CreatedBy: "A1", CreatedAt: now, UpdatedAt: now,
		Questions: []*services.Question{
			{ID: "Q1", Text: "Pick", Type: services.QuestionSingleChoice, Options: []string{"a", "b"}, Required: true, Position: 0},
			{ID: "Q2", Text: "Why", Type: services.QuestionLongText, Position: 1},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO surveys (.+) VALUES \(\$1, \$2`).
		WithArgs("S1", "Pulse", nil, "PROFESSIONAL", "DRAFT", "A1", "2025-05-01T08:00:00.000000000Z", "2025-05-01T08:00:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO questions").
		WithArgs("Q1", "S1", "Pick", "SINGLE_CHOICE", `["a","b"]`, int64(1), 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO questions").
		WithArgs("Q2", "S1", "Why", "LONG_TEXT", nil, int64(0), 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.AddSurvey(sv))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSurveyRollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO surveys").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO questions").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.AddSurvey(&services.Survey{ID: "S1", Questions: []*services.Question{{ID: "Q1"}}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSurveyDuplicateIsConflict(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO surveys").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := s.AddSurvey(&services.Survey{ID: "S1"})
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorConflict, se.Code)
}

func TestGetSurveyLoadsQuestions(t *testing.T) {
	s, mock := newMockStore(t, DialectSQLite)
	mock.ExpectQuery(`SELECT (.+) FROM surveys WHERE id = \?`).WithArgs("S1").
		WillReturnRows(sqlmock.NewRows(surveyQueryColumns).
			AddRow("S1", "Pulse", nil, "INDUSTRIAL", "PUBLISHED", "A1", "2025-05-01T08:00:00.000000000Z", "2025-05-02T08:00:00.000000000Z"))
	mock.ExpectQuery("SELECT (.+) FROM questions WHERE survey_id").WithArgs("S1").
		WillReturnRows(sqlmock.NewRows(questionQueryColumns).
			AddRow("Q1", "Pick", "MULTIPLE_CHOICE", `["x","y"]`, 1, 0).
			AddRow("Q2", "Rate", "RATING", nil, 0, 1))

	sv, err := s.GetSurvey("S1")
	require.NoError(t, err)
	require.NotNil(t, sv)
	assert.Equal(t, services.StatusPublished, sv.Status)
	assert.Equal(t, "", sv.Description)
	assert.Equal(t, time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC), sv.UpdatedAt)
	require.Len(t, sv.Questions, 2)
	assert.Equal(t, []string{"x", "y"}, sv.Questions[0].Options)
	assert.True(t, sv.Questions[0].Required)
	assert.Equal(t, services.QuestionRating, sv.Questions[1].Type)
	assert.Equal(t, "S1", sv.Questions[1].SurveyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSurveyMissing(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectQuery(`FROM surveys WHERE id = \$1`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(surveyQueryColumns))

	sv, err := s.GetSurvey("nope")
	assert.NoError(t, err)
	assert.Nil(t, sv)
}

func TestListSurveysFiltersByStatus(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectQuery(`FROM surveys WHERE status = \$1 ORDER BY created_at DESC`).WithArgs("DRAFT").
		WillReturnRows(sqlmock.NewRows(surveyQueryColumns).
			AddRow("S2", "B", "", "SKILL_ASSESSMENT", "DRAFT", nil, "2025-05-03T00:00:00.000000000Z", "2025-05-03T00:00:00.000000000Z"))
	mock.ExpectQuery("FROM questions WHERE survey_id").WithArgs("S2").
		WillReturnRows(sqlmock.NewRows(questionQueryColumns))

	list, err := s.ListSurveys(services.StatusDraft)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "S2", list[0].ID)
	assert.Empty(t, list[0].Questions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSurveyStatus(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	at := time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE surveys SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("PUBLISHED", "2025-05-04T00:00:00.000000000Z", "S1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE surveys").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.UpdateSurveyStatus("S1", services.StatusPublished, at)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.UpdateSurveyStatus("ghost", services.StatusPublished, at)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddResponseIsAtomic(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	r := &services.Response{
		ID: "R1", SurveyID: "S1", SubmittedAt: time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC),
		Answers: []*services.Answer{
			{ID: "A1", QuestionID: "Q1", Value: services.NewAnswerValue([]string{"x", "y"})},
			{ID: "A2", QuestionID: "Q2", Value: services.NewAnswerValue(7)},
		},
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO responses").
		WithArgs("R1", "S1", "2025-05-04T09:30:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO answers").
		WithArgs("A1", "R1", "Q1", `["x","y"]`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO answers").
		WithArgs("A2", "R1", "Q2", "7").
		WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	assert.Error(t, s.AddResponse(r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListResponsesBySurveyAttachesAnswers(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectQuery(`FROM responses\s+WHERE survey_id = \$1 ORDER BY submitted_at`).WithArgs("S1").
		WillReturnRows(sqlmock.NewRows(responseQueryColumns).
			AddRow("R1", "2025-05-01T10:00:00.000000000Z").
			AddRow("R2", "2025-05-02T10:00:00.000000000Z"))
	mock.ExpectQuery("FROM answers a JOIN responses r").WithArgs("S1").
		WillReturnRows(sqlmock.NewRows(answerQueryColumns).
			AddRow("A1", "R1", "Q1", "5").
			AddRow("A2", "R2", "Q1", nil).
			AddRow("A3", "R2", "Q2", `"hello"`))

	rs, err := s.ListResponsesBySurvey("S1")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "5", rs[0].AnswerFor("Q1").Value.String())
	assert.True(t, rs[1].AnswerFor("Q1").Value.IsNull())
	assert.Equal(t, "hello", rs[1].AnswerFor("Q2").Value.String())
	assert.Equal(t, time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC), rs[1].SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListResponsesBySurveyEmptySkipsAnswers(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectQuery("FROM responses").WithArgs("S1").WillReturnRows(sqlmock.NewRows(responseQueryColumns))

	rs, err := s.ListResponsesBySurvey("S1")
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountResponses(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM responses`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	n, err := s.CountResponses()
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestAdmins(t *testing.T) {
	s, mock := newMockStore(t, DialectPostgres)
	mock.ExpectExec("INSERT INTO admins").
		WithArgs("A1", "admin@example.com", "SUPER_ADMIN", "hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO admins").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery(`FROM admins WHERE email = \$1`).WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows(adminQueryColumns).
			AddRow("A1", "admin@example.com", "SUPER_ADMIN", "hash", "2025-05-01T00:00:00.000000000Z"))
	mock.ExpectQuery("FROM admins").WithArgs("ghost@example.com").WillReturnRows(sqlmock.NewRows(adminQueryColumns))

	admin := &services.Admin{ID: "A1", Email: " Admin@Example.com", Role: services.RoleSuperAdmin, PassHash: []byte("hash")}
	require.NoError(t, s.AddAdmin(admin))
	err := s.AddAdmin(admin)
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorConflict, se.Code)

	got, err := s.FindAdminByEmail("ADMIN@example.com ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("hash"), got.PassHash)
	assert.Equal(t, services.RoleSuperAdmin, got.Role)

	none, err := s.FindAdminByEmail("ghost@example.com")
	assert.NoError(t, err)
	assert.Nil(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}
