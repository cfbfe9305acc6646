package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/Surveyor/internal/api"
	"github.com/soaringjerry/Surveyor/internal/services"
)

// tsLayout is fixed-width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if dialect == DialectSQLite {
		pragmas := []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		}
		for _, stmt := range pragmas {
			if _, err := db.Exec(stmt); err != nil {
				return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
			}
		}
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func NewStore(db *sql.DB, dialect Dialect) (api.Store, error) {
	return NewSQLStore(db, dialect)
}

var _ api.Store = (*SQLStore)(nil)

func contextBg() context.Context { return context.Background() }

// rebind rewrites ? placeholders to $n for postgres.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) q(query string) string { return rebind(s.dialect, query) }

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		slog.Warn("sql store: parse timestamp", "value", s, "error", err)
		return time.Time{}
	}
	return t.UTC()
}

func encodeOptions(opts []string) (sql.NullString, error) {
	if len(opts) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeOptions(ns sql.NullString) []string {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		slog.Warn("sql store: decode options", "error", err)
		return nil
	}
	return out
}

func encodeAnswer(v services.AnswerValue) sql.NullString {
	if len(v) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(v), Valid: true}
}

func decodeAnswer(ns sql.NullString) services.AnswerValue {
	if !ns.Valid {
		return services.AnswerValue("null")
	}
	return services.AnswerValue(ns.String)
}

// withTx runs fn in a transaction and rolls back on error.
func (s *SQLStore) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(contextBg(), nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("sql store: rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) AddSurvey(sv *services.Survey) error {
	if sv == nil || sv.ID == "" {
		return services.NewInvalidError("survey id required")
	}
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(s.q(`INSERT INTO surveys (id, title, description, category, status, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			sv.ID, sv.Title, toNullString(sv.Description), string(sv.Category), string(sv.Status),
			toNullString(sv.CreatedBy), formatTS(sv.CreatedAt), formatTS(sv.UpdatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return services.NewConflictError("survey already exists")
			}
			return fmt.Errorf("insert survey: %w", err)
		}
		for _, q := range sv.Questions {
			opts, err := encodeOptions(q.Options)
			if err != nil {
				return fmt.Errorf("encode options: %w", err)
			}
			_, err = tx.Exec(s.q(`INSERT INTO questions (id, survey_id, question_text, question_type, options, is_required, order_index)
VALUES (?, ?, ?, ?, ?, ?, ?)`),
				q.ID, sv.ID, q.Text, string(q.Type), opts, boolToInt64(q.Required), q.Position)
			if err != nil {
				return fmt.Errorf("insert question %s: %w", q.ID, err)
			}
		}
		return nil
	})
}

const surveyColumns = `id, title, description, category, status, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*services.Survey, error) {
	var (
		sv                   services.Survey
		desc, createdBy      sql.NullString
		category, status     string
		createdAt, updatedAt string
	)
	if err := row.Scan(&sv.ID, &sv.Title, &desc, &category, &status, &createdBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sv.Description = desc.String
	sv.CreatedBy = createdBy.String
	sv.Category = services.Category(category)
	sv.Status = services.SurveyStatus(status)
	sv.CreatedAt = parseTS(createdAt)
	sv.UpdatedAt = parseTS(updatedAt)
	return &sv, nil
}

func (s *SQLStore) loadQuestions(surveyID string) ([]*services.Question, error) {
	rows, err := s.db.QueryContext(contextBg(), s.q(`SELECT id, question_text, question_type, options, is_required, order_index
FROM questions WHERE survey_id = ? ORDER BY order_index, id`), surveyID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	out := []*services.Question{}
	for rows.Next() {
		var (
			q        services.Question
			qType    string
			opts     sql.NullString
			required int64
		)
		if err := rows.Scan(&q.ID, &q.Text, &qType, &opts, &required, &q.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.SurveyID = surveyID
		q.Type = services.QuestionType(qType)
		q.Options = decodeOptions(opts)
		q.Required = required != 0
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetSurvey(id string) (*services.Survey, error) {
	row := s.db.QueryRowContext(contextBg(), s.q(`SELECT `+surveyColumns+` FROM surveys WHERE id = ?`), id)
	sv, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if sv.Questions, err = s.loadQuestions(sv.ID); err != nil {
		return nil, err
	}
	return sv, nil
}

// ListSurveys returns surveys newest first; an empty status lists all.
func (s *SQLStore) ListSurveys(status services.SurveyStatus) ([]*services.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(contextBg(), s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	out := []*services.Survey{}
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, sv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for _, sv := range out {
		if sv.Questions, err = s.loadQuestions(sv.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) UpdateSurveyStatus(id string, status services.SurveyStatus, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(contextBg(), s.q(`UPDATE surveys SET status = ?, updated_at = ? WHERE id = ?`),
		string(status), formatTS(at), id)
	if err != nil {
		return false, fmt.Errorf("update survey status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// AddResponse writes the response and its answers atomically.
func (s *SQLStore) AddResponse(r *services.Response) error {
	if r == nil || r.ID == "" {
		return services.NewInvalidError("response id required")
	}
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(s.q(`INSERT INTO responses (id, survey_id, submitted_at) VALUES (?, ?, ?)`),
			r.ID, r.SurveyID, formatTS(r.SubmittedAt)); err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
		for _, a := range r.Answers {
			if _, err := tx.Exec(s.q(`INSERT INTO answers (id, response_id, question_id, answer_value) VALUES (?, ?, ?, ?)`),
				a.ID, r.ID, a.QuestionID, encodeAnswer(a.Value)); err != nil {
				return fmt.Errorf("insert answer %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

// ListResponsesBySurvey returns responses in submission order with their answers.
func (s *SQLStore) ListResponsesBySurvey(surveyID string) ([]*services.Response, error) {
	rows, err := s.db.QueryContext(contextBg(), s.q(`SELECT id, submitted_at FROM responses
WHERE survey_id = ? ORDER BY submitted_at, id`), surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	out := []*services.Response{}
	byID := map[string]*services.Response{}
	for rows.Next() {
		var id, submitted string
		if err := rows.Scan(&id, &submitted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r := &services.Response{ID: id, SurveyID: surveyID, SubmittedAt: parseTS(submitted)}
		out = append(out, r)
		byID[id] = r
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(out) == 0 {
		return out, nil
	}

	arows, err := s.db.QueryContext(contextBg(), s.q(`SELECT a.id, a.response_id, a.question_id, a.answer_value
FROM answers a JOIN responses r ON r.id = a.response_id
WHERE r.survey_id = ? ORDER BY a.response_id, a.id`), surveyID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var (
			a   services.Answer
			val sql.NullString
		)
		if err := arows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &val); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.Value = decodeAnswer(val)
		if r, ok := byID[a.ResponseID]; ok {
			r.Answers = append(r.Answers, &a)
		}
	}
	return out, arows.Err()
}

func (s *SQLStore) CountResponses() (int, error) {
	var n int
	if err := s.db.QueryRowContext(contextBg(), `SELECT COUNT(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func (s *SQLStore) AddAdmin(a *services.Admin) error {
	if a == nil || strings.TrimSpace(a.Email) == "" {
		return services.NewInvalidError("admin email required")
	}
	_, err := s.db.ExecContext(contextBg(), s.q(`INSERT INTO admins (id, email, role, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
		a.ID, strings.ToLower(strings.TrimSpace(a.Email)), string(a.Role), string(a.PassHash), formatTS(a.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("admin email already registered")
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *SQLStore) FindAdminByEmail(email string) (*services.Admin, error) {
	var (
		a                     services.Admin
		role, hash, createdAt string
	)
	err := s.db.QueryRowContext(contextBg(), s.q(`SELECT id, email, role, pass_hash, created_at FROM admins WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email))).Scan(&a.ID, &a.Email, &role, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	a.Role = services.AdminRole(role)
	a.PassHash = []byte(hash)
	a.CreatedAt = parseTS(createdAt)
	return &a, nil
}
