package services

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Category string

const (
	CategoryIndustrial      Category = "INDUSTRIAL"
	CategoryProfessional    Category = "PROFESSIONAL"
	CategorySkillAssessment Category = "SKILL_ASSESSMENT"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryIndustrial, CategoryProfessional, CategorySkillAssessment:
		return true
	}
	return false
}

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "DRAFT"
	StatusPublished SurveyStatus = "PUBLISHED"
)

func (s SurveyStatus) Valid() bool { return s == StatusDraft || s == StatusPublished }

type QuestionType string

const (
	QuestionShortText      QuestionType = "SHORT_TEXT"
	QuestionLongText       QuestionType = "LONG_TEXT"
	QuestionSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionRating         QuestionType = "RATING"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionShortText, QuestionLongText, QuestionSingleChoice, QuestionMultipleChoice, QuestionRating:
		return true
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == QuestionSingleChoice || t == QuestionMultipleChoice
}

func (t QuestionType) IsText() bool {
	return t == QuestionShortText || t == QuestionLongText
}

type Survey struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    Category     `json:"category"`
	Status      SurveyStatus `json:"status"`
	CreatedBy   string       `json:"created_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Questions   []*Question  `json:"questions,omitempty"`
}

type Question struct {
	ID       string       `json:"id"`
	SurveyID string       `json:"survey_id"`
	Text     string       `json:"question_text"`
	Type     QuestionType `json:"question_type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"is_required"`
	Position int          `json:"order_index"`
}

// Response is one submission with its answers attached.
type Response struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"survey_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Answers     []*Answer `json:"answers"`
}

type Answer struct {
	ID         string      `json:"id"`
	ResponseID string      `json:"response_id"`
	QuestionID string      `json:"question_id"`
	Value      AnswerValue `json:"answer_value"`
}

// AnswerFor returns the response's answer to questionID, or nil.
func (r *Response) AnswerFor(questionID string) *Answer {
	for _, a := range r.Answers {
		if a != nil && a.QuestionID == questionID {
			return a
		}
	}
	return nil
}

// AnswerValue holds the raw JSON of an answer: a string, a number or a list of strings.
// Anything else is tolerated and rendered best-effort.
type AnswerValue json.RawMessage

func NewAnswerValue(v any) AnswerValue {
	b, err := json.Marshal(v)
	if err != nil {
		return AnswerValue("null")
	}
	return AnswerValue(b)
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return []byte(v), nil
}

func (v *AnswerValue) UnmarshalJSON(b []byte) error {
	*v = append((*v)[:0], b...)
	return nil
}

func (v AnswerValue) trimmed() []byte { return bytes.TrimSpace(v) }

// IsNull reports whether the value is missing or JSON null.
func (v AnswerValue) IsNull() bool {
	t := v.trimmed()
	return len(t) == 0 || string(t) == "null"
}

// List returns the elements of a list value in their string form.
func (v AnswerValue) List() ([]string, bool) {
	t := v.trimmed()
	if len(t) == 0 || t[0] != '[' {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(t, &raw); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		out = append(out, AnswerValue(el).String())
	}
	return out, true
}

// String renders scalars naturally: strings as-is, numbers without trailing zeros, null as "".
// Lists join their elements with ", ".
func (v AnswerValue) String() string {
	t := v.trimmed()
	if len(t) == 0 {
		return ""
	}
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err == nil {
			return s
		}
	case '[':
		if items, ok := v.List(); ok {
			return strings.Join(items, ", ")
		}
	case 'n':
		if string(t) == "null" {
			return ""
		}
	case 't', 'f':
		return string(t)
	case '{':
		return string(t)
	default:
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return string(t)
}

// decimalPattern matches plain decimal notation; ParseFloat alone would also
// take hex floats, underscores and "Inf".
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Number parses the value as a number; numeric strings are accepted.
func (v AnswerValue) Number() (float64, bool) {
	t := v.trimmed()
	if len(t) == 0 {
		return 0, false
	}
	var f float64
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
		if !decimalPattern.MatchString(s) {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	case '[', '{', 'n', 't', 'f':
		return 0, false
	default:
		if err := json.Unmarshal(t, &f); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Empty reports whether the value carries no content: null, blank text or an empty list.
func (v AnswerValue) Empty() bool {
	if v.IsNull() {
		return true
	}
	if items, ok := v.List(); ok {
		return len(items) == 0
	}
	return strings.TrimSpace(v.String()) == ""
}

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "SUPER_ADMIN"
	RoleAdmin      AdminRole = "ADMIN"
)

type Admin struct {
	ID        string
	Email     string
	Role      AdminRole
	PassHash  []byte
	CreatedAt time.Time
}
