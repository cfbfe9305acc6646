package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	RatingMin = 1
	RatingMax = 10

	dateLayout = "2006-01-02"
)

// DateRange is an inclusive calendar-day filter. A zero From or To leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds in loc. Empty strings leave the bound unset.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	var rng DateRange
	if s := strings.TrimSpace(from); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return DateRange{}, NewInvalidError("invalid from date: " + s)
		}
		rng.From = d
	}
	if s := strings.TrimSpace(to); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return DateRange{}, NewInvalidError("invalid to date: " + s)
		}
		rng.To = d
	}
	return rng, nil
}

func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// start is midnight of From in its own location.
func (r DateRange) start() time.Time {
	y, m, d := r.From.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.From.Location())
}

// end widens To to 23:59:59.999 of the same day.
func (r DateRange) end() time.Time {
	y, m, d := r.To.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), r.To.Location())
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.start()) {
		return false
	}
	if !r.To.IsZero() && t.After(r.end()) {
		return false
	}
	return true
}

// FilterResponses keeps the responses submitted inside rng, preserving order.
func FilterResponses(responses []*Response, rng DateRange) []*Response {
	out := make([]*Response, 0, len(responses))
	for _, r := range responses {
		if r == nil {
			continue
		}
		if rng.Contains(r.SubmittedAt) {
			out = append(out, r)
		}
	}
	return out
}

type ChartKind string

const (
	ChartPie  ChartKind = "pie"
	ChartBar  ChartKind = "bar"
	ChartText ChartKind = "text"
)

type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// QuestionStats is the per-question result. Chart is filled for choice and rating questions,
// TextAnswers for text questions; TotalResponses is the raw answer count for every type.
type QuestionStats struct {
	QuestionID     string       `json:"question_id"`
	QuestionText   string       `json:"question_text"`
	Type           QuestionType `json:"question_type"`
	Position       int          `json:"order_index"`
	Kind           ChartKind    `json:"chart_kind"`
	TotalResponses int          `json:"total_responses"`
	Chart          []ChartPoint `json:"chart_data"`
	TextAnswers    []string     `json:"text_answers,omitempty"`
	Mean           float64      `json:"mean,omitempty"`
	Invalid        int          `json:"invalid,omitempty"`
}

// ChartTotal sums the chart buckets.
func (q QuestionStats) ChartTotal() int {
	total := 0
	for _, p := range q.Chart {
		total += p.Value
	}
	return total
}

type Summary struct {
	TotalResponses int       `json:"total_responses"`
	TotalQuestions int       `json:"total_questions"`
	FirstResponse  time.Time `json:"first_response"`
	LastResponse   time.Time `json:"last_response"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// OrderedQuestions returns the survey's questions sorted by position.
func OrderedQuestions(sv *Survey) []*Question {
	if sv == nil {
		return nil
	}
	out := make([]*Question, 0, len(sv.Questions))
	for _, q := range sv.Questions {
		if q != nil {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// AggregateQuestions builds one QuestionStats per question, in position order.
func AggregateQuestions(sv *Survey, responses []*Response) []QuestionStats {
	questions := OrderedQuestions(sv)
	out := make([]QuestionStats, 0, len(questions))
	for _, q := range questions {
		answers := collectAnswers(q.ID, responses)
		st := QuestionStats{
			QuestionID:     q.ID,
			QuestionText:   q.Text,
			Type:           q.Type,
			Position:       q.Position,
			TotalResponses: len(answers),
			Chart:          []ChartPoint{},
		}
		switch {
		case q.Type.IsChoice():
			st.Kind = ChartPie
			st.Chart = choiceCounts(answers)
		case q.Type == QuestionRating:
			st.Kind = ChartBar
			st.Chart, st.Mean, st.Invalid = ratingHistogram(answers)
		default:
			st.Kind = ChartText
			st.TextAnswers = textAnswers(answers)
		}
		out = append(out, st)
	}
	return out
}

func collectAnswers(questionID string, responses []*Response) []*Answer {
	var out []*Answer
	for _, r := range responses {
		for _, a := range r.Answers {
			if a != nil && a.QuestionID == questionID {
				out = append(out, a)
			}
		}
	}
	return out
}

func choiceCounts(answers []*Answer) []ChartPoint {
	index := map[string]int{}
	points := []ChartPoint{}
	bump := func(label string) {
		if i, ok := index[label]; ok {
			points[i].Value++
			return
		}
		index[label] = len(points)
		points = append(points, ChartPoint{Name: label, Value: 1})
	}
	for _, a := range answers {
		if a.Value.IsNull() {
			continue
		}
		if items, ok := a.Value.List(); ok {
			for _, it := range items {
				bump(it)
			}
			continue
		}
		bump(a.Value.String())
	}
	return points
}

func ratingHistogram(answers []*Answer) ([]ChartPoint, float64, int) {
	counts := make([]int, RatingMax-RatingMin+1)
	invalid := 0
	sum := 0
	for _, a := range answers {
		f, ok := a.Value.Number()
		if !ok || f != math.Trunc(f) || f < RatingMin || f > RatingMax {
			invalid++
			continue
		}
		counts[int(f)-RatingMin]++
		sum += int(f)
	}
	points := make([]ChartPoint, 0, len(counts))
	valid := 0
	for i, c := range counts {
		points = append(points, ChartPoint{Name: strconv.Itoa(i + RatingMin), Value: c})
		valid += c
	}
	mean := 0.0
	if valid > 0 {
		mean = float64(sum) / float64(valid)
	}
	return points, mean, invalid
}

func textAnswers(answers []*Answer) []string {
	out := []string{}
	for _, a := range answers {
		if s := strings.TrimSpace(a.Value.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Summarize returns nil when there is nothing to summarize.
func Summarize(sv *Survey, responses []*Response) *Summary {
	if sv == nil || len(responses) == 0 {
		return nil
	}
	s := &Summary{TotalResponses: len(responses), TotalQuestions: len(sv.Questions)}
	for i, r := range responses {
		if i == 0 || r.SubmittedAt.Before(s.FirstResponse) {
			s.FirstResponse = r.SubmittedAt
		}
		if i == 0 || r.SubmittedAt.After(s.LastResponse) {
			s.LastResponse = r.SubmittedAt
		}
	}
	return s
}

// Timeseries counts responses per calendar day in loc.
func Timeseries(responses []*Response, loc *time.Location) []DailyCount {
	if loc == nil {
		loc = time.Local
	}
	counts := map[string]int{}
	for _, r := range responses {
		counts[r.SubmittedAt.In(loc).Format(dateLayout)]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]DailyCount, 0, len(days))
	for _, d := range days {
		out = append(out, DailyCount{Date: d, Count: counts[d]})
	}
	return out
}

const SubmittedAtColumn = "Submitted At"

// ExportTable is the row projection used by CSV and spreadsheet exports.
type ExportTable struct {
	Header []string
	Rows   [][]string
}

// BuildExportRows projects each response onto "Submitted At" plus one column per question.
func BuildExportRows(sv *Survey, responses []*Response, formatTime func(time.Time) string) ExportTable {
	if formatTime == nil {
		formatTime = func(t time.Time) string { return t.Format(time.RFC3339) }
	}
	questions := OrderedQuestions(sv)
	header := make([]string, 0, 1+len(questions))
	header = append(header, SubmittedAtColumn)
	for _, q := range questions {
		header = append(header, q.Text)
	}
	rows := make([][]string, 0, len(responses))
	for _, r := range responses {
		row := make([]string, 0, len(header))
		row = append(row, formatTime(r.SubmittedAt))
		for _, q := range questions {
			cell := ""
			if a := r.AnswerFor(q.ID); a != nil {
				cell = a.Value.String()
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return ExportTable{Header: header, Rows: rows}
}
