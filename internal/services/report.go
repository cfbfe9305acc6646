package services

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"

	"github.com/soaringjerry/Surveyor/internal/utils"
)

const (
	reportMargin   = 15.0
	reportLabelW   = 55.0
	reportBarW     = 95.0
	reportRowH     = 6.0
	reportMaxTexts = 50

	fontBase = "dejavu"
	fontCJK  = "cjk"
)

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejavuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejavuBold []byte
	//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
	dejavuOblique []byte
)

// ReportService renders the analytics of a survey as a paginated PDF.
type ReportService struct {
	analytics *AnalyticsService
	cjkFont   []byte
}

// NewReportService builds the PDF renderer. cjkFont is an optional TrueType
// font used for Han, Kana and Hangul text, which the bundled DejaVu face lacks.
func NewReportService(analytics *AnalyticsService, cjkFont []byte) *ReportService {
	return &ReportService{analytics: analytics, cjkFont: cjkFont}
}

func (s *ReportService) Render(surveyID string, rng DateRange, locale string) (*ExportResult, error) {
	if strings.TrimSpace(surveyID) == "" {
		return nil, NewInvalidError("survey_id required")
	}
	res, err := s.analytics.Analyze(surveyID, rng)
	if err != nil {
		return nil, err
	}
	data, err := renderReport(res, locale, s.analytics.Location(), s.cjkFont)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    res.Survey.Title + "_analytics.pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// reportWriter picks a font per string so mixed-script documents render.
type reportWriter struct {
	pdf    *fpdf.Fpdf
	cjk    bool
	locale string
}

func newReportWriter(locale string, cjkFont []byte) *reportWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontBase, "", dejavuRegular)
	pdf.AddUTF8FontFromBytes(fontBase, "B", dejavuBold)
	pdf.AddUTF8FontFromBytes(fontBase, "I", dejavuOblique)
	w := &reportWriter{pdf: pdf, locale: locale}
	if len(cjkFont) > 0 {
		for _, style := range []string{"", "B", "I"} {
			pdf.AddUTF8FontFromBytes(fontCJK, style, cjkFont)
		}
		w.cjk = true
	}
	// Without a CJK face, labels in a CJK locale would come out blank.
	if !w.cjk && needsCJK(utils.T(locale, "report.responses")) {
		w.locale = "en"
	}
	return w
}

func (w *reportWriter) t(key string) string { return utils.T(w.locale, key) }

func (w *reportWriter) font(style string, size float64, text string) {
	family := fontBase
	if w.cjk && needsCJK(text) {
		family = fontCJK
	}
	w.pdf.SetFont(family, style, size)
}

func (w *reportWriter) cell(style string, size, width, height float64, text string, ln int) {
	text = pdfText(text)
	w.font(style, size, text)
	w.pdf.CellFormat(width, height, text, "", ln, "L", false, 0, "")
}

func (w *reportWriter) para(style string, size, height float64, text string) {
	text = pdfText(text)
	w.font(style, size, text)
	w.pdf.MultiCell(0, height, text, "", "L", false)
}

func needsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
			(r >= 0x3000 && r <= 0x303f) || (r >= 0xff00 && r <= 0xffef) {
			return true
		}
	}
	return false
}

// pdfText replaces runes outside the Basic Multilingual Plane, which the
// font subsetter cannot map.
func pdfText(s string) string {
	for _, r := range s {
		if r > 0xffff {
			return strings.Map(func(r rune) rune {
				if r > 0xffff {
					return unicode.ReplacementChar
				}
				return r
			}, s)
		}
	}
	return s
}

func renderReport(res *AnalyticsResult, locale string, loc *time.Location, cjkFont []byte) ([]byte, error) {
	w := newReportWriter(locale, cjkFont)
	pdf := w.pdf
	pdf.SetMargins(reportMargin, reportMargin, reportMargin)
	pdf.SetAutoPageBreak(true, reportMargin)
	pdf.SetTitle(res.Survey.Title+"_analytics", true)
	pdf.AddPage()

	w.para("B", 18, 9, res.Survey.Title)
	pdf.SetTextColor(107, 114, 128)
	sub := string(res.Survey.Category)
	if res.From != "" || res.To != "" {
		sub += fmt.Sprintf("  |  %s - %s", orDash(res.From), orDash(res.To))
	}
	w.cell("", 10, 0, 6, sub+"  ("+loc.String()+")", 1)
	pdf.SetTextColor(17, 24, 39)
	pdf.Ln(3)

	if res.Summary == nil {
		key := "analytics.no_responses"
		if res.State == StateFilteredEmpty {
			key = "analytics.filtered_empty"
		}
		w.para("I", 11, 6, w.t(key))
	} else {
		sm := res.Summary
		headline := fmt.Sprintf("%s %s   %s %s", humanize.Comma(int64(sm.TotalResponses)), w.t("report.responses"),
			humanize.Comma(int64(sm.TotalQuestions)), w.t("report.questions"))
		w.cell("B", 12, 0, 7, headline, 1)
		w.cell("", 10, 0, 6, w.t("report.first")+": "+utils.FormatTimestamp(w.locale, sm.FirstResponse.In(loc)), 1)
		w.cell("", 10, 0, 6, w.t("report.last")+": "+utils.FormatTimestamp(w.locale, sm.LastResponse.In(loc)), 1)
	}
	pdf.Ln(4)

	if res.State == StateReady || res.State == StateFilteredEmpty {
		for _, q := range res.Questions {
			renderQuestion(w, q)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderQuestion(w *reportWriter, q QuestionStats) {
	pdf := w.pdf
	ensureSpace(pdf, 20)
	w.para("B", 12, 6, q.QuestionText)
	pdf.SetTextColor(107, 114, 128)
	w.cell("", 9, 0, 5, humanize.Comma(int64(q.TotalResponses))+" "+w.t("report.responses"), 1)
	pdf.SetTextColor(17, 24, 39)

	if q.Kind == ChartText {
		if len(q.TextAnswers) == 0 {
			w.cell("I", 9, 0, 5, w.t("analytics.text_only"), 1)
		}
		for i, t := range q.TextAnswers {
			if i == reportMaxTexts {
				w.cell("", 9, 0, 5, fmt.Sprintf("... +%d", len(q.TextAnswers)-reportMaxTexts), 1)
				break
			}
			w.para("", 9, 5, "- "+t)
		}
		pdf.Ln(4)
		return
	}

	maxVal := 0
	for _, p := range q.Chart {
		if p.Value > maxVal {
			maxVal = p.Value
		}
	}
	pdf.SetFillColor(17, 24, 39)
	for _, p := range q.Chart {
		ensureSpace(pdf, reportRowH)
		x, y := pdf.GetX(), pdf.GetY()
		w.cell("", 9, reportLabelW, reportRowH, truncate(p.Name, 34), 0)
		if maxVal > 0 && p.Value > 0 {
			bw := reportBarW * float64(p.Value) / float64(maxVal)
			pdf.Rect(x+reportLabelW, y+1, bw, reportRowH-2, "F")
		}
		pdf.SetXY(x+reportLabelW+reportBarW+3, y)
		w.cell("", 9, 0, reportRowH, strconv.Itoa(p.Value), 1)
	}
	pdf.Ln(4)
}

func ensureSpace(pdf *fpdf.Fpdf, h float64) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+h > pageH-reportMargin {
		pdf.AddPage()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "…"
	}
	return s
}
