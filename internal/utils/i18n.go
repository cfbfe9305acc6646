package utils

// Minimal server-side i18n for fixed keys.
// UI strings should live in the frontend; server provides only essentials.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":                "ok",
		"analytics.no_survey":      "Select a survey to view analytics.",
		"analytics.no_responses":   "No responses collected for this survey yet.",
		"analytics.filtered_empty": "No responses match the selected date range.",
		"analytics.text_only":      "Text-based responses cannot be visualized.",
		"report.responses":         "responses",
		"report.questions":         "questions",
		"report.first":             "First response",
		"report.last":              "Last response",
	},
	"zh": {
		"health.ok":                "好的",
		"analytics.no_survey":      "请选择一个问卷以查看分析。",
		"analytics.no_responses":   "该问卷尚未收到任何回复。",
		"analytics.filtered_empty": "所选日期范围内没有回复。",
		"analytics.text_only":      "文本回复无法生成图表。",
		"report.responses":         "份回复",
		"report.questions":         "个问题",
		"report.first":             "最早回复",
		"report.last":              "最新回复",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
