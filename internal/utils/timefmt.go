package utils

import "time"

var timestampLayouts = map[string]string{
	"en": "1/2/2006, 3:04:05 PM",
	"zh": "2006/1/2 15:04:05",
}

// FormatTimestamp renders t the way a browser in locale would print a date-time.
// Unknown locales use the English layout.
func FormatTimestamp(locale string, t time.Time) string {
	layout, ok := timestampLayouts[locale]
	if !ok {
		layout = timestampLayouts["en"]
	}
	return t.Format(layout)
}
