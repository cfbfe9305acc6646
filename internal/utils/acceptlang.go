package utils

import (
	"sort"
	"strconv"
	"strings"
)

type langCandidate struct {
	lang string
	q    float64
}

// DetermineLocale picks the locale for a request: an explicit query value wins,
// then the highest-weighted supported Accept-Language entry, then def.
// Regional tags fall back to their base language (zh-CN -> zh).
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	sup := make(map[string]bool, len(supported))
	for _, s := range supported {
		sup[strings.ToLower(s)] = true
	}
	match := func(tag string) (string, bool) {
		l := strings.ToLower(strings.TrimSpace(tag))
		if l == "" {
			return "", false
		}
		if sup[l] {
			return l, true
		}
		if base, _, ok := strings.Cut(l, "-"); ok && sup[base] {
			return base, true
		}
		return "", false
	}

	if l, ok := match(queryLang); ok {
		return l
	}
	var cands []langCandidate
	for _, part := range strings.Split(acceptLang, ",") {
		tag, params, _ := strings.Cut(part, ";")
		l, ok := match(tag)
		if !ok {
			continue
		}
		q := parseQuality(params)
		if q <= 0 {
			continue
		}
		cands = append(cands, langCandidate{lang: l, q: q})
	}
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].q > cands[j].q })
		return cands[0].lang
	}
	if l, ok := match(def); ok {
		return l
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}

// parseQuality reads q=<weight> from an Accept-Language parameter list; absent or malformed means 1.
func parseQuality(params string) float64 {
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || strings.TrimSpace(k) != "q" {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || q > 1 {
			return 1
		}
		return q
	}
	return 1
}
