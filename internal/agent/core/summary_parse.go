package core

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/stockscout/internal/helpers"
)

// SummaryFields is a best-effort structured view of a summary. Any field the
// model left out stays zero.
type SummaryFields struct {
	Title       string   `json:"title,omitempty"`
	Date        string   `json:"date,omitempty"`
	Symbols     []string `json:"symbols,omitempty"`
	Companies   []string `json:"companies,omitempty"`
	KeyFacts    []string `json:"key_facts,omitempty"`
	Sentiment   string   `json:"sentiment,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	ImpactScore *float64 `json:"impact_score,omitempty"`
}

func (f *SummaryFields) empty() bool {
	return f.Title == "" && f.Date == "" && len(f.Symbols) == 0 && len(f.Companies) == 0 &&
		len(f.KeyFacts) == 0 && f.Sentiment == "" && f.ImpactScore == nil
}

type summaryField int

const (
	fieldNone summaryField = iota
	fieldTitle
	fieldDate
	fieldSymbols
	fieldCompanies
	fieldFacts
	fieldSentiment
	fieldImpact
)

func fieldFor(key string) summaryField {
	key = strings.ToLower(strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " "))
	switch {
	case key == "title" || key == "headline":
		return fieldTitle
	case key == "date" || key == "published" || key == "publication date":
		return fieldDate
	case strings.Contains(key, "symbol") || key == "tickers" || key == "ticker":
		return fieldSymbols
	case key == "companies" || key == "company":
		return fieldCompanies
	case strings.HasPrefix(key, "key fact") || key == "facts":
		return fieldFacts
	case key == "sentiment":
		return fieldSentiment
	case strings.HasPrefix(key, "impact"):
		return fieldImpact
	}
	return fieldNone
}

var (
	fieldLine = regexp.MustCompile(`^[-*#\s]*\**([A-Za-z][A-Za-z _-]{1,30}?)\**\s*(?:\([^)]*\))?\s*\**:\**\s*(.*)$`)
	bullet    = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	number    = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	isoDate   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// ParseSummary extracts the summary fields from either a JSON object or
// "field: value" lines. It returns nil when nothing recognisable is found.
func ParseSummary(text string) *SummaryFields {
	text = helpers.UnwrapFence(text)
	if text == "" {
		return nil
	}
	var f *SummaryFields
	if obj, ok := helpers.FindJSONObject(text); ok {
		f = parseSummaryJSON(obj)
	}
	if f == nil || f.empty() {
		f = parseSummaryLines(text)
	}
	if f == nil || f.empty() {
		return nil
	}
	return f
}

func parseSummaryJSON(text string) *SummaryFields {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	f := &SummaryFields{}
	for k, v := range raw {
		switch fieldFor(k) {
		case fieldTitle:
			f.Title = anyString(v)
		case fieldDate:
			f.Date = normalizeDate(anyString(v))
		case fieldSymbols:
			f.Symbols = splitList(v)
		case fieldCompanies:
			f.Companies = splitList(v)
		case fieldFacts:
			f.KeyFacts = splitList(v)
		case fieldSentiment:
			if m, ok := v.(map[string]any); ok {
				f.Sentiment, f.Explanation = parseSentiment(anyString(m["label"]) + " " + anyString(m["explanation"]))
				continue
			}
			f.Sentiment, f.Explanation = parseSentiment(anyString(v))
		case fieldImpact:
			f.ImpactScore = parseImpact(anyString(v))
		}
	}
	return f
}

func parseSummaryLines(text string) *SummaryFields {
	f := &SummaryFields{}
	current := fieldNone
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := fieldLine.FindStringSubmatch(trimmed); m != nil {
			if fld := fieldFor(m[1]); fld != fieldNone {
				current = fld
				applyField(f, fld, strings.TrimSpace(m[2]))
				continue
			}
		}
		if current == fieldFacts && bullet.MatchString(trimmed) {
			if fact := strings.TrimSpace(bullet.ReplaceAllString(trimmed, "")); fact != "" {
				f.KeyFacts = append(f.KeyFacts, fact)
			}
		}
	}
	return f
}

func applyField(f *SummaryFields, fld summaryField, value string) {
	value = strings.Trim(value, "*\" ")
	switch fld {
	case fieldTitle:
		f.Title = value
	case fieldDate:
		f.Date = normalizeDate(value)
	case fieldSymbols:
		f.Symbols = splitList(value)
	case fieldCompanies:
		f.Companies = splitList(value)
	case fieldFacts:
		if value != "" {
			f.KeyFacts = append(f.KeyFacts, splitList(value)...)
		}
	case fieldSentiment:
		f.Sentiment, f.Explanation = parseSentiment(value)
	case fieldImpact:
		f.ImpactScore = parseImpact(value)
	}
}

func normalizeDate(s string) string {
	return isoDate.FindString(s)
}

func parseSentiment(s string) (string, string) {
	lower := strings.ToLower(s)
	for _, label := range []string{"bullish", "bearish", "neutral"} {
		if i := strings.Index(lower, label); i >= 0 {
			rest := strings.TrimSpace(s[i+len(label):])
			rest = strings.TrimSpace(strings.TrimLeft(rest, "-–:,.()"))
			rest = strings.TrimSpace(strings.TrimSuffix(rest, ")"))
			return label, rest
		}
	}
	return "", strings.TrimSpace(s)
}

// parseImpact reads the first number and clamps it to [-1, 1].
func parseImpact(s string) *float64 {
	m := number.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return &v
}

func splitList(v any) []string {
	var parts []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			parts = append(parts, anyString(item))
		}
	default:
		s := anyString(v)
		if strings.EqualFold(s, "none") || strings.EqualFold(s, "n/a") {
			return nil
		}
		parts = strings.Split(s, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func anyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
