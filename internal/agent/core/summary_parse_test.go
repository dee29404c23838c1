package core

import (
	"reflect"
	"testing"
)

func TestParseSummaryLines(t *testing.T) {
	text := `**Title:** IBM beats Q3 estimates
Date (YYYY-MM-DD): 2024-10-23
Stock symbols: IBM, MSFT
Companies: IBM, Microsoft
Key facts:
- Revenue rose 4% to $15B
- Software grew 10%
3. Consulting declined
Sentiment: Bullish (strong software growth)
Impact score: 1.7`
	f := ParseSummary(text)
	if f == nil {
		t.Fatalf("expected fields")
	}
	if f.Title != "IBM beats Q3 estimates" || f.Date != "2024-10-23" {
		t.Fatalf("title/date: %+v", f)
	}
	if !reflect.DeepEqual(f.Symbols, []string{"IBM", "MSFT"}) || !reflect.DeepEqual(f.Companies, []string{"IBM", "Microsoft"}) {
		t.Fatalf("lists: %+v", f)
	}
	if len(f.KeyFacts) != 3 || f.KeyFacts[2] != "Consulting declined" {
		t.Fatalf("facts: %q", f.KeyFacts)
	}
	if f.Sentiment != "bullish" || f.Explanation != "strong software growth" {
		t.Fatalf("sentiment: %q / %q", f.Sentiment, f.Explanation)
	}
	if f.ImpactScore == nil || *f.ImpactScore != 1 {
		t.Fatalf("impact should clamp to 1, got %v", f.ImpactScore)
	}
}

func TestParseSummaryJSON(t *testing.T) {
	text := "```json\n{\"title\":\"Fed holds rates\",\"date\":\"\",\"stock_symbols\":[\"SPY\"],\"key_facts\":[\"a\",\"b\"],\"sentiment\":\"neutral - wait and see\",\"impact_score\":-0.2}\n```"
	f := ParseSummary(text)
	if f == nil || f.Title != "Fed holds rates" || f.Date != "" {
		t.Fatalf("unexpected fields %+v", f)
	}
	if !reflect.DeepEqual(f.Symbols, []string{"SPY"}) || len(f.KeyFacts) != 2 {
		t.Fatalf("lists: %+v", f)
	}
	if f.Sentiment != "neutral" || f.Explanation != "wait and see" {
		t.Fatalf("sentiment: %q / %q", f.Sentiment, f.Explanation)
	}
	if f.ImpactScore == nil || *f.ImpactScore != -0.2 {
		t.Fatalf("impact: %v", f.ImpactScore)
	}
}

func TestParseSummaryUnrecognised(t *testing.T) {
	if f := ParseSummary("The page talks about weather."); f != nil {
		t.Fatalf("expected nil, got %+v", f)
	}
	if f := ParseSummary(""); f != nil {
		t.Fatalf("expected nil for empty text")
	}
}

func TestParseSummaryJSONWithinProse(t *testing.T) {
	f := ParseSummary(`Sure! {"title":"Chip export curbs","sentiment":"bearish: supply risk"} Hope this helps.`)
	if f == nil || f.Title != "Chip export curbs" || f.Sentiment != "bearish" || f.Explanation != "supply risk" {
		t.Fatalf("unexpected fields %+v", f)
	}
}
