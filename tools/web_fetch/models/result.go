package models

import "strings"

// Strategy names the fetch path that produced an Outcome.
type Strategy string

const (
	StrategyDynamic Strategy = "dynamic"
	StrategyStatic  Strategy = "static"
	StrategyNone    Strategy = "none"
)

// Outcome is the result of one fetch attempt. Text is empty when every
// strategy failed, in which case Strategy is StrategyNone.
type Outcome struct {
	URL      string   `json:"url"`
	Text     string   `json:"text"`
	Strategy Strategy `json:"strategy"`
	Cached   bool     `json:"cached,omitempty"`
}

// Empty reports whether no usable text was obtained.
func (o Outcome) Empty() bool { return strings.TrimSpace(o.Text) == "" }
