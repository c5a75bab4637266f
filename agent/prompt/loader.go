package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/recommendation.txt
	recommendationRaw string

	//go:embed template/fallback.txt
	fallbackRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System         string
	Recommendation string
	Fallback       string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:         strings.TrimSpace(systemRaw),
		Recommendation: strings.TrimSpace(recommendationRaw),
		Fallback:       strings.TrimSpace(fallbackRaw),
	}
}

// WithFallback overrides the fallback text when override is not blank.
func (p PromptSet) WithFallback(override string) PromptSet {
	if v := strings.TrimSpace(override); v != "" {
		p.Fallback = v
	}
	return p
}
