package openai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelPrice is the dollar price per 1000 tokens, split by direction.
type ModelPrice struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k"`
	CompletionPer1K float64 `yaml:"completion_per_1k"`
}

type Pricing map[string]ModelPrice

// DefaultPricing covers the models the service ships configured for.
// Unknown models price at zero; local deployments cost nothing.
func DefaultPricing() Pricing {
	return Pricing{
		"gpt-4o":             {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
		"gpt-4o-mini":        {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
		"gpt-3.5-turbo":      {PromptPer1K: 0.0005, CompletionPer1K: 0.0015},
		"text-embedding-3-small": {PromptPer1K: 0.00002},
		"text-embedding-3-large": {PromptPer1K: 0.00013},
	}
}

// LoadPricing overlays the defaults with entries from a YAML file keyed by
// model name. A missing path returns the defaults unchanged.
func LoadPricing(path string) (Pricing, error) {
	pricing := DefaultPricing()
	if path == "" {
		return pricing, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pricing, nil
		}
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	var overrides Pricing
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse pricing file %s: %w", path, err)
	}
	for model, price := range overrides {
		pricing[model] = price
	}
	return pricing, nil
}

func (p Pricing) Cost(model string, promptTokens, completionTokens int) float64 {
	price, ok := p[model]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1000.0*price.PromptPer1K +
		float64(completionTokens)/1000.0*price.CompletionPer1K
}
