package providers

import "strings"

// modelPricing is USD per million tokens.
type modelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// anthropicPricing maps model-family prefixes to their published rates.
// Longest matching prefix wins; unknown models fall back to the sonnet rate
// so cost is over- rather than under-counted.
var anthropicPricing = map[string]modelPricing{
	"claude-opus":   {InputPerMTok: 15.0, OutputPerMTok: 75.0},
	"claude-sonnet": {InputPerMTok: 3.0, OutputPerMTok: 15.0},
	"claude-haiku":  {InputPerMTok: 0.80, OutputPerMTok: 4.0},
	"claude-3-5":    {InputPerMTok: 3.0, OutputPerMTok: 15.0},
}

var defaultPricing = modelPricing{InputPerMTok: 3.0, OutputPerMTok: 15.0}

// priceFor returns the rate for a model identifier.
func priceFor(model string) modelPricing {
	best := ""
	for prefix := range anthropicPricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return defaultPricing
	}
	return anthropicPricing[best]
}

// costUSD converts token usage into dollars for a model.
func costUSD(model string, inputTokens, outputTokens int64) float64 {
	p := priceFor(model)
	return float64(inputTokens)*p.InputPerMTok/1e6 + float64(outputTokens)*p.OutputPerMTok/1e6
}
