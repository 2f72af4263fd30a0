package llm

import "context"

const DecodingGreedy = "greedy"

// Params controls how the generation service selects output text.
type Params struct {
	DecodingMethod string
	Temperature    float64
	MinNewTokens   int
	MaxNewTokens   int
	StopSequences  []string
}

// DefaultParams is the decoding configuration shared by chat turns and
// satisfaction analysis: greedy, temperature 0, 5 to 70 new tokens.
func DefaultParams() Params {
	return Params{
		DecodingMethod: DecodingGreedy,
		Temperature:    0,
		MinNewTokens:   5,
		MaxNewTokens:   70,
	}
}

// Client is a synchronous text-generation capability. Implementations
// return *ServiceError for transport, auth, quota and provider failures.
type Client interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}
