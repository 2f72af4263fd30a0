package llm

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/pulse/internal/config"
)

const (
	ProviderWatsonx   = "watsonx"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Factory creates generation clients from the service configuration.
type Factory struct {
	cfg config.Config
}

func NewFactory(cfg config.Config) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) CreateClient(provider string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderWatsonx:
		if f.cfg.WatsonAPIKey == "" {
			return nil, fmt.Errorf("WATSON_API_KEY is required for provider %s", ProviderWatsonx)
		}
		if f.cfg.WatsonProjectID == "" {
			return nil, fmt.Errorf("WATSON_PROJECT_ID is required for provider %s", ProviderWatsonx)
		}
		return NewWatsonx(WatsonxConfig{
			URL:       f.cfg.WatsonURL,
			APIKey:    f.cfg.WatsonAPIKey,
			ProjectID: f.cfg.WatsonProjectID,
			ModelID:   f.cfg.WatsonModel,
			IAMURL:    f.cfg.WatsonIAMURL,
			Timeout:   f.cfg.GenerationTimeout,
		}), nil
	case ProviderOpenAI:
		// Local OpenAI-compatible servers often need no key.
		if f.cfg.OpenAIAPIKey == "" && f.cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY or OPENAI_BASE_URL is required for provider %s", ProviderOpenAI)
		}
		return NewOpenAI(f.cfg.OpenAIAPIKey, f.cfg.OpenAIBaseURL, f.cfg.OpenAIModel, f.cfg.GenerationTimeout), nil
	case ProviderAnthropic:
		if f.cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %s", ProviderAnthropic)
		}
		return NewAnthropic(f.cfg.AnthropicAPIKey, f.cfg.AnthropicModel, f.cfg.GenerationTimeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
