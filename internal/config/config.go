package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port        int    `env:"PULSE_PORT" envDefault:"8760"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://pulse.db"`
	APIToken    string `env:"PULSE_API_TOKEN"`

	NatsURL   string `env:"NATS_URL"`
	NatsToken string `env:"NATS_TOKEN"`

	// Generation
	LLMProvider       string        `env:"PULSE_LLM_PROVIDER" envDefault:"watsonx"`
	GenerationTimeout time.Duration `env:"PULSE_GENERATION_TIMEOUT" envDefault:"120s"`
	WatsonURL         string        `env:"WATSON_URL" envDefault:"https://us-south.ml.cloud.ibm.com"`
	WatsonAPIKey      string        `env:"WATSON_API_KEY"`
	WatsonProjectID   string        `env:"WATSON_PROJECT_ID"`
	WatsonModel       string        `env:"WATSON_MODEL" envDefault:"ibm/granite-13b-chat-v2"`
	WatsonIAMURL      string        `env:"WATSON_IAM_URL" envDefault:"https://iam.cloud.ibm.com/identity/token"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey   string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel    string        `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`

	// Slack alerts for Bad ratings (optional)
	SlackBotToken string `env:"SLACK_BOT_TOKEN"`
	SlackChannel  string `env:"SLACK_ALERT_CHANNEL"`

	// Cron spec for the periodic analysis sweep; empty disables it.
	AnalysisSchedule string `env:"PULSE_ANALYSIS_SCHEDULE"`
}

// Load reads the configuration from the environment. Unparseable values
// are reported as an error rather than silently replaced by defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
