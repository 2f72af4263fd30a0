package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient generates text through any OpenAI-compatible chat endpoint.
// The prompt is sent as a single user message.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: params.MaxNewTokens,
		Stop:      params.StopSequences,
	}
	// go-openai drops a zero temperature from the payload, which the API
	// reads as 1.0; the smallest non-zero value keeps decoding greedy.
	if params.DecodingMethod == DecodingGreedy || params.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	} else {
		req.Temperature = float32(params.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			var code string
			if apiErr.Code != nil {
				code = fmt.Sprint(apiErr.Code)
			}
			return "", &ServiceError{
				Provider:   ProviderOpenAI,
				StatusCode: apiErr.HTTPStatusCode,
				Code:       code,
				Message:    apiErr.Message,
				Err:        err,
			}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &ServiceError{
				Provider:   ProviderOpenAI,
				StatusCode: reqErr.HTTPStatusCode,
				Message:    "chat completion request",
				Err:        err,
			}
		}
		return "", transportError(ProviderOpenAI, "chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", &ServiceError{Provider: ProviderOpenAI, Message: "empty choices"}
	}
	return resp.Choices[0].Message.Content, nil
}
