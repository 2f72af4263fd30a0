package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	watsonxGeneratePath = "/ml/v1/text/generation"
	watsonxAPIVersion   = "2023-05-29"
)

type WatsonxConfig struct {
	URL       string // regional endpoint, e.g. https://us-south.ml.cloud.ibm.com
	APIKey    string
	ProjectID string
	ModelID   string
	IAMURL    string
	Timeout   time.Duration
}

// WatsonxClient calls the watsonx.ai text generation endpoint.
type WatsonxClient struct {
	endpoint  string
	projectID string
	modelID   string
	client    *http.Client
}

func NewWatsonx(cfg WatsonxConfig) *WatsonxClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	src := &iamTokenSource{
		apiKey: cfg.APIKey,
		url:    cfg.IAMURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	return &WatsonxClient{
		endpoint:  strings.TrimRight(cfg.URL, "/") + watsonxGeneratePath + "?version=" + watsonxAPIVersion,
		projectID: cfg.ProjectID,
		modelID:   cfg.ModelID,
		client: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, src),
				Base:   http.DefaultTransport,
			},
		},
	}
}

type watsonxParameters struct {
	DecodingMethod string   `json:"decoding_method"`
	Temperature    float64  `json:"temperature"`
	MinNewTokens   int      `json:"min_new_tokens"`
	MaxNewTokens   int      `json:"max_new_tokens"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
}

type watsonxRequest struct {
	ModelID    string            `json:"model_id"`
	Input      string            `json:"input"`
	ProjectID  string            `json:"project_id"`
	Parameters watsonxParameters `json:"parameters"`
}

type watsonxResponse struct {
	ModelID string `json:"model_id"`
	Results []struct {
		GeneratedText       string `json:"generated_text"`
		GeneratedTokenCount int    `json:"generated_token_count"`
		InputTokenCount     int    `json:"input_token_count"`
		StopReason          string `json:"stop_reason"`
	} `json:"results"`
}

type watsonxErrorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	StatusCode int `json:"status_code"`
}

// Generate sends prompt to the model and returns the generated text.
func (c *WatsonxClient) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	reqBody := watsonxRequest{
		ModelID:   c.modelID,
		Input:     prompt,
		ProjectID: c.projectID,
		Parameters: watsonxParameters{
			DecodingMethod: params.DecodingMethod,
			Temperature:    params.Temperature,
			MinNewTokens:   params.MinNewTokens,
			MaxNewTokens:   params.MaxNewTokens,
			StopSequences:  params.StopSequences,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", transportError(ProviderWatsonx, "api call", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ProviderWatsonx, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp watsonxErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && len(errResp.Errors) > 0 {
			return "", &ServiceError{
				Provider:   ProviderWatsonx,
				StatusCode: resp.StatusCode,
				Code:       errResp.Errors[0].Code,
				Message:    errResp.Errors[0].Message,
			}
		}
		return "", &ServiceError{Provider: ProviderWatsonx, StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp watsonxResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &ServiceError{Provider: ProviderWatsonx, Message: "unmarshal response", Err: err}
	}

	if len(apiResp.Results) == 0 {
		return "", &ServiceError{Provider: ProviderWatsonx, Message: "empty results"}
	}

	return apiResp.Results[0].GeneratedText, nil
}
