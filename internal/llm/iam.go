package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const iamGrantType = "urn:ibm:params:oauth:grant-type:apikey"

// iamTokenSource exchanges an IBM Cloud API key for a bearer token.
// Wrap it in oauth2.ReuseTokenSource so the exchange only happens on expiry.
type iamTokenSource struct {
	apiKey string
	url    string
	client *http.Client
}

type iamResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

type iamError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (s *iamTokenSource) Token() (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", s.apiKey)

	req, err := http.NewRequest(http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create iam request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ServiceError{Provider: ProviderWatsonx, Message: "iam token exchange", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Provider: ProviderWatsonx, Message: "read iam response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var ie iamError
		if json.Unmarshal(body, &ie) == nil && ie.ErrorMessage != "" {
			return nil, &ServiceError{Provider: ProviderWatsonx, StatusCode: resp.StatusCode, Code: ie.ErrorCode, Message: "iam: " + ie.ErrorMessage}
		}
		return nil, &ServiceError{Provider: ProviderWatsonx, StatusCode: resp.StatusCode, Message: "iam: " + string(body)}
	}

	var ir iamResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return nil, &ServiceError{Provider: ProviderWatsonx, Message: "unmarshal iam response", Err: err}
	}
	if ir.AccessToken == "" {
		return nil, &ServiceError{Provider: ProviderWatsonx, Message: "iam returned no access token"}
	}

	tok := &oauth2.Token{AccessToken: ir.AccessToken, TokenType: "Bearer"}
	switch {
	case ir.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(ir.ExpiresIn) * time.Second)
	case ir.Expiration > 0:
		tok.Expiry = time.Unix(ir.Expiration, 0)
	}
	return tok, nil
}
