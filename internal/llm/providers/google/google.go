// internal/llm/providers/google/google.go
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Corphon/SeriesMoodRecap/internal/llm"
)

const (
	Name           = "google"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"
)

func init() {
	llm.Register(Name, func() llm.Provider {
		return &Provider{baseURL: defaultBaseURL}
	})
}

// Provider calls the Gemini generateContent endpoint.
type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Initialize reads api_key, base_url and default_model. A missing key is
// accepted; the endpoint will reject the call and that error surfaces instead.
func (p *Provider) Initialize(config map[string]string) error {
	p.apiKey = config["api_key"]
	p.client = &http.Client{}

	p.defaultModel = defaultModel
	if model := config["default_model"]; model != "" {
		p.defaultModel = model
	}

	if baseURL := config["base_url"]; baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
	return nil
}

// SetHTTPClient swaps the transport, used by tests.
func (p *Provider) SetHTTPClient(client *http.Client) {
	p.client = client
}

func (p *Provider) GetName() string {
	return "google gemini"
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(model), url.QueryEscape(p.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		// the URL carries the key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("google gemini request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		raw, _ := io.ReadAll(httpResp.Body)
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &errorResp) == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("google gemini API error (%d): %s", httpResp.StatusCode, errorResp.Error.Message)
		}
		return nil, fmt.Errorf("google gemini API error (%d): %s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode))
	}

	var response generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode google gemini response: %w", err)
	}

	if len(response.Candidates) == 0 {
		return nil, llm.ErrNoContent
	}
	first := response.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 || first.Content.Parts[0].Text == "" {
		return nil, llm.ErrNoContent
	}

	return &llm.CompletionResponse{
		Text:         first.Content.Parts[0].Text,
		FinishReason: first.FinishReason,
		TokensUsed:   response.UsageMetadata.TotalTokenCount,
		ModelName:    model,
		ProviderName: p.GetName(),
	}, nil
}
