// internal/llm/providers/openrouter/openrouter.go
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Corphon/SeriesMoodRecap/internal/llm"
)

const (
	Name           = "openrouter"
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "google/gemini-2.0-flash-001"
)

func init() {
	llm.Register(Name, func() llm.Provider {
		return &Provider{baseURL: defaultBaseURL}
	})
}

// Provider talks to any OpenAI-compatible chat completions endpoint.
type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
	httpReferer  string // 请求来源
	appName      string // 应用名称
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// Initialize reads api_key, base_url, default_model, app_name and
// http_referer. Like the Gemini provider, a missing key is not an error here.
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

	p.appName = "TV Series Mood Recap"
	if appName := config["app_name"]; appName != "" {
		p.appName = appName
	}
	p.httpReferer = config["http_referer"]
	return nil
}

func (p *Provider) SetHTTPClient(client *http.Client) {
	p.client = client
}

func (p *Provider) GetName() string {
	return "OpenRouter"
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	jsonData, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("X-Title", p.appName)
	if p.httpReferer != "" {
		httpReq.Header.Set("HTTP-Referer", p.httpReferer)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenRouter request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("OpenRouter API error (%d): %s", httpResp.StatusCode, errorResp.Error.Message)
		}
		return nil, fmt.Errorf("OpenRouter API error (%d): %s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode))
	}

	var response chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode OpenRouter response: %w", err)
	}

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return nil, llm.ErrNoContent
	}

	modelName := response.Model
	if modelName == "" {
		modelName = model
	}
	return &llm.CompletionResponse{
		Text:         response.Choices[0].Message.Content,
		FinishReason: response.Choices[0].FinishReason,
		TokensUsed:   response.Usage.TotalTokens,
		ModelName:    modelName, // 使用API返回的实际模型
		ProviderName: p.GetName(),
	}, nil
}
