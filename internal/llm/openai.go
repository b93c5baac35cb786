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

	"github.com/mathfish/mathfish/internal/pkg/errors"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`

	// Newer model families reject max_tokens in favor of
	// max_completion_tokens; exactly one of these is set.
	MaxTokens           int `json:"max_tokens,omitempty"`
	MaxCompletionTokens int `json:"max_completion_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAI calls the OpenAI chat completions API.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIEndpoint,
		http:    &http.Client{Timeout: timeout},
	}
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if o.apiKey == "" {
		return "", errors.New(errors.CodeValidation, "OPENAI_API_KEY is not set")
	}

	body, err := json.Marshal(newOpenAIRequest(o.model, req))
	if err != nil {
		return "", errors.LLMError("encoding openai request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.LLMError("creating openai request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.http.Do(httpReq)
	if err != nil {
		return "", errors.LLMError("calling openai", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.LLMError("reading openai response", err)
	}
	if resp.StatusCode >= 400 {
		return "", errors.New(errors.CodeLLM, fmt.Sprintf("openai error %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.LLMError("parsing openai response", err)
	}
	if parsed.Error != nil {
		return "", errors.New(errors.CodeLLM, fmt.Sprintf("openai error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New(errors.CodeLLM, "no choices in openai response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func newOpenAIRequest(model string, req Request) openAIRequest {
	out := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: 0,
	}
	if strings.HasPrefix(model, "gpt-5") {
		out.MaxCompletionTokens = req.MaxTokens
	} else {
		out.MaxTokens = req.MaxTokens
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
