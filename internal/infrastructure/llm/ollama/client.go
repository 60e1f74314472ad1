package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/bazaar-search/internal/infrastructure/resilience"
)

const generateOperation = "ollama.generate"

// Client is a TextOracle backed by a local Ollama server.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		executor:    executor,
	}
}

// GenerateJSON returns the raw completion text. Callers own parsing since
// models often wrap JSON in prose or code fences.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	text, err := resilience.Call(ctx, c.executor, generateOperation, func(ctx context.Context) (string, error) {
		return c.generate(ctx, prompt)
	}, classifyOllamaError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(generateOperation, err)
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:   c.model,
		System:  systemPrompt,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: c.temperature},
	}
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}
