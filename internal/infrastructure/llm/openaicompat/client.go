// Package openaicompat is a TextOracle for hosted chat completion APIs that
// speak the OpenAI protocol, including Gemini's OpenAI-compatible endpoint.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/bazaar-search/internal/core/domain"
	"github.com/kirillkom/bazaar-search/internal/infrastructure/resilience"
)

const completionOperation = "openai.chat_completion"

const systemPrompt = "Eres un asistente de catalogo para un bazar de ropa de segunda mano. " +
	"Respondes unicamente con JSON valido, sin markdown ni explicaciones."

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	executor    *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		executor:    executor,
	}
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	text, err := resilience.Call(ctx, c.executor, completionOperation, func(ctx context.Context) (string, error) {
		return c.complete(ctx, prompt)
	}, classifyAPIError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(err)
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", describeAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func describeAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat completion request error %d: %w", reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("chat completion request: %w", err)
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func classifyAPIError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if class, ok := resilience.ClassifyContextError(err); ok {
		return class
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if code := statusCode(err); code != 0 {
		switch {
		case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= 500:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{}
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

// wrapTemporaryIfNeeded marks failures worth retrying later, including a
// completion that ran out of time, as ErrTemporary.
func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyAPIError(err).Retryable || errors.Is(err, context.DeadlineExceeded) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, completionOperation, err)
	}
	return err
}
