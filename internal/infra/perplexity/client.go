// Package perplexity provides a client for the Perplexity chat-completions
// API, used to draft blog articles as structured JSON.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/observability"
	"github.com/colespa/colespa-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("perplexity")

const (
	baseURL      = "https://api.perplexity.ai"
	defaultModel = "sonar"
)

const systemPrompt = `Eres el redactor del blog de una consultora de migración que acompaña a
colombianos en su mudanza a España. Escribes en español neutro, con rigor
legal y tono cercano. Responde SIEMPRE con un único objeto JSON con las
claves: title, slug, excerpt, content (HTML), image. Sin texto fuera del JSON.`

// Client wraps HTTP calls to the chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate asks the model for a structured article draft. Failures are split
// into two stages so callers can tell a dead API from a malformed answer.
func (c *Client) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GeneratedPost, error) {
	ctx, span := tracer.Start(ctx, "Perplexity.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("topic", req.Topic))

	if req.Topic == "" {
		return nil, &domain.ErrValidation{Field: "topic", Message: "el tema es obligatorio"}
	}

	raw, err := c.complete(ctx, buildPrompt(req))
	if err != nil {
		return nil, &domain.ErrGenerationFailed{Stage: "api", Err: err}
	}

	post, err := parseGenerated(raw)
	if err != nil {
		c.logger.Warn("model answer did not parse", zap.Error(err))
		return nil, &domain.ErrGenerationFailed{Stage: "parse", Err: err}
	}
	return post, nil
}

func buildPrompt(req *domain.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Escribe un artículo sobre: %s.\n", req.Topic)
	fmt.Fprintf(&b, "Categoría: %s.\n", req.Category)
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tono: %s.\n", req.Tone)
	}
	if req.Length > 0 {
		fmt.Fprintf(&b, "Extensión aproximada: %d palabras.\n", req.Length)
	}
	return b.String()
}

// parseGenerated extracts the JSON object from the model answer. Models wrap
// JSON in markdown fences often enough that we strip them first.
func parseGenerated(answer string) (*domain.GeneratedPost, error) {
	answer = strings.TrimSpace(answer)
	if i := strings.Index(answer, "{"); i >= 0 {
		if j := strings.LastIndex(answer, "}"); j > i {
			answer = answer[i : j+1]
		}
	}

	var post domain.GeneratedPost
	if err := json.Unmarshal([]byte(answer), &post); err != nil {
		return nil, fmt.Errorf("answer is not valid JSON: %w", err)
	}
	if post.Title == "" || post.Content == "" {
		return nil, fmt.Errorf("answer is missing title or content")
	}
	return &post, nil
}

func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var answer string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("perplexity returned status %d", resp.StatusCode)
		}

		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("response has no choices")
		}
		answer = parsed.Choices[0].Message.Content
		if c.metrics != nil {
			c.metrics.RecordTokens(parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
		}
		return nil
	}

	_, err = c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, operation)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return "", &domain.ErrCircuitOpen{Service: "perplexity"}
	}
	return answer, err
}
