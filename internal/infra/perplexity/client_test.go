package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/observability"
	"github.com/colespa/colespa-api/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(server.Client(), "pplx-test-key", "", resilience.NewCircuitBreaker(t.Name()),
		resilience.Config{MaxRetries: 0}, observability.NewMetrics(), zap.NewNop())
	c.baseURL = server.URL
	return c
}

func chatAnswer(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer pplx-test-key" {
			t.Errorf("authorization header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 480},
		})
	}
}

func TestGenerate_ParsesPlainJSON(t *testing.T) {
	c := newTestClient(t, chatAnswer(t, `{"title":"Cómo obtener el NIE","slug":"como-obtener-el-nie","excerpt":"Los pasos.","content":"<p>Primero pide cita.</p>"}`))

	post, err := c.Generate(context.Background(), &domain.GenerateRequest{Topic: "el NIE", Category: "legal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Title != "Cómo obtener el NIE" {
		t.Errorf("title = %q", post.Title)
	}
	if post.Slug != "como-obtener-el-nie" {
		t.Errorf("slug = %q", post.Slug)
	}
}

func TestGenerate_StripsMarkdownFences(t *testing.T) {
	answer := "Aquí tienes el artículo:\n```json\n{\"title\":\"Visado de estudiante\",\"content\":\"<p>...</p>\"}\n```\n"
	c := newTestClient(t, chatAnswer(t, answer))

	post, err := c.Generate(context.Background(), &domain.GenerateRequest{Topic: "visados"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Title != "Visado de estudiante" {
		t.Errorf("title = %q", post.Title)
	}
}

func TestGenerate_ParseFailure(t *testing.T) {
	cases := map[string]string{
		"prose answer":  "Lo siento, no puedo generar ese artículo.",
		"missing title": `{"content":"<p>...</p>"}`,
	}
	for name, answer := range cases {
		c := newTestClient(t, chatAnswer(t, answer))

		_, err := c.Generate(context.Background(), &domain.GenerateRequest{Topic: "visados"})
		var genErr *domain.ErrGenerationFailed
		if !errors.As(err, &genErr) {
			t.Fatalf("%s: expected ErrGenerationFailed, got %v", name, err)
		}
		if genErr.Stage != "parse" {
			t.Errorf("%s: stage = %q, want parse", name, genErr.Stage)
		}
	}
}

func TestGenerate_APIFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Generate(context.Background(), &domain.GenerateRequest{Topic: "visados"})
	var genErr *domain.ErrGenerationFailed
	if !errors.As(err, &genErr) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if genErr.Stage != "api" {
		t.Errorf("stage = %q, want api", genErr.Stage)
	}
}

func TestGenerate_EmptyTopic(t *testing.T) {
	c := newTestClient(t, chatAnswer(t, "{}"))

	_, err := c.Generate(context.Background(), &domain.GenerateRequest{})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
