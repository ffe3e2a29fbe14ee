package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	// GenerateRPS paces generate calls so batch evaluation cannot flood the
	// backend. Zero disables pacing.
	GenerateRPS        float64
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return NewWithOptions(baseURL, genModel, embedModel, Options{})
}

func NewWithOptions(baseURL, genModel, embedModel string, options Options) *Client {
	var limiter *rate.Limiter
	if options.GenerateRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.GenerateRPS), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    limiter,
		executor:   options.ResilienceExecutor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "embed", request, &response); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Generator implements the completion capability. Responses come back as a
// structured envelope: the model's answer text plus any reasoning trace the
// backend exposes, so callers never scrape markers out of the answer.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, docs []domain.Chunk) (domain.Completion, error) {
	return g.client.generateText(ctx, buildAnswerPrompt(question, docs))
}

func (g *Generator) GenerateFromPrompt(ctx context.Context, prompt string) (domain.Completion, error) {
	return g.client.generateText(ctx, prompt)
}

// GenerateChoice answers a single-choice question with a strict-JSON prompt
// and returns the chosen 1-based option index.
func (g *Generator) GenerateChoice(ctx context.Context, question string, options []string, docs []domain.Chunk) (int, domain.Completion, error) {
	completion, err := g.client.generateJSON(ctx, buildChoicePrompt(question, options, docs))
	if err != nil {
		return 0, domain.Completion{}, err
	}

	var parsed struct {
		Answer int `json:"answer"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(completion.Answer)), &parsed); err != nil {
		return 0, completion, fmt.Errorf("parse choice json: %w", err)
	}
	if parsed.Answer < 1 || parsed.Answer > len(options) {
		return 0, completion, fmt.Errorf("choice out of range: %d", parsed.Answer)
	}
	return parsed.Answer, completion, nil
}

// Summarizer implements best-effort chunk compression.
type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, text, query string) (string, error) {
	completion, err := s.client.generateText(ctx, buildSummaryPrompt(text, query))
	if err != nil {
		return "", err
	}
	return completion.Answer, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (domain.Completion, error) {
	return c.generate(ctx, map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	})
}

func (c *Client) generateText(ctx context.Context, prompt string) (domain.Completion, error) {
	return c.generate(ctx, map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	})
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (domain.Completion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.Completion{}, err
		}
	}

	var response struct {
		Response string `json:"response"`
		Thinking string `json:"thinking"`
	}
	if err := c.call(ctx, "generate", reqBody, &response); err != nil {
		return domain.Completion{}, err
	}
	return domain.Completion{
		Answer: strings.TrimSpace(response.Response),
		Trace:  strings.TrimSpace(response.Thinking),
	}, nil
}

func (c *Client) call(ctx context.Context, operation string, payload, out any) error {
	path := "/api/" + operation
	do := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, do, classifyOllamaError)
	} else {
		err = do(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
