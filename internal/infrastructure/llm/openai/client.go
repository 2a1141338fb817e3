package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat completions API. Every call is
// rate limited, routed through the shared resilience executor, and priced
// from the usage block of the response.
type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       *resilience.Executor
	pricing    Pricing
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outbound requests per second across all operations.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithResilience(exec *resilience.Executor) Option {
	return func(c *Client) { c.exec = exec }
}

func WithPricing(p Pricing) Option {
	return func(c *Client) {
		if p != nil {
			c.pricing = p
		}
	}
}

func New(baseURL, apiKey, genModel, embedModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		pricing:    DefaultPricing(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  any           `json:"tool_choice,omitempty"`
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage tokenUsage `json:"usage"`
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (domain.Completion, error) {
	request := chatRequest{
		Model: c.genModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	response, err := c.chat(ctx, "chat_completion", request)
	if err != nil {
		return domain.Completion{}, err
	}
	if len(response.Choices) == 0 {
		return domain.Completion{}, wrapLLMError("chat_completion", fmt.Errorf("response contains no choices"))
	}
	return domain.Completion{
		Text: strings.TrimSpace(response.Choices[0].Message.Content),
		Cost: c.pricing.Cost(c.genModel, response.Usage.PromptTokens, response.Usage.CompletionTokens),
	}, nil
}

// CompleteStructured forces the model through a single tool call whose
// parameters are the caller's JSON schema, so the payload conforms before it
// is ever parsed. Few-shot exchanges go in as alternating user/assistant
// messages ahead of the real prompt.
func (c *Client) CompleteStructured(ctx context.Context, req domain.StructuredRequest) (domain.StructuredCompletion, error) {
	messages := make([]chatMessage, 0, 2*len(req.FewShot)+2)
	messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	for _, exchange := range req.FewShot {
		messages = append(messages,
			chatMessage{Role: "user", Content: exchange.User},
			chatMessage{Role: "assistant", Content: exchange.Response},
		)
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	request := chatRequest{
		Model:    c.genModel,
		Messages: messages,
		Tools: []chatTool{{
			Type: "function",
			Function: toolFunction{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Parameters:  req.Schema.Schema,
			},
		}},
		ToolChoice: map[string]any{
			"type":     "function",
			"function": map[string]any{"name": req.Schema.Name},
		},
	}

	response, err := c.chat(ctx, "structured_completion", request)
	if err != nil {
		return domain.StructuredCompletion{}, err
	}
	if len(response.Choices) == 0 {
		return domain.StructuredCompletion{}, wrapLLMError("structured_completion", fmt.Errorf("response contains no choices"))
	}

	cost := c.pricing.Cost(c.genModel, response.Usage.PromptTokens, response.Usage.CompletionTokens)
	message := response.Choices[0].Message
	if len(message.ToolCalls) > 0 {
		return domain.StructuredCompletion{
			Payload: json.RawMessage(message.ToolCalls[0].Function.Arguments),
			Cost:    cost,
		}, nil
	}
	// Some compatible servers answer with plain content instead of a tool call.
	content := strings.TrimSpace(message.Content)
	if content == "" {
		return domain.StructuredCompletion{}, wrapLLMError("structured_completion", fmt.Errorf("response contains neither tool call nor content"))
	}
	return domain.StructuredCompletion{Payload: json.RawMessage(content), Cost: cost}, nil
}

func (c *Client) chat(ctx context.Context, operation string, request chatRequest) (*chatResponse, error) {
	var response chatResponse
	err := c.call(ctx, operation, func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/chat/completions", request, &response, operation)
	})
	if err != nil {
		return nil, wrapLLMError(operation, err)
	}
	return &response, nil
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if c.exec == nil {
		return fn(ctx)
	}
	return c.exec.Execute(ctx, operation, fn, classifyOpenAIError)
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
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	err := e.client.call(ctx, "embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/v1/embeddings", request, &response, "embed")
	})
	if err != nil {
		return nil, wrapLLMError("embed", err)
	}

	vectors := make([][]float32, len(response.Data))
	for i, item := range response.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
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
