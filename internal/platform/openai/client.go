package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/httpx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
	"github.com/yungbote/travel-companion-backend/internal/utils"
)

var ErrNotConfigured = fmt.Errorf("%w: missing OPENAI_API_KEY", domainerrs.ErrCollaboratorUnavailable)

// Client is the language model collaborator.
type Client interface {
	// GenerateJSON asks for a strict json_schema structured output.
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature *float64

	// RetryBackoff is the first retry delay; it doubles per attempt.
	RetryBackoff time.Duration
}

// ConfigFromEnv reads OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL, LLM_TIMEOUT,
// OPENAI_MAX_RETRIES, OPENAI_TEMPERATURE and OPENAI_DISABLE_TEMPERATURE.
func ConfigFromEnv(log *logger.Logger) Config {
	cfg := Config{
		APIKey:     utils.GetEnv("OPENAI_API_KEY", "", nil),
		BaseURL:    utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", log),
		Model:      utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log),
		Timeout:    utils.GetEnvAsDuration("LLM_TIMEOUT", 60*time.Second, log),
		MaxRetries: utils.GetEnvAsInt("OPENAI_MAX_RETRIES", 2, log),
	}
	if !utils.GetEnvAsBool("OPENAI_DISABLE_TEMPERATURE", false, log) {
		temp := utils.GetEnvAsFloat("OPENAI_TEMPERATURE", 0.2, log)
		cfg.Temperature = &temp
	}
	return cfg
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration

	temperature *float64
	// models that rejected the temperature parameter once
	noTempMu sync.RWMutex
	noTemp   map[string]bool
}

func NewClient(log *logger.Logger) (Client, error) {
	return NewClientWithConfig(log, ConfigFromEnv(log))
}

func NewClientWithConfig(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.RetryBackoff,
		temperature: cfg.Temperature,
		noTemp:      map[string]bool{},
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string    `json:"model"`
	Input []message `json:"input"`
	Text  struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch {
			case c.Type == "output_text" && c.Text != "":
				out.WriteString(c.Text)
			case c.Type == "refusal" && c.Refusal != "":
				refusal = c.Refusal
			}
		}
	}
	return out.String(), refusal
}

func (c *client) newRequest(system, user string) *responsesRequest {
	req := &responsesRequest{
		Model: c.model,
		Input: []message{{Role: "system", Content: system}, {Role: "user", Content: user}},
	}
	c.noTempMu.RLock()
	skip := c.noTemp[c.model]
	c.noTempMu.RUnlock()
	if !skip {
		req.Temperature = c.temperature
	}
	return req
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" || schema == nil {
		return nil, errors.New("schemaName and schema required")
	}
	req := c.newRequest(system, user)
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}
	text, err := c.respond(ctx, "generate_json", req)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("%w: model returned invalid JSON: %v", domainerrs.ErrGeneration, err)
	}
	return obj, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.respond(ctx, "generate_text", c.newRequest(system, user))
}

func (c *client) respond(ctx context.Context, op string, req *responsesRequest) (string, error) {
	ctx, span := observability.StartSpan(ctx, "openai."+op, attribute.String("llm.model", req.Model))
	var resp responsesResponse
	err := c.doResponses(ctx, req, &resp)
	observability.EndSpan(span, err)
	if err != nil {
		return "", err
	}
	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return "", fmt.Errorf("%w: model refused: %s", domainerrs.ErrGeneration, refusal)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no output_text in response", domainerrs.ErrGeneration)
	}
	return text, nil
}

// doResponses retries once without temperature when the model rejects it.
func (c *client) doResponses(ctx context.Context, req *responsesRequest, out *responsesResponse) error {
	err := c.do(ctx, http.MethodPost, "/v1/responses", req, out)
	if err == nil || req.Temperature == nil || !isUnsupportedTemperature(err) {
		return err
	}
	c.noTempMu.Lock()
	c.noTemp[req.Model] = true
	c.noTempMu.Unlock()
	req.Temperature = nil
	return c.do(ctx, http.MethodPost, "/v1/responses", req, out)
}

func isUnsupportedTemperature(err error) bool {
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(httpErr.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, hint := range []string{"unsupported", "not supported", "does not support", "unknown parameter", "only the default"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do retries transient failures with backoff. Exhausted transient failures
// wrap ErrCollaboratorUnavailable; cancellation is returned as is.
func (c *client) do(ctx context.Context, method, path string, body any, out *responsesResponse) error {
	backoff := c.backoff
	start := time.Now()
	model := c.model
	if r, ok := body.(*responsesRequest); ok {
		model = r.Model
	}
	metrics := observability.Current()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return contextError(err)
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				metrics.ObserveLLMRequest(model, path, "decode_error", time.Since(start), 0, 0)
				return fmt.Errorf("%w: openai decode error: %v", domainerrs.ErrGeneration, uErr)
			}
			metrics.ObserveLLMRequest(model, path, statusLabel(resp, nil), time.Since(start), out.Usage.InputTokens, out.Usage.OutputTokens)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return ctxErr
		}
		if !httpx.IsRetryableError(err) || attempt >= c.maxRetries {
			metrics.ObserveLLMRequest(model, path, statusLabel(resp, err), time.Since(start), 0, 0)
			if httpx.IsUnavailable(err) {
				return fmt.Errorf("%w: openai: %v", domainerrs.ErrCollaboratorUnavailable, err)
			}
			return err
		}

		var header http.Header
		if resp != nil {
			header = resp.Header
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(header, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return contextError(err)
		}
		backoff *= 2
	}
}

// contextError reports a blown deadline as an unavailable collaborator and
// passes cancellation through.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: openai: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
	return err
}

func statusLabel(resp *http.Response, err error) string {
	if resp != nil {
		return fmt.Sprintf("%d", resp.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if err != nil {
		return "transport_error"
	}
	return "0"
}
