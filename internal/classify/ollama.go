package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// Config for the Ollama client.
type Config struct {
	URL           string        // default http://localhost:11434/api/generate
	Model         string        // default gemma3n
	Timeout       time.Duration // per request, default 60s
	DocumentTypes []string
	Labels        []string
	Language      string
	MaxChars      int

	// BreakerFailures consecutive transport failures open the breaker for
	// BreakerOpenTimeout.
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = "http://localhost:11434/api/generate"
	}
	if c.Model == "" {
		c.Model = "gemma3n"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultMaxChars
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = 30 * time.Second
	}
	return c
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaClient classifies text with a local Ollama model.
type OllamaClient struct {
	cfg     Config
	http    *http.Client
	schema  *jsonschema.Schema
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// ClientOption customizes an OllamaClient.
type ClientOption func(*OllamaClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *OllamaClient) { c.http = hc }
}

func NewOllamaClient(cfg Config, logger *slog.Logger, opts ...ClientOption) (*OllamaClient, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := CompileSchema(BuildClassificationSchema())
	if err != nil {
		return nil, err
	}
	c := &OllamaClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		schema: schema,
		logger: logger,
	}
	for _, o := range opts {
		o(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "ollama",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// a cancelled run says nothing about the server
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("classify.breaker.state_change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c, nil
}

// Classify sends the prompt and parses the reply. Any failure is reported as
// an UNCLASSIFIED error.
func (c *OllamaClient) Classify(ctx context.Context, text string) (*entity.Classification, error) {
	logger := common.LoggerFromContext(ctx, c.logger)
	start := time.Now()

	prompt := BuildPrompt(PromptInput{
		Text:          text,
		DocumentTypes: c.cfg.DocumentTypes,
		Labels:        c.cfg.Labels,
		Language:      c.cfg.Language,
		MaxChars:      c.cfg.MaxChars,
	})
	logger.Info("classify.start", "model", c.cfg.Model, "text_len", len(text), "prompt_len", len(prompt))

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return SendJSON(ctx, c.http, c.cfg.URL, generateRequest{Model: c.cfg.Model, Prompt: prompt}, logger)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Warn("classify.breaker.open", "model", c.cfg.Model)
			return nil, common.UnclassifiedError("classifier unavailable (circuit open)", err)
		}
		logger.Error("classify.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.UnclassifiedError("classifier request failed", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		logger.Error("classify.decode_error", "error", err, "raw_bytes", len(raw))
		return nil, common.UnclassifiedError("decode classifier response", err)
	}

	out, err := c.parse(gr.Response, logger)
	if err != nil {
		logger.Error("classify.parse_error", "error", err, "response", truncate(gr.Response, 500),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.UnclassifiedError("parse classifier response", err)
	}

	logger.Info("classify.ok",
		"document_type", out.DocumentType,
		"labels", out.Labels,
		"date", out.Date,
		"company", out.Company,
		"content_summary", out.ContentSummary,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// parse extracts, coerces and validates the JSON object in a model reply.
func (c *OllamaClient) parse(reply string, logger *slog.Logger) (*entity.Classification, error) {
	block, err := ExtractJSONBlock(reply)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(block, &m); err != nil {
		return nil, fmt.Errorf("decode json block: %w", err)
	}
	if changed := CoerceFields(m); len(changed) > 0 {
		logger.Warn("classify.lenient_coercion_applied", "fields", changed)
	}
	if err := validateDoc(c.schema, m); err != nil {
		return nil, err
	}
	return toClassification(m), nil
}
