// Package gemini wraps the Google generative model behind the modality
// classification calls the analysis engine needs. All remote failures
// degrade to the local keyword and path classifiers.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
)

const (
	maxAttempts    = 3
	retryBaseDelay = 300 * time.Millisecond
	probeTimeout   = 10 * time.Second
)

// Client holds the single generative model selected at startup from an
// ordered preference list. The rate limiter guards the shared API quota.
type Client struct {
	cl        *genai.Client
	model     *genai.GenerativeModel
	modelName string
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    logging.Logger
}

// NewClient connects and probes the configured models in order. The first
// model that answers a token count ping is used for the process lifetime.
// Returns an error wrapping domain.ErrModelUnavailable when the feature is
// disabled, the API key is missing, or no configured model responds.
func NewClient(ctx context.Context, cfg config.ModelConfig, logger logging.Logger) (*Client, error) {
	if !cfg.Enabled || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("model disabled or api key missing: %w", domain.ErrModelUnavailable)
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	for _, name := range cfg.Models {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		m := cl.GenerativeModel(name)
		m.GenerationConfig = genai.GenerationConfig{
			Temperature:      ptrFloat32(0),
			ResponseMIMEType: "application/json",
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		_, probeErr := m.CountTokens(probeCtx, genai.Text("ping"))
		cancel()
		if probeErr != nil {
			logger.Warn("model probe failed, trying next",
				logging.String("model", name),
				logging.Error(probeErr))
			continue
		}

		logger.Info("generative model selected", logging.String("model", name))

		return &Client{
			cl:        cl,
			model:     m,
			modelName: name,
			limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
			timeout:   cfg.Timeout,
			logger:    logger,
		}, nil
	}

	_ = cl.Close()

	return nil, fmt.Errorf("no configured model responded: %w", domain.ErrModelUnavailable)
}

// ModelName returns the name of the model selected at startup.
func (c *Client) ModelName() string { return c.modelName }

// Close releases the underlying API connection.
func (c *Client) Close() error { return c.cl.Close() }

// generate sends the parts and returns the first text part of the response.
// Transient failures are retried with a short linear backoff inside the
// configured call timeout.
func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.model.GenerateContent(callCtx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-callCtx.Done():
				return "", fmt.Errorf("model %s: %w", c.modelName, callCtx.Err())
			case <-time.After(time.Duration(attempt) * retryBaseDelay):
			}
			continue
		}

		txt := firstText(resp)
		if txt == "" {
			return "", fmt.Errorf("model %s: empty response", c.modelName)
		}
		return txt, nil
	}

	return "", fmt.Errorf("model %s: %w", c.modelName, lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
