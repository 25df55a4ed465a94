package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/clearpath-health/clearpath/internal/cache"
	"github.com/clearpath-health/clearpath/internal/models"
)

const maxErrorBody = 512

// ReasoningClient calls the hosted reasoning endpoint, one POST per pipeline stage.
type ReasoningClient struct {
	baseURL    string
	apiKey     string
	deployment string
	httpClient *http.Client
	logger     *slog.Logger

	cache    cache.Provider
	cacheTTL time.Duration
}

// ReasoningOptions configures a ReasoningClient.
type ReasoningOptions struct {
	BaseURL    string
	APIKey     string
	Deployment string
	Timeout    time.Duration
	Cache      cache.Provider
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

// NewReasoningClient constructs a client targeting the configured reasoning endpoint.
func NewReasoningClient(opts ReasoningOptions) *ReasoningClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	provider := opts.Cache
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &ReasoningClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		deployment: opts.Deployment,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
		cache:      provider,
		cacheTTL:   opts.CacheTTL,
	}
}

type stageRequest struct {
	Stage models.Stage    `json:"stage"`
	Input json.RawMessage `json:"input"`
}

type stageResponse struct {
	Output json.RawMessage `json:"output"`
}

// Invoke sends one stage request and returns the raw output object. Shape
// validation is left to the caller.
func (c *ReasoningClient) Invoke(ctx context.Context, stage models.Stage, input json.RawMessage) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("reasoning client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("reasoning base URL not configured")
	}

	key := cache.Key("reasoning", []byte(c.deployment), []byte(stage), input)
	if cached, ok := c.cached(ctx, key); ok {
		return cached, nil
	}

	var response stageResponse
	if err := c.postJSON(ctx, c.resolvePath("/v1/stages/"+string(stage)), stageRequest{Stage: stage, Input: input}, &response); err != nil {
		return nil, fmt.Errorf("reasoning %s request failed: %w", stage, err)
	}
	output := bytes.TrimSpace(response.Output)
	if len(output) == 0 || bytes.Equal(output, []byte("null")) {
		return nil, fmt.Errorf("reasoning %s returned no output", stage)
	}

	c.store(ctx, key, output)
	return json.RawMessage(output), nil
}

func (c *ReasoningClient) cached(ctx context.Context, key string) (json.RawMessage, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("reasoning cache read failed", slog.Any("error", err))
		}
		return nil, false
	}
	return json.RawMessage(data), true
}

func (c *ReasoningClient) store(ctx context.Context, key string, output []byte) {
	if c.cacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, output, c.cacheTTL); err != nil {
		c.logger.Warn("reasoning cache write failed", slog.Any("error", err))
	}
}

func (c *ReasoningClient) resolvePath(p string) string {
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *ReasoningClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.deployment != "" {
		req.Header.Set("X-Deployment", c.deployment)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("reasoning endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
