// Package client talks to the surprise API: it loads the surprise document,
// stores letters and remembers whether a visitor already saw the countdown end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HammerMeetNail/birthdaysurprise/internal/flow"
	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

var ErrEmptyContent = errors.New("client: message content is required")

// HTTPStatusError captures non-2xx responses. Message is the server's
// "error" field when one was returned.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("client: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("client: unexpected status %d from %s", e.StatusCode, e.URL)
}

type errorBody struct {
	Error string `json:"error"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("client: base URL must not be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.Default,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// FetchConfig retrieves and validates the surprise document.
func (c *Client) FetchConfig(ctx context.Context) (models.SurpriseConfig, error) {
	var cfg models.SurpriseConfig
	if err := c.doJSON(ctx, http.MethodGet, "/api/config", nil, &cfg); err != nil {
		return models.SurpriseConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return models.SurpriseConfig{}, fmt.Errorf("client: invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig is FetchConfig with the built-in document as fallback. It never
// fails.
func (c *Client) LoadConfig(ctx context.Context) models.SurpriseConfig {
	cfg, err := c.FetchConfig(ctx)
	if err != nil {
		c.logger.Warn("Using default surprise config", map[string]interface{}{"error": err.Error()})
		return models.DefaultSurpriseConfig(c.now())
	}
	return cfg
}

// Submit stores a letter. Blank content is rejected without a request.
func (c *Client) Submit(ctx context.Context, content, sender string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	var msg models.Message
	params := models.CreateMessageParams{Content: content, Sender: sender}
	if err := c.doJSON(ctx, http.MethodPost, "/api/messages", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		statusErr := &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint}
		var eb errorBody
		if json.Unmarshal(buf, &eb) == nil {
			statusErr.Message = eb.Error
		}
		return statusErr
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

var _ flow.MessageSink = (*Client)(nil)
