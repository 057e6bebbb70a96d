// Package clients holds the HTTP clients for the backend collaborators: the
// auth, policy and claims services.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/api/metrics"
	"github.com/insureline/portal/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Config holds the settings shared by every collaborator client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport. Its Timeout is left untouched.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type restClient struct {
	service    string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func newRestClient(service string, cfg Config) (*restClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s client: base URL is required", service)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%s client: invalid base URL %q: %w", service, cfg.BaseURL, err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &restClient{
		service:    service,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		log:        cfg.Logger.With().Str("collaborator", service).Logger(),
	}, nil
}

// do sends a JSON request and decodes a JSON answer into out. Non-2xx
// answers come back as *domain.RemoteError; transport failures are wrapped
// so errors.Is still sees the underlying syscall error.
func (c *restClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.CollaboratorRequestDuration.WithLabelValues(c.service).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CollaboratorRequestsTotal.WithLabelValues(c.service, "error").Inc()
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("collaborator unreachable")
		return fmt.Errorf("%s %s %s: %w", c.service, method, path, err)
	}
	defer resp.Body.Close()
	metrics.CollaboratorRequestsTotal.WithLabelValues(c.service, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := c.errorFromResponse(resp)
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("collaborator returned an error")
		return rerr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%s: decode response: %w", c.service, err)
	}
	return nil
}

// errorFromResponse extracts the collaborator's own message from a JSON
// error body ({"message": ...} or {"error": ...}) when there is one.
func (c *restClient) errorFromResponse(resp *http.Response) error {
	rerr := &domain.RemoteError{Service: c.service, Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return rerr
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Message != "":
			rerr.Message = payload.Message
		case payload.Error != "":
			rerr.Message = payload.Error
		}
	}
	return rerr
}
