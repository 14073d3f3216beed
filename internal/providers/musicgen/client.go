package musicgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videogen/internal/infra"
)

const (
	MinDuration    = 5
	MaxDuration    = 30
	maxPromptRunes = 100
	maxAudioBytes  = 64 << 20
	defaultTimeout = 5 * time.Minute
	healthTimeout  = 5 * time.Second
	generatePath   = "/generate-music"
	healthPath     = "/health"
	promptPrefix   = "background music: "
	promptSuffix   = ", instrumental"
)

// Options configures the music-generation client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client calls a prompt-conditioned music model server. Generation is slow,
// so the default timeout is measured in minutes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// Health mirrors the server's health payload.
type Health struct {
	Status      string `json:"status"`
	Model       string `json:"model"`
	Device      string `json:"device"`
	ModelLoaded bool   `json:"model_loaded"`
}

type generateRequest struct {
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
}

// NewClient constructs a client. BaseURL is required.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("musicgen: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// ShapePrompt returns the description the server derives from prompt. The
// server applies it itself, so it is only used for labelling.
func ShapePrompt(prompt string) string {
	runes := []rune(strings.TrimSpace(prompt))
	if len(runes) > maxPromptRunes {
		runes = runes[:maxPromptRunes]
	}
	return promptPrefix + string(runes) + promptSuffix
}

// ClampDuration bounds seconds to what the model server accepts.
func ClampDuration(seconds int) int {
	if seconds < MinDuration {
		return MinDuration
	}
	if seconds > MaxDuration {
		return MaxDuration
	}
	return seconds
}

// Generate requests a track and returns the raw WAV payload. The prompt is
// sent unshaped.
func (c *Client) Generate(ctx context.Context, prompt string, seconds int) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("musicgen: prompt is required")
	}
	body, err := json.Marshal(generateRequest{Prompt: prompt, Duration: ClampDuration(seconds)})
	if err != nil {
		return nil, fmt.Errorf("musicgen: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("musicgen: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("musicgen: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("musicgen: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
			return nil, fmt.Errorf("musicgen: %s (status %d)", detail.Detail, resp.StatusCode)
		}
		return nil, fmt.Errorf("musicgen: status %d", resp.StatusCode)
	}
	if len(data) == 0 {
		return nil, errors.New("musicgen: empty audio payload")
	}
	c.logger.Debug().Int("bytes", len(data)).Dur("took", time.Since(start)).Msg("musicgen: generated track")
	return data, nil
}

// Health queries the server's readiness endpoint with a short timeout.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("musicgen: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("musicgen: health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("musicgen: health status %d", resp.StatusCode)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("musicgen: decode health: %w", err)
	}
	return &h, nil
}
