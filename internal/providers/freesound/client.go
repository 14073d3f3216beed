package freesound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"videogen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("freesound: api key is required")

const (
	SortRatingDesc   = "rating_desc"
	previewHQMP3     = "preview-hq-mp3"
	previewLQMP3     = "preview-lq-mp3"
	searchFields     = "id,name,duration,previews"
	maxDownloadBytes = 32 << 20
)

// Options configures the sound-library client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the Freesound v2 text search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// SearchRequest is one text query with its duration window.
type SearchRequest struct {
	Query       string
	MinDuration int
	MaxDuration int
	Sort        string
	PageSize    int
}

// Sound is a normalized search hit.
type Sound struct {
	ID         int64
	Name       string
	Duration   float64
	PreviewURL string
}

type searchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		ID       int64             `json:"id"`
		Name     string            `json:"name"`
		Duration float64           `json:"duration"`
		Previews map[string]string `json:"previews"`
	} `json:"results"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://freesound.org"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Search runs one text search. An empty slice means the query matched nothing.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Sound, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.New("freesound: query is required")
	}
	params := url.Values{}
	params.Set("query", query)
	if req.MaxDuration > 0 {
		params.Set("filter", fmt.Sprintf("duration:[%d TO %d]", req.MinDuration, req.MaxDuration))
	}
	sort := req.Sort
	if sort == "" {
		sort = SortRatingDesc
	}
	params.Set("sort", sort)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 1
	}
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("fields", searchFields)
	params.Set("token", c.apiKey)

	endpoint := c.baseURL + "/apiv2/search/text/?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("freesound: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("freesound: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("freesound: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
			return nil, fmt.Errorf("freesound: %s (status %d)", detail.Detail, resp.StatusCode)
		}
		return nil, fmt.Errorf("freesound: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded searchResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("freesound: decode response: %w", err)
	}
	sounds := make([]Sound, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		preview := r.Previews[previewHQMP3]
		if preview == "" {
			preview = r.Previews[previewLQMP3]
		}
		if preview == "" {
			continue
		}
		sounds = append(sounds, Sound{ID: r.ID, Name: r.Name, Duration: r.Duration, PreviewURL: preview})
	}
	c.logger.Debug().Str("query", query).Int("count", decoded.Count).Int("usable", len(sounds)).Msg("freesound: search")
	return sounds, nil
}

// Download fetches a preview asset.
func (c *Client) Download(ctx context.Context, previewURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(previewURL))
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("freesound: invalid preview url: %s", previewURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("freesound: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("freesound: download preview: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("freesound: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("freesound: read preview: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("freesound: empty preview")
	}
	return data, nil
}
