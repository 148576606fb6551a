package bodyregen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fitforge/internal/infra"
	"fitforge/internal/providers/cooldown"
)

var (
	// ErrMissingAPIKey indicates the client was configured without credentials.
	ErrMissingAPIKey = errors.New("bodyregen: api key is required")
	// ErrRateLimited indicates the provider answered 429; the whole model
	// chain is aborted because rate limits are provider-wide.
	ErrRateLimited = errors.New("bodyregen: provider rate limited")
	// ErrAllModelsFailed indicates the fallback list was exhausted.
	ErrAllModelsFailed = errors.New("bodyregen: all model attempts failed")
)

const (
	controlNetModel = "control_v11p_sd15_openpose"
	controlNetType  = "pose"
	negativePrompt  = "cartoon, blurry, ugly, distorted face, low quality"

	defaultStrength = 0.4
	defaultGuidance = 7

	// Cap on the source download; the pipeline hands over normalized 512x512
	// JPEGs, so anything near this is not ours.
	maxSourceBytes = 10 << 20
)

// DefaultModels is the ordered fallback chain tried when none is configured.
var DefaultModels = []string{
	"realistic-vision-v5",
	"juggernaut-xl-v8",
	"dreamshaper-v7",
}

// Options configures the body-regeneration client.
type Options struct {
	APIKey         string
	BaseURL        string
	Models         []string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	Tracker        *cooldown.Tracker
	RequestTimeout time.Duration
}

// Client calls a stable-diffusion image-to-image API, walking an ordered model
// fallback list until one model succeeds or the provider rate-limits.
type Client struct {
	apiKey     string
	baseURL    string
	models     []string
	httpClient *http.Client
	logger     *infra.Logger
	tracker    *cooldown.Tracker
}

// outcome classifies one model attempt so the chain policy stays independent
// of the HTTP transport.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeRateLimited
	outcomeFailed
)

type regenRequest struct {
	Prompt          string  `json:"prompt"`
	Image           string  `json:"image"`
	Model           string  `json:"model"`
	ControlNetModel string  `json:"controlnet_model"`
	ControlNetType  string  `json:"controlnet_type"`
	Strength        float64 `json:"strength"`
	NegativePrompt  string  `json:"negative_prompt"`
	Guidance        float64 `json:"guidance"`
	NumImages       int     `json:"num_images"`
}

type regenResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if opts.Tracker == nil {
		return nil, errors.New("bodyregen: cooldown tracker is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.getimg.ai/v1"
	}
	models := opts.Models
	if len(models) == 0 {
		models = DefaultModels
	}
	cloned := make([]string, len(models))
	copy(cloned, models)
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		models:     cloned,
		httpClient: httpClient,
		logger:     logger,
		tracker:    opts.Tracker,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Models returns the configured fallback chain in order.
func (c *Client) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

// Regenerate downloads the current best image and walks the model fallback
// chain: first success wins, a 429 aborts the chain and starts the cooldown,
// any other failure moves on to the next model. An empty URL with a nil error
// means the call was skipped locally (active cooldown).
func (c *Client) Regenerate(ctx context.Context, prompt, imageURL string) (string, error) {
	if !c.HasCredentials() {
		c.logger.Warn().Msg("bodyregen: no api key configured, skipping provider")
		return "", ErrMissingAPIKey
	}
	if on, remaining := c.tracker.OnCooldown(cooldown.ProviderBodyRegen); on {
		c.logger.Warn().Dur("remaining", remaining).Msg("bodyregen: cooldown active, skipping call")
		return "", nil
	}

	encoded, err := c.fetchSource(ctx, imageURL)
	if err != nil {
		c.tracker.RecordFailure(cooldown.ProviderBodyRegen)
		return "", err
	}

	for _, model := range c.models {
		url, out, err := c.tryModel(ctx, model, prompt, encoded)
		switch out {
		case outcomeOK:
			c.tracker.RecordSuccess(cooldown.ProviderBodyRegen)
			c.logger.Info().Str("model", model).Msg("bodyregen: image generated")
			return url, nil
		case outcomeRateLimited:
			c.tracker.RecordRateLimit(cooldown.ProviderBodyRegen)
			c.tracker.RecordFailure(cooldown.ProviderBodyRegen)
			c.logger.Warn().Str("model", model).Msg("bodyregen: rate limited, aborting model chain")
			return "", ErrRateLimited
		default:
			c.tracker.RecordFailure(cooldown.ProviderBodyRegen)
			c.logger.Warn().Err(err).Str("model", model).Msg("bodyregen: model attempt failed")
		}
	}
	return "", ErrAllModelsFailed
}

// tryModel issues one HTTP call for one candidate model.
func (c *Client) tryModel(ctx context.Context, model, prompt, encodedImage string) (string, outcome, error) {
	payload := regenRequest{
		Prompt:          prompt,
		Image:           encodedImage,
		Model:           model,
		ControlNetModel: controlNetModel,
		ControlNetType:  controlNetType,
		Strength:        defaultStrength,
		NegativePrompt:  negativePrompt,
		Guidance:        defaultGuidance,
		NumImages:       1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", outcomeFailed, fmt.Errorf("encode request: %w", err)
	}
	endpoint := c.baseURL + "/stable-diffusion/image-to-image"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", outcomeFailed, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", outcomeFailed, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", outcomeFailed, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", outcomeRateLimited, nil
	case resp.StatusCode != http.StatusOK:
		return "", outcomeFailed, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(raw))
	}

	var decoded regenResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", outcomeFailed, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Data) == 0 || strings.TrimSpace(decoded.Data[0].URL) == "" {
		return "", outcomeFailed, errors.New("empty result url")
	}
	return strings.TrimSpace(decoded.Data[0].URL), outcomeOK, nil
}

// fetchSource downloads the hosted image and re-encodes it the way the
// transport wants it: base64 without a data-URI prefix.
func (c *Client) fetchSource(ctx context.Context, imageURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("bodyregen: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("bodyregen: download source image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("bodyregen: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return "", fmt.Errorf("bodyregen: read source image: %w", err)
	}
	if len(data) > maxSourceBytes {
		return "", fmt.Errorf("bodyregen: source image exceeds %d bytes", maxSourceBytes)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
