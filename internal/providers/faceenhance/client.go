package faceenhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitforge/internal/infra"
	"fitforge/internal/providers/cooldown"
)

var (
	// ErrMissingAPIKey indicates the client was configured without credentials.
	ErrMissingAPIKey = errors.New("faceenhance: api key is required")
	// ErrRateLimited indicates the provider answered 429 on this call.
	ErrRateLimited = errors.New("faceenhance: provider rate limited")
)

const (
	positivePrompt = "best quality, extremely detailed"
	negativePrompt = "blurry, cartoon, unrealistic, distorted, bad anatomy"

	// Low strength biases toward keeping the original face intact.
	defaultStrength = 0.3
)

// Uploader persists raw image bytes and returns a hosted URL. Used when the
// provider answers with an image body instead of a reference.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Options configures the face-enhancement client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	Tracker        *cooldown.Tracker
	Store          Uploader
	RequestTimeout time.Duration
	Strength       float64
}

// Client calls an InstantID-style face-preserving enhancement API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	tracker    *cooldown.Tracker
	store      Uploader
	strength   float64
}

type enhanceRequest struct {
	Prompt         string  `json:"prompt"`
	FaceImage      string  `json:"face_image"`
	PositivePrompt string  `json:"a_prompt"`
	NegativePrompt string  `json:"n_prompt"`
	NumSamples     int     `json:"num_samples"`
	Strength       float64 `json:"strength"`
	GuessMode      bool    `json:"guess_mode"`
}

type enhanceResponse struct {
	Output outputValue `json:"output"`
}

// outputValue absorbs the provider's two known output shapes: a single string
// or a list of strings. Anything else is an explicit decode error rather than
// a silent stringification.
type outputValue struct {
	values []string
}

func (o *outputValue) UnmarshalJSON(raw []byte) error {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		o.values = []string{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		o.values = list
		return nil
	}
	return errors.New("unsupported output shape")
}

func (o outputValue) first() string {
	for _, v := range o.values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if opts.Tracker == nil {
		return nil, errors.New("faceenhance: cooldown tracker is required")
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
		baseURL = "https://api.segmind.com/v1"
	}
	strength := opts.Strength
	if strength <= 0 {
		strength = defaultStrength
	}
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
		httpClient: httpClient,
		logger:     logger,
		tracker:    opts.Tracker,
		store:      opts.Store,
		strength:   strength,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Enhance requests a face-preserving enhancement of the hosted image. An empty
// URL with a nil error means the call was skipped locally (active cooldown).
func (c *Client) Enhance(ctx context.Context, prompt, imageURL string) (string, error) {
	if !c.HasCredentials() {
		c.logger.Warn().Msg("faceenhance: no api key configured, skipping provider")
		return "", ErrMissingAPIKey
	}
	if on, remaining := c.tracker.OnCooldown(cooldown.ProviderFaceEnhance); on {
		c.logger.Warn().Dur("remaining", remaining).Msg("faceenhance: cooldown active, skipping call")
		return "", nil
	}

	payload := enhanceRequest{
		Prompt:         prompt,
		FaceImage:      imageURL,
		PositivePrompt: positivePrompt,
		NegativePrompt: negativePrompt,
		NumSamples:     1,
		Strength:       c.strength,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("faceenhance: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/instantid", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("faceenhance: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
		return "", fmt.Errorf("faceenhance: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
		return "", fmt.Errorf("faceenhance: read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return c.handleSuccess(ctx, resp.Header.Get("Content-Type"), raw)
	case http.StatusTooManyRequests:
		c.tracker.RecordRateLimit(cooldown.ProviderFaceEnhance)
		c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
		c.logger.Warn().Str("body", snippet(raw)).Msg("faceenhance: rate limited, cooldown started")
		return "", ErrRateLimited
	case http.StatusUnauthorized:
		c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
		c.logger.Error().Str("body", snippet(raw)).Msg("faceenhance: authorization failed, check credentials")
		return "", fmt.Errorf("faceenhance: unauthorized (status %d)", resp.StatusCode)
	default:
		c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
		return "", fmt.Errorf("faceenhance: status %d: %s", resp.StatusCode, snippet(raw))
	}
}

// handleSuccess normalizes the two documented success shapes: a JSON body
// carrying an output reference, or raw image bytes that must be validated and
// persisted before a URL exists for them.
func (c *Client) handleSuccess(ctx context.Context, contentType string, raw []byte) (string, error) {
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		if _, _, err := image.Decode(bytes.NewReader(raw)); err != nil {
			c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
			return "", fmt.Errorf("faceenhance: response is not a decodable image: %w", err)
		}
		if c.store == nil {
			c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
			return "", errors.New("faceenhance: no store configured for image payloads")
		}
		key := "enhanced/" + uuid.NewString() + extensionFor(contentType)
		url, err := c.store.Put(ctx, key, raw, contentType)
		if err != nil {
			c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
			return "", fmt.Errorf("faceenhance: store image payload: %w", err)
		}
		c.tracker.RecordSuccess(cooldown.ProviderFaceEnhance)
		return url, nil
	}

	var decoded enhanceResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
		return "", fmt.Errorf("faceenhance: decode response: %w", err)
	}
	out := decoded.Output.first()
	if out == "" {
		c.tracker.RecordFailure(cooldown.ProviderFaceEnhance)
		return "", errors.New("faceenhance: empty output")
	}
	c.tracker.RecordSuccess(cooldown.ProviderFaceEnhance)
	return out, nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
