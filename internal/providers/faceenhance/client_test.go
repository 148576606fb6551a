package faceenhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"fitforge/internal/providers/cooldown"
)

type captureTransport struct {
	status      int
	contentType string
	body        []byte
	requests    int
	lastBody    []byte
	lastHeader  http.Header
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.requests++
	c.lastHeader = req.Header.Clone()
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	contentType := c.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	return &http.Response{
		StatusCode: c.status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(bytes.NewReader(c.body)),
	}, nil
}

type stubUploader struct {
	key string
	url string
	err error
}

func (s *stubUploader) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.key = key
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func newTestClient(t *testing.T, transport *captureTransport, store Uploader) (*Client, *cooldown.Tracker) {
	t.Helper()
	tracker := cooldown.NewTracker(map[cooldown.Provider]time.Duration{
		cooldown.ProviderFaceEnhance: time.Hour,
	})
	client, err := NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: transport},
		Tracker:    tracker,
		Store:      store,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, tracker
}

func TestEnhanceSingleStringOutput(t *testing.T) {
	body, _ := json.Marshal(map[string]any{"output": "https://provider.example.com/out.png"})
	transport := &captureTransport{status: http.StatusOK, body: body}
	client, tracker := newTestClient(t, transport, nil)

	url, err := client.Enhance(context.Background(), "prompt text", "https://cdn.example.com/in.jpg")
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if url != "https://provider.example.com/out.png" {
		t.Fatalf("url = %q", url)
	}

	if got := transport.lastHeader.Get("x-api-key"); got != "test-key" {
		t.Fatalf("x-api-key = %q", got)
	}
	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["prompt"] != "prompt text" || payload["face_image"] != "https://cdn.example.com/in.jpg" {
		t.Fatalf("payload = %v", payload)
	}
	if payload["num_samples"] != float64(1) {
		t.Fatalf("num_samples = %v, want 1", payload["num_samples"])
	}
	if payload["strength"] != 0.3 {
		t.Fatalf("strength = %v, want 0.3", payload["strength"])
	}

	stats := tracker.Stats(cooldown.ProviderFaceEnhance)
	if stats.Calls != 1 || stats.Failures != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestEnhanceListOutput(t *testing.T) {
	body, _ := json.Marshal(map[string]any{"output": []string{"https://provider.example.com/first.png", "second"}})
	transport := &captureTransport{status: http.StatusOK, body: body}
	client, _ := newTestClient(t, transport, nil)

	url, err := client.Enhance(context.Background(), "p", "u")
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if url != "https://provider.example.com/first.png" {
		t.Fatalf("url = %q, want first list entry", url)
	}
}

func TestEnhanceRateLimitStartsCooldownAndSkipsNextCall(t *testing.T) {
	transport := &captureTransport{status: http.StatusTooManyRequests, body: []byte(`{"error":"slow down"}`)}
	client, tracker := newTestClient(t, transport, nil)

	_, err := client.Enhance(context.Background(), "p", "u")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if on, _ := tracker.OnCooldown(cooldown.ProviderFaceEnhance); !on {
		t.Fatalf("expected cooldown after 429")
	}
	callsAfterFirst := tracker.Stats(cooldown.ProviderFaceEnhance).Calls

	// Second request inside the window is rejected locally: no HTTP traffic,
	// no counter movement.
	url, err := client.Enhance(context.Background(), "p", "u")
	if err != nil || url != "" {
		t.Fatalf("cooldown skip: url=%q err=%v, want empty and nil", url, err)
	}
	if transport.requests != 1 {
		t.Fatalf("transport requests = %d, want 1", transport.requests)
	}
	if got := tracker.Stats(cooldown.ProviderFaceEnhance).Calls; got != callsAfterFirst {
		t.Fatalf("calls moved from %d to %d during cooldown", callsAfterFirst, got)
	}
}

func TestEnhanceUnauthorized(t *testing.T) {
	transport := &captureTransport{status: http.StatusUnauthorized, body: []byte(`{"error":"bad key"}`)}
	client, tracker := newTestClient(t, transport, nil)

	_, err := client.Enhance(context.Background(), "p", "u")
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if on, _ := tracker.OnCooldown(cooldown.ProviderFaceEnhance); on {
		t.Fatalf("401 must not start a cooldown")
	}
	if stats := tracker.Stats(cooldown.ProviderFaceEnhance); stats.Failures != 1 {
		t.Fatalf("failures = %d, want 1", stats.Failures)
	}
}

func TestEnhanceImagePayloadIsValidatedAndStored(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	transport := &captureTransport{status: http.StatusOK, contentType: "image/png", body: buf.Bytes()}
	store := &stubUploader{url: "https://cdn.example.com/enhanced/abc.png"}
	client, tracker := newTestClient(t, transport, store)

	url, err := client.Enhance(context.Background(), "p", "u")
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if url != store.url {
		t.Fatalf("url = %q, want stored url", url)
	}
	if !strings.HasPrefix(store.key, "enhanced/") || !strings.HasSuffix(store.key, ".png") {
		t.Fatalf("store key = %q", store.key)
	}
	if stats := tracker.Stats(cooldown.ProviderFaceEnhance); stats.Calls != 1 || stats.Failures != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestEnhanceRejectsUndecodableImagePayload(t *testing.T) {
	transport := &captureTransport{status: http.StatusOK, contentType: "image/png", body: []byte("not a png")}
	client, tracker := newTestClient(t, transport, &stubUploader{url: "unused"})

	_, err := client.Enhance(context.Background(), "p", "u")
	if err == nil {
		t.Fatalf("expected error for undecodable image payload")
	}
	if stats := tracker.Stats(cooldown.ProviderFaceEnhance); stats.Failures != 1 {
		t.Fatalf("failures = %d, want 1", stats.Failures)
	}
}

func TestEnhanceUnparseableJSONBody(t *testing.T) {
	transport := &captureTransport{status: http.StatusOK, body: []byte(`{"output": {"weird": true}}`)}
	client, _ := newTestClient(t, transport, nil)

	if _, err := client.Enhance(context.Background(), "p", "u"); err == nil {
		t.Fatalf("expected decode error for unexpected output shape")
	}
}

func TestEnhanceWithoutAPIKeyMakesNoCall(t *testing.T) {
	transport := &captureTransport{status: http.StatusOK}
	tracker := cooldown.NewTracker(nil)
	client, err := NewClient(Options{
		HTTPClient: &http.Client{Transport: transport},
		Tracker:    tracker,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Enhance(context.Background(), "p", "u")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if transport.requests != 0 {
		t.Fatalf("transport requests = %d, want 0", transport.requests)
	}
}
