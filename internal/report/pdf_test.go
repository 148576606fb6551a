package report

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubStore struct {
	key         string
	contentType string
	data        []byte
}

func (s *stubStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.key = key
	s.contentType = contentType
	s.data = append([]byte(nil), data...)
	return "https://cdn.example.com/" + key, nil
}

func TestCreatePlanOnly(t *testing.T) {
	store := &stubStore{}
	builder, err := NewBuilder(store, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	url, err := builder.CreatePlanOnly(context.Background(), "Hey Champion<br><b>Weekly Workout Schedule:</b><br>Monday: Yoga")
	if err != nil {
		t.Fatalf("create plan only: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/reports/fitness_plan_") || !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("url = %q", url)
	}
	if store.contentType != "application/pdf" {
		t.Fatalf("content type = %q", store.contentType)
	}
	if !bytes.HasPrefix(store.data, []byte("%PDF")) {
		t.Fatalf("stored data is not a pdf")
	}
}

func TestCreateWithImageEmbedsDownloadedImage(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	store := &stubStore{}
	builder, err := NewBuilder(store, server.Client(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	url, err := builder.CreateWithImage(context.Background(), server.URL+"/goal.jpg", "Plan line")
	if err != nil {
		t.Fatalf("create with image: %v", err)
	}
	if url == "" || len(store.data) == 0 {
		t.Fatalf("expected uploaded pdf")
	}
}

func TestCreateWithImageFailsWhenImageUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	builder, err := NewBuilder(&stubStore{}, server.Client(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	if _, err := builder.CreateWithImage(context.Background(), server.URL+"/missing.jpg", "plan"); err == nil {
		t.Fatalf("expected error for unreachable image")
	}
}

func TestCreateWithImageRejectsOversizedImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(make([]byte, maxImageBytes+1))
	}))
	defer server.Close()

	builder, err := NewBuilder(&stubStore{}, server.Client(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	if _, err := builder.CreateWithImage(context.Background(), server.URL+"/huge.jpg", "plan"); err == nil {
		t.Fatalf("expected error for oversized image")
	}
}

func TestPlanLinesStripMarkup(t *testing.T) {
	lines := planLines("Hello<br><b>Section:</b><br>Item one")
	want := []string{"Hello", "Section:", "Item one"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}
