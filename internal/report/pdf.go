package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitforge/internal/storage"
)

// maxImageBytes caps the goal-image download embedded into the report.
const maxImageBytes = 10 << 20

// Builder renders the goal image and plan into a downloadable PDF and uploads
// it to the image store.
type Builder struct {
	store      storage.ImageStore
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewBuilder wires a Builder with the store used for the finished documents.
func NewBuilder(store storage.ImageStore, httpClient *http.Client, logger zerolog.Logger) (*Builder, error) {
	if store == nil {
		return nil, errors.New("report: image store is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Builder{store: store, httpClient: httpClient, logger: logger}, nil
}

// CreateWithImage renders a PDF carrying the goal image followed by the plan
// text, uploads it and returns its URL.
func (b *Builder) CreateWithImage(ctx context.Context, imageURL, planHTML string) (string, error) {
	data, imageType, err := b.downloadImage(ctx, imageURL)
	if err != nil {
		return "", err
	}
	doc := newDocument()
	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	doc.RegisterImageOptionsReader("goal-image", opts, bytes.NewReader(data))
	doc.ImageOptions("goal-image", 30, 0, 150, 0, true, opts, 0, "")
	doc.Ln(10)
	writePlan(doc, planHTML)
	writeFooter(doc)
	return b.upload(ctx, doc)
}

// CreatePlanOnly renders a PDF with just the plan text.
func (b *Builder) CreatePlanOnly(ctx context.Context, planHTML string) (string, error) {
	doc := newDocument()
	writePlan(doc, planHTML)
	writeFooter(doc)
	return b.upload(ctx, doc)
}

func newDocument() *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFillColor(240, 248, 255)
	doc.Rect(0, 0, 210, 297, "F")
	doc.SetFont("Helvetica", "B", 18)
	doc.SetTextColor(25, 25, 112)
	doc.CellFormat(200, 12, "Your Fitness Goal & Workout Plan", "", 1, "C", false, 0, "")
	doc.Ln(5)
	doc.SetDrawColor(100, 149, 237)
	doc.SetLineWidth(0.8)
	doc.Line(10, 25, 200, 25)
	doc.Ln(10)
	return doc
}

func writePlan(doc *fpdf.Fpdf, planHTML string) {
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "", 12)
	for _, line := range planLines(planHTML) {
		if line == "" {
			doc.Ln(4)
			continue
		}
		if strings.HasSuffix(line, ":") {
			doc.SetTextColor(199, 21, 133)
			doc.SetFont("Helvetica", "B", 13)
		} else {
			doc.SetTextColor(0, 0, 0)
			doc.SetFont("Helvetica", "", 11)
		}
		doc.MultiCell(0, 8, line, "", "L", false)
	}
}

func writeFooter(doc *fpdf.Fpdf) {
	doc.Ln(5)
	doc.SetFont("Helvetica", "I", 10)
	doc.SetTextColor(105, 105, 105)
	doc.CellFormat(0, 10, "Generated by DayDream Forge", "", 1, "C", false, 0, "")
}

// planLines strips the light HTML markup the plan generator emits.
func planLines(planHTML string) []string {
	replacer := strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "")
	flattened := replacer.Replace(strings.ReplaceAll(planHTML, "<br>", "\n"))
	raw := strings.Split(flattened, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

func (b *Builder) upload(ctx context.Context, doc *fpdf.Fpdf) (string, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return "", fmt.Errorf("report: render pdf: %w", err)
	}
	key := "reports/fitness_plan_" + uuid.NewString() + ".pdf"
	url, err := b.store.Put(ctx, key, buf.Bytes(), "application/pdf")
	if err != nil {
		return "", fmt.Errorf("report: upload pdf: %w", err)
	}
	b.logger.Info().Str("url", url).Msg("report: pdf uploaded")
	return url, nil
}

func (b *Builder) downloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("report: build image request: %w", err)
	}
	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("report: download goal image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("report: goal image status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("report: read goal image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("report: goal image exceeds %d bytes", maxImageBytes)
	}
	imageType := "JPG"
	switch strings.ToLower(resp.Header.Get("Content-Type")) {
	case "image/png":
		imageType = "PNG"
	case "image/gif":
		imageType = "GIF"
	}
	return data, imageType, nil
}
