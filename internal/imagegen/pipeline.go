package imagegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitforge/internal/storage"
)

// ErrSourceImage marks the only request-level fatal condition: the source
// image could not be fetched or is not a decodable image.
var ErrSourceImage = errors.New("imagegen: source image unavailable or not decodable")

// maxSourceBytes caps the source download; anything bigger than this is not a
// form-submitted photo.
const maxSourceBytes = 10 << 20

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Store        storage.ImageStore
	Face         FaceEnhancer
	Body         BodyRegenerator
	HTTPClient   *http.Client
	Logger       zerolog.Logger
	TargetWidth  int
	TargetHeight int
}

// Pipeline sequences ingest, face enhancement and body regeneration, degrading
// to the best image available at each stage. Provider failures never fail the
// request; only an unusable source image does.
type Pipeline struct {
	store      storage.ImageStore
	face       FaceEnhancer
	body       BodyRegenerator
	httpClient *http.Client
	logger     zerolog.Logger
	width      int
	height     int
}

// NewPipeline validates options and builds a Pipeline.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Store == nil {
		return nil, errors.New("imagegen: image store is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	width, height := opts.TargetWidth, opts.TargetHeight
	if width <= 0 {
		width = 512
	}
	if height <= 0 {
		height = 512
	}
	return &Pipeline{
		store:      opts.Store,
		face:       opts.Face,
		body:       opts.Body,
		httpClient: httpClient,
		logger:     opts.Logger,
		width:      width,
		height:     height,
	}, nil
}

// Generate runs the full pipeline for one request and returns the best image
// obtained. Enhancement stages run strictly in order; each operates on the
// output of the previous one.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := p.logger.With().Str("request_id", requestID).Logger()

	normalizedURL, err := p.ingestSource(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", normalizedURL).Msg("imagegen: source normalized and uploaded")

	if _, ok := WeightDelta(req.CurrentWeight, req.DesiredWeight); !ok {
		log.Warn().
			Str("current", req.CurrentWeight).
			Str("desired", req.DesiredWeight).
			Msg("imagegen: non-numeric weight input, treating delta as 0")
	}
	prompt := ComposePrompt(req.BasePrompt, req.Gender, req.CurrentWeight, req.DesiredWeight, req.Height)
	log.Debug().Str("prompt", prompt).Msg("imagegen: composed prompt")

	best := Result{URL: normalizedURL, Stage: StageOriginal}

	if p.face != nil {
		url, err := p.face.Enhance(ctx, prompt, best.URL)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("imagegen: face enhancement yielded no improvement")
		case url != "":
			best = Result{URL: url, Stage: StageFaceEnhanced}
		}
	}

	if p.body != nil {
		url, err := p.body.Regenerate(ctx, prompt, best.URL)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("imagegen: body regeneration yielded no improvement")
		case url != "":
			best = Result{URL: url, Stage: StageBodyRegenerated}
		}
	}

	log.Info().Str("stage", string(best.Stage)).Str("url", best.URL).Msg("imagegen: pipeline done")
	return &best, nil
}

// ingestSource fetches, validates and normalizes the source image, then
// uploads the resized copy so downstream providers get a stable URL.
func (p *Pipeline) ingestSource(ctx context.Context, req Request) (string, error) {
	data := req.SourceData
	if len(data) == 0 {
		fetched, err := p.fetch(ctx, req.SourceURL)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSourceImage, err)
		}
		data = fetched
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrSourceImage, err)
	}

	// Fit, not crop: the whole body must survive normalization.
	normalized := imaging.Fit(src, p.width, p.height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, normalized, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("imagegen: encode normalized image: %w", err)
	}

	key := "uploads/" + uuid.NewString() + ".jpg"
	url, err := p.store.Put(ctx, key, buf.Bytes(), "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("imagegen: upload normalized image: %w", err)
	}
	return url, nil
}

func (p *Pipeline) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, errors.New("no source url")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("source exceeds %d bytes", maxSourceBytes)
	}
	return data, nil
}
