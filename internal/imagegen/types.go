package imagegen

import "context"

// Request is the immutable input for one goal-image generation run. The source
// image is given either as already-fetched bytes or as a URL to download.
type Request struct {
	BasePrompt    string
	SourceURL     string
	SourceData    []byte
	Gender        string
	CurrentWeight string
	DesiredWeight string
	Height        string
	RequestID     string
}

// Stage names the pipeline step that produced the final image. It is logged
// for observability and never persisted.
type Stage string

const (
	StageOriginal        Stage = "original"
	StageFaceEnhanced    Stage = "face-enhanced"
	StageBodyRegenerated Stage = "body-regenerated"
)

// Result carries the best image URL obtained and which stage produced it.
type Result struct {
	URL   string
	Stage Stage
}

// FaceEnhancer requests a face-preserving enhancement of a hosted image.
// An empty URL with a nil error means the provider was skipped.
type FaceEnhancer interface {
	Enhance(ctx context.Context, prompt, imageURL string) (string, error)
}

// BodyRegenerator attempts a fuller-body regeneration of a hosted image.
// An empty URL with a nil error means the provider was skipped.
type BodyRegenerator interface {
	Regenerate(ctx context.Context, prompt, imageURL string) (string, error)
}
