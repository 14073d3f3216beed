package image

import (
	"context"

	"videogen/internal/providers/stability"
)

// Fixed sampling parameters shared by every frame of every run.
const (
	FrameWidth    = 1024
	FrameHeight   = 1024
	GuidanceScale = 7.0
	SamplingSteps = 30
)

// DefaultNegativePrompt captures undesirable artefacts we want the model to avoid.
const DefaultNegativePrompt = "blurry, distorted, low quality, watermark, text artefacts"

// GenerateRequest describes one frame request passed to an image provider.
type GenerateRequest struct {
	Prompt    string
	Seed      int
	RequestID string
}

// Generator is the contract implemented by all image providers. It returns
// the encoded image bytes of exactly one image.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

type stabilityClient interface {
	GenerateImage(context.Context, stability.ImageRequest) ([]byte, error)
}

// StabilityGenerator pins the sampling parameters and forwards to the
// Stability client.
type StabilityGenerator struct {
	client stabilityClient
}

func NewStabilityGenerator(client stabilityClient) *StabilityGenerator {
	return &StabilityGenerator{client: client}
}

func (g *StabilityGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	return g.client.GenerateImage(ctx, stability.ImageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: DefaultNegativePrompt,
		Width:          FrameWidth,
		Height:         FrameHeight,
		CFGScale:       GuidanceScale,
		Steps:          SamplingSteps,
		Seed:           req.Seed,
	})
}

var _ Generator = (*StabilityGenerator)(nil)
