// Package image provides the text-to-image and image-editing adapters. Both
// backends resolve synchronously: the provider returns inline image bytes
// from the submission call, so there is never an operation to poll.
package image

import (
	"context"
	"errors"

	"mediaforge/internal/domain"
	"mediaforge/internal/genjob"
	"mediaforge/internal/providers/genai"
)

// Generator adapts text-to-image requests onto the genai client.
type Generator struct {
	client *genai.Client
}

func NewGenerator(client *genai.Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Backend() domain.Backend {
	return domain.BackendImage
}

func (g *Generator) Submit(ctx context.Context, req domain.Request) (*genjob.Submission, error) {
	images, err := g.client.GenerateImages(ctx, genai.ImageRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		return nil, err
	}
	return &genjob.Submission{Result: inlineResult(images)}, nil
}

func (g *Generator) Poll(ctx context.Context, handle string) (*genjob.Operation, error) {
	return nil, errors.New("image generation has no long-running operations")
}

func (g *Generator) FetchArtifact(ctx context.Context, uri string) ([]byte, string, error) {
	return nil, "", errors.New("image artifacts are stored inline")
}

func inlineResult(images []genai.InlineImage) *domain.Result {
	artifacts := make([]domain.Artifact, len(images))
	for i, img := range images {
		artifacts[i] = domain.Artifact{MediaType: img.MimeType, Data: img.Data}
	}
	return &domain.Result{Artifacts: artifacts}
}

var _ genjob.Adapter = (*Generator)(nil)
