package image

import (
	"context"
	"errors"

	"mediaforge/internal/domain"
	"mediaforge/internal/genjob"
	"mediaforge/internal/providers/genai"
)

// Editor adapts image-editing requests: the validated reference images are
// passed inline ahead of the instruction prompt.
type Editor struct {
	client *genai.Client
}

func NewEditor(client *genai.Client) *Editor {
	return &Editor{client: client}
}

func (e *Editor) Backend() domain.Backend {
	return domain.BackendEdit
}

func (e *Editor) Submit(ctx context.Context, req domain.Request) (*genjob.Submission, error) {
	refs := make([]genai.InlineImage, len(req.ReferenceImages))
	for i, ref := range req.ReferenceImages {
		refs[i] = genai.InlineImage{MimeType: ref.MimeType, Data: ref.Data}
	}
	images, err := e.client.GenerateImages(ctx, genai.ImageRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		References:  refs,
	})
	if err != nil {
		return nil, err
	}
	return &genjob.Submission{Result: inlineResult(images)}, nil
}

func (e *Editor) Poll(ctx context.Context, handle string) (*genjob.Operation, error) {
	return nil, errors.New("image editing has no long-running operations")
}

func (e *Editor) FetchArtifact(ctx context.Context, uri string) ([]byte, string, error) {
	return nil, "", errors.New("edited images are stored inline")
}

var _ genjob.Adapter = (*Editor)(nil)
