// Package video provides the text/image-to-video adapter. Video generation
// is a long-running provider operation: submission returns an operation
// handle and the orchestrator polls it to completion. The finished video is
// hosted by the provider and fetched on download.
package video

import (
	"context"
	"time"

	"mediaforge/internal/domain"
	"mediaforge/internal/genjob"
	"mediaforge/internal/providers/genai"
)

// providerFileTTL is how long the provider keeps generated video files
// retrievable.
const providerFileTTL = 48 * time.Hour

// Generator adapts video requests onto the genai long-running operation API.
type Generator struct {
	client *genai.Client
	now    func() time.Time
}

func NewGenerator(client *genai.Client) *Generator {
	return &Generator{client: client, now: time.Now}
}

func (g *Generator) Backend() domain.Backend {
	return domain.BackendVideo
}

func (g *Generator) Submit(ctx context.Context, req domain.Request) (*genjob.Submission, error) {
	var reference *genai.InlineImage
	if len(req.ReferenceImages) > 0 {
		ref := req.ReferenceImages[0]
		reference = &genai.InlineImage{MimeType: ref.MimeType, Data: ref.Data}
	}
	name, err := g.client.StartVideoGeneration(ctx, genai.VideoRequest{
		Model:           req.Model,
		Prompt:          req.Prompt,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
		DurationSeconds: req.DurationSeconds,
		Reference:       reference,
	})
	if err != nil {
		return nil, err
	}
	return &genjob.Submission{OperationHandle: name}, nil
}

func (g *Generator) Poll(ctx context.Context, handle string) (*genjob.Operation, error) {
	state, err := g.client.GetOperation(ctx, handle)
	if err != nil {
		return nil, err
	}
	op := &genjob.Operation{Done: state.Done}
	if !state.Done {
		return op, nil
	}
	if state.ErrorMessage != "" {
		op.Error = state.ErrorMessage
		return op, nil
	}
	op.Result = &domain.Result{Remote: &domain.Remote{
		URI:       state.Video.URI,
		MediaType: state.Video.MimeType,
		ExpiresAt: g.now().Add(providerFileTTL),
	}}
	return op, nil
}

func (g *Generator) FetchArtifact(ctx context.Context, uri string) ([]byte, string, error) {
	return g.client.DownloadFile(ctx, uri)
}

var _ genjob.Adapter = (*Generator)(nil)
