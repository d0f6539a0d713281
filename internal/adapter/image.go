package adapter

import (
	"context"

	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/translator"
)

// ImageOptions and GeneratedImage mirror the translator types at the
// public surface.
type (
	ImageOptions   = translator.ImageOptions
	GeneratedImage = translator.Image
)

// GenerateImage produces one or more images for a prompt. Image
// generation is a single-provider operation: only the configured image
// provider (Gemini's Imagen family) is supported. A technically
// successful response with zero images fails with *EmptyResultError so
// callers can suggest a different prompt instead of a retry.
func (a *Assistant) GenerateImage(ctx context.Context, imgPrompt string, opts ImageOptions, credential string) ([]GeneratedImage, error) {
	ctx, span := a.obs.StartSpan(ctx, "GenerateImage")
	defer span.End()

	p, err := a.registry.Lookup(registry.DefaultImageProvider)
	if err != nil {
		return nil, err
	}

	req, err := translator.BuildImageRequest(p, imgPrompt, opts, credential)
	if err != nil {
		return nil, err
	}

	status, body, err := a.dispatch(ctx, p.ID, req)
	if err != nil {
		return nil, err
	}

	images, err := translator.ExtractImages(p, status, body)
	if err != nil {
		return nil, err
	}

	a.obs.Log().Info().
		Str("provider", p.ID).
		Int("images", len(images)).
		Msg("image generation complete")
	return images, nil
}
