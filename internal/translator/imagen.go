package translator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/affiliateai/copilot/internal/registry"
)

// Image generation is a single-provider concern: only the Imagen family
// behind the generative-content endpoint is supported, via the predict
// wire shape.

// ImageOptions configure one image generation call.
type ImageOptions struct {
	// AspectRatio is the Imagen ratio string, e.g. "1:1" or "16:9".
	// Empty means "1:1".
	AspectRatio string
	// Count is the number of samples to request. Zero means 1.
	Count int
}

// Image is one generated image: a base64-encoded payload plus its MIME
// type.
type Image struct {
	Data     string
	MIMEType string
}

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio"`
}

type imagenResponse struct {
	Predictions []imagenPrediction `json:"predictions"`
	Error       *googleError       `json:"error,omitempty"`
}

type imagenPrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType"`
}

// BuildImageRequest builds an Imagen predict call against the provider's
// configured image model.
func BuildImageRequest(p registry.Provider, prompt string, opts ImageOptions, credential string) (*Request, error) {
	if credential == "" {
		return nil, &MissingCredentialError{Provider: p.ID}
	}
	if p.ImageModel == "" {
		return nil, fmt.Errorf("provider %q has no image model configured", p.ID)
	}

	ratio := opts.AspectRatio
	if ratio == "" {
		ratio = "1:1"
	}
	count := opts.Count
	if count <= 0 {
		count = 1
	}

	body, err := json.Marshal(imagenRequest{
		Instances:  []imagenInstance{{Prompt: prompt}},
		Parameters: imagenParameters{SampleCount: count, AspectRatio: ratio},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	endpoint := fmt.Sprintf("%s/models/%s:predict?key=%s",
		p.BaseURL, p.ImageModel, url.QueryEscape(credential))

	return &Request{
		URL:    endpoint,
		Header: header,
		Body:   body,
	}, nil
}

// ExtractImages parses a predict response. A success payload with zero
// predictions fails with *EmptyResultError: the vendor accepted the call
// but generated nothing, which is how safety rejections surface.
func ExtractImages(p registry.Provider, status int, body []byte) ([]Image, error) {
	var resp imagenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ProviderResponseError{Provider: p.ID, Status: status, Message: "malformed predict payload: " + snippet(body)}
	}
	if resp.Error != nil {
		return nil, &ProviderResponseError{Provider: p.ID, Status: status, Message: resp.Error.Message}
	}
	if status != http.StatusOK {
		return nil, &ProviderResponseError{Provider: p.ID, Status: status, Message: snippet(body)}
	}
	if len(resp.Predictions) == 0 {
		return nil, &EmptyResultError{Provider: p.ID}
	}

	images := make([]Image, 0, len(resp.Predictions))
	for _, pred := range resp.Predictions {
		mime := pred.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, Image{Data: pred.BytesBase64Encoded, MIMEType: mime})
	}
	return images, nil
}
