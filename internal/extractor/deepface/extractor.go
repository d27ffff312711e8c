// Package deepface implements the model-backed feature extractor over a
// DeepFace HTTP sidecar. It is the production strategy; its Facenet512
// vectors are not comparable to any other extractor's output.
package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/extractor"
	"github.com/campusworks/facemark/internal/matcher"
)

const embeddingDim = 512

// Extractor implements extractor.Extractor using the DeepFace API.
type Extractor struct {
	client *Client
}

func New(config Config) *Extractor {
	return &Extractor{client: NewClient(config)}
}

func (e *Extractor) Space() extractor.Space {
	return extractor.Space{
		Name:             "deepface-facenet512",
		Dim:              embeddingDim,
		Metric:           matcher.MetricCosine,
		DefaultThreshold: 0.8,
	}
}

// Extract sends the image to the sidecar and returns the embedding of
// the single detected face. Zero faces map to ErrNoFaceDetected; more
// than one face is rejected as well, since an enrollment or login photo
// with several faces cannot be attributed safely.
func (e *Extractor) Extract(ctx context.Context, img image.Image) ([]float32, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, domain.ErrInvalidImage
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	resp, err := e.client.Represent(ctx, base64.StdEncoding.EncodeToString(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("deepface represent: %w", err)
	}

	switch len(resp.Results) {
	case 0:
		return nil, domain.ErrNoFaceDetected
	case 1:
	default:
		return nil, domain.ErrNoFaceDetected.WithError(
			fmt.Errorf("%d faces in image, expected one", len(resp.Results)))
	}

	raw := resp.Results[0].Embedding
	if len(raw) != embeddingDim {
		return nil, fmt.Errorf("%w: embedding dimension %d, expected %d", ErrInvalidResponse, len(raw), embeddingDim)
	}

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

var _ extractor.Extractor = (*Extractor)(nil)
