// Package extractor turns decoded images into fixed-length face feature
// vectors. Exactly one strategy is selected at startup; vectors from
// different strategies live in different spaces and are never mixed in
// one encoding store.
package extractor

import (
	"context"
	"image"

	"github.com/campusworks/facemark/internal/matcher"
)

// Space describes the coordinate space an extractor emits into. The
// store records the space name with every encoding and refuses writes
// from a different one.
type Space struct {
	Name             string
	Dim              int
	Metric           matcher.Metric
	DefaultThreshold float64
}

// Extractor produces a feature vector for the single face in an image,
// or domain.ErrNoFaceDetected when the image holds no extractable face.
// Extraction is deterministic: a fixed image always yields the same
// vector.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) ([]float32, error)
	Space() Space
}
