// Package face selects the feature-extractor strategy at startup.
package face

import (
	"fmt"

	"github.com/campusworks/facemark/internal/config"
	"github.com/campusworks/facemark/internal/extractor"
	"github.com/campusworks/facemark/internal/extractor/deepface"
	"github.com/campusworks/facemark/internal/extractor/histogram"
)

// Kind defines supported feature-extractor strategies
type Kind string

const (
	// KindHistogram is the dependency-free color-histogram strategy
	// (dev/test placeholder, not real recognition)
	KindHistogram Kind = "histogram"
	// KindDeepFace is the DeepFace sidecar strategy (real model, for prod)
	KindDeepFace Kind = "deepface"
)

// NewExtractor creates an Extractor based on configuration. The choice
// is static: it happens once at process start and never swaps at
// runtime, so a running process only ever emits vectors from a single
// space.
//
// Environment variables:
//   - EXTRACTOR: "histogram" or "deepface" (default: "histogram")
//   - DEEPFACE_URL: DeepFace sidecar URL (deepface strategy only)
func NewExtractor(cfg *config.Config) (extractor.Extractor, error) {
	kind := Kind(cfg.Extractor)

	switch kind {
	case KindDeepFace:
		return createDeepFaceExtractor(cfg), nil

	case KindHistogram, "":
		return histogram.New(), nil

	default:
		return nil, fmt.Errorf("unknown extractor kind: %s (supported: %s, %s)",
			cfg.Extractor, KindHistogram, KindDeepFace)
	}
}

// Threshold resolves the effective match threshold: an explicit
// configured value wins, otherwise the extractor space's default. The
// literal values are empirical per strategy and never transfer between
// spaces.
func Threshold(cfg *config.Config, space extractor.Space) float64 {
	if cfg.MatchThreshold != 0 {
		return cfg.MatchThreshold
	}
	return space.DefaultThreshold
}

func createDeepFaceExtractor(cfg *config.Config) *deepface.Extractor {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	return deepface.New(deepfaceConfig)
}
