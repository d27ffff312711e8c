// Package histogram implements a dependency-free feature extractor: a
// normalized 8x8x8 RGB color histogram over a fixed downscale of the
// input. It is not real face recognition; it is the development and
// test strategy, the way a mock provider stands in for a cloud one.
// Its vectors are only comparable to other histogram vectors.
package histogram

import (
	"context"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/campusworks/facemark/internal/domain"
	"github.com/campusworks/facemark/internal/extractor"
	"github.com/campusworks/facemark/internal/matcher"
)

const (
	// sampleSize is the fixed downscale edge; every input is reduced to
	// sampleSize x sampleSize before binning so vectors are comparable
	// across source resolutions.
	sampleSize = 64
	// binsPerChannel gives 8*8*8 = 512 histogram bins.
	binsPerChannel = 8

	dim = binsPerChannel * binsPerChannel * binsPerChannel

	// minLumaStdDev rejects structureless frames (lens cap, wall,
	// washed-out capture) as having no detectable face. A real detector
	// replaces this in the deepface strategy.
	minLumaStdDev = 8.0
)

// Extractor is stateless and safe for concurrent use.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Space() extractor.Space {
	return extractor.Space{
		Name:             "histogram-rgb8",
		Dim:              dim,
		Metric:           matcher.MetricCosine,
		DefaultThreshold: 0.85,
	}
}

// Extract downscales, checks for minimal image structure, then bins
// pixels into a unit-length histogram. Pure function over pixel data.
func (e *Extractor) Extract(_ context.Context, img image.Image) ([]float32, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, domain.ErrInvalidImage
	}

	small := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	if lumaStdDev(small) < minLumaStdDev {
		return nil, domain.ErrNoFaceDetected
	}

	hist := make([]float32, dim)
	for y := 0; y < sampleSize; y++ {
		for x := 0; x < sampleSize; x++ {
			i := small.PixOffset(x, y)
			r := int(small.Pix[i]) * binsPerChannel / 256
			g := int(small.Pix[i+1]) * binsPerChannel / 256
			b := int(small.Pix[i+2]) * binsPerChannel / 256
			hist[(r*binsPerChannel+g)*binsPerChannel+b]++
		}
	}

	normalize(hist)
	return hist, nil
}

func lumaStdDev(img *image.RGBA) float64 {
	b := img.Bounds()
	n := float64(b.Dx() * b.Dy())

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			// BT.601 luma weights
			luma := 0.299*float64(img.Pix[i]) + 0.587*float64(img.Pix[i+1]) + 0.114*float64(img.Pix[i+2])
			sum += luma
			sumSq += luma * luma
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

var _ extractor.Extractor = (*Extractor)(nil)
