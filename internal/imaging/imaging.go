// Package imaging decodes client-submitted face photos. It accepts
// raw JPEG/PNG/WebP bytes and browser-style data URLs, and maps every
// decode failure to domain.ErrInvalidImage so handlers never leak
// codec internals.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/campusworks/facemark/internal/domain"
)

// MaxImageSize bounds decoded payloads. Webcam captures are well under
// this; anything larger is rejected before decoding.
const MaxImageSize = 10 * 1024 * 1024

// Decode parses image bytes into an image.Image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, domain.ErrInvalidImage.WithError(errors.New("empty image payload"))
	}
	if len(data) > MaxImageSize {
		return nil, domain.ErrInvalidImage.WithError(errors.New("image exceeds size limit"))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return img, nil
}

// DecodeDataURL parses a browser capture of the form
// "data:image/jpeg;base64,...". A bare base64 string without the data
// URL prefix is accepted too.
func DecodeDataURL(s string) (image.Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, domain.ErrInvalidImage.WithError(errors.New("empty image payload"))
	}

	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, domain.ErrInvalidImage.WithError(errors.New("malformed data URL"))
		}
		meta := s[len("data:"):idx]
		if !strings.Contains(meta, "base64") {
			return nil, domain.ErrInvalidImage.WithError(errors.New("data URL is not base64 encoded"))
		}
		s = s[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return Decode(data)
}
