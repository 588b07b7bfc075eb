// Package signature validates the base64-encoded signature canvases the
// kiosk frontend submits.
package signature

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	kioskerrors "github.com/Burrun/Arduino/internal/errors"
)

// DefaultMinPixels is the default minimum ink requirement.
const DefaultMinPixels = 100

// inkChannelSum: a pixel counts as ink when its 8-bit R+G+B sum is below
// this, i.e. it is not near-white.
const inkChannelSum = 750

// Image is an accepted signature.
type Image struct {
	Raw       []byte // decoded payload as received, forwarded upstream unmodified
	Width     int
	Height    int
	InkPixels int
}

// Validator checks that a submitted signature actually contains ink.
type Validator struct {
	minPixels int
}

// NewValidator returns a Validator requiring at least minPixels inked
// pixels; non-positive values select the default.
func NewValidator(minPixels int) *Validator {
	if minPixels <= 0 {
		minPixels = DefaultMinPixels
	}
	return &Validator{minPixels: minPixels}
}

// Validate strips a data-URI prefix if present, decodes the base64 payload
// and the image inside it, and counts inked pixels. An undecodable payload
// fails with ErrSignatureDecode; too little ink fails with
// ErrBlankSignature.
func (v *Validator) Validate(encoded string) (*Image, error) {
	payload := encoded
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, "base64,"); i >= 0 {
			payload = payload[i+len("base64,"):]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, errors.Wrapf(kioskerrors.ErrSignatureDecode, "base64: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(kioskerrors.ErrSignatureDecode, "image: %v", err)
	}

	bounds := img.Bounds()
	ink := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; the threshold is in 8-bit space.
			if (r>>8)+(g>>8)+(b>>8) < inkChannelSum {
				ink++
			}
		}
	}

	if ink < v.minPixels {
		log.Warn().
			Int("inkPixels", ink).
			Int("minimum", v.minPixels).
			Str("format", format).
			Msg("blank signature rejected")
		return nil, errors.Wrapf(kioskerrors.ErrBlankSignature, "%d ink pixels, minimum %d", ink, v.minPixels)
	}

	return &Image{
		Raw:       raw,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		InkPixels: ink,
	}, nil
}
