package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Image is a captured grayscale fingerprint raster. Pix holds exactly
// Width*Height bytes, one per pixel, row-major.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage builds an Image from raw sensor bytes. Short transfers are padded
// with zeros and long ones truncated; sensor models vary in resolution, so a
// mismatch is logged rather than rejected.
func NewImage(width, height int, raw []byte) *Image {
	expected := width * height
	if len(raw) != expected {
		log.Warn().Int("expected", expected).Int("received", len(raw)).Msg("fingerprint image size mismatch")
	}
	pix := make([]byte, expected)
	copy(pix, raw)
	return &Image{Width: width, Height: height, Pix: pix}
}

// EncodePGM renders the image as a binary PGM (P5) file.
func (img *Image) EncodePGM() []byte {
	header := fmt.Sprintf("P5\n%d %d\n255\n", img.Width, img.Height)
	out := make([]byte, 0, len(header)+len(img.Pix))
	out = append(out, header...)
	out = append(out, img.Pix...)
	return out
}

// DecodePGM parses a binary PGM (P5) file produced by EncodePGM.
func DecodePGM(data []byte) (*Image, error) {
	r := bytes.NewReader(data)
	var width, height, maxVal int
	if _, err := fmt.Fscanf(r, "P5\n%d %d\n%d\n", &width, &height, &maxVal); err != nil {
		return nil, errors.Wrap(err, "[DecodePGM] header")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("[DecodePGM] invalid dimensions %dx%d", width, height)
	}
	if maxVal != 255 {
		return nil, errors.Errorf("[DecodePGM] unsupported max value %d", maxVal)
	}
	pix := make([]byte, width*height)
	if _, err := io.ReadFull(r, pix); err != nil {
		return nil, errors.Wrap(err, "[DecodePGM] pixel data")
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// EncodePNG renders the image as a grayscale PNG, the format the remote
// authorization service expects for uploads.
func (img *Image) EncodePNG() ([]byte, error) {
	gray := &image.Gray{
		Pix:    img.Pix,
		Stride: img.Width,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, errors.Wrap(err, "[EncodePNG] encode")
	}
	return buf.Bytes(), nil
}
