package imaging

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/buckket/go-blurhash"
	"github.com/davidbyttow/govips/v2/vips"
)

// EncodeBlurhash computes the perceptual placeholder hash of an image
// buffer. The hash is computed once per save and copied verbatim onto
// every rendition.
//
// Missing component counts or an empty buffer are programming errors
// and propagate; they are the only failure modes callers must handle.
func EncodeBlurhash(buf []byte, componentX, componentY int) (string, error) {
	if componentX <= 0 || componentY <= 0 {
		return "", fmt.Errorf("blurhash requires positive componentX and componentY")
	}
	if len(buf) == 0 {
		return "", fmt.Errorf("blurhash requires an image buffer")
	}

	img, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return "", fmt.Errorf("failed to decode image for blurhash: %w", err)
	}
	defer img.Close()

	// Round-trip through PNG keeps the alpha channel and hands the
	// encoder a plain image.Image
	data, _, err := img.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return "", fmt.Errorf("failed to export pixels for blurhash: %w", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode pixels for blurhash: %w", err)
	}

	hash, err := blurhash.Encode(componentX, componentY, decoded)
	if err != nil {
		return "", fmt.Errorf("failed to encode blurhash: %w", err)
	}
	return hash, nil
}
