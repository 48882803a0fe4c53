// Package imaging implements the image-derivation pipeline: probing,
// optimization, responsive breakpoint generation, thumbnailing, blurhash
// encoding, and storage-key naming. All decode/encode/resize work goes
// through libvips.
package imaging

import (
	"math"

	"github.com/davidbyttow/govips/v2/vips"
)

// Format is one of the supported image encodings
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
	FormatAVIF Format = "avif"
	FormatTIFF Format = "tiff"
)

// SupportedFormats is the fixed set of formats the pipeline accepts.
// Anything else never enters the pipeline.
var SupportedFormats = []Format{FormatJPEG, FormatPNG, FormatWEBP, FormatAVIF, FormatTIFF}

// IsSupported reports whether s names a supported format
func IsSupported(s string) bool {
	for _, f := range SupportedFormats {
		if string(f) == s {
			return true
		}
	}
	return false
}

// Ext returns the file extension for the format. jpeg maps to jpg,
// every other extension equals the format name.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// MIME returns the media type for the format
func (f Format) MIME() string {
	return "image/" + string(f)
}

// vipsFormats maps libvips image types onto the supported set
var vipsFormats = map[vips.ImageType]Format{
	vips.ImageTypeJPEG: FormatJPEG,
	vips.ImageTypePNG:  FormatPNG,
	vips.ImageTypeWEBP: FormatWEBP,
	vips.ImageTypeAVIF: FormatAVIF,
	vips.ImageTypeTIFF: FormatTIFF,
}

// formatOf converts a libvips image type, reporting false for anything
// outside the supported set
func formatOf(t vips.ImageType) (Format, bool) {
	f, ok := vipsFormats[t]
	return f, ok
}

// BytesToKB converts a byte count to kilobytes rounded to 2 decimals
func BytesToKB(n int) float64 {
	return math.Round(float64(n)/1000*100) / 100
}
