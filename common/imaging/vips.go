package imaging

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

// Startup initialises libvips. Call once at process start before any
// pipeline operation. concurrency 0 lets libvips pick.
func Startup(concurrency int) {
	vips.LoggingSettings(nil, vips.LogLevelWarning)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: concurrency,
		MaxCacheSize:     100,
		MaxCacheMem:      50 * 1024 * 1024, // 50 MB
	})
}

// Shutdown releases libvips resources at process exit
func Shutdown() {
	vips.Shutdown()
}

// Metadata describes a decodable image buffer
type Metadata struct {
	Width    int
	Height   int
	Size     float64 // kilobytes
	Format   Format
	MIMEType string
	Extname  string
}

// Probe inspects a raw buffer. It never fails on malformed input: the
// second return is false when the buffer is not a decodable image in
// the supported format set.
func Probe(buf []byte) (*Metadata, bool) {
	if len(buf) == 0 {
		return nil, false
	}

	format, ok := formatOf(vips.DetermineImageType(buf))
	if !ok {
		return nil, false
	}

	img, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return nil, false
	}
	defer img.Close()

	return &Metadata{
		Width:    img.Width(),
		Height:   img.Height(),
		Size:     BytesToKB(len(buf)),
		Format:   format,
		MIMEType: format.MIME(),
		Extname:  format.Ext(),
	}, true
}

// Dimensions returns the pixel dimensions of a decodable buffer
func Dimensions(buf []byte) (width, height int, err error) {
	img, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	defer img.Close()
	return img.Width(), img.Height(), nil
}

// export re-encodes img to the forced format, or its native format when
// force is empty
func export(img *vips.ImageRef, force Format) ([]byte, *vips.ImageMetadata, error) {
	target := force
	if target == "" {
		native, ok := formatOf(img.Format())
		if !ok {
			return nil, nil, fmt.Errorf("unsupported source format")
		}
		target = native
	}

	switch target {
	case FormatJPEG:
		return img.ExportJpeg(vips.NewJpegExportParams())
	case FormatPNG:
		return img.ExportPng(vips.NewPngExportParams())
	case FormatWEBP:
		return img.ExportWebp(vips.NewWebpExportParams())
	case FormatAVIF:
		return img.ExportAvif(vips.NewAvifExportParams())
	case FormatTIFF:
		return img.ExportTiff(vips.NewTiffExportParams())
	default:
		return nil, nil, fmt.Errorf("unsupported target format: %s", target)
	}
}

// resizeTo scales buf to fit inside a width by height box, preserving
// aspect ratio and never upscaling, then re-encodes it honoring the
// configured format override.
func resizeTo(buf []byte, cfg Config, width, height int) ([]byte, *vips.ImageMetadata, error) {
	img, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer img.Close()

	if err := img.ThumbnailWithSize(width, height, vips.InterestingNone, vips.SizeDown); err != nil {
		return nil, nil, fmt.Errorf("failed to resize image: %w", err)
	}

	return export(img, cfg.ForceFormat)
}
