package imaging

import "github.com/davidbyttow/govips/v2/vips"

// Optimize applies orientation correction and size optimization to the
// original buffer. The optimized bytes are adopted only when strictly
// smaller than the input; already-efficient sources stay untouched.
// Optimization is never fatal: any failure degrades to returning the
// input buffer with nil metadata.
func Optimize(buf []byte, cfg Config) ([]byte, *Metadata) {
	if !cfg.OptimizeSize {
		return buf, nil
	}
	if _, ok := Probe(buf); !ok {
		return buf, nil
	}

	img, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return buf, nil
	}
	defer img.Close()

	if cfg.OptimizeOrientation {
		if err := img.AutoRotate(); err != nil {
			return buf, nil
		}
	}

	out, meta, err := export(img, cfg.ForceFormat)
	if err != nil {
		return buf, nil
	}

	// Keep the original bytes when re-encoding did not shrink them
	adopted := out
	if len(buf) <= len(out) {
		adopted = buf
	}

	format, ok := formatOf(meta.Format)
	if !ok {
		return buf, nil
	}

	return adopted, &Metadata{
		Width:    meta.Width,
		Height:   meta.Height,
		Size:     BytesToKB(len(adopted)),
		Format:   format,
		MIMEType: format.MIME(),
		Extname:  format.Ext(),
	}
}
