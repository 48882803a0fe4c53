package imaging

// Fixed thumbnail bounding box
const (
	ThumbnailWidth  = 245
	ThumbnailHeight = 156
)

// GenerateThumbnail produces the preview rendition of the source.
//
// It returns nil when the source format is unsupported, or when
// blurhash is disabled and no thumbnail is wanted. A source already
// within the bounding box produces no resized file; when blurhash is
// enabled the hash is still computed from the source bytes and returned
// on a buffer-less, name-less rendition so the caller can fan it out
// without writing anything.
//
// Resize failures are non-fatal and yield nil. Blurhash failures are
// configuration errors and propagate.
func GenerateThumbnail(src *Rendition, cfg Config) (*Rendition, error) {
	meta, ok := Probe(src.Buffer)
	if !ok {
		return nil, nil
	}

	blurhashEnabled := cfg.Blurhash.Enabled
	if !blurhashEnabled && (!cfg.ResponsiveDimensions || cfg.DisableThumbnail) {
		return nil, nil
	}

	if meta.Width <= ThumbnailWidth && meta.Height <= ThumbnailHeight {
		if !blurhashEnabled {
			return nil, nil
		}
		hash, err := EncodeBlurhash(src.Buffer, cfg.Blurhash.ComponentX, cfg.Blurhash.ComponentY)
		if err != nil {
			return nil, err
		}
		return &Rendition{Role: "thumbnail", Blurhash: hash}, nil
	}

	out, vmeta, err := resizeTo(src.Buffer, cfg, ThumbnailWidth, ThumbnailHeight)
	if err != nil {
		return nil, nil
	}

	format, ok := formatOf(vmeta.Format)
	if !ok {
		return nil, nil
	}

	thumb := &Rendition{
		Role:     "thumbnail",
		Name:     Name("thumbnail", src.FileName, src.Hash, format.Ext(), cfg),
		FileName: src.FileName,
		Hash:     src.Hash,
		Extname:  format.Ext(),
		MIMEType: format.MIME(),
		Format:   format,
		Width:    vmeta.Width,
		Height:   vmeta.Height,
		Size:     BytesToKB(len(out)),
		Buffer:   out,
	}

	if blurhashEnabled {
		hash, err := EncodeBlurhash(out, cfg.Blurhash.ComponentX, cfg.Blurhash.ComponentY)
		if err != nil {
			return nil, err
		}
		thumb.Blurhash = hash
	}

	return thumb, nil
}
