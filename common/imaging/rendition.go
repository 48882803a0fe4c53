package imaging

// Rendition is the working form of one derived image file. It may carry
// the raw bytes while the pipeline runs; the bytes never survive past
// the corresponding storage write.
type Rendition struct {
	// Storage key, set once the naming resolver has run
	Name string

	// Role tag: "original", "thumbnail", or a breakpoint name
	Role string

	// Human label used in generated keys
	FileName string

	// Content id used in generated keys, shared by all renditions of
	// one save
	Hash string

	Extname  string
	MIMEType string
	Format   Format

	// Size in kilobytes, rounded to 2 decimals
	Size float64

	Width  int
	Height int

	Blurhash string

	// Raw bytes, present only until the storage write completes
	Buffer []byte
}

// RenditionRecord is the persisted subset of a rendition. This is the
// only form that crosses a serialization boundary; it cannot carry a
// buffer by construction.
type RenditionRecord struct {
	Name     string  `json:"name,omitempty"`
	Extname  string  `json:"extname,omitempty"`
	MIMEType string  `json:"mimeType,omitempty"`
	Size     float64 `json:"size,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Format   Format  `json:"format,omitempty"`
	Blurhash string  `json:"blurhash,omitempty"`
}

// Record converts the working form to its persisted subset
func (r *Rendition) Record() RenditionRecord {
	return RenditionRecord{
		Name:     r.Name,
		Extname:  r.Extname,
		MIMEType: r.MIMEType,
		Size:     r.Size,
		Width:    r.Width,
		Height:   r.Height,
		Format:   r.Format,
		Blurhash: r.Blurhash,
	}
}

// IsZero reports whether the record carries no data
func (r RenditionRecord) IsZero() bool {
	return r == RenditionRecord{}
}
