package attachment

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mediaforge/renditions/common/imaging"
	"github.com/mediaforge/renditions/common/logger"
	"github.com/mediaforge/renditions/common/storage"
)

// Upload describes a multipart file handed over by the HTTP layer:
// the parsed metadata plus the temporary file the body parser spooled
// the content to.
type Upload struct {
	// TmpPath is the spooled file holding the upload content
	TmpPath string

	// FieldName is the form field the file arrived under
	FieldName string

	// Type/Subtype of the declared content type, e.g. "image"/"jpeg"
	Type    string
	Subtype string

	// Extname without the leading dot
	Extname string

	// Size in bytes as reported by the body parser
	Size int64
}

// fileNameSanitizer collapses runs of anything outside [0-9A-Za-z_]
var fileNameSanitizer = regexp.MustCompile(`[^0-9A-Za-z_]+`)

// sanitizeFileName normalizes a human label for use inside storage keys
func sanitizeFileName(name string) string {
	return strings.ToLower(fileNameSanitizer.ReplaceAllString(name, "_"))
}

// Manager constructs and operates attachments against an injected
// storage registry and logger. Bind one per process (or per test) and
// share it; it has no mutable state of its own.
type Manager struct {
	drives *storage.Registry
	log    *logger.Logger
}

// NewManager creates an attachment manager
func NewManager(drives *storage.Registry, log *logger.Logger) *Manager {
	return &Manager{
		drives: drives,
		log:    log,
	}
}

// disk resolves the storage driver for an options snapshot
func (m *Manager) disk(name string) (storage.Driver, error) {
	return m.drives.Use(name)
}

// FromFile creates a local attachment from an upload. The declared
// subtype must be in the allowed format set and the temporary source
// must be readable; both are caller errors, never swallowed.
func (m *Manager) FromFile(upload *Upload, fileName string) (*Attachment, error) {
	if upload == nil {
		return nil, ErrNoFile
	}

	if !imaging.IsSupported(upload.Subtype) {
		return nil, fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, upload.Subtype)
	}

	if upload.TmpPath == "" {
		return nil, ErrInvalidSource
	}

	buffer, err := os.ReadFile(upload.TmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	name := fileName
	if name == "" {
		name = upload.FieldName
	}

	a := newLocal(m, imaging.Rendition{
		FileName: sanitizeFileName(name),
		Extname:  upload.Extname,
		MIMEType: fmt.Sprintf("%s/%s", upload.Type, upload.Subtype),
		Size:     imaging.BytesToKB(len(buffer)),
		Buffer:   buffer,
	})
	return a, nil
}

// FromBuffer creates a local attachment from raw bytes. The content
// type is sniffed from the bytes, independent of any declared metadata.
func (m *Manager) FromBuffer(buffer []byte, fileName string) (*Attachment, error) {
	if len(buffer) == 0 {
		return nil, ErrNoFile
	}

	mtype := mimetype.Detect(buffer)
	subtype := mtype.String()
	if i := strings.LastIndex(subtype, "/"); i >= 0 {
		subtype = subtype[i+1:]
	}

	if !imaging.IsSupported(subtype) {
		return nil, fmt.Errorf("%w (detected %q)", ErrUnsupportedFormat, mtype.String())
	}

	a := newLocal(m, imaging.Rendition{
		FileName: sanitizeFileName(fileName),
		Extname:  strings.TrimPrefix(mtype.Extension(), "."),
		MIMEType: mtype.String(),
		Size:     imaging.BytesToKB(len(buffer)),
		Buffer:   buffer,
	})
	return a, nil
}

// FromRecord reconstructs a persisted attachment from its stored
// representation. Anything retrievable from storage is assumed to have
// survived a prior save, so the result is always persisted.
func (m *Manager) FromRecord(record Record) *Attachment {
	return newPersisted(m, record)
}

// FromJSON reconstructs a persisted attachment from its serialized
// form. Malformed data degrades to nil with a warning; a corrupt stored
// record must never crash a read path.
func (m *Manager) FromJSON(raw []byte) *Attachment {
	if len(raw) == 0 {
		return nil
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		m.log.Warn("incompatible image data skipped", "error", err, "data", string(raw))
		return nil
	}
	return m.FromRecord(record)
}
