package imaging

import (
	"fmt"
	"strings"

	"github.com/segmentio/ksuid"
)

// NewHash generates a collision-resistant, sortable content id used
// for storage keys when no stable hash is supplied
func NewHash() string {
	return ksuid.New().String()
}

// Name derives the storage key for one rendition.
//
// Default template: {folder/}{role_}{fileName_}{hash}.{ext}, every
// segment omitted when empty; the original carries no role prefix, and
// a missing hash is replaced by a fresh id so each upload gets unique
// keys.
//
// With PersistentNames the role alone is the stem ({folder/}{role}.{ext})
// so repeated uploads to the same logical slot overwrite each other.
func Name(role, fileName, hash, ext string, cfg Config) string {
	var b strings.Builder

	if cfg.Folder != "" {
		b.WriteString(strings.TrimRight(cfg.Folder, "/"))
		b.WriteString("/")
	}

	if cfg.PersistentNames {
		stem := role
		if stem == "" {
			stem = "original"
		}
		return fmt.Sprintf("%s%s.%s", b.String(), stem, ext)
	}

	if role != "" && role != "original" {
		b.WriteString(role)
		b.WriteString("_")
	}
	if fileName != "" {
		b.WriteString(fileName)
		b.WriteString("_")
	}
	if hash == "" {
		hash = NewHash()
	}
	b.WriteString(hash)
	b.WriteString(".")
	b.WriteString(ext)

	return b.String()
}
