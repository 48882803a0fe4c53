package attachment

import "github.com/mediaforge/renditions/common/imaging"

// Record is the persisted representation of one attachment: the shape
// written alongside a host record and read back by FromRecord. It is
// the bit-exact wire contract other processes must honor.
//
// The embedded rendition fields describe the original and are present
// only when the original was kept.
type Record struct {
	imaging.RenditionRecord

	// Content id shared by the renditions of one save. Absent for
	// persistent naming and when the original was not kept.
	Hash string `json:"hash,omitempty"`

	// Disk names the storage driver the renditions were written to.
	// Absent when the save used the registry default. Reads, URL
	// computation and deletes must resolve against this disk.
	Disk string `json:"disk,omitempty"`

	// Breakpoints maps role name (thumbnail, large, ...) to the
	// persisted rendition
	Breakpoints map[string]imaging.RenditionRecord `json:"breakpoints,omitempty"`
}

// URLSet is the ephemeral URL mapping computed against the storage
// driver. It is never persisted; it only appears in the JSON wire form.
type URLSet struct {
	URL         string                   `json:"url,omitempty"`
	Breakpoints map[string]BreakpointURL `json:"breakpoints,omitempty"`
}

// BreakpointURL wraps one breakpoint's computed URL
type BreakpointURL struct {
	URL string `json:"url"`
}
