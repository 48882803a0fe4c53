// Package attachment implements the lifecycle of a responsive image
// attachment: a local value constructed from fresh bytes is saved into
// a set of named renditions on a storage disk, can be reconstructed
// from its persisted record, and can be deleted again. Save and delete
// are idempotent; partial-write recovery belongs to the caller.
package attachment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mediaforge/renditions/common/imaging"
	"github.com/mediaforge/renditions/common/storage"
)

// Attachment is one logical image field value and its derived
// renditions
type Attachment struct {
	manager *Manager

	opts    Options
	optsSet bool

	// original is the working view of the top-level image. Its buffer
	// exists only between construction and a successful save.
	original imaging.Rendition

	// breakpoints holds the persisted view of every derived rendition,
	// keyed by role (thumbnail plus the configured breakpoint names)
	breakpoints map[string]imaging.RenditionRecord

	// urls is ephemeral and never persisted
	urls *URLSet

	isLocal     bool
	isPersisted bool
	isDeleted   bool
}

// newLocal builds an unsaved attachment around freshly supplied bytes
func newLocal(m *Manager, original imaging.Rendition) *Attachment {
	return &Attachment{
		manager:  m,
		original: original,
		isLocal:  len(original.Buffer) > 0,
	}
}

// newPersisted rebuilds an attachment from its stored record
func newPersisted(m *Manager, record Record) *Attachment {
	breakpoints := make(map[string]imaging.RenditionRecord, len(record.Breakpoints))
	for role, rec := range record.Breakpoints {
		breakpoints[role] = rec
	}

	a := &Attachment{
		manager: m,
		original: imaging.Rendition{
			Name:     record.Name,
			Hash:     record.Hash,
			Extname:  record.Extname,
			MIMEType: record.MIMEType,
			Format:   record.Format,
			Size:     record.Size,
			Width:    record.Width,
			Height:   record.Height,
			Blurhash: record.Blurhash,
		},
		breakpoints: breakpoints,
		isPersisted: true,
	}
	if record.Disk != "" {
		a.SetOptions(WithDisk(record.Disk))
	}
	return a
}

// SetOptions merges the given overrides over the current options, or
// over the defaults on first call. Returns the attachment for chaining.
// Options set after a save have no effect on written renditions.
func (a *Attachment) SetOptions(opts ...Option) *Attachment {
	if !a.optsSet {
		a.opts = DefaultOptions()
		a.optsSet = true
	}
	for _, opt := range opts {
		opt(&a.opts)
	}
	return a
}

// options returns the effective options for this attachment
func (a *Attachment) options() Options {
	if a.optsSet {
		return a.opts
	}
	return DefaultOptions()
}

// State accessors

// IsLocal reports whether the attachment was constructed from fresh
// bytes in this process
func (a *Attachment) IsLocal() bool { return a.isLocal }

// IsPersisted reports whether the renditions exist on storage
func (a *Attachment) IsPersisted() bool { return a.isPersisted }

// IsDeleted reports whether the renditions have been removed
func (a *Attachment) IsDeleted() bool { return a.isDeleted }

// Name returns the original's storage key, empty until saved or when
// the original is not kept
func (a *Attachment) Name() string { return a.original.Name }

// Hash returns the content id of the last save
func (a *Attachment) Hash() string { return a.original.Hash }

// FileName returns the sanitized human label used in generated keys
func (a *Attachment) FileName() string { return a.original.FileName }

// Width returns the original's pixel width
func (a *Attachment) Width() int { return a.original.Width }

// Height returns the original's pixel height
func (a *Attachment) Height() int { return a.original.Height }

// Size returns the original's size in kilobytes
func (a *Attachment) Size() float64 { return a.original.Size }

// Format returns the original's image format
func (a *Attachment) Format() imaging.Format { return a.original.Format }

// Extname returns the original's file extension
func (a *Attachment) Extname() string { return a.original.Extname }

// MIMEType returns the original's media type
func (a *Attachment) MIMEType() string { return a.original.MIMEType }

// Blurhash returns the shared perceptual hash, empty when disabled
func (a *Attachment) Blurhash() string { return a.original.Blurhash }

// URL returns the original's computed URL, empty until URLs have been
// computed
func (a *Attachment) URL() string {
	if a.urls == nil {
		return ""
	}
	return a.urls.URL
}

// URLs returns the computed URL set, nil until computed
func (a *Attachment) URLs() *URLSet { return a.urls }

// Breakpoints returns a copy of the persisted rendition map
func (a *Attachment) Breakpoints() map[string]imaging.RenditionRecord {
	out := make(map[string]imaging.RenditionRecord, len(a.breakpoints))
	for role, rec := range a.breakpoints {
		out[role] = rec
	}
	return out
}

// breakpointRoles returns the attached roles in deterministic order
func (a *Attachment) breakpointRoles() []string {
	roles := make([]string, 0, len(a.breakpoints))
	for role := range a.breakpoints {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Save runs the derivation pipeline and writes every kept rendition to
// storage. Saving an attachment that is not local or is already
// persisted is a no-op returning the attachment unchanged.
//
// A failure anywhere before the persisted flip is logged fatally and
// returned; the caller owns rollback of any partial writes.
func (a *Attachment) Save(ctx context.Context) (*Attachment, error) {
	if !a.isLocal || a.isPersisted {
		return a, nil
	}

	if err := a.persist(ctx, a.options()); err != nil {
		a.manager.log.Fatal("attachment save failed", "file_name", a.original.FileName, "error", err)
		return a, err
	}
	return a, nil
}

func (a *Attachment) persist(ctx context.Context, opts Options) error {
	disk, err := a.manager.disk(opts.Disk)
	if err != nil {
		return err
	}

	// Optimize the original and stamp this save's content id
	buf, meta := imaging.Optimize(a.original.Buffer, opts.Config)
	enhanced := a.original
	enhanced.Role = "original"
	enhanced.Buffer = buf
	enhanced.Hash = imaging.NewHash()
	if meta != nil {
		enhanced.Width = meta.Width
		enhanced.Height = meta.Height
		enhanced.Size = meta.Size
		enhanced.Format = meta.Format
		enhanced.MIMEType = meta.MIMEType
		enhanced.Extname = meta.Extname
	}

	if opts.KeepOriginal {
		enhanced.Name = imaging.Name("original", enhanced.FileName, enhanced.Hash, enhanced.Extname, opts.Config)
		if err := disk.Put(ctx, enhanced.Name, enhanced.Buffer); err != nil {
			return fmt.Errorf("failed to write original: %w", err)
		}
	}

	// The thumbnail doubles as the blurhash source; its hash fans out
	// to every rendition of this save
	thumb, err := imaging.GenerateThumbnail(&enhanced, opts.Config)
	if err != nil {
		return err
	}
	if thumb != nil {
		enhanced.Blurhash = thumb.Blurhash
	}

	a.breakpoints = make(map[string]imaging.RenditionRecord)

	thumbnailWanted := opts.ResponsiveDimensions && !opts.DisableThumbnail
	if thumb != nil && len(thumb.Buffer) > 0 && thumbnailWanted {
		if err := disk.Put(ctx, thumb.Name, thumb.Buffer); err != nil {
			return fmt.Errorf("failed to write thumbnail: %w", err)
		}
		thumb.Buffer = nil
		a.breakpoints["thumbnail"] = thumb.Record()
	}

	for _, bp := range imaging.GenerateBreakpoints(&enhanced, opts.Config) {
		if err := disk.Put(ctx, bp.Name, bp.Buffer); err != nil {
			return fmt.Errorf("failed to write breakpoint %s: %w", bp.Role, err)
		}
		bp.Buffer = nil
		a.breakpoints[bp.Role] = bp.Record()
	}

	// Re-derive the final dimensions from the enhanced bytes; they may
	// differ from the probe after orientation correction
	if width, height, err := imaging.Dimensions(enhanced.Buffer); err == nil {
		enhanced.Width = width
		enhanced.Height = height
	}

	// Buffers never survive past this point
	enhanced.Buffer = nil
	if opts.KeepOriginal {
		a.original = enhanced
	} else {
		a.original = imaging.Rendition{
			FileName: enhanced.FileName,
			Blurhash: enhanced.Blurhash,
		}
	}

	a.isPersisted = true
	a.isDeleted = false

	// URL computation is a convenience, not a correctness requirement
	// of save
	if _, err := a.ComputeURLs(ctx, nil); err != nil {
		a.manager.log.Error("failed to compute attachment urls", "error", err)
	}

	return nil
}

// Delete removes every rendition of this attachment from storage.
// Deleting a non-persisted attachment is a no-op. A failure is logged
// fatally and returned; renditions are assumed still present after a
// failed delete.
func (a *Attachment) Delete(ctx context.Context) error {
	if !a.isPersisted {
		return nil
	}

	if err := a.remove(ctx, a.options()); err != nil {
		a.manager.log.Fatal("attachment delete failed", "name", a.original.Name, "error", err)
		return err
	}
	return nil
}

func (a *Attachment) remove(ctx context.Context, opts Options) error {
	disk, err := a.manager.disk(opts.Disk)
	if err != nil {
		return err
	}

	if opts.KeepOriginal && a.original.Name != "" {
		if err := disk.Delete(ctx, a.original.Name); err != nil {
			return fmt.Errorf("failed to delete original: %w", err)
		}
	}

	for _, role := range a.breakpointRoles() {
		rec := a.breakpoints[role]
		if rec.Name == "" {
			continue
		}
		if err := disk.Delete(ctx, rec.Name); err != nil {
			return fmt.Errorf("failed to delete breakpoint %s: %w", role, err)
		}
	}

	a.isDeleted = true
	a.isPersisted = false
	return nil
}

// ComputeURLs resolves a URL for the original and every attached
// breakpoint, signed or plain depending on each file's visibility.
//
// It does nothing for non-persisted attachments, and nothing for
// freshly saved local attachments under the default policy. A single
// failed lookup is logged and skipped; it never aborts the rest.
func (a *Attachment) ComputeURLs(ctx context.Context, signing *storage.SignedURLOptions) (*URLSet, error) {
	if !a.isPersisted {
		return nil, nil
	}

	opts := a.options()
	if opts.URLs.mode == urlModeDefault && a.isLocal {
		return nil, nil
	}

	disk, err := a.manager.disk(opts.Disk)
	if err != nil {
		return nil, err
	}

	if opts.URLs.mode == urlModeCustom && opts.URLs.custom != nil {
		return a.computeCustomURLs(ctx, disk, opts.URLs.custom)
	}

	a.ensureURLs()

	if opts.KeepOriginal && a.original.Name != "" {
		url, err := resolveURL(ctx, disk, a.original.Name, signing)
		if err != nil {
			a.manager.log.Error("failed to resolve original url", "key", a.original.Name, "error", err)
		} else {
			a.urls.URL = url
		}
	}

	for _, role := range a.breakpointRoles() {
		rec := a.breakpoints[role]
		if rec.Name == "" {
			continue
		}
		url, err := resolveURL(ctx, disk, rec.Name, signing)
		if err != nil {
			a.manager.log.Error("failed to resolve breakpoint url", "role", role, "key", rec.Name, "error", err)
			continue
		}
		a.urls.Breakpoints[role] = BreakpointURL{URL: url}
	}

	return a.urls, nil
}

// computeCustomURLs delegates to the caller-supplied URL function. A
// failure degrades to "no urls produced".
func (a *Attachment) computeCustomURLs(ctx context.Context, disk storage.Driver, fn CustomURLFunc) (*URLSet, error) {
	urls, err := fn(ctx, disk, a)
	if err != nil {
		a.manager.log.Error("custom url computation failed", "error", err)
		return nil, nil
	}
	if urls == nil {
		return a.urls, nil
	}

	a.ensureURLs()
	if urls.URL != "" {
		a.urls.URL = urls.URL
	}
	for role, u := range urls.Breakpoints {
		a.urls.Breakpoints[role] = u
	}
	return a.urls, nil
}

func (a *Attachment) ensureURLs() {
	if a.urls == nil {
		a.urls = &URLSet{}
	}
	if a.urls.Breakpoints == nil {
		a.urls.Breakpoints = make(map[string]BreakpointURL)
	}
}

// GetURLs is a convenience wrapper over ComputeURLs that swallows
// errors into nil
func (a *Attachment) GetURLs(ctx context.Context, signing *storage.SignedURLOptions) *URLSet {
	urls, err := a.ComputeURLs(ctx, signing)
	if err != nil {
		a.manager.log.Error("failed to compute attachment urls", "error", err)
		return nil
	}
	return urls
}

// resolveURL queries the file's visibility and returns a signed URL for
// private files or a plain URL for public ones
func resolveURL(ctx context.Context, disk storage.Driver, key string, signing *storage.SignedURLOptions) (string, error) {
	visibility, err := disk.GetVisibility(ctx, key)
	if err != nil {
		return "", err
	}
	if visibility == storage.VisibilityPrivate {
		return disk.GetSignedURL(ctx, key, signing)
	}
	return disk.GetURL(ctx, key)
}

// Snapshot returns the persistable representation: no buffers, no
// computed URLs. When the original is not kept, its top-level fields
// are excluded entirely.
func (a *Attachment) Snapshot() Record {
	record := Record{
		Disk:        a.options().Disk,
		Breakpoints: a.Breakpoints(),
	}
	if a.options().KeepOriginal {
		record.RenditionRecord = a.original.Record()
		record.Hash = a.original.Hash
	}
	return record
}

// MarshalJSON emits the wire representation: the snapshot merged with
// whatever URLs are currently computed. Buffers can never appear here.
func (a *Attachment) MarshalJSON() ([]byte, error) {
	record := a.Snapshot()

	type wireRendition struct {
		imaging.RenditionRecord
		URL string `json:"url,omitempty"`
	}
	type wire struct {
		imaging.RenditionRecord
		Hash        string                   `json:"hash,omitempty"`
		Disk        string                   `json:"disk,omitempty"`
		URL         string                   `json:"url,omitempty"`
		Breakpoints map[string]wireRendition `json:"breakpoints,omitempty"`
	}

	out := wire{
		RenditionRecord: record.RenditionRecord,
		Hash:            record.Hash,
		Disk:            record.Disk,
	}
	if a.urls != nil {
		out.URL = a.urls.URL
	}

	if len(record.Breakpoints) > 0 {
		out.Breakpoints = make(map[string]wireRendition, len(record.Breakpoints))
		for role, rec := range record.Breakpoints {
			entry := wireRendition{RenditionRecord: rec}
			if a.urls != nil {
				if u, ok := a.urls.Breakpoints[role]; ok {
					entry.URL = u.URL
				}
			}
			out.Breakpoints[role] = entry
		}
	}

	return json.Marshal(out)
}
