package attachment

import (
	"context"

	"github.com/mediaforge/renditions/common/imaging"
	"github.com/mediaforge/renditions/common/storage"
)

// CustomURLFunc computes the URL set for an attachment, given the disk
// it was written to. Failures degrade to "no urls produced".
type CustomURLFunc func(ctx context.Context, disk storage.Driver, a *Attachment) (*URLSet, error)

type urlMode int

const (
	urlModeDefault urlMode = iota
	urlModePrecompute
	urlModeCustom
)

// URLPolicy decides when and how URLs are computed after a save.
// The zero value is the default policy: freshly saved local attachments
// get no URLs unless the caller asks.
type URLPolicy struct {
	mode   urlMode
	custom CustomURLFunc
}

// DefaultURLs skips URL computation on freshly saved local attachments
func DefaultURLs() URLPolicy {
	return URLPolicy{}
}

// PrecomputeURLs computes URLs eagerly as part of every save
func PrecomputeURLs() URLPolicy {
	return URLPolicy{mode: urlModePrecompute}
}

// CustomURLs delegates URL computation to fn
func CustomURLs(fn CustomURLFunc) URLPolicy {
	return URLPolicy{mode: urlModeCustom, custom: fn}
}

// Options is the configuration snapshot one save cycle runs under.
// Options are merged once via SetOptions and have no effect on
// renditions already written.
type Options struct {
	// Storage disk name; empty uses the registry default
	Disk string

	// Keep the optimized original alongside the derived renditions
	KeepOriginal bool

	URLs URLPolicy

	imaging.Config
}

// DefaultOptions returns the option defaults
func DefaultOptions() Options {
	return Options{
		KeepOriginal: true,
		URLs:         DefaultURLs(),
		Config:       imaging.DefaultConfig(),
	}
}

// Option overrides one options key
type Option func(*Options)

// WithDisk selects the storage disk by name
func WithDisk(name string) Option {
	return func(o *Options) { o.Disk = name }
}

// WithFolder prefixes every generated storage key
func WithFolder(folder string) Option {
	return func(o *Options) { o.Folder = folder }
}

// WithKeepOriginal toggles keeping the optimized original
func WithKeepOriginal(keep bool) Option {
	return func(o *Options) { o.KeepOriginal = keep }
}

// WithBreakpoints replaces the breakpoint set, preserving order
func WithBreakpoints(breakpoints ...imaging.Breakpoint) Option {
	return func(o *Options) { o.Breakpoints = breakpoints }
}

// WithForceFormat re-encodes every rendition to the given format
func WithForceFormat(format imaging.Format) Option {
	return func(o *Options) { o.ForceFormat = format }
}

// WithOptimizeSize toggles size optimization of the original
func WithOptimizeSize(enabled bool) Option {
	return func(o *Options) { o.OptimizeSize = enabled }
}

// WithOptimizeOrientation toggles EXIF orientation correction
func WithOptimizeOrientation(enabled bool) Option {
	return func(o *Options) { o.OptimizeOrientation = enabled }
}

// WithResponsiveDimensions is the master switch for derived renditions
func WithResponsiveDimensions(enabled bool) Option {
	return func(o *Options) { o.ResponsiveDimensions = enabled }
}

// WithDisableThumbnail stops the thumbnail from being written and
// attached; it may still be computed for blurhash purposes
func WithDisableThumbnail(disabled bool) Option {
	return func(o *Options) { o.DisableThumbnail = disabled }
}

// WithPersistentFileNames makes storage keys stable per role so
// re-uploads overwrite prior files
func WithPersistentFileNames(persistent bool) Option {
	return func(o *Options) { o.PersistentNames = persistent }
}

// WithURLPolicy sets the URL computation policy
func WithURLPolicy(policy URLPolicy) Option {
	return func(o *Options) { o.URLs = policy }
}

// WithBlurhash configures the perceptual hash. Zero component counts
// fall back to the 4x3 defaults.
func WithBlurhash(opts imaging.BlurhashOptions) Option {
	return func(o *Options) {
		if opts.ComponentX == 0 {
			opts.ComponentX = imaging.DefaultBlurhashComponentX
		}
		if opts.ComponentY == 0 {
			opts.ComponentY = imaging.DefaultBlurhashComponentY
		}
		o.Blurhash = opts
	}
}
