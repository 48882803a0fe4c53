package imaging

// Dimension is a breakpoint target: a bounding-box side in pixels, or
// off to disable the breakpoint without removing it from the set.
type Dimension struct {
	pixels int
	off    bool
}

// Pixels builds an active dimension of n pixels
func Pixels(n int) Dimension {
	return Dimension{pixels: n}
}

// Off builds a disabled dimension
func Off() Dimension {
	return Dimension{off: true}
}

// IsOff reports whether the breakpoint is disabled
func (d Dimension) IsOff() bool {
	return d.off
}

// Value returns the bounding-box side in pixels
func (d Dimension) Value() int {
	return d.pixels
}

// Breakpoint names one responsive rendition target. Breakpoints are
// kept in configuration order; order has no semantic effect but makes
// output deterministic.
type Breakpoint struct {
	Name string
	Dim  Dimension
}

// DefaultBreakpoints returns the standard responsive set
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{Name: "large", Dim: Pixels(1000)},
		{Name: "medium", Dim: Pixels(750)},
		{Name: "small", Dim: Pixels(500)},
	}
}

// BlurhashOptions control the perceptual-hash encoder
type BlurhashOptions struct {
	Enabled    bool
	ComponentX int
	ComponentY int
}

// DefaultBlurhashComponents are the encoder grid defaults
const (
	DefaultBlurhashComponentX = 4
	DefaultBlurhashComponentY = 3
)

// Config is the pipeline configuration shared by the optimizer and the
// rendition generators
type Config struct {
	// Re-encode every output to this format instead of the native one.
	// Empty keeps the source format.
	ForceFormat Format

	OptimizeSize        bool
	OptimizeOrientation bool

	// Master switch for all derived renditions
	ResponsiveDimensions bool
	DisableThumbnail     bool

	Breakpoints []Breakpoint

	// Key prefix for every rendition of one attachment
	Folder string

	// PersistentNames makes storage keys stable per role so re-uploads
	// overwrite prior files instead of creating new keys
	PersistentNames bool

	Blurhash BlurhashOptions
}

// DefaultConfig returns the pipeline defaults
func DefaultConfig() Config {
	return Config{
		OptimizeSize:         true,
		OptimizeOrientation:  true,
		ResponsiveDimensions: true,
		Breakpoints:          DefaultBreakpoints(),
		Blurhash: BlurhashOptions{
			ComponentX: DefaultBlurhashComponentX,
			ComponentY: DefaultBlurhashComponentY,
		},
	}
}
