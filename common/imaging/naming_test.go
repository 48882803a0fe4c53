package imaging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHashIsUniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		h := NewHash()
		require.NotEmpty(t, h)
		assert.False(t, seen[h], "hash %s repeated", h)
		assert.NotContains(t, h, "/")
		assert.NotContains(t, h, "+")
		seen[h] = true
	}
}

func TestNameDefaultMode(t *testing.T) {
	cfg := DefaultConfig()

	name := Name("small", "sunset", "abc123", "jpg", cfg)
	assert.Equal(t, "small_sunset_abc123.jpg", name)
}

func TestNameOriginalOmitsRolePrefix(t *testing.T) {
	cfg := DefaultConfig()

	name := Name("original", "sunset", "abc123", "jpg", cfg)
	assert.Equal(t, "sunset_abc123.jpg", name)
}

func TestNameWithoutFileName(t *testing.T) {
	cfg := DefaultConfig()

	name := Name("medium", "", "abc123", "png", cfg)
	assert.Equal(t, "medium_abc123.png", name)
}

func TestNameGeneratesHashWhenMissing(t *testing.T) {
	cfg := DefaultConfig()

	name := Name("large", "photo", "", "webp", cfg)
	assert.True(t, strings.HasPrefix(name, "large_photo_"))
	assert.True(t, strings.HasSuffix(name, ".webp"))
	assert.Greater(t, len(name), len("large_photo_.webp"))
}

func TestNameFolderPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Folder = "avatars/2026"

	name := Name("small", "me", "abc", "jpg", cfg)
	assert.Equal(t, "avatars/2026/small_me_abc.jpg", name)
}

func TestNamePersistentMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PersistentNames = true
	cfg.Folder = "products/42"

	assert.Equal(t, "products/42/original.jpg", Name("original", "ignored", "ignored", "jpg", cfg))
	assert.Equal(t, "products/42/thumbnail.jpg", Name("thumbnail", "ignored", "ignored", "jpg", cfg))
	assert.Equal(t, "products/42/small.jpg", Name("small", "", "", "jpg", cfg))
}

func TestNamePersistentModeIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PersistentNames = true
	cfg.Folder = "p/1"

	first := Name("medium", "a", NewHash(), "png", cfg)
	second := Name("medium", "b", NewHash(), "png", cfg)
	assert.Equal(t, first, second)
}

func TestBytesToKB(t *testing.T) {
	assert.Equal(t, 1.0, BytesToKB(1000))
	assert.Equal(t, 1.5, BytesToKB(1500))
	assert.Equal(t, 0.12, BytesToKB(123))
	assert.Equal(t, 0.0, BytesToKB(0))
}

func TestDimensionPixelsAndOff(t *testing.T) {
	d := Pixels(750)
	assert.False(t, d.IsOff())
	assert.Equal(t, 750, d.Value())

	off := Off()
	assert.True(t, off.IsOff())
}

func TestDefaultBreakpointsOrder(t *testing.T) {
	bps := DefaultBreakpoints()
	require.Len(t, bps, 3)
	assert.Equal(t, "large", bps[0].Name)
	assert.Equal(t, "medium", bps[1].Name)
	assert.Equal(t, "small", bps[2].Name)
	assert.Equal(t, 1000, bps[0].Dim.Value())
	assert.Equal(t, 750, bps[1].Dim.Value())
	assert.Equal(t, 500, bps[2].Dim.Value())
}

func TestFormatExtAndMIME(t *testing.T) {
	assert.Equal(t, "jpg", FormatJPEG.Ext())
	assert.Equal(t, "png", FormatPNG.Ext())
	assert.Equal(t, "image/jpeg", FormatJPEG.MIME())
	assert.Equal(t, "image/webp", FormatWEBP.MIME())
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("jpeg"))
	assert.True(t, IsSupported("png"))
	assert.True(t, IsSupported("webp"))
	assert.True(t, IsSupported("avif"))
	assert.True(t, IsSupported("tiff"))
	assert.False(t, IsSupported("gif"))
	assert.False(t, IsSupported("pdf"))
}

func TestRenditionRecordDropsBuffer(t *testing.T) {
	r := Rendition{
		Name:     "photo_abc.jpg",
		Extname:  "jpg",
		MIMEType: "image/jpeg",
		Format:   FormatJPEG,
		Size:     12.5,
		Width:    800,
		Height:   600,
		Blurhash: "LEHV6nWB2yk8",
		Buffer:   []byte{0xff, 0xd8},
	}

	rec := r.Record()
	assert.Equal(t, "photo_abc.jpg", rec.Name)
	assert.Equal(t, 800, rec.Width)
	assert.Equal(t, "LEHV6nWB2yk8", rec.Blurhash)
	assert.False(t, rec.IsZero())
}
