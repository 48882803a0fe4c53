package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	Startup(0)
	code := m.Run()
	Shutdown()
	os.Exit(code)
}

// makeJPEG renders a width x height gradient and encodes it as JPEG.
// The gradient keeps the data non-trivial so resizes produce realistic
// output sizes.
func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProbeJPEG(t *testing.T) {
	buf := makeJPEG(t, 640, 480)

	meta, ok := Probe(buf)
	require.True(t, ok)
	assert.Equal(t, 640, meta.Width)
	assert.Equal(t, 480, meta.Height)
	assert.Equal(t, FormatJPEG, meta.Format)
	assert.Equal(t, "image/jpeg", meta.MIMEType)
	assert.Equal(t, "jpg", meta.Extname)
	assert.Equal(t, BytesToKB(len(buf)), meta.Size)
}

func TestProbePNG(t *testing.T) {
	meta, ok := Probe(makePNG(t, 100, 50))
	require.True(t, ok)
	assert.Equal(t, FormatPNG, meta.Format)
	assert.Equal(t, 100, meta.Width)
	assert.Equal(t, 50, meta.Height)
}

func TestProbeRejectsGarbage(t *testing.T) {
	_, ok := Probe([]byte("definitely not an image"))
	assert.False(t, ok)

	_, ok = Probe(nil)
	assert.False(t, ok)

	// A GIF header is a real image type outside the supported set
	_, ok = Probe([]byte("GIF89a\x01\x00\x01\x00"))
	assert.False(t, ok)
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(makeJPEG(t, 320, 200))
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 200, h)

	_, _, err = Dimensions([]byte("garbage"))
	assert.Error(t, err)
}

func TestOptimizeNeverGrowsOutput(t *testing.T) {
	buf := makeJPEG(t, 800, 600)

	out, meta := Optimize(buf, DefaultConfig())
	require.NotNil(t, meta)
	assert.LessOrEqual(t, len(out), len(buf))
	assert.Equal(t, 800, meta.Width)
	assert.Equal(t, 600, meta.Height)
	assert.Equal(t, BytesToKB(len(out)), meta.Size)
}

func TestOptimizeDisabledIsPassthrough(t *testing.T) {
	buf := makeJPEG(t, 200, 200)

	cfg := DefaultConfig()
	cfg.OptimizeSize = false

	out, meta := Optimize(buf, cfg)
	assert.Equal(t, buf, out)
	assert.Nil(t, meta)
}

func TestOptimizeUndecodableIsPassthrough(t *testing.T) {
	buf := []byte("not an image at all")

	out, meta := Optimize(buf, DefaultConfig())
	assert.Equal(t, buf, out)
	assert.Nil(t, meta)
}

func TestOptimizeForceFormat(t *testing.T) {
	buf := makePNG(t, 300, 300)

	cfg := DefaultConfig()
	cfg.ForceFormat = FormatWEBP

	out, meta := Optimize(buf, cfg)
	require.NotNil(t, meta)
	assert.Equal(t, FormatWEBP, meta.Format)
	assert.Equal(t, "webp", meta.Extname)
	assert.Equal(t, "image/webp", meta.MIMEType)
	assert.NotEqual(t, buf, out)
}

func TestGenerateBreakpointsDefaults(t *testing.T) {
	src := &Rendition{
		FileName: "landscape",
		Hash:     "testhash",
		Buffer:   makeJPEG(t, 1500, 1000),
	}

	renditions := GenerateBreakpoints(src, DefaultConfig())
	require.Len(t, renditions, 3)

	// Configuration order, largest first
	assert.Equal(t, "large", renditions[0].Role)
	assert.Equal(t, "medium", renditions[1].Role)
	assert.Equal(t, "small", renditions[2].Role)

	assert.Equal(t, 1000, renditions[0].Width)
	assert.Equal(t, 750, renditions[1].Width)
	assert.Equal(t, 500, renditions[2].Width)

	for _, r := range renditions {
		assert.NotEmpty(t, r.Buffer)
		assert.Equal(t, "testhash", r.Hash)
		assert.Equal(t, FormatJPEG, r.Format)
		assert.Contains(t, r.Name, r.Role+"_landscape_testhash")
		// Aspect ratio is preserved
		assert.InDelta(t, 1.5, float64(r.Width)/float64(r.Height), 0.01)
	}
}

func TestGenerateBreakpointsSkipsNonShrinking(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 600, 400)}

	renditions := GenerateBreakpoints(src, DefaultConfig())
	require.Len(t, renditions, 1)
	assert.Equal(t, "small", renditions[0].Role)
	assert.Equal(t, 500, renditions[0].Width)
}

func TestGenerateBreakpointsAllTooLarge(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 400, 300)}

	assert.Nil(t, GenerateBreakpoints(src, DefaultConfig()))
}

func TestGenerateBreakpointsHonorsOff(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 1500, 1000)}

	cfg := DefaultConfig()
	cfg.Breakpoints = []Breakpoint{
		{Name: "large", Dim: Off()},
		{Name: "medium", Dim: Pixels(750)},
		{Name: "small", Dim: Off()},
	}

	renditions := GenerateBreakpoints(src, cfg)
	require.Len(t, renditions, 1)
	assert.Equal(t, "medium", renditions[0].Role)
}

func TestGenerateBreakpointsCustomSet(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 2000, 1500)}

	cfg := DefaultConfig()
	cfg.Breakpoints = []Breakpoint{
		{Name: "hero", Dim: Pixels(1800)},
		{Name: "card", Dim: Pixels(300)},
	}

	renditions := GenerateBreakpoints(src, cfg)
	require.Len(t, renditions, 2)
	assert.Equal(t, "hero", renditions[0].Role)
	assert.Equal(t, 1800, renditions[0].Width)
	assert.Equal(t, "card", renditions[1].Role)
	assert.Equal(t, 300, renditions[1].Width)
}

func TestGenerateBreakpointsDisabled(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 1500, 1000)}

	cfg := DefaultConfig()
	cfg.ResponsiveDimensions = false

	assert.Nil(t, GenerateBreakpoints(src, cfg))
}

func TestGenerateBreakpointsPropagatesBlurhash(t *testing.T) {
	src := &Rendition{
		Buffer:   makeJPEG(t, 1200, 900),
		Blurhash: "LKO2?U%2Tw=w]~RBVZRi};RPxuwH",
	}

	renditions := GenerateBreakpoints(src, DefaultConfig())
	require.NotEmpty(t, renditions)
	for _, r := range renditions {
		assert.Equal(t, src.Blurhash, r.Blurhash)
	}
}

func TestGenerateThumbnailFitsBox(t *testing.T) {
	src := &Rendition{
		FileName: "photo",
		Hash:     "h1",
		Buffer:   makeJPEG(t, 1000, 800),
	}

	thumb, err := GenerateThumbnail(src, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, thumb)

	assert.Equal(t, "thumbnail", thumb.Role)
	assert.LessOrEqual(t, thumb.Width, ThumbnailWidth)
	assert.LessOrEqual(t, thumb.Height, ThumbnailHeight)
	assert.NotEmpty(t, thumb.Buffer)
	assert.Contains(t, thumb.Name, "thumbnail_photo_h1")
	assert.Empty(t, thumb.Blurhash)
}

func TestGenerateThumbnailSmallSourceNoBlurhash(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 200, 100)}

	thumb, err := GenerateThumbnail(src, DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, thumb)
}

func TestGenerateThumbnailSmallSourceWithBlurhash(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 200, 100)}

	cfg := DefaultConfig()
	cfg.Blurhash.Enabled = true

	thumb, err := GenerateThumbnail(src, cfg)
	require.NoError(t, err)
	require.NotNil(t, thumb)

	// Hash carrier only: nothing to write
	assert.Empty(t, thumb.Buffer)
	assert.Empty(t, thumb.Name)
	assert.NotEmpty(t, thumb.Blurhash)
}

func TestGenerateThumbnailWithBlurhash(t *testing.T) {
	src := &Rendition{FileName: "pic", Hash: "h2", Buffer: makeJPEG(t, 900, 600)}

	cfg := DefaultConfig()
	cfg.Blurhash.Enabled = true

	thumb, err := GenerateThumbnail(src, cfg)
	require.NoError(t, err)
	require.NotNil(t, thumb)
	assert.NotEmpty(t, thumb.Buffer)
	assert.NotEmpty(t, thumb.Blurhash)
}

func TestGenerateThumbnailDisabled(t *testing.T) {
	src := &Rendition{Buffer: makeJPEG(t, 900, 600)}

	cfg := DefaultConfig()
	cfg.DisableThumbnail = true

	thumb, err := GenerateThumbnail(src, cfg)
	require.NoError(t, err)
	assert.Nil(t, thumb)
}

func TestGenerateThumbnailUnsupportedSource(t *testing.T) {
	src := &Rendition{Buffer: []byte("nope")}

	thumb, err := GenerateThumbnail(src, DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, thumb)
}

func TestEncodeBlurhash(t *testing.T) {
	hash, err := EncodeBlurhash(makeJPEG(t, 100, 100), 4, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Same input, same hash
	again, err := EncodeBlurhash(makeJPEG(t, 100, 100), 4, 3)
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestEncodeBlurhashConfigErrors(t *testing.T) {
	buf := makeJPEG(t, 50, 50)

	_, err := EncodeBlurhash(buf, 0, 3)
	assert.Error(t, err)

	_, err = EncodeBlurhash(buf, 4, 0)
	assert.Error(t, err)

	_, err = EncodeBlurhash(nil, 4, 3)
	assert.Error(t, err)
}

func BenchmarkGenerateBreakpoints(b *testing.B) {
	img := image.NewRGBA(image.Rect(0, 0, 1500, 1000))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		b.Fatal(err)
	}

	src := &Rendition{Buffer: buf.Bytes()}
	cfg := DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if renditions := GenerateBreakpoints(src, cfg); len(renditions) != 3 {
			b.Fatalf("expected 3 renditions, got %d", len(renditions))
		}
	}
}
