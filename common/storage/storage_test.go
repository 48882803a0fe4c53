package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T, visibility Visibility) *FSDriver {
	t.Helper()

	driver, err := NewFSDriver(FSConfig{
		Root:       t.TempDir(),
		BaseURL:    "http://localhost:8080/uploads",
		Visibility: visibility,
		Secret:     "test-secret",
	})
	require.NoError(t, err)
	return driver
}

func TestFSPutGetDelete(t *testing.T) {
	driver := newFS(t, VisibilityPublic)
	ctx := context.Background()

	require.NoError(t, driver.Put(ctx, "a/b/photo.jpg", []byte("bytes")))

	data, err := driver.Get(ctx, "a/b/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)

	exists, err := driver.Exists(ctx, "a/b/photo.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, driver.Delete(ctx, "a/b/photo.jpg"))

	exists, err = driver.Exists(ctx, "a/b/photo.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFSGetMissingKey(t *testing.T) {
	driver := newFS(t, VisibilityPublic)

	_, err := driver.Get(context.Background(), "nope.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSDeleteMissingKeyIsNoOp(t *testing.T) {
	driver := newFS(t, VisibilityPublic)

	assert.NoError(t, driver.Delete(context.Background(), "never-existed.jpg"))
}

func TestFSRejectsTraversal(t *testing.T) {
	driver := newFS(t, VisibilityPublic)
	ctx := context.Background()

	assert.Error(t, driver.Put(ctx, "../escape.jpg", []byte("x")))
	assert.Error(t, driver.Put(ctx, "/etc/passwd", []byte("x")))
	assert.Error(t, driver.Put(ctx, "a/../../escape.jpg", []byte("x")))
}

func TestFSOverwrite(t *testing.T) {
	driver := newFS(t, VisibilityPublic)
	ctx := context.Background()

	require.NoError(t, driver.Put(ctx, "k.jpg", []byte("v1")))
	require.NoError(t, driver.Put(ctx, "k.jpg", []byte("v2")))

	data, err := driver.Get(ctx, "k.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestFSGetURL(t *testing.T) {
	driver := newFS(t, VisibilityPublic)

	u, err := driver.GetURL(context.Background(), "folder/pic.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/folder/pic.jpg", u)
}

func TestFSSignedURLRoundTrip(t *testing.T) {
	driver := newFS(t, VisibilityPrivate)
	ctx := context.Background()

	signed, err := driver.GetSignedURL(ctx, "private/doc.jpg", &SignedURLOptions{
		ExpiresIn:   time.Minute,
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(parsed.Path, "private/doc.jpg"))
	assert.Equal(t, "image/jpeg", parsed.Query().Get("response-content-type"))

	assert.NoError(t, VerifySignedURL("private/doc.jpg", "test-secret", parsed.Query()))

	// Wrong key or wrong secret must fail
	assert.Error(t, VerifySignedURL("other/doc.jpg", "test-secret", parsed.Query()))
	assert.Error(t, VerifySignedURL("private/doc.jpg", "wrong-secret", parsed.Query()))
}

func TestVerifySignedURLExpired(t *testing.T) {
	values := url.Values{}
	values.Set("expires", "1000000000") // 2001
	values.Set("signature", "irrelevant")

	assert.Error(t, VerifySignedURL("k", "s", values))
}

func TestFSVisibility(t *testing.T) {
	public := newFS(t, VisibilityPublic)
	private := newFS(t, VisibilityPrivate)
	ctx := context.Background()

	v, err := public.GetVisibility(ctx, "any")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, v)

	v, err = private.GetVisibility(ctx, "any")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPrivate, v)
}

func TestFSFilesLandUnderRoot(t *testing.T) {
	root := t.TempDir()
	driver, err := NewFSDriver(FSConfig{Root: root, Visibility: VisibilityPublic})
	require.NoError(t, err)

	require.NoError(t, driver.Put(context.Background(), "x/y.jpg", []byte("data")))

	_, err = os.Stat(filepath.Join(root, "x", "y.jpg"))
	assert.NoError(t, err)
}

func TestRegistryUseAndDefault(t *testing.T) {
	registry := NewRegistry("mem")
	mem := NewMemoryDriver(VisibilityPublic)
	registry.Register("mem", mem)

	d, err := registry.Use("mem")
	require.NoError(t, err)
	assert.Same(t, Driver(mem), d)

	d, err = registry.Use("")
	require.NoError(t, err)
	assert.Same(t, Driver(mem), d)

	d, err = registry.Default()
	require.NoError(t, err)
	assert.Same(t, Driver(mem), d)

	_, err = registry.Use("unknown")
	assert.Error(t, err)
}

func TestMemoryDriverCopiesData(t *testing.T) {
	mem := NewMemoryDriver(VisibilityPublic)
	ctx := context.Background()

	data := []byte("original")
	require.NoError(t, mem.Put(ctx, "k", data))
	data[0] = 'X'

	stored, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), stored)
}
