package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediaforge/renditions/common/attachment"
)

func TestDefaultUploadOptionsFolder(t *testing.T) {
	opts := attachment.DefaultOptions()
	for _, opt := range DefaultUploadOptions("avatars/2026") {
		opt(&opts)
	}
	assert.Equal(t, "avatars/2026", opts.Folder)
}

func TestDefaultUploadOptionsEmptyFolder(t *testing.T) {
	assert.Empty(t, DefaultUploadOptions(""))
}

func TestDefaultUploadOptionsOverridablePerRequest(t *testing.T) {
	opts := attachment.DefaultOptions()
	for _, opt := range DefaultUploadOptions("avatars") {
		opt(&opts)
	}
	attachment.WithFolder("banners")(&opts)

	assert.Equal(t, "banners", opts.Folder)
}
