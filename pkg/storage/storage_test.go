package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoeImagePath(t *testing.T) {
	p := ShoeImagePath(42, "Air Jordan.JPG")
	assert.True(t, strings.HasPrefix(p, "shoes/42/"), p)
	assert.True(t, strings.HasSuffix(p, ".JPG"), p)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(p, "shoes/42/"), ".JPG"), 32)
	assert.NotEqual(t, p, ShoeImagePath(42, "Air Jordan.JPG"))
}

func TestBrandLogoPath(t *testing.T) {
	p := BrandLogoPath("logo.png")
	assert.True(t, strings.HasPrefix(p, "brands/"))
	assert.True(t, strings.HasSuffix(p, ".png"))
	assert.Equal(t, 1, strings.Count(p, "/"))
}

func TestRandomNameExtension(t *testing.T) {
	cases := map[string]string{
		"a.tar.gz": ".gz",
		"photo":    ".photo",
		"x.JPEG":   ".JPEG",
	}
	for original, suffix := range cases {
		name := RandomName(original)
		assert.True(t, strings.HasSuffix(name, suffix), "%s -> %s", original, name)
		assert.Len(t, strings.TrimSuffix(name, suffix), 32)
	}
}

func TestSaveOpenDelete(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/media")
	require.NoError(t, s.Save("shoes/1/a.jpg", strings.NewReader("data")))
	assert.True(t, s.Exists("shoes/1/a.jpg"))

	// names are never overwritten
	require.Error(t, s.Save("shoes/1/a.jpg", strings.NewReader("other")))

	f, err := s.Open("shoes/1/a.jpg")
	require.NoError(t, err)
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "data", string(b))

	require.NoError(t, s.Delete("shoes/1/a.jpg"))
	assert.False(t, s.Exists("shoes/1/a.jpg"))
	require.NoError(t, s.Delete("shoes/1/a.jpg"))
}

func TestURL(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/media")
	assert.Equal(t, "/media/shoes/1/a.jpg", s.URL("shoes/1/a.jpg"))
	assert.Equal(t, "", s.URL(""))
	assert.Equal(t, "/media/", s.MediaURL())
}

func TestHTTPFileSystemServesSavedFiles(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/media/")
	require.NoError(t, s.Save("brands/logo.png", strings.NewReader("png")))

	f, err := s.HTTPFileSystem().Open("/brands/logo.png")
	require.NoError(t, err)
	defer f.Close()
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "png", string(b))
}
