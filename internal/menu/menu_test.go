package menu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestFromBytes_SniffsType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", pngHeader, "image/png"},
		{"jpeg", jpegHeader, "image/jpeg"},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "image/gif"},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"pdf", []byte("%PDF-1.4\nnot really a pdf"), "application/pdf"},
		{"heic", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic"), "image/heic"},
		{"heif", []byte("\x00\x00\x00\x18ftypmif1\x00\x00\x00\x00mif1heic"), "image/heif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := FromBytes(tt.data, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.MIMEType)
			assert.Equal(t, tt.data, img.Data)
			assert.Empty(t, img.Text)
		})
	}
}

func TestFromBytes_Rejects(t *testing.T) {
	_, err := FromBytes(nil, 0)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = FromBytes([]byte("just some text, not a photo"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = FromBytes(pngHeader, 4)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o644))

	img, err := Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = Load(path, 8)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Load(filepath.Join(dir, "missing.png"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = Load(txt, 0)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.jpg", "sub/c.jpg", "sub/readme.txt"} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, jpegHeader, 0o644))
	}

	got, err := Glob(filepath.Join(dir, "**", "*.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "sub", "c.jpg"),
	}, got)

	got, err = Glob(filepath.Join(dir, "*.jpg"))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Glob("plain/path.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain/path.png"}, got)
}
