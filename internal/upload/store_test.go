package upload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newStore(t *testing.T, max int64) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "uploads"), "/uploads/", max, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSavePNG(t *testing.T) {
	s := newStore(t, 1024)

	url, err := s.Save(context.Background(), "foto.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(s.Dir(), strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestSaveJPEGAndWEBP(t *testing.T) {
	s := newStore(t, 1024)

	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...)
	url, err := s.Save(context.Background(), "foto.jpeg", bytes.NewReader(jpeg))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	webp := []byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00")
	url, err = s.Save(context.Background(), "foto.webp", bytes.NewReader(webp))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".webp"))
}

func TestSaveRejectsByContentNotName(t *testing.T) {
	s := newStore(t, 1024)

	_, err := s.Save(context.Background(), "foto.png", strings.NewReader("GIF89a not really a png"))
	require.Error(t, err)
	assert.Equal(t, apperr.Upload, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), "image/gif")

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectsOversizeAndEmpty(t *testing.T) {
	s := newStore(t, 16)

	_, err := s.Save(context.Background(), "big.png", bytes.NewReader(pngHeader))
	assert.Equal(t, apperr.Upload, apperr.KindOf(err))

	_, err = s.Save(context.Background(), "empty.png", bytes.NewReader(nil))
	assert.Equal(t, apperr.Upload, apperr.KindOf(err))
}

func TestSaveCancelled(t *testing.T) {
	s := newStore(t, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Save(ctx, "foto.png", bytes.NewReader(pngHeader))
	assert.Equal(t, apperr.Upload, apperr.KindOf(err))
}
