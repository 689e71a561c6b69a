package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store guarda las fotos de credenciales en disco y las publica bajo
// baseURL. El tipo se decide por el contenido, nunca por el nombre.
type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
	log      *zap.Logger
}

func NewStore(dir, baseURL string, maxBytes int64, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes, log: log}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save valida y guarda la imagen; devuelve la URL pública.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.Upload, err, "la subida fue cancelada")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", apperr.Wrap(apperr.Upload, err, "no se pudo leer el archivo")
	}
	if len(data) == 0 {
		return "", apperr.New(apperr.Upload, "el archivo está vacío")
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperr.New(apperr.Upload, "el archivo supera el máximo de %d KB", s.maxBytes/1024)
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", apperr.New(apperr.Upload, "formato no permitido (%s): use JPG, PNG o WEBP", contentType)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	if err := writeFile(path, data); err != nil {
		return "", apperr.Wrap(apperr.Upload, err, "no se pudo guardar el archivo")
	}

	s.log.Info("foto subida",
		zap.String("archivo", name),
		zap.String("original", filepath.Base(filename)),
		zap.String("tipo", contentType),
		zap.Int("bytes", len(data)))
	return s.baseURL + "/" + name, nil
}

// writeFile escribe en un temporal y renombra, para no publicar archivos a
// medio escribir.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
