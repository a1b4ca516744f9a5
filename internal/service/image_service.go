package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/storage"
)

const pngMIME = "image/png"

// ImageService accepts cover image uploads.
type ImageService interface {
	// UploadCover stores a png cover and returns its public URL. declaredType
	// is the content type the client sent for the part.
	UploadCover(ctx context.Context, r io.Reader, declaredType string) (string, error)
}

type imageService struct {
	store   storage.ImageStore
	metrics *metrics.Metrics
}

// NewImageService creates a new image service.
func NewImageService(store storage.ImageStore, m *metrics.Metrics) ImageService {
	return &imageService{store: store, metrics: m}
}

func (s *imageService) UploadCover(ctx context.Context, r io.Reader, declaredType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	if err := checkPNG(declaredType, data); err != nil {
		s.count("rejected")
		return "", err
	}

	url, err := s.store.Upload(ctx, bytes.NewReader(data), pngMIME, "png")
	if err != nil {
		s.count("failed")
		return "", err
	}
	s.count("stored")
	return url, nil
}

// checkPNG enforces the png-only rule on both the declared and the sniffed type.
func checkPNG(declaredType string, data []byte) error {
	kind, ext, _ := strings.Cut(strings.ToLower(strings.TrimSpace(declaredType)), "/")
	if kind != "image" {
		return apperrors.ErrNotAnImage
	}
	if !strings.HasPrefix(ext, "png") {
		return apperrors.ErrNotPNG
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return apperrors.ErrNotAnImage
	}
	if !detected.Is(pngMIME) {
		return apperrors.ErrNotPNG
	}
	return nil
}

func (s *imageService) count(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ImageUploads.WithLabelValues(result).Inc()
}
