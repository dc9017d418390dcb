// Package media handles image ingestion: validation, blob storage, and the
// image records attached to chat messages.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/conversation"
	"fridgewiz/server/internal/infrastructure/metrics"
	"fridgewiz/server/internal/utils/idgen"
	"fridgewiz/server/internal/utils/platformerrors"
	"fridgewiz/server/internal/utils/storagekey"
)

// Upload is a raw file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Storage abstracts the blob store behind the image records.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType, originalName string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Health(ctx context.Context) error
}

// ImageRepository defines storage operations for image rows. FindByID
// returns (nil, nil) when no row matches.
type ImageRepository interface {
	FindByID(ctx context.Context, id string) (*conversation.Image, error)
	DeleteRow(ctx context.Context, id string) error
}

// Service validates uploads, writes blobs, and manages image records.
type Service struct {
	cfg     *config.Config
	storage Storage
	images  ImageRepository
	log     zerolog.Logger
}

// NewService constructs a Service with required dependencies.
func NewService(cfg *config.Config, storage Storage, images ImageRepository, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		storage: storage,
		images:  images,
		log:     log.With().Str("component", "media-service").Logger(),
	}
}

// Ingest validates an upload and writes the blob, returning the image
// record to attach to a message. Validation rejects before any blob is
// written, so a rejected upload leaves no state behind. The MIME type is
// sniffed from content, never trusted from the client header.
func (s *Service) Ingest(ctx context.Context, up Upload) (*conversation.Image, error) {
	if len(up.Data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"No file provided", nil, "b3c61a8e-5f42-4d90-a7e1-08d2c9f4b635")
	}

	if int64(len(up.Data)) > s.cfg.MaxFileSize {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("File size exceeds %dMB limit", s.cfg.MaxFileSize/(1024*1024)), nil,
			"e19d7f03-2a84-4c6b-b5d0-637fa8e1c492")
	}

	detected := mimetype.Detect(up.Data)
	mime := detected.String()
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	if !s.cfg.AllowsMimeType(mime) {
		metrics.RecordUpload(mime, "rejected", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("File type %s not allowed", mime), nil, "a84f2d61-c7b9-4e05-93a8-1f60e5d2c7b4")
	}

	id, err := idgen.GenerateSecureID("img", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate image ID")
	}

	key := storagekey.New(s.cfg.ImageFolder, extensionFor(detected, up.Filename))
	if err := s.storage.Upload(ctx, key, bytes.NewReader(up.Data), int64(len(up.Data)), mime, up.Filename); err != nil {
		metrics.RecordS3Operation("put", "error")
		metrics.RecordUpload(mime, "error", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"Failed to store image", err, "c5e03b27-6d18-4f9a-842c-90b7a1f6d3e8")
	}
	metrics.RecordS3Operation("put", "success")
	metrics.RecordUpload(mime, "success", int64(len(up.Data)))

	return &conversation.Image{
		ID:        id,
		Filename:  up.Filename,
		MimeType:  mime,
		S3Key:     key,
		URL:       s.storage.PublicURL(key),
		Size:      int64(len(up.Data)),
		CreatedAt: time.Now(),
	}, nil
}

// DeleteImage removes an image record and its blob. A missing record is a
// not-found error. The blob is deleted first: if the store refuses, the row
// stays so the operation can be retried.
func (s *Service) DeleteImage(ctx context.Context, id string) error {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up image")
	}
	if img == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"Image not found", nil, "92d4a6f1-3e78-4b0c-a591-d86c20e7f5a3")
	}

	if err := s.storage.Delete(ctx, img.S3Key); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"Failed to delete image", err, "6b1e8c4d-a953-47f2-b0d6-3c82f9e14a70")
	}

	if err := s.images.DeleteRow(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete image record")
	}
	return nil
}

// DeleteBlob best-effort removes a blob by key, logging failures. Used to
// clean up after a partially failed multi-image turn.
func (s *Service) DeleteBlob(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("s3_key", key).Msg("orphaned blob: cleanup delete failed")
	}
}

// extensionFor prefers the sniffed extension and falls back to the client
// filename's.
func extensionFor(detected *mimetype.MIME, filename string) string {
	if ext := detected.Extension(); ext != "" {
		return ext
	}
	return path.Ext(filename)
}
