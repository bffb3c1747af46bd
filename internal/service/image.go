package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"skinscan/internal/storage"
)

// cleanupTimeout bounds compensating calls made after a failed request.
const cleanupTimeout = 5 * time.Second

// UploadInput is one image submitted for later analysis.
type UploadInput struct {
	UserID      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageService stores lesion photos and hands back signed URLs.
type ImageService interface {
	// Upload stores the image under <userId>/<unixMillis>.<ext> and returns a signed URL.
	Upload(ctx context.Context, callerID string, in UploadInput) (string, error)
}

// ImageOptions bound the upload.
type ImageOptions struct {
	MaxBytes     int64
	SignedURLTTL time.Duration
	Timeout      time.Duration
}

type imageService struct {
	store storage.Storage
	opts  ImageOptions
	now   func() time.Time
}

// NewImageService constructs a new ImageService.
func NewImageService(store storage.Storage, opts ImageOptions) ImageService {
	return &imageService{store: store, opts: opts, now: time.Now}
}

func (s *imageService) Upload(ctx context.Context, callerID string, in UploadInput) (string, error) {
	if in.Body == nil {
		return "", fmt.Errorf("%w: file is required", ErrValidation)
	}
	if strings.TrimSpace(in.UserID) == "" {
		return "", fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if err := requireOwner(callerID, in.UserID); err != nil {
		return "", err
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return "", fmt.Errorf("%w: only image files are accepted", ErrValidation)
	}
	if s.opts.MaxBytes > 0 && in.Size > s.opts.MaxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.opts.MaxBytes)
	}

	key := in.UserID + "/" + strconv.FormatInt(s.now().UnixMilli(), 10) + "." + extension(in.Filename, in.ContentType)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	if _, err := s.store.Put(ctx, key, in.Body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata:    map[string]string{"original-filename": filepath.Base(in.Filename)},
	}); err != nil {
		return "", fmt.Errorf("%w: upload: %w", ErrUpstreamStorage, err)
	}

	signed, err := s.store.PresignGet(ctx, key, s.opts.SignedURLTTL)
	if err != nil {
		// the caller never learns the key, so the object would be orphaned
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if derr := s.store.Delete(cleanupCtx, key); derr != nil {
			zerolog.Ctx(ctx).Warn().Err(derr).Str("key", key).Msg("remove unsigned upload failed")
		}
		return "", fmt.Errorf("%w: sign url: %w", ErrUpstreamStorage, err)
	}
	return signed, nil
}

// extension prefers the filename's extension and falls back to the media subtype.
func extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	sub := contentType[strings.IndexByte(contentType, '/')+1:]
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	if sub == "" {
		return "bin"
	}
	return strings.ToLower(sub)
}
