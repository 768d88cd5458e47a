package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/pkg/validation"
	"github.com/google/uuid"
)

// Upload is one blob received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// ContentType sniffs the MIME type from the blob itself.
func (u Upload) ContentType() string {
	return http.DetectContentType(u.Data)
}

// UploadLimits bounds accepted blob sizes, in bytes.
type UploadLimits struct {
	MaxPictureSize int64
	MaxFileSize    int64
}

func (l UploadLimits) checkPicture(u Upload) error {
	if len(u.Data) == 0 {
		return apperror.ValidationFailed("pictures", fmt.Sprintf("picture %q is empty", u.Filename))
	}
	if ct := u.ContentType(); ct != "image/jpeg" {
		return apperror.ValidationFailed("pictures", fmt.Sprintf("picture %q must be image/jpeg, got %s", u.Filename, ct))
	}
	if l.MaxPictureSize > 0 && int64(len(u.Data)) > l.MaxPictureSize {
		return apperror.ValidationFailed("pictures", fmt.Sprintf("picture %q is %d bytes (max %d)", u.Filename, len(u.Data), l.MaxPictureSize))
	}
	return nil
}

func (l UploadLimits) checkPictures(uploads []Upload) error {
	if len(uploads) == 0 {
		return apperror.ValidationFailed("pictures", "at least one picture is required")
	}
	for _, u := range uploads {
		if err := l.checkPicture(u); err != nil {
			return err
		}
	}
	return nil
}

func (l UploadLimits) checkFile(u Upload) error {
	if len(u.Data) == 0 {
		return apperror.ValidationFailed("file", "file is empty")
	}
	if l.MaxFileSize > 0 && int64(len(u.Data)) > l.MaxFileSize {
		return apperror.ValidationFailed("file", fmt.Sprintf("file is %d bytes (max %d)", len(u.Data), l.MaxFileSize))
	}
	return nil
}

func extensionOf(filename, fallback string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fallback
	}
	return ext
}

// PictureKey names a picture object as <asset>_<uuid><ext>. The key is also
// the picture identifier accepted by RemovePicture, and it is URL-safe as is.
func PictureKey(assetUUID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s_%s%s", assetUUID, uuid.New(), extensionOf(filename, ".jpg"))
}

func fileKey(assetUUID uuid.UUID, filename string) string {
	return fmt.Sprintf("file_%s_%s", assetUUID, validation.SanitizeFilename(filename))
}

func avatarKey(userUUID uuid.UUID, filename string) string {
	return fmt.Sprintf("avatars/%s%s", userUUID, extensionOf(filename, ".jpg"))
}

// uploadBatch uploads blobs one after another. If any upload fails, objects
// already stored by this batch are deleted and the error is returned.
func uploadBatch(ctx context.Context, store ObjectStore, log *logger.Logger, uploads []Upload, keyFn func(Upload) string) (urls, keys []string, err error) {
	urls = make([]string, 0, len(uploads))
	keys = make([]string, 0, len(uploads))
	for _, u := range uploads {
		key := keyFn(u)
		url, err := store.Upload(ctx, key, bytes.NewReader(u.Data), u.ContentType())
		if err != nil {
			discardUploads(ctx, store, log, keys)
			return nil, nil, fmt.Errorf("upload %q: %w", u.Filename, err)
		}
		keys = append(keys, key)
		urls = append(urls, url)
	}
	return urls, keys, nil
}

func discardUploads(ctx context.Context, store ObjectStore, log *logger.Logger, keys []string) {
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			log.Warn("Failed to discard uploaded object", "key", key, "error", err)
		}
	}
}
