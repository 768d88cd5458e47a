package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// formUploads reads every file sent under field, in form order.
func formUploads(c *gin.Context, field string) ([]services.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperror.ValidationFailed(field, "multipart form expected")
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, apperror.ValidationFailed(field, fmt.Sprintf("%s is required", field))
	}
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// formUpload reads the single file sent under field.
func formUpload(c *gin.Context, field string) (services.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return services.Upload{}, apperror.ValidationFailed(field, fmt.Sprintf("%s is required", field))
	}
	return readUpload(fh)
}

func readUpload(fh *multipart.FileHeader) (services.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return services.Upload{}, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	return services.Upload{Filename: fh.Filename, Data: data}, nil
}
