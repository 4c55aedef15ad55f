// internal/service/image.go
package service

import (
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
)

var (
	allowedImageTypes      = map[string]bool{"image/jpeg": true, "image/png": true}
	allowedImageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
)

const invalidImageMessage = "Invalid image. Only JPG and PNG formats are supported."

// ImageUpload is an image file received with a multipart request.
type ImageUpload struct {
	Body        io.Reader
	Filename    string
	ContentType string
}

// MediaType returns the declared content type without parameters.
func (img *ImageUpload) MediaType() string {
	mt, _, err := mime.ParseMediaType(img.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(img.ContentType))
	}
	return mt
}

// ValidateImage requires both an allowed declared content type and an
// allowed filename extension.
func ValidateImage(img *ImageUpload) error {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if !allowedImageTypes[img.MediaType()] || !allowedImageExtensions[ext] {
		return appErrors.NewValidation(invalidImageMessage)
	}
	return nil
}

// ImageKey builds the storage key newsletter_<UTC timestamp> plus the
// original file extension.
func ImageKey(now time.Time, filename string) string {
	return "newsletter_" + now.UTC().Format("20060102_150405") + filepath.Ext(filename)
}
