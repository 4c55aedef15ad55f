// internal/handler/newsletter_image_handler.go
package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/model"
	"github.com/unclebandit/newsletter-backend/internal/respond"
	"github.com/unclebandit/newsletter-backend/internal/service"
)

// multipartMemory is how much of a multipart body is kept in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

// NewsletterImageHandler serves the multipart and image endpoints of
// newsletters.
type NewsletterImageHandler struct {
	Service *service.NewsletterService
	// MaxUploadBytes caps the request body; zero means no cap.
	MaxUploadBytes int64
}

// NewNewsletterImageHandler creates a handler with the given upload cap.
func NewNewsletterImageHandler(svc *service.NewsletterService, maxUploadBytes int64) *NewsletterImageHandler {
	return &NewsletterImageHandler{Service: svc, MaxUploadBytes: maxUploadBytes}
}

// CreateNewsletterWithImageHandler creates a newsletter from a multipart
// form, uploading the optional image part first.
func (h *NewsletterImageHandler) CreateNewsletterWithImageHandler(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	n := &model.Newsletter{}
	var missing []string
	for _, f := range []struct {
		name string
		dst  *string
	}{{"title", &n.Title}, {"content", &n.Content}, {"status", &n.Status}} {
		v, ok := formValue(r, f.name)
		if !ok {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = v
	}
	if len(missing) > 0 {
		respond.Error(w, appErrors.NewValidation("missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	var err error
	if n.ScheduledDate, n.TemplateID, err = optionalFields(r); err != nil {
		respond.Error(w, err)
		return
	}

	img, closeImg, err := imagePart(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	defer closeImg()

	created, err := h.Service.CreateNewsletter(r.Context(), n, img)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// UpdateNewsletterWithImageHandler applies the form fields that are present
// and replaces the stored image when an image part is sent.
func (h *NewsletterImageHandler) UpdateNewsletterWithImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	if !h.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	var patch model.NewsletterPatch
	if v, ok := formValue(r, "title"); ok {
		patch.Title = &v
	}
	if v, ok := formValue(r, "content"); ok {
		patch.Content = &v
	}
	if v, ok := formValue(r, "status"); ok {
		patch.Status = &v
	}
	if patch.ScheduledDate, patch.TemplateID, err = optionalFields(r); err != nil {
		respond.Error(w, err)
		return
	}

	img, closeImg, err := imagePart(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	defer closeImg()

	updated, err := h.Service.UpdateNewsletterWithImage(r.Context(), id, patch, img)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// GetNewsletterImageHandler streams the stored image with the content type
// reported by storage.
func (h *NewsletterImageHandler) GetNewsletterImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}

	obj, err := h.Service.GetNewsletterImage(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("streaming newsletter image", "id", id, "error", err)
	}
}

func (h *NewsletterImageHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.JSON(w, http.StatusRequestEntityTooLarge, map[string]string{"detail": "Request body too large"})
			return false
		}
		respond.Error(w, appErrors.NewValidation("invalid multipart form: %v", err))
		return false
	}
	return true
}

func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// optionalFields reads scheduled_date and template_id; empty values count as
// absent.
func optionalFields(r *http.Request) (*time.Time, *int, error) {
	var (
		when *time.Time
		tpl  *int
	)
	if v, ok := formValue(r, "scheduled_date"); ok && strings.TrimSpace(v) != "" {
		t, err := service.ParseScheduledDate(v)
		if err != nil {
			return nil, nil, err
		}
		when = &t
	}
	if v, ok := formValue(r, "template_id"); ok && strings.TrimSpace(v) != "" {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, nil, appErrors.NewValidation("template_id must be an integer")
		}
		tpl = &id
	}
	return when, tpl, nil
}

// imagePart opens the "image" file part. It returns a nil upload when the
// form carries no file under that name.
func imagePart(r *http.Request) (*service.ImageUpload, func(), error) {
	noop := func() {}
	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 || headers[0].Filename == "" {
		return nil, noop, nil
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, appErrors.NewValidation("unreadable image part")
	}
	return &service.ImageUpload{
		Body:        f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, closer(f), nil
}

func closer(f multipart.File) func() {
	return func() { f.Close() }
}
