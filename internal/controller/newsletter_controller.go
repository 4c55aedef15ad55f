// internal/controller/newsletter_controller.go
package controller

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/model"
	"github.com/unclebandit/newsletter-backend/internal/respond"
	"github.com/unclebandit/newsletter-backend/internal/service"
)

type NewsletterController struct {
	NewsletterService *service.NewsletterService
}

func (c *NewsletterController) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := respond.Paging(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	newsletters, err := c.NewsletterService.ListNewsletters(r.Context(), skip, limit)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, newsletters)
}

func (c *NewsletterController) GetNewsletter(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	newsletter, err := c.NewsletterService.GetNewsletter(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, newsletter)
}

// UpdateNewsletter applies the keys present in the JSON body. Omitted keys
// are left alone; null clears the nullable columns.
func (c *NewsletterController) UpdateNewsletter(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respond.Error(w, appErrors.NewValidation("invalid body"))
		return
	}
	patch, err := decodePatch(raw)
	if err != nil {
		respond.Error(w, err)
		return
	}

	newsletter, err := c.NewsletterService.UpdateNewsletter(r.Context(), id, patch)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, newsletter)
}

func (c *NewsletterController) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := c.NewsletterService.DeleteNewsletter(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, "Newsletter deleted successfully")
}

func (c *NewsletterController) ListNewslettersByStatus(w http.ResponseWriter, r *http.Request) {
	newsletters, err := c.NewsletterService.ListNewslettersByStatus(r.Context(), chi.URLParam(r, "status"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, newsletters)
}

var jsonNull = []byte("null")

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), jsonNull)
}

func decodePatch(raw map[string]json.RawMessage) (model.NewsletterPatch, error) {
	var p model.NewsletterPatch

	required := []struct {
		field string
		dst   **string
	}{{"title", &p.Title}, {"content", &p.Content}, {"status", &p.Status}}
	for _, f := range required {
		field, dst := f.field, f.dst
		v, ok := raw[field]
		if !ok {
			continue
		}
		if isNull(v) {
			return p, appErrors.NewValidation("%s may not be null", field)
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return p, appErrors.NewValidation("%s must be a string", field)
		}
		*dst = &s
	}

	if v, ok := raw["scheduled_date"]; ok {
		if isNull(v) {
			p.ClearScheduledDate = true
		} else {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return p, appErrors.NewValidation("scheduled_date must be a string")
			}
			t, err := service.ParseScheduledDate(s)
			if err != nil {
				return p, err
			}
			p.ScheduledDate = &t
		}
	}

	if v, ok := raw["template_id"]; ok {
		if isNull(v) {
			p.ClearTemplateID = true
		} else {
			var id int
			if err := json.Unmarshal(v, &id); err != nil {
				return p, appErrors.NewValidation("template_id must be an integer")
			}
			p.TemplateID = &id
		}
	}

	if v, ok := raw["image_url"]; ok {
		if isNull(v) {
			p.ClearImageURL = true
		} else {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return p, appErrors.NewValidation("image_url must be a string")
			}
			p.ImageURL = &s
		}
	}
	return p, nil
}
