// internal/controller/template_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/respond"
	"github.com/unclebandit/newsletter-backend/internal/service"
)

type TemplateController struct {
	TemplateService *service.TemplateService
}

func (c *TemplateController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    *string `json:"name"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, appErrors.NewValidation("invalid body"))
		return
	}
	var missing []string
	if body.Name == nil {
		missing = append(missing, "name")
	}
	if body.Content == nil {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		respond.Error(w, appErrors.NewValidation("missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	template, err := c.TemplateService.CreateTemplate(r.Context(), *body.Name, *body.Content)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, template)
}

func (c *TemplateController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := respond.Paging(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	templates, err := c.TemplateService.ListTemplates(r.Context(), skip, limit)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, templates)
}

func (c *TemplateController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	template, err := c.TemplateService.GetTemplate(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, template)
}

func (c *TemplateController) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := c.TemplateService.DeleteTemplate(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, "Template deleted successfully")
}

// ListTemplateNewsletters returns the newsletters referencing the template.
func (c *TemplateController) ListTemplateNewsletters(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, err)
		return
	}
	newsletters, err := c.TemplateService.ListTemplateNewsletters(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, newsletters)
}
