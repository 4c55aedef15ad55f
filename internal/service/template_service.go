// internal/service/template_service.go
package service

import (
	"context"

	"github.com/unclebandit/newsletter-backend/internal/model"
	"github.com/unclebandit/newsletter-backend/internal/repository"
)

type TemplateService struct {
	TemplateRepo   repository.TemplateRepositoryInterface
	NewsletterRepo repository.NewsletterRepositoryInterface
}

func (s *TemplateService) CreateTemplate(ctx context.Context, name, content string) (*model.Template, error) {
	t := &model.Template{Name: name, Content: content}
	if err := s.TemplateRepo.Create(ctx, t); err != nil {
		return nil, wrapDB(err)
	}
	return t, nil
}

func (s *TemplateService) ListTemplates(ctx context.Context, skip, limit int) ([]*model.Template, error) {
	templates, err := s.TemplateRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, wrapDB(err)
	}
	return templates, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, id int) (*model.Template, error) {
	t, err := s.TemplateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapDB(err)
	}
	return t, nil
}

// DeleteTemplate does not touch newsletters referencing id.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id int) error {
	return wrapDB(s.TemplateRepo.Delete(ctx, id))
}

// ListTemplateNewsletters returns the newsletters whose template_id is id.
func (s *TemplateService) ListTemplateNewsletters(ctx context.Context, id int) ([]*model.Newsletter, error) {
	if _, err := s.TemplateRepo.GetByID(ctx, id); err != nil {
		return nil, wrapDB(err)
	}
	newsletters, err := s.NewsletterRepo.ListByTemplate(ctx, id)
	if err != nil {
		return nil, wrapDB(err)
	}
	return newsletters, nil
}
