package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.Template) error
	List(ctx context.Context, offset, limit int) ([]*model.Template, error)
	GetByID(ctx context.Context, id int) (*model.Template, error)
	Delete(ctx context.Context, id int) error
}

type TemplateRepository struct {
	DB DBTX
}

const templateColumns = `id, name, content, created_at, updated_at`

func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	query := `
		INSERT INTO templates (name, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, t.Name, t.Content, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
}

func (r *TemplateRepository) List(ctx context.Context, offset, limit int) ([]*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*model.Template{}
	for rows.Next() {
		t := &model.Template{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) GetByID(ctx context.Context, id int) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id=$1`
	var t model.Template
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("Template", id)
		}
		return nil, err
	}
	return &t, nil
}

// Delete removes the template row only; newsletters keep their template_id.
func (r *TemplateRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("Template", id)
	}
	return nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
