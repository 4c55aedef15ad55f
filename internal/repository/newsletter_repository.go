package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/model"
)

type NewsletterRepositoryInterface interface {
	Create(ctx context.Context, n *model.Newsletter) error
	Update(ctx context.Context, n *model.Newsletter) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Newsletter, error)
	List(ctx context.Context, offset, limit int) ([]*model.Newsletter, error)
	ListByStatus(ctx context.Context, status string) ([]*model.Newsletter, error)
	ListByTemplate(ctx context.Context, templateID int) ([]*model.Newsletter, error)
}

type NewsletterRepository struct {
	DB DBTX
}

// The template columns come from a LEFT JOIN so a dangling template_id
// yields a newsletter with a nil Template.
const newsletterSelect = `
	SELECT n.id, n.title, n.content, n.status, n.scheduled_date, n.template_id, n.image_url,
	       n.created_at, n.updated_at,
	       t.id, t.name, t.content, t.created_at, t.updated_at
	FROM newsletters n
	LEFT JOIN templates t ON t.id = n.template_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNewsletter(row rowScanner) (*model.Newsletter, error) {
	var (
		n             model.Newsletter
		scheduledDate sql.NullTime
		templateID    sql.NullInt64
		imageURL      sql.NullString
		tID           sql.NullInt64
		tName         sql.NullString
		tContent      sql.NullString
		tCreatedAt    sql.NullTime
		tUpdatedAt    sql.NullTime
	)
	err := row.Scan(
		&n.ID, &n.Title, &n.Content, &n.Status, &scheduledDate, &templateID, &imageURL,
		&n.CreatedAt, &n.UpdatedAt,
		&tID, &tName, &tContent, &tCreatedAt, &tUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if scheduledDate.Valid {
		d := scheduledDate.Time
		n.ScheduledDate = &d
	}
	if templateID.Valid {
		id := int(templateID.Int64)
		n.TemplateID = &id
	}
	if imageURL.Valid {
		u := imageURL.String
		n.ImageURL = &u
	}
	if tID.Valid {
		n.Template = &model.Template{
			ID:        int(tID.Int64),
			Name:      tName.String,
			Content:   tContent.String,
			CreatedAt: tCreatedAt.Time,
			UpdatedAt: tUpdatedAt.Time,
		}
	}
	return &n, nil
}

func (r *NewsletterRepository) queryList(ctx context.Context, query string, args ...any) ([]*model.Newsletter, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	newsletters := []*model.Newsletter{}
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		newsletters = append(newsletters, n)
	}
	return newsletters, rows.Err()
}

func (r *NewsletterRepository) Create(ctx context.Context, n *model.Newsletter) error {
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	query := `
		INSERT INTO newsletters (title, content, status, scheduled_date, template_id, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		n.Title, n.Content, n.Status, n.ScheduledDate, n.TemplateID, n.ImageURL, n.CreatedAt, n.UpdatedAt,
	).Scan(&n.ID)
}

// Update writes every mutable column of n and refreshes updated_at.
func (r *NewsletterRepository) Update(ctx context.Context, n *model.Newsletter) error {
	n.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE newsletters
		SET title=$1, content=$2, status=$3, scheduled_date=$4, template_id=$5, image_url=$6, updated_at=$7
		WHERE id=$8
	`
	res, err := r.DB.ExecContext(ctx, query,
		n.Title, n.Content, n.Status, n.ScheduledDate, n.TemplateID, n.ImageURL, n.UpdatedAt, n.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res, n.ID)
}

func (r *NewsletterRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM newsletters WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

func (r *NewsletterRepository) GetByID(ctx context.Context, id int) (*model.Newsletter, error) {
	n, err := scanNewsletter(r.DB.QueryRowContext(ctx, newsletterSelect+` WHERE n.id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("Newsletter", id)
		}
		return nil, err
	}
	return n, nil
}

func (r *NewsletterRepository) List(ctx context.Context, offset, limit int) ([]*model.Newsletter, error) {
	return r.queryList(ctx, newsletterSelect+` ORDER BY n.id LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *NewsletterRepository) ListByStatus(ctx context.Context, status string) ([]*model.Newsletter, error) {
	return r.queryList(ctx, newsletterSelect+` WHERE n.status=$1 ORDER BY n.id`, status)
}

func (r *NewsletterRepository) ListByTemplate(ctx context.Context, templateID int) ([]*model.Newsletter, error) {
	return r.queryList(ctx, newsletterSelect+` WHERE n.template_id=$1 ORDER BY n.id`, templateID)
}

func expectRow(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("Newsletter", id)
	}
	return nil
}

var _ NewsletterRepositoryInterface = (*NewsletterRepository)(nil)
