package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/model"
	"github.com/unclebandit/newsletter-backend/internal/repository"
)

var newsletterCols = []string{
	"id", "title", "content", "status", "scheduled_date", "template_id", "image_url",
	"created_at", "updated_at",
	"t_id", "t_name", "t_content", "t_created_at", "t_updated_at",
}

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *repository.NewsletterRepository, *repository.TemplateRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return mock, func() *repository.NewsletterRepository { return &repository.NewsletterRepository{DB: db} }, &repository.TemplateRepository{DB: db}
}

func TestTemplateCreate(t *testing.T) {
	mock, _, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO templates (name, content, created_at, updated_at)")).
		WithArgs("Promo", "Big sale", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	tpl := &model.Template{Name: "Promo", Content: "Big sale"}
	require.NoError(t, repo.Create(context.Background(), tpl))

	assert.Equal(t, 1, tpl.ID)
	assert.False(t, tpl.CreatedAt.IsZero())
	assert.Equal(t, tpl.CreatedAt, tpl.UpdatedAt)
}

func TestTemplateListEmpty(t *testing.T) {
	mock, _, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM templates ORDER BY id LIMIT $1 OFFSET $2")).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "content", "created_at", "updated_at"}))

	got, err := repo.List(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTemplateGetByIDNotFound(t *testing.T) {
	mock, _, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM templates WHERE id=$1")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "content", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), 42)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestTemplateDelete(t *testing.T) {
	mock, _, repo := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM templates WHERE id=$1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM templates WHERE id=$1")).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.True(t, appErrors.IsNotFound(repo.Delete(context.Background(), 2)))
}

func TestNewsletterGetByIDWithTemplate(t *testing.T) {
	mock, newsletters, _ := newMock(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE n.id=$1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(newsletterCols).AddRow(
			1, "Sale", "Everything must go", "draft", now, int64(7), "https://b.s3.r.amazonaws.com/newsletter_x.png",
			now, now,
			int64(7), "Promo", "tpl", now, now,
		))

	n, err := newsletters().GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, n.TemplateID)
	assert.Equal(t, 7, *n.TemplateID)
	require.NotNil(t, n.Template)
	assert.Equal(t, "Promo", n.Template.Name)
	require.NotNil(t, n.ScheduledDate)
	assert.True(t, n.ScheduledDate.Equal(now))
	require.NotNil(t, n.ImageURL)
}

func TestNewsletterGetByIDDanglingTemplate(t *testing.T) {
	mock, newsletters, _ := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE n.id=$1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(newsletterCols).AddRow(
			1, "Sale", "c", "draft", nil, int64(1), nil,
			now, now,
			nil, nil, nil, nil, nil,
		))

	n, err := newsletters().GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, n.TemplateID)
	assert.Equal(t, 1, *n.TemplateID)
	assert.Nil(t, n.Template)
	assert.Nil(t, n.ImageURL)
	assert.Nil(t, n.ScheduledDate)
}

func TestNewsletterListByStatus(t *testing.T) {
	mock, newsletters, _ := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE n.status=$1 ORDER BY n.id")).
		WithArgs("draft").
		WillReturnRows(sqlmock.NewRows(newsletterCols).
			AddRow(1, "a", "c", "draft", nil, nil, nil, now, now, nil, nil, nil, nil, nil).
			AddRow(3, "b", "c", "draft", nil, nil, nil, now, now, nil, nil, nil, nil, nil))

	got, err := newsletters().ListByStatus(context.Background(), "draft")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
}

func TestNewsletterUpdateRefreshesUpdatedAt(t *testing.T) {
	mock, newsletters, _ := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE newsletters")).
		WithArgs("t", "c", "sent", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	n := &model.Newsletter{ID: 5, Title: "t", Content: "c", Status: "sent", UpdatedAt: old}
	require.NoError(t, newsletters().Update(context.Background(), n))
	assert.True(t, n.UpdatedAt.After(old))
}

func TestNewsletterDeleteMissing(t *testing.T) {
	mock, newsletters, _ := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM newsletters WHERE id=$1")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, appErrors.IsNotFound(newsletters().Delete(context.Background(), 9)))
}

func TestSQLTransactorCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO newsletters")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	tx := &repository.SQLTransactor{DB: db}
	err = tx.WithinTx(context.Background(), func(ctx context.Context, repo repository.NewsletterRepositoryInterface) error {
		return repo.Create(ctx, &model.Newsletter{Title: "t", Content: "c", Status: "draft"})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTransactorRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("upload failed")
	tx := &repository.SQLTransactor{DB: db}
	err = tx.WithinTx(context.Background(), func(ctx context.Context, repo repository.NewsletterRepositoryInterface) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryEnsureUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("admin", sqlmock.AnyArg(), "admin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("admin", sqlmock.AnyArg(), "admin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &repository.UserRepository{DB: db}

	u := &model.User{Username: "admin", Role: "admin"}
	created, err := repo.EnsureUser(context.Background(), u, "s3cret")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, u.ID)
	assert.NotEqual(t, "s3cret", u.Password)

	created, err = repo.EnsureUser(context.Background(), &model.User{Username: "admin", Role: "admin"}, "s3cret")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
