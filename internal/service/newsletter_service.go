// internal/service/newsletter_service.go
package service

import (
	"context"
	"log/slog"
	"time"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/model"
	"github.com/unclebandit/newsletter-backend/internal/queue"
	"github.com/unclebandit/newsletter-backend/internal/repository"
	"github.com/unclebandit/newsletter-backend/internal/storage"
)

const uploadFailedMessage = "Failed to upload image to S3. Please check S3 credentials and bucket configuration."

type NewsletterService struct {
	NewsletterRepo repository.NewsletterRepositoryInterface
	Tx             repository.Transactor
	Store          storage.ObjectStore
	// Queue receives keys whose inline delete failed. Optional.
	Queue queue.Queue
	// Now is the clock used for image keys; defaults to time.Now.
	Now func() time.Time
}

func (s *NewsletterService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// upload validates img and stores it under a fresh key.
func (s *NewsletterService) upload(ctx context.Context, img *ImageUpload) (key, url string, err error) {
	if err := ValidateImage(img); err != nil {
		return "", "", err
	}
	key = ImageKey(s.now(), img.Filename)
	slog.Info("uploading newsletter image", "key", key)
	url, ok := s.Store.Upload(ctx, img.Body, key, img.MediaType())
	if !ok {
		return "", "", appErrors.NewUpstream(uploadFailedMessage, nil)
	}
	return key, url, nil
}

// discardBlob deletes key and, when that fails, hands it to the cleanup
// queue. It never fails the caller.
func (s *NewsletterService) discardBlob(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if s.Store.Delete(ctx, key) {
		return
	}
	if s.Queue == nil {
		slog.Warn("image left in storage", "key", key)
		return
	}
	if err := queue.EnqueueImageCleanup(ctx, s.Queue, key); err != nil {
		slog.Error("enqueueing image cleanup", "key", key, "error", err)
	}
}

// CreateNewsletter persists n, uploading img first when given. A failed
// upload creates nothing; a failed insert removes the uploaded blob.
func (s *NewsletterService) CreateNewsletter(ctx context.Context, n *model.Newsletter, img *ImageUpload) (*model.Newsletter, error) {
	n.ImageURL = nil
	var uploadedKey string
	if img != nil {
		key, url, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		uploadedKey = key
		n.ImageURL = &url
	}

	var created *model.Newsletter
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, repo repository.NewsletterRepositoryInterface) error {
		if err := repo.Create(ctx, n); err != nil {
			return err
		}
		var err error
		created, err = repo.GetByID(ctx, n.ID)
		return err
	})
	if err != nil {
		if uploadedKey != "" {
			s.discardBlob(ctx, uploadedKey)
		}
		return nil, wrapDB(err)
	}
	return created, nil
}

// UpdateNewsletterWithImage applies patch and, when img is given, swaps the
// stored image. The new blob is uploaded before commit; the old one is
// removed only after the commit succeeded.
func (s *NewsletterService) UpdateNewsletterWithImage(ctx context.Context, id int, patch model.NewsletterPatch, img *ImageUpload) (*model.Newsletter, error) {
	var (
		oldKey, newKey string
		updated        *model.Newsletter
	)
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, repo repository.NewsletterRepositoryInterface) error {
		n, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(n)

		if img != nil {
			if n.ImageURL != nil && *n.ImageURL != "" {
				oldKey = storage.KeyFromURL(*n.ImageURL)
			}
			key, url, err := s.upload(ctx, img)
			if err != nil {
				return err
			}
			newKey = key
			n.ImageURL = &url
		}

		if err := repo.Update(ctx, n); err != nil {
			return err
		}
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if newKey != "" && newKey != oldKey {
			s.discardBlob(ctx, newKey)
		}
		return nil, wrapDB(err)
	}
	if oldKey != "" && oldKey != newKey {
		s.discardBlob(ctx, oldKey)
	}
	return updated, nil
}

// UpdateNewsletter applies a partial JSON update.
func (s *NewsletterService) UpdateNewsletter(ctx context.Context, id int, patch model.NewsletterPatch) (*model.Newsletter, error) {
	var updated *model.Newsletter
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, repo repository.NewsletterRepositoryInterface) error {
		n, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(n)
		if err := repo.Update(ctx, n); err != nil {
			return err
		}
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, wrapDB(err)
	}
	return updated, nil
}

func (s *NewsletterService) GetNewsletter(ctx context.Context, id int) (*model.Newsletter, error) {
	n, err := s.NewsletterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapDB(err)
	}
	return n, nil
}

func (s *NewsletterService) ListNewsletters(ctx context.Context, skip, limit int) ([]*model.Newsletter, error) {
	newsletters, err := s.NewsletterRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, wrapDB(err)
	}
	return newsletters, nil
}

func (s *NewsletterService) ListNewslettersByStatus(ctx context.Context, status string) ([]*model.Newsletter, error) {
	newsletters, err := s.NewsletterRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, wrapDB(err)
	}
	return newsletters, nil
}

// DeleteNewsletter removes the stored image (best effort, retried through
// the cleanup queue) and then the row.
func (s *NewsletterService) DeleteNewsletter(ctx context.Context, id int) error {
	n, err := s.NewsletterRepo.GetByID(ctx, id)
	if err != nil {
		return wrapDB(err)
	}
	if n.ImageURL != nil && *n.ImageURL != "" {
		s.discardBlob(ctx, storage.KeyFromURL(*n.ImageURL))
	}
	return wrapDB(s.NewsletterRepo.Delete(ctx, id))
}

// GetNewsletterImage opens the stored image of newsletter id. The caller
// closes the returned body.
func (s *NewsletterService) GetNewsletterImage(ctx context.Context, id int) (*storage.Object, error) {
	n, err := s.NewsletterRepo.GetByID(ctx, id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.NewNotFound("Image", id)
		}
		return nil, wrapDB(err)
	}
	if n.ImageURL == nil || *n.ImageURL == "" {
		return nil, appErrors.NewNotFound("Image", id)
	}

	obj, err := s.Store.Get(ctx, storage.KeyFromURL(*n.ImageURL))
	if err != nil {
		return nil, appErrors.NewUpstream("Failed to stream image", err)
	}
	return obj, nil
}
