// Package testutil provides in-memory repositories for service and HTTP tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
	"github.com/unclebandit/newsletter-backend/internal/model"
	"github.com/unclebandit/newsletter-backend/internal/repository"
)

// Store holds templates and newsletters the way the two tables would.
type Store struct {
	mu               sync.Mutex
	templates        map[int]model.Template
	newsletters      map[int]model.Newsletter
	nextTemplateID   int
	nextNewsletterID int

	// NewsletterWriteErr, when set, is returned by newsletter Create/Update.
	NewsletterWriteErr error
}

func NewStore() *Store {
	return &Store{
		templates:   map[int]model.Template{},
		newsletters: map[int]model.Newsletter{},
	}
}

func (s *Store) Templates() *TemplateRepo     { return &TemplateRepo{s: s} }
func (s *Store) Newsletters() *NewsletterRepo { return &NewsletterRepo{s: s} }
func (s *Store) Transactor() *Transactor      { return &Transactor{s: s} }

// NewsletterCount returns the number of stored newsletters.
func (s *Store) NewsletterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.newsletters)
}

type TemplateRepo struct{ s *Store }

func (r *TemplateRepo) Create(_ context.Context, t *model.Template) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextTemplateID++
	now := time.Now().UTC()
	t.ID = r.s.nextTemplateID
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.templates[t.ID] = *t
	return nil
}

func (r *TemplateRepo) List(_ context.Context, offset, limit int) ([]*model.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := sortedKeys(r.s.templates)
	out := []*model.Template{}
	for _, id := range page(ids, offset, limit) {
		t := r.s.templates[id]
		out = append(out, &t)
	}
	return out, nil
}

func (r *TemplateRepo) GetByID(_ context.Context, id int) (*model.Template, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, appErrors.NewNotFound("Template", id)
	}
	return &t, nil
}

func (r *TemplateRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[id]; !ok {
		return appErrors.NewNotFound("Template", id)
	}
	delete(r.s.templates, id)
	return nil
}

type NewsletterRepo struct{ s *Store }

// load returns a copy of newsletter id with its template attached. The
// caller holds the lock.
func (r *NewsletterRepo) load(id int) *model.Newsletter {
	n := r.s.newsletters[id]
	n.Template = nil
	if n.TemplateID != nil {
		if t, ok := r.s.templates[*n.TemplateID]; ok {
			n.Template = &t
		}
	}
	return &n
}

func (r *NewsletterRepo) Create(_ context.Context, n *model.Newsletter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.NewsletterWriteErr != nil {
		return r.s.NewsletterWriteErr
	}
	r.s.nextNewsletterID++
	now := time.Now().UTC()
	n.ID = r.s.nextNewsletterID
	n.CreatedAt, n.UpdatedAt = now, now
	stored := *n
	stored.Template = nil
	r.s.newsletters[n.ID] = stored
	return nil
}

func (r *NewsletterRepo) Update(_ context.Context, n *model.Newsletter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.NewsletterWriteErr != nil {
		return r.s.NewsletterWriteErr
	}
	if _, ok := r.s.newsletters[n.ID]; !ok {
		return appErrors.NewNotFound("Newsletter", n.ID)
	}
	n.UpdatedAt = time.Now().UTC()
	stored := *n
	stored.Template = nil
	r.s.newsletters[n.ID] = stored
	return nil
}

func (r *NewsletterRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.newsletters[id]; !ok {
		return appErrors.NewNotFound("Newsletter", id)
	}
	delete(r.s.newsletters, id)
	return nil
}

func (r *NewsletterRepo) GetByID(_ context.Context, id int) (*model.Newsletter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.newsletters[id]; !ok {
		return nil, appErrors.NewNotFound("Newsletter", id)
	}
	return r.load(id), nil
}

func (r *NewsletterRepo) List(_ context.Context, offset, limit int) ([]*model.Newsletter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Newsletter{}
	for _, id := range page(sortedKeys(r.s.newsletters), offset, limit) {
		out = append(out, r.load(id))
	}
	return out, nil
}

func (r *NewsletterRepo) ListByStatus(_ context.Context, status string) ([]*model.Newsletter, error) {
	return r.filter(func(n model.Newsletter) bool { return n.Status == status }), nil
}

func (r *NewsletterRepo) ListByTemplate(_ context.Context, templateID int) ([]*model.Newsletter, error) {
	return r.filter(func(n model.Newsletter) bool { return n.TemplateID != nil && *n.TemplateID == templateID }), nil
}

func (r *NewsletterRepo) filter(keep func(model.Newsletter) bool) []*model.Newsletter {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Newsletter{}
	for _, id := range sortedKeys(r.s.newsletters) {
		if keep(r.s.newsletters[id]) {
			out = append(out, r.load(id))
		}
	}
	return out
}

// Transactor snapshots the newsletters before fn and restores them when fn
// fails, mimicking a rollback.
type Transactor struct{ s *Store }

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.NewsletterRepositoryInterface) error) error {
	t.s.mu.Lock()
	snapshot := make(map[int]model.Newsletter, len(t.s.newsletters))
	for id, n := range t.s.newsletters {
		snapshot[id] = n
	}
	nextID := t.s.nextNewsletterID
	t.s.mu.Unlock()

	if err := fn(ctx, t.s.Newsletters()); err != nil {
		t.s.mu.Lock()
		t.s.newsletters = snapshot
		t.s.nextNewsletterID = nextID
		t.s.mu.Unlock()
		return err
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func page(ids []int, offset, limit int) []int {
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

var (
	_ repository.TemplateRepositoryInterface   = (*TemplateRepo)(nil)
	_ repository.NewsletterRepositoryInterface = (*NewsletterRepo)(nil)
	_ repository.Transactor                    = (*Transactor)(nil)
)
