// internal/model/newsletter.go
package model

import "time"

// Conventional statuses; the column itself accepts any string.
const (
    StatusDraft     = "draft"
    StatusScheduled = "scheduled"
    StatusSent      = "sent"
)

type Newsletter struct {
    ID            int        `db:"id" json:"id"`
    Title         string     `db:"title" json:"title"`
    Content       string     `db:"content" json:"content"`
    Status        string     `db:"status" json:"status"`
    ScheduledDate *time.Time `db:"scheduled_date" json:"scheduled_date"`
    TemplateID    *int       `db:"template_id" json:"template_id"`
    ImageURL      *string    `db:"image_url" json:"image_url"`
    CreatedAt     time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`

    // Template is the referenced row, nil when template_id is null or dangling.
    Template *Template `db:"-" json:"template"`
}

// NewsletterPatch carries a partial update. A nil field is left untouched;
// the Clear* flags null out the nullable columns.
type NewsletterPatch struct {
    Title         *string
    Content       *string
    Status        *string
    ScheduledDate *time.Time
    TemplateID    *int
    ImageURL      *string

    ClearScheduledDate bool
    ClearTemplateID    bool
    ClearImageURL      bool
}

// Apply copies the set fields of p onto n.
func (p NewsletterPatch) Apply(n *Newsletter) {
    if p.Title != nil {
        n.Title = *p.Title
    }
    if p.Content != nil {
        n.Content = *p.Content
    }
    if p.Status != nil {
        n.Status = *p.Status
    }
    if p.ScheduledDate != nil {
        n.ScheduledDate = p.ScheduledDate
    } else if p.ClearScheduledDate {
        n.ScheduledDate = nil
    }
    if p.TemplateID != nil {
        n.TemplateID = p.TemplateID
    } else if p.ClearTemplateID {
        n.TemplateID = nil
    }
    if p.ImageURL != nil {
        n.ImageURL = p.ImageURL
    } else if p.ClearImageURL {
        n.ImageURL = nil
    }
}
