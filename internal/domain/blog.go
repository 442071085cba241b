package domain

import "time"

// Blog post status values.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusPending   = "pending"
	PostStatusArchived  = "archived"
)

// BlogPost is an article on the public site. Only status=published posts are
// visible outside the admin surface.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Content   string    `json:"content"` // HTML body
	Category  string    `json:"category,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Status    string    `json:"status"`
	Author    string    `json:"author,omitempty"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidPostStatus reports whether s is a known blog post status.
func ValidPostStatus(s string) bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusPending, PostStatusArchived:
		return true
	}
	return false
}

// Validate checks the post against its schema before any write.
func (p *BlogPost) Validate() error {
	if p.ID == "" {
		return &ErrValidation{Field: "id", Message: "id es obligatorio"}
	}
	if p.Title == "" {
		return &ErrValidation{Field: "title", Message: "el título es obligatorio"}
	}
	if p.Slug == "" {
		return &ErrValidation{Field: "slug", Message: "el slug es obligatorio"}
	}
	if !ValidPostStatus(p.Status) {
		return &ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	return nil
}

// GeneratedPost is the JSON-structured draft returned by the content
// generation helper.
type GeneratedPost struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// GenerateRequest parameterizes the content generation prompt.
type GenerateRequest struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Tone     string `json:"tone,omitempty"`
	Length   int    `json:"length,omitempty"` // target words
}
