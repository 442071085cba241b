package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var blogTracer = otel.Tracer("service/blog")

// BlogService manages blog posts and the LLM-assisted drafting flow.
type BlogService struct {
	store     port.BlogStore
	generator port.ContentGenerator
	logger    *zap.Logger
}

func NewBlogService(store port.BlogStore, generator port.ContentGenerator, logger *zap.Logger) *BlogService {
	return &BlogService{store: store, generator: generator, logger: logger}
}

// diacriticFold maps the accented letters that appear in Spanish titles to
// their slug form.
var diacriticFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'ä': 'a', 'â': 'a',
	'é': 'e', 'è': 'e', 'ë': 'e', 'ê': 'e',
	'í': 'i', 'ì': 'i', 'ï': 'i', 'î': 'i',
	'ó': 'o', 'ò': 'o', 'ö': 'o', 'ô': 'o',
	'ú': 'u', 'ù': 'u', 'ü': 'u', 'û': 'u',
	'ñ': 'n', 'ç': 'c',
}

// Slugify produces a URL slug from a title: lowercase, accents folded,
// anything not alphanumeric collapsed into single hyphens, no leading or
// trailing hyphen. Deterministic, same title always gives the same slug.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		if folded, ok := diacriticFold[r]; ok {
			r = folded
		}
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CreatePost stores a post draft written (or edited) by an admin. A missing
// slug is derived from the title.
func (s *BlogService) CreatePost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error) {
	ctx, span := blogTracer.Start(ctx, "BlogService.CreatePost")
	defer span.End()

	now := time.Now().UTC()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Status == "" {
		post.Status = domain.PostStatusDraft
	}
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.logger.Info("post created", zap.String("post_id", post.ID), zap.String("slug", post.Slug))
	return post, nil
}

// GeneratePost asks the content generator for a structured draft and stores
// it in draft status for admin review. Nothing generated goes live without a
// human publishing it.
func (s *BlogService) GeneratePost(ctx context.Context, req *domain.GenerateRequest) (*domain.BlogPost, error) {
	ctx, span := blogTracer.Start(ctx, "BlogService.GeneratePost")
	defer span.End()
	span.SetAttributes(attribute.String("topic", req.Topic))

	if s.generator == nil {
		return nil, &domain.ErrExternalService{Service: "perplexity", Err: errors.New("generador de contenido no configurado")}
	}
	generated, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	slug := generated.Slug
	if slug == "" {
		slug = Slugify(generated.Title)
	}
	post := &domain.BlogPost{
		Title:    generated.Title,
		Slug:     slug,
		Excerpt:  generated.Excerpt,
		Content:  generated.Content,
		Category: req.Category,
		ImageURL: generated.Image,
		Status:   domain.PostStatusDraft,
		Author:   "colespa",
	}
	return s.CreatePost(ctx, post)
}

// GetPublishedPost resolves a public slug and counts the view. A post that
// exists but is not published is reported as not found to the public surface.
func (s *BlogService) GetPublishedPost(ctx context.Context, slug string) (*domain.BlogPost, error) {
	ctx, span := blogTracer.Start(ctx, "BlogService.GetPublishedPost")
	defer span.End()
	span.SetAttributes(attribute.String("slug", slug))

	post, err := s.store.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.Status != domain.PostStatusPublished {
		return nil, &domain.ErrNotFound{Resource: "post", ID: slug}
	}
	if err := s.store.IncrementViews(ctx, post.ID); err != nil {
		// A lost view count never blocks reading the article.
		s.logger.Warn("view count not recorded", zap.String("post_id", post.ID), zap.Error(err))
	}
	return post, nil
}

// ListPublished returns the public article listing, newest first.
func (s *BlogService) ListPublished(ctx context.Context) ([]domain.BlogPost, error) {
	ctx, span := blogTracer.Start(ctx, "BlogService.ListPublished")
	defer span.End()

	return s.store.ListPosts(ctx, domain.PostStatusPublished)
}

// ListAll returns every post regardless of status. Admin listing.
func (s *BlogService) ListAll(ctx context.Context) ([]domain.BlogPost, error) {
	ctx, span := blogTracer.Start(ctx, "BlogService.ListAll")
	defer span.End()

	return s.store.ListPosts(ctx, "")
}

// SetStatus publishes, archives or re-drafts a post.
func (s *BlogService) SetStatus(ctx context.Context, id, status string) error {
	ctx, span := blogTracer.Start(ctx, "BlogService.SetStatus")
	defer span.End()
	span.SetAttributes(attribute.String("post.id", id), attribute.String("status", status))

	if !domain.ValidPostStatus(status) {
		return &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	return s.store.UpdatePostStatus(ctx, id, status)
}

// DeletePost removes a post permanently.
func (s *BlogService) DeletePost(ctx context.Context, id string) error {
	ctx, span := blogTracer.Start(ctx, "BlogService.DeletePost")
	defer span.End()

	return s.store.DeletePost(ctx, id)
}
