package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colespa/colespa-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const postsCollection = "blog_posts"

// --- Blog post store (implements port.BlogStore) ---

func (c *Client) CreatePost(ctx context.Context, post *domain.BlogPost) error {
	ctx, span := tracer.Start(ctx, "Firestore.CreatePost")
	defer span.End()
	span.SetAttributes(attribute.String("post.id", post.ID))

	if err := post.Validate(); err != nil {
		return err
	}
	if err := c.createDoc(ctx, postsCollection, post.ID, post); err != nil {
		return &domain.ErrExternalService{Service: "firestore/blog", Err: err}
	}
	return nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetPost")
	defer span.End()
	span.SetAttributes(attribute.String("post.id", id))

	var post domain.BlogPost
	found, err := c.getDoc(ctx, postsCollection, id, &post)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/blog", Err: err}
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "post", ID: id}
	}
	return &post, nil
}

// GetPostBySlug resolves the public URL slug to a post. Slugs are unique by
// construction, so the first match wins.
func (c *Client) GetPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetPostBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("post.slug", slug))

	var post *domain.BlogPost
	err := c.runQuery(ctx, postsCollection, []queryFilter{
		{Field: "slug", Op: "EQUAL", Value: slug},
	}, "", "", 1, func(fields map[string]json.RawMessage) error {
		var p domain.BlogPost
		if err := decodeStruct(fields, &p); err != nil {
			return fmt.Errorf("decode post: %w", err)
		}
		post = &p
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/blog", Err: err}
	}
	if post == nil {
		return nil, &domain.ErrNotFound{Resource: "post", ID: slug}
	}
	return post, nil
}

// ListPosts returns posts in the given status, newest first. An empty status
// returns everything (admin listing).
func (c *Client) ListPosts(ctx context.Context, status string) ([]domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "Firestore.ListPosts")
	defer span.End()

	var filters []queryFilter
	if status != "" {
		if !domain.ValidPostStatus(status) {
			return nil, &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
		}
		filters = append(filters, queryFilter{Field: "status", Op: "EQUAL", Value: status})
	}

	var posts []domain.BlogPost
	err := c.runQuery(ctx, postsCollection, filters, "created_at", "DESCENDING", 0, func(fields map[string]json.RawMessage) error {
		var p domain.BlogPost
		if err := decodeStruct(fields, &p); err != nil {
			return fmt.Errorf("decode post: %w", err)
		}
		posts = append(posts, p)
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/blog", Err: err}
	}
	return posts, nil
}

func (c *Client) UpdatePostStatus(ctx context.Context, id, status string) error {
	ctx, span := tracer.Start(ctx, "Firestore.UpdatePostStatus")
	defer span.End()
	span.SetAttributes(attribute.String("post.id", id))

	if !domain.ValidPostStatus(status) {
		return &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	err := c.patchDoc(ctx, postsCollection, id, map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "firestore/blog", Err: err}
	}
	return nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Firestore.DeletePost")
	defer span.End()
	span.SetAttributes(attribute.String("post.id", id))

	if err := c.deleteDoc(ctx, postsCollection, id); err != nil {
		return &domain.ErrExternalService{Service: "firestore/blog", Err: err}
	}
	return nil
}

// IncrementViews bumps the view counter by one. Same read-modify-write
// tradeoff as the ad counters.
func (c *Client) IncrementViews(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Firestore.IncrementViews")
	defer span.End()
	span.SetAttributes(attribute.String("post.id", id))

	post, err := c.GetPost(ctx, id)
	if err != nil {
		return err
	}
	err = c.patchDoc(ctx, postsCollection, id, map[string]any{
		"views": post.Views + 1,
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "firestore/blog", Err: err}
	}
	return nil
}
