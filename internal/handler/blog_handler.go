package handler

import (
	"encoding/json"
	"net/http"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Blog — rutas públicas y de administración
// ============================================================

// GET /v1/blog-posts — public listing, published only.
func listPostsHandler(svc *service.BlogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/blog-posts")
		defer span.End()

		posts, err := svc.ListPublished(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
	}
}

// GET /v1/blog-posts/{slug} — public article view, bumps the counter.
func getPostHandler(svc *service.BlogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/blog-posts/{slug}")
		defer span.End()

		slug := chi.URLParam(r, "slug")
		span.SetAttributes(attribute.String("slug", slug))

		post, err := svc.GetPublishedPost(ctx, slug)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

// GET /v1/admin/blog-posts — every status.
func adminListPostsHandler(svc *service.BlogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/blog-posts")
		defer span.End()

		posts, err := svc.ListAll(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
	}
}

// POST /v1/admin/blog-posts — manual draft creation.
func createPostHandler(svc *service.BlogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/blog-posts")
		defer span.End()

		var post domain.BlogPost
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		created, err := svc.CreatePost(ctx, &post)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// POST /v1/admin/blog/generate — LLM draft, stored as draft for review.
func generatePostHandler(svc *service.BlogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/blog/generate")
		defer span.End()

		var req domain.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		span.SetAttributes(attribute.String("topic", req.Topic))

		post, err := svc.GeneratePost(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, post)
	}
}

// PATCH /v1/admin/blog-posts/{postId}/status — publish/archive/redraft.
func updatePostStatusHandler(svc *service.BlogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/blog-posts/{postId}/status")
		defer span.End()

		postID := chi.URLParam(r, "postId")
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if err := svc.SetStatus(ctx, postID, req.Status); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true, "status": req.Status})
	}
}

// DELETE /v1/admin/blog-posts/{postId}
func deletePostHandler(svc *service.BlogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/admin/blog-posts/{postId}")
		defer span.End()

		postID := chi.URLParam(r, "postId")
		if err := svc.DeletePost(ctx, postID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	}
}
