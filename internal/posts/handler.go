package posts

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campusfeed/backend/internal/auth"
	"github.com/campusfeed/backend/internal/models"
	"github.com/campusfeed/backend/internal/respond"
)

// PostStore defines the interface for post persistence. Ids that are not
// valid post ids are reported as models.ErrNotFound.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ToggleLike(ctx context.Context, id, userID string) (*models.Post, error)
	AddComment(ctx context.Context, id string, c models.Comment) error
	Delete(ctx context.Context, id string) error
}

// UserLookup resolves user references for responses.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Handler holds post and comment HTTP handlers.
type Handler struct {
	posts PostStore
	users UserLookup
}

func NewHandler(posts PostStore, users UserLookup) *Handler {
	return &Handler{posts: posts, users: users}
}

// List returns every post, newest first, with references resolved.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	views, err := resolvePosts(r.Context(), h.users, posts)
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, views)
}

// Create stores a new post authored by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req models.CreatePostRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := respond.Validate(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Content is required")
		return
	}

	post := &models.Post{
		Content:  req.Content,
		Author:   id.ID,
		Likes:    []string{},
		Comments: []models.Comment{},
	}
	if err := h.posts.Insert(r.Context(), post); err != nil {
		respond.ServerError(w, r, err)
		return
	}

	users := map[string]*models.User{}
	author, err := h.users.GetUserByID(r.Context(), id.ID)
	switch {
	case err == nil:
		users[author.ID] = author
	case !errors.Is(err, models.ErrNotFound):
		respond.ServerError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, postView(*post, users))
}

// ToggleLike adds the caller to the post's likes, or removes them if present.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	post, err := h.posts.ToggleLike(r.Context(), chi.URLParam(r, "id"), id.ID)
	if errors.Is(err, models.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

// Delete removes a post. Only its author may delete it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	postID := chi.URLParam(r, "id")

	post, err := h.posts.GetByID(r.Context(), postID)
	if errors.Is(err, models.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	if post.Author != id.ID {
		respond.Message(w, http.StatusForbidden, "Not authorized")
		return
	}

	err = h.posts.Delete(r.Context(), postID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		respond.ServerError(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Post deleted")
}

// ListComments returns a post's comments with their users resolved.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}

	views, err := resolvePosts(r.Context(), h.users, []models.Post{*post})
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, views[0].Comments)
}

// AddComment appends a comment by the caller and returns it with the
// caller's current name.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req models.AddCommentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := respond.Validate(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Comment cannot be empty")
		return
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		User:      id.ID,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}
	err := h.posts.AddComment(r.Context(), chi.URLParam(r, "id"), comment)
	if errors.Is(err, models.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		respond.ServerError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, commentView(comment, user))
}
