package repository

import (
	"context"
	"log/slog"

	"rupl/internal/models"
	"rupl/internal/observability"
	"rupl/internal/store"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*models.Post, bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	st  *store.Store
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(st *store.Store) PostRepository {
	return &postRepository{st: st, log: observability.NewRepoLogger("posts")}
}

// Create copies the author's current username and avatar onto post, assigns
// id and timestamp, and inserts it at the head of the collection.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.st.Update(func(tx *store.Tx) error {
		author, ok := tx.UserByID(post.UserID)
		if !ok {
			return models.NewNotFoundError("User", post.UserID)
		}
		post.ID = tx.NewID()
		post.CreatedAt = tx.Now()
		post.Username = author.Username
		post.UserProfilePic = author.ProfilePic
		post.Likes = []string{}
		post.Comments = []models.Comment{}
		tx.PrependPost(post.Clone())
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogWrite(ctx, "create", slog.String("post_id", post.ID), slog.Bool("public", post.IsPublic))
	return nil
}

func (r *postRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	var out models.Post
	err := r.st.View(func(tx *store.Tx) error {
		p, ok := tx.PostByID(id)
		if !ok {
			return models.NewNotFoundError("Post", id)
		}
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every post, most recent first.
func (r *postRepository) List(_ context.Context) ([]models.Post, error) {
	var out []models.Post
	err := r.st.View(func(tx *store.Tx) error {
		out = models.ClonePosts(tx.Posts())
		return nil
	})
	return out, err
}

// ToggleLike flips userID in the canonical post's like set and returns the
// refreshed post. Both the post and the user must exist.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	var (
		out   models.Post
		liked bool
	)
	err := r.st.Update(func(tx *store.Tx) error {
		p, ok := tx.PostByID(postID)
		if !ok {
			return models.NewNotFoundError("Post", postID)
		}
		if _, ok := tx.UserByID(userID); !ok {
			return models.NewNotFoundError("User", userID)
		}
		liked = p.ToggleLike(userID)
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	r.log.LogWrite(ctx, "toggle_like", slog.String("post_id", postID), slog.String("user_id", userID), slog.Bool("liked", liked))
	return &out, liked, nil
}
