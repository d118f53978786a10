package repository

import (
	"context"
	"log/slog"

	"rupl/internal/models"
	"rupl/internal/observability"
	"rupl/internal/store"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error)
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
}

type commentRepository struct {
	st  *store.Store
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(st *store.Store) CommentRepository {
	return &commentRepository{st: st, log: observability.NewRepoLogger("comments")}
}

// Create snapshots the author onto comment and appends it to the end of the
// post's comment list. It returns the refreshed post.
func (r *commentRepository) Create(ctx context.Context, postID string, comment *models.Comment) (*models.Post, error) {
	var out models.Post
	err := r.st.Update(func(tx *store.Tx) error {
		p, ok := tx.PostByID(postID)
		if !ok {
			return models.NewNotFoundError("Post", postID)
		}
		author, ok := tx.UserByID(comment.UserID)
		if !ok {
			return models.NewNotFoundError("User", comment.UserID)
		}
		comment.ID = tx.NewID()
		comment.CreatedAt = tx.Now()
		comment.Username = author.Username
		comment.UserProfilePic = author.ProfilePic
		p.Comments = append(p.Comments, *comment)
		out = p.Clone()
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, err
	}
	r.log.LogWrite(ctx, "create", slog.String("post_id", postID), slog.String("comment_id", comment.ID))
	return &out, nil
}

func (r *commentRepository) ListByPost(_ context.Context, postID string) ([]models.Comment, error) {
	var out []models.Comment
	err := r.st.View(func(tx *store.Tx) error {
		p, ok := tx.PostByID(postID)
		if !ok {
			return models.NewNotFoundError("Post", postID)
		}
		out = p.Clone().Comments
		return nil
	})
	return out, err
}
