package service

import (
	"context"
	"strings"

	"rupl/internal/models"
	"rupl/internal/observability"
	"rupl/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
}

type CreateCommentInput struct {
	UserID string
	PostID string
	Text   string
}

func NewCommentService(commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// AddComment appends a comment to the end of the post's thread and returns
// the refreshed post.
func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (post *models.Post, err error) {
	ctx, span := observability.TraceServiceCall(ctx, "CommentService", "AddComment")
	defer func() {
		observability.ObserveMutation("add_comment", err)
		observability.EndSpan(span, err)
	}()

	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	return s.commentRepo.Create(ctx, in.PostID, &models.Comment{
		UserID: in.UserID,
		Text:   in.Text,
	})
}

func (s *CommentService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}
