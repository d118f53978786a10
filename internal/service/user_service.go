package service

import (
	"context"
	"log/slog"

	"rupl/internal/feed"
	"rupl/internal/models"
	"rupl/internal/observability"
	"rupl/internal/repository"
)

// UserService covers profiles, bookmarks and sharing.
type UserService struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	strictSaves bool
}

// UpdateProfileInput carries a profile edit. Nil fields are left untouched.
type UpdateProfileInput struct {
	UserID     string
	Username   *string
	Bio        *string
	ProfilePic *string
}

// NewUserService returns a new UserService. With strictSaves a post must
// exist before it can be bookmarked.
func NewUserService(userRepo repository.UserRepository, postRepo repository.PostRepository, strictSaves bool) *UserService {
	return &UserService{userRepo: userRepo, postRepo: postRepo, strictSaves: strictSaves}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile merges the provided fields and refreshes the author snapshot
// on every post by this user in the same step.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (user *models.User, err error) {
	ctx, span := observability.TraceServiceCall(ctx, "UserService", "UpdateProfile")
	defer func() {
		observability.ObserveMutation("update_profile", err)
		observability.EndSpan(span, err)
	}()

	user, fanned, err := s.userRepo.UpdateProfile(ctx, in.UserID, models.ProfileUpdate{
		Username:   in.Username,
		Bio:        in.Bio,
		ProfilePic: in.ProfilePic,
	})
	if err != nil {
		return nil, err
	}
	observability.FanoutPostsTotal.Add(float64(fanned))
	return user, nil
}

// ToggleSave adds postID to the user's bookmarks if absent, removes it
// otherwise, and returns the updated user.
func (s *UserService) ToggleSave(ctx context.Context, userID, postID string) (user *models.User, err error) {
	ctx, span := observability.TraceServiceCall(ctx, "UserService", "ToggleSave")
	defer func() {
		observability.ObserveMutation("toggle_save", err)
		observability.EndSpan(span, err)
	}()

	if postID == "" {
		return nil, models.NewValidationError("Post ID is required")
	}
	user, _, err = s.userRepo.ToggleSave(ctx, userID, postID, s.strictSaves)
	return user, err
}

// ShareToUser acknowledges sharing a post with another user. Nothing is
// delivered and nothing changes.
func (s *UserService) ShareToUser(ctx context.Context, postID, targetUserID string) (*models.ShareReceipt, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	observability.Logger.InfoContext(ctx, "post shared",
		slog.String("post_id", post.ID),
		slog.String("target_user_id", target.ID),
	)
	return &models.ShareReceipt{
		PostID:         post.ID,
		TargetUserID:   target.ID,
		TargetUsername: target.Username,
	}, nil
}

// SearchAccounts finds other users by username or bio.
func (s *UserService) SearchAccounts(ctx context.Context, selfID, query string) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.Accounts(users, query, selfID), nil
}

// ShareTargets lists who selfID can share with.
func (s *UserService) ShareTargets(ctx context.Context, selfID, query string) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.ShareTargets(users, selfID, query), nil
}

// Stories lists the users shown in the stories rail.
func (s *UserService) Stories(ctx context.Context, selfID string) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.Stories(users, selfID), nil
}

// Profile returns a user with their counters and full post grid.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		User:  *user,
		Stats: feed.Stats(posts, *user),
		Posts: feed.ProfilePosts(posts, user.ID),
	}, nil
}
