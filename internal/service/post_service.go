package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rupl/internal/featureflags"
	"rupl/internal/feed"
	"rupl/internal/models"
	"rupl/internal/observability"
	"rupl/internal/repository"
)

// CaptionSuggester proposes a caption for an image reference.
type CaptionSuggester interface {
	Suggest(ctx context.Context, imageRef string) (string, error)
}

// PostService covers posting, liking, feeds and caption suggestions.
type PostService struct {
	postRepo       repository.PostRepository
	userRepo       repository.UserRepository
	captioner      CaptionSuggester
	flags          *featureflags.Manager
	captionTimeout time.Duration
}

type CreatePostInput struct {
	UserID   string
	ImageURL string `validate:"notblank"`
	Caption  string
	IsPublic bool
}

// PostServiceOption configures a PostService.
type PostServiceOption func(*PostService)

// WithCaptioner enables caption suggestions.
func WithCaptioner(c CaptionSuggester, timeout time.Duration) PostServiceOption {
	return func(s *PostService) {
		s.captioner = c
		s.captionTimeout = timeout
	}
}

// WithFeatureFlags gates optional behaviour behind flags.
func WithFeatureFlags(m *featureflags.Manager) PostServiceOption {
	return func(s *PostService) { s.flags = m }
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, opts ...PostServiceOption) *PostService {
	s := &PostService{postRepo: postRepo, userRepo: userRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePost publishes a new post at the head of every feed it belongs to.
// An empty caption is allowed; an empty image reference is not.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.TraceServiceCall(ctx, "PostService", "CreatePost")
	defer func() {
		observability.ObserveMutation("create_post", err)
		observability.EndSpan(span, err)
	}()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	post = &models.Post{
		UserID:   in.UserID,
		ImageURL: in.ImageURL,
		Caption:  in.Caption,
		IsPublic: in.IsPublic,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// ToggleLike adds userID to the post's likes if absent, removes it otherwise,
// and returns the refreshed post.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (post *models.Post, err error) {
	ctx, span := observability.TraceServiceCall(ctx, "PostService", "ToggleLike")
	defer func() {
		observability.ObserveMutation("toggle_like", err)
		observability.EndSpan(span, err)
	}()

	post, _, err = s.postRepo.ToggleLike(ctx, postID, userID)
	return post, err
}

// HomeFeed returns every post, public or private, filtered by query.
func (s *PostService) HomeFeed(ctx context.Context, query string) ([]models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.HomeFeed(posts, query), nil
}

// PublicFeed returns public posts only.
func (s *PostService) PublicFeed(ctx context.Context) ([]models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.PublicFeed(posts), nil
}

// Explore returns public posts filtered by query.
func (s *PostService) Explore(ctx context.Context, query string) ([]models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.Explore(posts, query), nil
}

func (s *PostService) ProfilePosts(ctx context.Context, userID string) ([]models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.ProfilePosts(posts, userID), nil
}

// SavedPosts returns the posts the user has bookmarked.
func (s *PostService) SavedPosts(ctx context.Context, userID string) ([]models.Post, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return feed.SavedPosts(posts, *user), nil
}

// SuggestCaption asks the caption service for text. Any failure, including
// a timeout or a disabled flag, yields an empty suggestion.
func (s *PostService) SuggestCaption(ctx context.Context, userID, imageRef string) string {
	if s.captioner == nil || strings.TrimSpace(imageRef) == "" {
		return ""
	}
	if !s.flags.EnabledOr(featureflags.CaptionSuggestions, userID, true) {
		observability.CaptionRequestsTotal.WithLabelValues("disabled").Inc()
		return ""
	}

	if s.captionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.captionTimeout)
		defer cancel()
	}

	caption, err := s.captioner.Suggest(ctx, imageRef)
	if err != nil {
		observability.CaptionRequestsTotal.WithLabelValues("error").Inc()
		observability.Logger.WarnContext(ctx, "caption suggestion failed", slog.String("error", err.Error()))
		return ""
	}
	observability.CaptionRequestsTotal.WithLabelValues("ok").Inc()
	return strings.TrimSpace(caption)
}
