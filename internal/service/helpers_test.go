package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"rupl/internal/models"
	"rupl/internal/repository"
	"rupl/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "expected NOT_FOUND, got %v", err)
}

func assertAuthError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized), "expected UNAUTHORIZED, got %v", err)
}

// testStack wires every repository to a single store with a frozen clock so
// the monotonic tick is the only source of ordering.
type testStack struct {
	st       *store.Store
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	sessions repository.SessionRepository
}

func newTestStack() *testStack {
	var n atomic.Int64
	st := store.New(
		store.WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }),
		store.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }),
	)
	return &testStack{
		st:       st,
		users:    repository.NewUserRepository(st),
		posts:    repository.NewPostRepository(st),
		comments: repository.NewCommentRepository(st),
		sessions: repository.NewSessionRepository(st),
	}
}

func (s *testStack) authService(v CredentialVerifier) *AuthService {
	return NewAuthService(s.users, s.sessions, v, AccountDefaults{
		Avatar: "https://picsum.photos/200/200",
		Bio:    "New to Rupl.",
	})
}

func (s *testStack) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:   username,
		Email:      username + "@rupl.com",
		ProfilePic: "pic-" + username,
		Followers:  []string{},
		Following:  []string{},
		Saved:      []string{},
	}
	require.NoError(t, s.users.Create(context.Background(), u, ""))
	return u
}

func (s *testStack) addPost(t *testing.T, userID string, public bool) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, ImageURL: "https://picsum.photos/600/600", IsPublic: public}
	require.NoError(t, s.posts.Create(context.Background(), p))
	return p
}
