package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"rupl/internal/models"
	"rupl/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *store.Store {
	var n atomic.Int64
	return store.New(
		store.WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }),
		store.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", n.Add(1)) }),
	)
}

func seedUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", ProfilePic: "pic-" + username}
	require.NoError(t, repo.Create(context.Background(), u, ""))
	return u
}

func TestPostRepository_CreateSnapshotsAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)
	posts := NewPostRepository(st)

	author := seedUser(t, users, "joe")

	first := &models.Post{UserID: author.ID, ImageURL: "img1", IsPublic: true}
	second := &models.Post{UserID: author.ID, ImageURL: "img2"}
	require.NoError(t, posts.Create(ctx, first))
	require.NoError(t, posts.Create(ctx, second))

	assert.Equal(t, "joe", first.Username)
	assert.Equal(t, "pic-joe", first.UserProfilePic)
	assert.Empty(t, first.Likes)
	assert.Empty(t, first.Comments)
	assert.Greater(t, second.CreatedAt, first.CreatedAt)

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	err = posts.Create(ctx, &models.Post{UserID: "ghost", ImageURL: "x"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_ToggleLike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)
	posts := NewPostRepository(st)

	author := seedUser(t, users, "anna")
	fan := seedUser(t, users, "joe")
	p := &models.Post{UserID: author.ID, ImageURL: "img"}
	require.NoError(t, posts.Create(ctx, p))

	updated, liked, err := posts.ToggleLike(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{fan.ID}, updated.Likes)

	stored, err := posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fan.ID}, stored.Likes)

	_, liked, err = posts.ToggleLike(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, _, err = posts.ToggleLike(ctx, "missing", fan.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_ToggleLikeUnknownUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)
	posts := NewPostRepository(st)

	author := seedUser(t, users, "anna")
	p := &models.Post{UserID: author.ID, ImageURL: "img"}
	require.NoError(t, posts.Create(ctx, p))

	_, _, err := posts.ToggleLike(ctx, p.ID, "ghost-user")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	stored, err := posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Likes)
}

func TestUserRepository_UpdateProfileFansOutToPostsOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)
	posts := NewPostRepository(st)
	comments := NewCommentRepository(st)

	joe := seedUser(t, users, "joe")
	anna := seedUser(t, users, "anna")

	joePost := &models.Post{UserID: joe.ID, ImageURL: "a"}
	annaPost := &models.Post{UserID: anna.ID, ImageURL: "b"}
	require.NoError(t, posts.Create(ctx, joePost))
	require.NoError(t, posts.Create(ctx, annaPost))
	_, err := comments.Create(ctx, annaPost.ID, &models.Comment{UserID: joe.ID, Text: "nice"})
	require.NoError(t, err)

	name := "joseph"
	pic := "new-pic"
	updated, fanned, err := users.UpdateProfile(ctx, joe.ID, models.ProfileUpdate{Username: &name, ProfilePic: &pic})
	require.NoError(t, err)
	assert.Equal(t, 1, fanned)
	assert.Equal(t, "joseph", updated.Username)
	assert.Equal(t, "joe@example.com", updated.Email)

	got, err := posts.GetByID(ctx, joePost.ID)
	require.NoError(t, err)
	assert.Equal(t, "joseph", got.Username)
	assert.Equal(t, "new-pic", got.UserProfilePic)

	got, err = posts.GetByID(ctx, annaPost.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Username)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "joe", got.Comments[0].Username)
	assert.Equal(t, "pic-joe", got.Comments[0].UserProfilePic)
}

func TestUserRepository_UpdateBioDoesNotTouchPosts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)
	posts := NewPostRepository(st)

	joe := seedUser(t, users, "joe")
	require.NoError(t, posts.Create(ctx, &models.Post{UserID: joe.ID, ImageURL: "a"}))

	bio := "hello"
	updated, fanned, err := users.UpdateProfile(ctx, joe.ID, models.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Zero(t, fanned)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "joe", updated.Username)
}

func TestUserRepository_ToggleSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)

	joe := seedUser(t, users, "joe")

	t.Run("permissive accepts unknown post ids", func(t *testing.T) {
		u, saved, err := users.ToggleSave(ctx, joe.ID, "nope", false)
		require.NoError(t, err)
		assert.True(t, saved)
		assert.Contains(t, u.Saved, "nope")

		u, saved, err = users.ToggleSave(ctx, joe.ID, "nope", false)
		require.NoError(t, err)
		assert.False(t, saved)
		assert.NotContains(t, u.Saved, "nope")
	})

	t.Run("strict rejects unknown post ids", func(t *testing.T) {
		_, _, err := users.ToggleSave(ctx, joe.ID, "nope", true)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := users.ToggleSave(ctx, "ghost", "p", false)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}

func TestUserRepository_GetByEmailFirstMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)

	first := &models.User{Username: "a", Email: "same@example.com"}
	second := &models.User{Username: "b", Email: "same@example.com"}
	require.NoError(t, users.Create(ctx, first, "hash-a"))
	require.NoError(t, users.Create(ctx, second, ""))

	got, err := users.GetByEmail(ctx, "same@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	cred, err := users.Credential(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-a", cred)

	cred, err = users.Credential(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, cred)

	_, err = users.GetByEmail(ctx, "none@example.com")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestCommentRepository_AppendsInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)
	posts := NewPostRepository(st)
	comments := NewCommentRepository(st)

	joe := seedUser(t, users, "joe")
	p := &models.Post{UserID: joe.ID, ImageURL: "img"}
	require.NoError(t, posts.Create(ctx, p))

	_, err := comments.Create(ctx, p.ID, &models.Comment{UserID: joe.ID, Text: "one"})
	require.NoError(t, err)
	updated, err := comments.Create(ctx, p.ID, &models.Comment{UserID: joe.ID, Text: "two"})
	require.NoError(t, err)

	require.Len(t, updated.Comments, 2)
	assert.Equal(t, "two", updated.Comments[1].Text)
	assert.Greater(t, updated.Comments[1].CreatedAt, updated.Comments[0].CreatedAt)

	list, err := comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = comments.ListByPost(ctx, "missing")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore()
	users := NewUserRepository(st)
	sessions := NewSessionRepository(st)

	cur, err := sessions.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	joe := seedUser(t, users, "joe")
	require.NoError(t, sessions.SignIn(ctx, joe.ID))
	cur, err = sessions.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, joe.ID, cur.ID)

	assert.Error(t, sessions.SignIn(ctx, "ghost"))

	require.NoError(t, sessions.SignOut(ctx))
	cur, err = sessions.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}
