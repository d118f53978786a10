package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rupl/internal/featureflags"
	"rupl/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_JSON(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "2", "artistic_anna")

	tests := []struct {
		name           string
		body           map[string]any
		expectedStatus int
	}{
		{name: "Missing image", body: map[string]any{"caption": "hi"}, expectedStatus: http.StatusBadRequest},
		{name: "Local path", body: map[string]any{"imageUrl": "/etc/passwd"}, expectedStatus: http.StatusBadRequest},
		{name: "Empty caption", body: map[string]any{"imageUrl": "https://picsum.photos/600"}, expectedStatus: http.StatusCreated},
		{name: "Private", body: map[string]any{"imageUrl": "https://picsum.photos/601", "caption": "just us", "isPublic": false}, expectedStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, http.MethodPost, "/api/posts", token, tt.body)
			assert.Equal(t, tt.expectedStatus, status, string(raw))
			if status != http.StatusCreated {
				return
			}
			post := decode[models.Post](t, raw)
			assert.Equal(t, "2", post.UserID)
			assert.Equal(t, "artistic_anna", post.Username)
			assert.Empty(t, post.Likes)
			assert.Empty(t, post.Comments)
			if v, ok := tt.body["isPublic"]; ok {
				assert.Equal(t, v, post.IsPublic)
			} else {
				assert.True(t, post.IsPublic)
			}

			// New posts lead the home feed.
			_, raw = env.do(t, http.MethodGet, "/api/feeds/home", token, nil)
			feed := decode[[]models.Post](t, raw)
			require.NotEmpty(t, feed)
			assert.Equal(t, post.ID, feed[0].ID)
		})
	}
}

func TestCreatePost_Multipart(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "3", "lens_master")

	body, contentType := multipartImage(t, map[string]string{"caption": "fresh upload", "isPublic": "false"})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)

	status, raw := env.send(t, req, token)
	require.Equal(t, http.StatusCreated, status, string(raw))
	post := decode[models.Post](t, raw)
	assert.True(t, strings.HasPrefix(post.ImageURL, "data:image/webp;base64,"))
	assert.Equal(t, "fresh upload", post.Caption)
	assert.False(t, post.IsPublic)
}

func TestCreatePost_MultipartDisabledByFlag(t *testing.T) {
	env := newTestEnv(t, nil)
	env.deps.Flags = featureflags.NewManager("image_uploads=off")
	token := env.token(t, "3", "lens_master")

	body, contentType := multipartImage(t, map[string]string{"caption": "blocked"})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)

	status, raw := env.send(t, req, token)
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	// URL posts are unaffected.
	status, _ = env.do(t, http.MethodPost, "/api/posts", token, map[string]any{"imageUrl": "https://picsum.photos/400"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestCreatePost_MultipartRejectsNonImage(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "3", "lens_master")

	var buf strings.Builder
	buf.WriteString("--b\r\nContent-Disposition: form-data; name=\"image\"; filename=\"notes.txt\"\r\n")
	buf.WriteString("Content-Type: text/plain\r\n\r\nnot an image\r\n--b--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")

	status, raw := env.send(t, req, token)
	assert.Equal(t, http.StatusUnprocessableEntity, status, string(raw))
	assert.Equal(t, "IO_ERROR", decode[map[string]any](t, raw)["code"])
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "1", "traveler_joe")

	type likeResponse struct {
		Post  models.Post `json:"post"`
		Liked bool        `json:"liked"`
	}

	status, raw := env.do(t, http.MethodPost, "/api/posts/101/like", token, nil)
	require.Equal(t, http.StatusOK, status)
	first := decode[likeResponse](t, raw)
	assert.True(t, first.Liked)
	assert.Equal(t, []string{"2", "3", "1"}, first.Post.Likes)

	status, raw = env.do(t, http.MethodPost, "/api/posts/101/like", token, nil)
	require.Equal(t, http.StatusOK, status)
	second := decode[likeResponse](t, raw)
	assert.False(t, second.Liked)
	assert.Equal(t, []string{"2", "3"}, second.Post.Likes)

	// Every read sees the same record.
	_, raw = env.do(t, http.MethodGet, "/api/posts/101", "", nil)
	assert.Equal(t, []string{"2", "3"}, decode[models.Post](t, raw).Likes)

	status, _ = env.do(t, http.MethodPost, "/api/posts/999/like", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestToggleLike_TokenForUnknownUser(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "ghost", "ghost")

	status, raw := env.do(t, http.MethodPost, "/api/posts/101/like", token, nil)
	assert.Equal(t, http.StatusNotFound, status, string(raw))

	_, raw = env.do(t, http.MethodGet, "/api/posts/101", "", nil)
	assert.Equal(t, []string{"2", "3"}, decode[models.Post](t, raw).Likes)
}

func TestToggleSave(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "1", "traveler_joe")

	type saveResponse struct {
		User  models.User `json:"user"`
		Saved bool        `json:"saved"`
	}

	status, raw := env.do(t, http.MethodPost, "/api/posts/101/save", token, nil)
	require.Equal(t, http.StatusOK, status)
	resp := decode[saveResponse](t, raw)
	assert.True(t, resp.Saved)
	assert.Equal(t, []string{"102", "101"}, resp.User.Saved)

	_, raw = env.do(t, http.MethodGet, "/api/feeds/saved", token, nil)
	assert.Len(t, decode[[]models.Post](t, raw), 2)

	_, raw = env.do(t, http.MethodPost, "/api/posts/101/save", token, nil)
	resp = decode[saveResponse](t, raw)
	assert.False(t, resp.Saved)
	assert.Equal(t, []string{"102"}, resp.User.Saved)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "3", "lens_master")

	status, raw := env.do(t, http.MethodPost, "/api/posts/101/comments", token, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]any](t, raw)["code"])

	status, raw = env.do(t, http.MethodPost, "/api/posts/101/comments", token, map[string]string{"text": "Wow"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	post := decode[models.Post](t, raw)
	require.Len(t, post.Comments, 2)
	last := post.Comments[1]
	assert.Equal(t, "Wow", last.Text)
	assert.Equal(t, "lens_master", last.Username)
	assert.Greater(t, last.CreatedAt, post.Comments[0].CreatedAt)

	status, raw = env.do(t, http.MethodGet, "/api/posts/101/comments", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Comment](t, raw), 2)

	status, _ = env.do(t, http.MethodPost, "/api/posts/999/comments", token, map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSharePost(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "1", "traveler_joe")

	status, raw := env.do(t, http.MethodPost, "/api/posts/102/share", token, map[string]string{"userId": "3"})
	require.Equal(t, http.StatusOK, status)
	receipt := decode[models.ShareReceipt](t, raw)
	assert.Equal(t, "lens_master", receipt.TargetUsername)

	status, _ = env.do(t, http.MethodPost, "/api/posts/102/share", token, map[string]string{"userId": "42"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/api/posts/102/share", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSuggestCaption(t *testing.T) {
	captioner := new(MockCaptioner)
	env := newTestEnv(t, captioner)
	token := env.token(t, "1", "traveler_joe")

	captioner.On("Suggest", mock.Anything, "https://picsum.photos/600").
		Return("  Golden hour #sunset  ", nil).Once()
	captioner.On("Suggest", mock.Anything, "https://picsum.photos/broken").
		Return("", errors.New("upstream unavailable")).Once()

	status, raw := env.do(t, http.MethodPost, "/api/captions/suggest", token,
		map[string]string{"imageUrl": "https://picsum.photos/600"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Golden hour #sunset", decode[map[string]string](t, raw)["caption"])

	status, raw = env.do(t, http.MethodPost, "/api/captions/suggest", token,
		map[string]string{"imageUrl": "https://picsum.photos/broken"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", decode[map[string]string](t, raw)["caption"])

	status, _ = env.do(t, http.MethodPost, "/api/captions/suggest", token,
		map[string]string{"imageUrl": "relative/path.png"})
	assert.Equal(t, http.StatusBadRequest, status)

	captioner.AssertExpectations(t)
}
