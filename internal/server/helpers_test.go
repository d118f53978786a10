package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rupl/internal/bootstrap"
	"rupl/internal/config"
	"rupl/internal/persistence"
	"rupl/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// MockCaptioner is a mock of the caption suggester.
type MockCaptioner struct {
	mock.Mock
}

func (m *MockCaptioner) Suggest(ctx context.Context, imageRef string) (string, error) {
	args := m.Called(ctx, imageRef)
	return args.String(0), args.Error(1)
}

type testEnv struct {
	app    *fiber.App
	server *Server
	deps   *bootstrap.App
}

func newTestEnv(t *testing.T, captioner *MockCaptioner) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            testSecret,
		StorageDriver:        config.DriverMemory,
		AuthMode:             config.AuthModeDemo,
		SeedDemo:             true,
		DefaultAvatar:        "https://picsum.photos/200/200",
		DefaultBio:           "New to Rupl.",
		CaptionTimeout:       time.Second,
		ImageMaxEdge:         64,
		ImageMaxUploadSizeMB: 1,
	}

	var tick int64
	clock := func() time.Time {
		tick++
		return time.UnixMilli(1_700_000_000_000 + tick)
	}

	opts := []bootstrap.Option{
		bootstrap.WithKV(persistence.NewMemoryKV()),
		bootstrap.WithStoreOptions(store.WithClock(clock)),
	}
	if captioner != nil {
		opts = append(opts, bootstrap.WithCaptioner(captioner))
	}
	deps, err := bootstrap.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	srv := NewServer(deps)
	return &testEnv{app: srv.NewApp(), server: srv, deps: deps}
}

// token returns a bearer token for one of the demo accounts.
func (e *testEnv) token(t *testing.T, userID, username string) string {
	t.Helper()
	tok, err := e.server.Tokens().Issue(userID, username)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func multipartImage(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 128, 96))
	for y := 0; y < 96; y++ {
		for x := 0; x < 128; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func httptestJSON(method, path, raw string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}
