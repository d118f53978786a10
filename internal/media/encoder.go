// Package media turns captured images into self-contained data URIs.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"rupl/internal/models"
	"rupl/internal/observability"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxEdge         = 1080
	DefaultMaxUploadSizeMB = 10
	WebPQuality            = 70

	dataURIPrefix = "data:image/webp;base64,"
)

// Encoder decodes an uploaded image, bounds its longest edge and re-encodes
// it as WebP.
type Encoder struct {
	maxEdge  int
	maxBytes int64
}

func NewEncoder(maxEdge, maxUploadSizeMB int) *Encoder {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	return &Encoder{maxEdge: maxEdge, maxBytes: int64(maxUploadSizeMB) * 1024 * 1024}
}

// Encode reads an image from r and returns it as a WebP data URI. Unreadable
// or undecodable input yields an IO_ERROR; oversize input a validation error.
func (e *Encoder) Encode(ctx context.Context, filename string, r io.Reader) (uri string, err error) {
	span, ctx := observability.NewSpan(ctx, "media.Encode", attribute.String("image.filename", filename))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.SetError(err)
		}
		observability.ImagesEncodedTotal.WithLabelValues(outcome).Inc()
		span.End()
	}()

	content, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return "", models.NewIOError("Could not read image", err)
	}
	if len(content) == 0 {
		return "", models.NewIOError("Image is empty", nil)
	}
	if int64(len(content)) > e.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", e.maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return "", models.NewIOError("Invalid image type", nil)
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewIOError("Could not decode image", err)
	}

	bounded := resizeToFit(decoded, e.maxEdge)
	encoded, err := encodeWebP(bounded, WebPQuality)
	if err != nil {
		return "", models.NewIOError("Could not encode image", err)
	}

	b := bounded.Bounds()
	span.AddAttributes(
		attribute.String("image.source_format", format),
		attribute.Int("image.bytes", len(encoded)),
	)
	observability.Logger.DebugContext(ctx, "image captured",
		slog.String("filename", filename),
		slog.String("source_format", format),
		slog.Int("width", b.Dx()),
		slog.Int("height", b.Dy()),
		slog.Int("bytes", len(encoded)),
	)
	return dataURIPrefix + base64.StdEncoding.EncodeToString(encoded), nil
}

// Resolve turns an image reference into something a post can carry. Remote
// http(s) URLs and data URIs pass through unchanged; anything else is read
// as a local file and encoded.
func (e *Encoder) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", models.NewValidationError("Image is required")
	}
	if IsRemote(ref) || strings.HasPrefix(ref, "data:image/") {
		return ref, nil
	}

	f, err := os.Open(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", models.NewIOError("Image file not found: "+ref, err)
		}
		return "", models.NewIOError("Could not open image", err)
	}
	defer f.Close()
	return e.Encode(ctx, ref, f)
}

// IsRemote reports whether ref is an http or https URL.
func IsRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func resizeToFit(src image.Image, maxEdge int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	scale := min(float64(maxEdge)/float64(w), float64(maxEdge)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
