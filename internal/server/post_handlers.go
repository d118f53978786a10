package server

import (
	"strconv"

	"rupl/internal/featureflags"
	"rupl/internal/models"
	"rupl/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts. It accepts either JSON with an
// imageUrl or a multipart form with an "image" file that is re-encoded as a
// WebP data URI.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var (
		imageURL string
		caption  string
		isPublic = true
	)

	if isMultipart(c) {
		if !s.app.Flags.EnabledOr(featureflags.ImageUploads, currentUserID(c), true) {
			return badRequest(c, "Image uploads are disabled")
		}
		uri, err := s.encodeUpload(c)
		if err != nil {
			return respondError(c, err)
		}
		imageURL = uri
		caption = c.FormValue("caption")
		if raw := c.FormValue("isPublic"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return badRequest(c, "isPublic must be true or false")
			}
			isPublic = v
		}
	} else {
		var req struct {
			ImageURL string `json:"imageUrl"`
			Caption  string `json:"caption"`
			IsPublic *bool  `json:"isPublic"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if req.ImageURL != "" && !remoteOrInline(req.ImageURL) {
			return badRequest(c, "imageUrl must be an http(s) URL or an image data URI")
		}
		imageURL = req.ImageURL
		caption = req.Caption
		if req.IsPublic != nil {
			isPublic = *req.IsPublic
		}
	}

	post, err := s.app.Posts.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:   currentUserID(c),
		ImageURL: imageURL,
		Caption:  caption,
		IsPublic: isPublic,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.app.Posts.GetPost(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	post, err := s.app.Posts.ToggleLike(c.UserContext(), c.Params("id"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"post":  post,
		"liked": post.LikedBy(currentUserID(c)),
	})
}

// ToggleSave handles POST /api/posts/:id/save
func (s *Server) ToggleSave(c *fiber.Ctx) error {
	postID := c.Params("id")
	user, err := s.app.Users.ToggleSave(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":  user,
		"saved": user.HasSaved(postID),
	})
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.app.Comments.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := s.app.Comments.AddComment(c.UserContext(), service.CreateCommentInput{
		UserID: currentUserID(c),
		PostID: c.Params("id"),
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// SharePost handles POST /api/posts/:id/share. Nothing is delivered; the
// response only acknowledges the target.
func (s *Server) SharePost(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.UserID == "" {
		return badRequest(c, "userId is required")
	}

	receipt, err := s.app.Users.ShareToUser(c.UserContext(), c.Params("id"), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipt)
}

// SuggestCaption handles POST /api/captions/suggest. The image is given as
// JSON imageUrl or as a multipart "image" file. The caption is empty when no
// suggestion could be made.
func (s *Server) SuggestCaption(c *fiber.Ctx) error {
	var ref string
	if isMultipart(c) {
		if !s.app.Flags.EnabledOr(featureflags.ImageUploads, currentUserID(c), true) {
			return badRequest(c, "Image uploads are disabled")
		}
		uri, err := s.encodeUpload(c)
		if err != nil {
			return respondError(c, err)
		}
		ref = uri
	} else {
		var req struct {
			ImageURL string `json:"imageUrl"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if !remoteOrInline(req.ImageURL) {
			return badRequest(c, "imageUrl must be an http(s) URL or an image data URI")
		}
		ref = req.ImageURL
	}

	return c.JSON(fiber.Map{
		"caption": s.app.Posts.SuggestCaption(c.UserContext(), currentUserID(c), ref),
	})
}

func (s *Server) encodeUpload(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", models.NewValidationError("No file uploaded")
	}
	src, err := file.Open()
	if err != nil {
		return "", models.NewIOError("Unable to read uploaded file", err)
	}
	defer func() { _ = src.Close() }()

	return s.app.Encoder.Encode(c.UserContext(), file.Filename, src)
}
