package server

import (
	"rupl/internal/models"
	"rupl/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.app.Users.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMe handles PUT /api/users/me. Omitted fields are left unchanged.
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req models.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := s.app.Users.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		Username:   req.Username,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// SearchUsers handles GET /api/users?q=...
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.app.Users.SearchAccounts(c.UserContext(), currentUserID(c), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ShareTargets handles GET /api/users/share-targets?q=...
func (s *Server) ShareTargets(c *fiber.Ctx) error {
	users, err := s.app.Users.ShareTargets(c.UserContext(), currentUserID(c), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// Stories handles GET /api/users/stories
func (s *Server) Stories(c *fiber.Ctx) error {
	users, err := s.app.Users.Stories(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetProfile handles GET /api/users/:id
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.app.Users.Profile(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.app.Posts.ProfilePosts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetFeatureFlags handles GET /api/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.app.Flags.Snapshot(currentUserID(c)))
}
