package server

import (
	"github.com/gofiber/fiber/v2"
)

// HomeFeed handles GET /api/feeds/home?q=...
func (s *Server) HomeFeed(c *fiber.Ctx) error {
	posts, err := s.app.Posts.HomeFeed(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// PublicFeed handles GET /api/feeds/public
func (s *Server) PublicFeed(c *fiber.Ctx) error {
	posts, err := s.app.Posts.PublicFeed(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// ExploreFeed handles GET /api/feeds/explore?q=...
func (s *Server) ExploreFeed(c *fiber.Ctx) error {
	posts, err := s.app.Posts.Explore(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// SavedFeed handles GET /api/feeds/saved
func (s *Server) SavedFeed(c *fiber.Ctx) error {
	posts, err := s.app.Posts.SavedPosts(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}
