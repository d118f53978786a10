// Package feed derives read-only views from the post and user collections.
// Every function is pure: inputs are never modified and relative order is
// always preserved.
package feed

import (
	"slices"
	"strings"

	"rupl/internal/models"
)

// HomeFeed returns the posts whose caption or author username contains query,
// ignoring case. An empty query returns every post. Private posts are included.
func HomeFeed(posts []models.Post, query string) []models.Post {
	q := normalize(query)
	return filter(posts, func(p *models.Post) bool { return p.Matches(q) })
}

// PublicFeed returns only public posts.
func PublicFeed(posts []models.Post) []models.Post {
	return filter(posts, func(p *models.Post) bool { return p.IsPublic })
}

// Explore returns public posts matching query the same way HomeFeed does.
func Explore(posts []models.Post, query string) []models.Post {
	q := normalize(query)
	return filter(posts, func(p *models.Post) bool { return p.IsPublic && p.Matches(q) })
}

// ProfilePosts returns every post authored by userID, public or not.
func ProfilePosts(posts []models.Post, userID string) []models.Post {
	return filter(posts, func(p *models.Post) bool { return p.UserID == userID })
}

// SavedPosts returns the posts bookmarked by user in feed order. Saved ids
// with no matching post are skipped.
func SavedPosts(posts []models.Post, user models.User) []models.Post {
	return filter(posts, func(p *models.Post) bool { return slices.Contains(user.Saved, p.ID) })
}

// Accounts returns users other than excludeID whose username or bio contains
// query, ignoring case.
func Accounts(users []models.User, query, excludeID string) []models.User {
	q := normalize(query)
	out := []models.User{}
	for _, u := range users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Bio), q) {
			out = append(out, u)
		}
	}
	return out
}

// ShareTargets lists the users selfID can share a post with, narrowed by a
// username substring.
func ShareTargets(users []models.User, selfID, query string) []models.User {
	q := normalize(query)
	out := []models.User{}
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	return out
}

// Stories returns every user except selfID.
func Stories(users []models.User, selfID string) []models.User {
	return ShareTargets(users, selfID, "")
}

// Stats computes the profile header counters for user.
func Stats(posts []models.Post, user models.User) models.ProfileStats {
	n := 0
	for i := range posts {
		if posts[i].UserID == user.ID {
			n++
		}
	}
	return models.ProfileStats{
		Posts:     n,
		Followers: len(user.Followers),
		Following: len(user.Following),
	}
}

func normalize(q string) string {
	return strings.ToLower(q)
}

func filter(posts []models.Post, keep func(p *models.Post) bool) []models.Post {
	out := []models.Post{}
	for i := range posts {
		if keep(&posts[i]) {
			out = append(out, posts[i])
		}
	}
	return out
}
