package models

import (
	"slices"
	"strings"
)

// Post is an image post. Username and UserProfilePic are a snapshot of the
// author, refreshed whenever the author updates their profile.
type Post struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	UserProfilePic string    `json:"userProfilePic"`
	ImageURL       string    `json:"imageUrl"`
	Caption        string    `json:"caption"`
	Likes          []string  `json:"likes"`
	Comments       []Comment `json:"comments"`
	CreatedAt      int64     `json:"createdAt"`
	IsPublic       bool      `json:"isPublic"`
}

// Comment belongs to exactly one post. Its author snapshot is taken once and
// never refreshed.
type Comment struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	UserProfilePic string `json:"userProfilePic"`
	Text           string `json:"text"`
	CreatedAt      int64  `json:"createdAt"`
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// ToggleLike adds userID to the like set if absent and removes it otherwise.
// It returns true when the post is liked after the call.
func (p *Post) ToggleLike(userID string) bool {
	var liked bool
	p.Likes, liked = toggleMember(p.Likes, userID)
	return liked
}

// Matches reports whether the lowercase query is contained in the caption or
// the author's username. An empty query matches everything.
func (p *Post) Matches(query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Caption), query) ||
		strings.Contains(strings.ToLower(p.Username), query)
}

// Clone returns a deep copy of the post including its comments.
func (p Post) Clone() Post {
	p.Likes = cloneIDs(p.Likes)
	if p.Comments == nil {
		p.Comments = []Comment{}
	} else {
		p.Comments = slices.Clone(p.Comments)
	}
	return p
}

// ClonePosts deep copies a slice of posts.
func ClonePosts(posts []Post) []Post {
	out := make([]Post, len(posts))
	for i := range posts {
		out[i] = posts[i].Clone()
	}
	return out
}

// CloneUsers deep copies a slice of users.
func CloneUsers(users []User) []User {
	out := make([]User, len(users))
	for i := range users {
		out[i] = users[i].Clone()
	}
	return out
}
