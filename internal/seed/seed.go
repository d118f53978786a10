// Package seed provides the demo data set and a random data generator.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"rupl/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoYAML []byte

type fixture struct {
	Users []fixtureUser `yaml:"users"`
	Posts []fixturePost `yaml:"posts"`
}

type fixtureUser struct {
	ID         string   `yaml:"id"`
	Username   string   `yaml:"username"`
	Email      string   `yaml:"email"`
	ProfilePic string   `yaml:"profilePic"`
	Bio        string   `yaml:"bio"`
	Followers  []string `yaml:"followers"`
	Following  []string `yaml:"following"`
	Saved      []string `yaml:"saved"`
}

type fixturePost struct {
	ID       string           `yaml:"id"`
	UserID   string           `yaml:"userId"`
	ImageURL string           `yaml:"imageUrl"`
	Caption  string           `yaml:"caption"`
	Likes    []string         `yaml:"likes"`
	Age      time.Duration    `yaml:"age"`
	IsPublic bool             `yaml:"isPublic"`
	Comments []fixtureComment `yaml:"comments"`
}

type fixtureComment struct {
	ID             string        `yaml:"id"`
	UserID         string        `yaml:"userId"`
	UserProfilePic string        `yaml:"userProfilePic"`
	Text           string        `yaml:"text"`
	Age            time.Duration `yaml:"age"`
}

// Demo returns the three demo accounts and their posts, timestamped relative
// to now. Nobody is signed in.
func Demo(now time.Time) (*models.Snapshot, error) {
	var fx fixture
	if err := yaml.Unmarshal(demoYAML, &fx); err != nil {
		return nil, fmt.Errorf("parse demo fixtures: %w", err)
	}
	return fx.snapshot(now)
}

func (fx fixture) snapshot(now time.Time) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		Users: make([]models.User, 0, len(fx.Users)),
		Posts: make([]models.Post, 0, len(fx.Posts)),
	}
	byID := make(map[string]models.User, len(fx.Users))
	for _, u := range fx.Users {
		user := models.User{
			ID:         u.ID,
			Username:   u.Username,
			Email:      u.Email,
			ProfilePic: u.ProfilePic,
			Bio:        u.Bio,
			Followers:  ids(u.Followers),
			Following:  ids(u.Following),
			Saved:      ids(u.Saved),
		}
		byID[user.ID] = user
		snap.Users = append(snap.Users, user)
	}

	for _, p := range fx.Posts {
		author, ok := byID[p.UserID]
		if !ok {
			return nil, fmt.Errorf("post %s: unknown author %s", p.ID, p.UserID)
		}
		post := models.Post{
			ID:             p.ID,
			UserID:         author.ID,
			Username:       author.Username,
			UserProfilePic: author.ProfilePic,
			ImageURL:       p.ImageURL,
			Caption:        p.Caption,
			Likes:          ids(p.Likes),
			Comments:       []models.Comment{},
			CreatedAt:      now.Add(-p.Age).UnixMilli(),
			IsPublic:       p.IsPublic,
		}
		for _, c := range p.Comments {
			commenter, ok := byID[c.UserID]
			if !ok {
				return nil, fmt.Errorf("comment %s: unknown author %s", c.ID, c.UserID)
			}
			pic := c.UserProfilePic
			if pic == "" {
				pic = commenter.ProfilePic
			}
			post.Comments = append(post.Comments, models.Comment{
				ID:             c.ID,
				UserID:         commenter.ID,
				Username:       commenter.Username,
				UserProfilePic: pic,
				Text:           c.Text,
				CreatedAt:      now.Add(-c.Age).UnixMilli(),
			})
		}
		snap.Posts = append(snap.Posts, post)
	}
	return snap, nil
}

func ids(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
