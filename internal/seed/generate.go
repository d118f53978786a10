package seed

import (
	"fmt"
	"strconv"
	"time"

	"rupl/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Options sizes a generated data set.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	// PublicRatio is the share of posts marked public, between 0 and 1.
	PublicRatio float64
	// Seed makes the output reproducible. Zero picks a time based seed.
	Seed int64
}

// DefaultOptions is a small mesh suitable for local demos.
var DefaultOptions = Options{Users: 8, PostsPerUser: 3, CommentsPerPost: 2, PublicRatio: 0.8}

// Generate builds a random but internally consistent graph. Posts are
// ordered most recent first and every reference points at a generated id.
func Generate(now time.Time, opts Options) *models.Snapshot {
	seed := opts.Seed
	if seed == 0 {
		seed = now.UnixNano()
	}
	f := gofakeit.New(seed)

	snap := &models.Snapshot{
		Users: make([]models.User, 0, opts.Users),
		Posts: []models.Post{},
	}
	for i := 0; i < opts.Users; i++ {
		snap.Users = append(snap.Users, models.User{
			ID:         strconv.Itoa(i + 1),
			Username:   f.Username() + fmt.Sprintf("%d", f.Number(100, 999)),
			Email:      f.Email(),
			ProfilePic: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.UUID()),
			Bio:        f.Sentence(8),
			Followers:  []string{},
			Following:  []string{},
			Saved:      []string{},
		})
	}
	if len(snap.Users) == 0 {
		return snap
	}

	// Follow edges are kept symmetric with the followers lists.
	for i := range snap.Users {
		for j := range snap.Users {
			if i == j || f.Float64() >= 0.4 {
				continue
			}
			snap.Users[i].Following = append(snap.Users[i].Following, snap.Users[j].ID)
			snap.Users[j].Followers = append(snap.Users[j].Followers, snap.Users[i].ID)
		}
	}

	total := opts.Users * opts.PostsPerUser
	tick := now.Add(-time.Duration(total*(opts.CommentsPerPost+1)) * time.Minute).UnixMilli()
	posts := make([]models.Post, 0, total)
	for n := 0; n < total; n++ {
		author := snap.Users[n%len(snap.Users)]
		tick += int64(time.Minute / time.Millisecond)
		post := models.Post{
			ID:             strconv.Itoa(1000 + n),
			UserID:         author.ID,
			Username:       author.Username,
			UserProfilePic: author.ProfilePic,
			ImageURL:       fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.UUID()),
			Caption:        f.Sentence(6) + " #" + f.Word(),
			Likes:          []string{},
			Comments:       []models.Comment{},
			CreatedAt:      tick,
			IsPublic:       f.Float64() < opts.PublicRatio,
		}
		for _, u := range snap.Users {
			if f.Bool() {
				post.Likes = append(post.Likes, u.ID)
			}
		}
		for c := 0; c < opts.CommentsPerPost; c++ {
			commenter := snap.Users[f.Number(0, len(snap.Users)-1)]
			tick += int64(time.Minute / time.Millisecond)
			post.Comments = append(post.Comments, models.Comment{
				ID:             fmt.Sprintf("c%d-%d", n, c),
				UserID:         commenter.ID,
				Username:       commenter.Username,
				UserProfilePic: commenter.ProfilePic,
				Text:           f.Sentence(5),
				CreatedAt:      tick,
			})
		}
		posts = append(posts, post)
	}

	// Newest first.
	for i := len(posts) - 1; i >= 0; i-- {
		snap.Posts = append(snap.Posts, posts[i])
	}
	for i := range snap.Users {
		if len(snap.Posts) > 0 && f.Bool() {
			snap.Users[i].Saved = append(snap.Users[i].Saved, snap.Posts[f.Number(0, len(snap.Posts)-1)].ID)
		}
	}
	return snap
}
