// Package repository provides data access over the in-memory social graph.
package repository

import (
	"context"
	"log/slog"

	"rupl/internal/models"
	"rupl/internal/observability"
	"rupl/internal/store"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User, credential string) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, int, error)
	ToggleSave(ctx context.Context, userID, postID string, requirePost bool) (*models.User, bool, error)
	Credential(ctx context.Context, id string) (string, error)
	SetCredential(ctx context.Context, id, credential string) error
}

// userRepository implements UserRepository
type userRepository struct {
	st  *store.Store
	log *observability.RepoLogger
}

// NewUserRepository creates a new user repository
func NewUserRepository(st *store.Store) UserRepository {
	return &userRepository{st: st, log: observability.NewRepoLogger("users")}
}

// Create assigns the user an id and appends it. The credential may be empty.
func (r *userRepository) Create(ctx context.Context, user *models.User, credential string) error {
	err := r.st.Update(func(tx *store.Tx) error {
		user.ID = tx.NewID()
		tx.AppendUser(user.Clone())
		if credential != "" {
			tx.SetCredential(user.ID, credential)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogWrite(ctx, "create", slog.String("user_id", user.ID))
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	var out models.User
	err := r.st.View(func(tx *store.Tx) error {
		u, ok := tx.UserByID(id)
		if !ok {
			return models.NewNotFoundError("User", id)
		}
		out = u.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByEmail returns the first user registered with exactly this email.
func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	var out models.User
	err := r.st.View(func(tx *store.Tx) error {
		u, ok := tx.UserByEmail(email)
		if !ok {
			return &models.AppError{
				Code:    models.CodeNotFound,
				Message: "No account found for " + email,
			}
		}
		out = u.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) List(_ context.Context) ([]models.User, error) {
	var out []models.User
	err := r.st.View(func(tx *store.Tx) error {
		out = models.CloneUsers(tx.Users())
		return nil
	})
	return out, err
}

// UpdateProfile merges update into the user and, in the same unit, copies the
// new username and avatar onto every post the user authored. Comment author
// snapshots are left as they were. It returns the number of posts rewritten.
func (r *userRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, int, error) {
	var (
		out    models.User
		fanned int
	)
	err := r.st.Update(func(tx *store.Tx) error {
		u, ok := tx.UserByID(id)
		if !ok {
			return models.NewNotFoundError("User", id)
		}
		update.Apply(u)
		if update.TouchesAuthor() {
			tx.PostsBy(id, func(p *models.Post) {
				p.Username = u.Username
				p.UserProfilePic = u.ProfilePic
				fanned++
			})
		}
		out = u.Clone()
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "update_profile")
		return nil, 0, err
	}
	r.log.LogWrite(ctx, "update_profile", slog.String("user_id", id), slog.Int("posts_refreshed", fanned))
	return &out, fanned, nil
}

// ToggleSave flips postID in the user's saved set. With requirePost the post
// must exist before it can be added; removal is always allowed.
func (r *userRepository) ToggleSave(ctx context.Context, userID, postID string, requirePost bool) (*models.User, bool, error) {
	var (
		out   models.User
		saved bool
	)
	err := r.st.Update(func(tx *store.Tx) error {
		u, ok := tx.UserByID(userID)
		if !ok {
			return models.NewNotFoundError("User", userID)
		}
		if requirePost && !u.HasSaved(postID) {
			if _, ok := tx.PostByID(postID); !ok {
				return models.NewNotFoundError("Post", postID)
			}
		}
		saved = u.ToggleSave(postID)
		out = u.Clone()
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	r.log.LogWrite(ctx, "toggle_save", slog.String("user_id", userID), slog.String("post_id", postID), slog.Bool("saved", saved))
	return &out, saved, nil
}

// Credential returns the stored credential, or "" when none was recorded.
func (r *userRepository) Credential(_ context.Context, id string) (string, error) {
	var out string
	err := r.st.View(func(tx *store.Tx) error {
		if _, ok := tx.UserByID(id); !ok {
			return models.NewNotFoundError("User", id)
		}
		out, _ = tx.Credential(id)
		return nil
	})
	return out, err
}

func (r *userRepository) SetCredential(_ context.Context, id, credential string) error {
	return r.st.Update(func(tx *store.Tx) error {
		if _, ok := tx.UserByID(id); !ok {
			return models.NewNotFoundError("User", id)
		}
		tx.SetCredential(id, credential)
		return nil
	})
}
