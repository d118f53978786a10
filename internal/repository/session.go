package repository

import (
	"context"

	"rupl/internal/models"
	"rupl/internal/store"
)

// SessionRepository tracks which user is signed in on this installation.
type SessionRepository interface {
	Current(ctx context.Context) (*models.User, error)
	SignIn(ctx context.Context, userID string) error
	SignOut(ctx context.Context) error
}

type sessionRepository struct {
	st *store.Store
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(st *store.Store) SessionRepository {
	return &sessionRepository{st: st}
}

// Current returns the signed in user, or nil when nobody is.
func (r *sessionRepository) Current(_ context.Context) (*models.User, error) {
	var out *models.User
	err := r.st.View(func(tx *store.Tx) error {
		id := tx.CurrentUserID()
		if id == "" {
			return nil
		}
		u, ok := tx.UserByID(id)
		if !ok {
			return nil
		}
		c := u.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (r *sessionRepository) SignIn(_ context.Context, userID string) error {
	return r.st.Update(func(tx *store.Tx) error {
		if _, ok := tx.UserByID(userID); !ok {
			return models.NewNotFoundError("User", userID)
		}
		tx.SetCurrentUserID(userID)
		return nil
	})
}

func (r *sessionRepository) SignOut(_ context.Context) error {
	return r.st.Update(func(tx *store.Tx) error {
		tx.SetCurrentUserID("")
		return nil
	})
}
