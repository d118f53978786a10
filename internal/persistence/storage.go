package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"rupl/internal/models"
	"rupl/internal/observability"
)

// Keys under which the graph is stored. Each value is JSON.
const (
	KeyUsers       = "rupl_users_v1"
	KeyPosts       = "rupl_posts_v1"
	KeyCurrentUser = "rupl_current_user_v1"
	KeyCredentials = "rupl_credentials_v1"
)

// Storage maps snapshots onto a KV backend. Saves are last-write-wins.
type Storage struct {
	kv      KV
	backend string
	metrics *observability.StorageMetrics
}

// NewStorage wraps kv. backend labels metrics and spans.
func NewStorage(kv KV, backend string) *Storage {
	return &Storage{
		kv:      kv,
		backend: backend,
		metrics: observability.NewStorageMetrics(backend),
	}
}

func (s *Storage) Backend() string { return s.backend }

// Load reads the persisted graph. It returns nil, nil when neither users nor
// posts were ever saved. Keys that are missing on their own load as empty.
func (s *Storage) Load(ctx context.Context) (snap *models.Snapshot, err error) {
	ctx, span := observability.TraceStorageOperation(ctx, s.backend, "load")
	defer func() { observability.EndSpan(span, err) }()
	defer s.metrics.TrackOperation("load", &err)()

	snap = &models.Snapshot{Users: []models.User{}, Posts: []models.Post{}}

	usersFound, err := s.getJSON(ctx, KeyUsers, &snap.Users)
	if err != nil {
		return nil, err
	}
	postsFound, err := s.getJSON(ctx, KeyPosts, &snap.Posts)
	if err != nil {
		return nil, err
	}
	if !usersFound && !postsFound {
		return nil, nil
	}

	var current models.User
	found, err := s.getJSON(ctx, KeyCurrentUser, &current)
	if err != nil {
		return nil, err
	}
	if found {
		snap.CurrentUserID = current.ID
	}
	if _, err := s.getJSON(ctx, KeyCredentials, &snap.Credentials); err != nil {
		return nil, err
	}

	observability.Logger.DebugContext(ctx, "snapshot loaded",
		slog.String("backend", s.backend),
		slog.Int("users", len(snap.Users)),
		slog.Int("posts", len(snap.Posts)),
	)
	return snap, nil
}

// Save writes every key of snap in one batch. The current user entry is
// removed when nobody is signed in.
func (s *Storage) Save(ctx context.Context, snap *models.Snapshot) (err error) {
	ctx, span := observability.TraceStorageOperation(ctx, s.backend, "save")
	defer func() { observability.EndSpan(span, err) }()
	defer s.metrics.TrackOperation("save", &err)()

	if snap == nil {
		snap = &models.Snapshot{}
	}

	b := NewBatch()
	if err := setJSON(b, KeyUsers, nonNil(snap.Users)); err != nil {
		return err
	}
	if err := setJSON(b, KeyPosts, nonNil(snap.Posts)); err != nil {
		return err
	}
	if len(snap.Credentials) > 0 {
		if err := setJSON(b, KeyCredentials, snap.Credentials); err != nil {
			return err
		}
	} else {
		b.Delete(KeyCredentials)
	}

	if current := findUser(snap.Users, snap.CurrentUserID); current != nil {
		if err := setJSON(b, KeyCurrentUser, current); err != nil {
			return err
		}
	} else {
		b.Delete(KeyCurrentUser)
	}

	if err := s.kv.Write(ctx, b); err != nil {
		return fmt.Errorf("write snapshot to %s: %w", s.backend, err)
	}
	return nil
}

// Ping reads the users key without decoding it. A missing key is healthy.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.kv.Get(ctx, KeyUsers)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("ping %s: %w", s.backend, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.kv.Close()
}

func (s *Storage) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s from %s: %w", key, s.backend, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(b *Batch, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	b.Set(key, raw)
	return nil
}

func findUser(users []models.User, id string) *models.User {
	if id == "" {
		return nil
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
