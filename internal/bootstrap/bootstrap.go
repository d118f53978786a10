// Package bootstrap assembles the application from configuration: the storage
// backend, the in-memory store restored from it, and the services on top.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rupl/internal/cache"
	"rupl/internal/caption"
	"rupl/internal/config"
	"rupl/internal/database"
	"rupl/internal/featureflags"
	"rupl/internal/kvstore"
	"rupl/internal/media"
	"rupl/internal/observability"
	"rupl/internal/persistence"
	"rupl/internal/repository"
	"rupl/internal/seed"
	"rupl/internal/service"
	"rupl/internal/store"

	"github.com/redis/go-redis/v9"
)

// App holds every long lived dependency. Close releases them.
type App struct {
	Config       *config.Config
	Store        *store.Store
	Storage      *persistence.Storage
	Checkpointer *persistence.Checkpointer
	// Redis is set only with the redis storage driver; the HTTP layer
	// reuses it for shared rate limits.
	Redis *redis.Client
	// Seeded reports that nothing was saved and the demo data was loaded.
	Seeded bool

	Flags    *featureflags.Manager
	Encoder  *media.Encoder
	Auth     *service.AuthService
	Users    *service.UserService
	Posts    *service.PostService
	Comments *service.CommentService
}

// Option adjusts how New assembles the App.
type Option func(*options)

type options struct {
	kv        persistence.KV
	storeOpts []store.Option
	captioner service.CaptionSuggester
}

// WithKV skips backend selection and uses kv directly.
func WithKV(kv persistence.KV) Option {
	return func(o *options) { o.kv = kv }
}

// WithStoreOptions passes options to the store, such as a fixed clock.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithCaptioner replaces the OpenAI caption client.
func WithCaptioner(c service.CaptionSuggester) Option {
	return func(o *options) { o.captioner = c }
}

// New opens the configured backend, restores the last saved state (or the
// demo data when nothing was saved and SEED_DEMO is on) and wires services.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg}

	kv := o.kv
	backend := cfg.StorageDriver
	if kv == nil {
		var err error
		kv, app.Redis, err = OpenKV(ctx, cfg)
		if err != nil {
			return nil, err
		}
	} else if backend == "" {
		backend = config.DriverMemory
	}
	app.Storage = persistence.NewStorage(kv, backend)

	app.Store = store.New(o.storeOpts...)
	app.Checkpointer = persistence.NewCheckpointer(app.Store, app.Storage, cfg.CheckpointInterval)

	snap, err := app.Storage.Load(ctx)
	if err != nil {
		_ = app.Storage.Close()
		return nil, fmt.Errorf("load saved state: %w", err)
	}
	switch {
	case snap != nil:
		app.Store.Restore(snap)
		observability.Logger.InfoContext(ctx, "restored saved state",
			slog.String("backend", backend),
			slog.Int("users", len(snap.Users)),
			slog.Int("posts", len(snap.Posts)),
		)
	case cfg.SeedDemo:
		demo, err := seed.Demo(time.Now())
		if err != nil {
			_ = app.Storage.Close()
			return nil, err
		}
		app.Store.Restore(demo)
		app.Checkpointer.MarkDirty()
		app.Seeded = true
		observability.Logger.InfoContext(ctx, "seeded demo data", slog.String("backend", backend))
	}

	app.wireServices(o.captioner)
	return app, nil
}

func (a *App) wireServices(captioner service.CaptionSuggester) {
	cfg := a.Config

	userRepo := repository.NewUserRepository(a.Store)
	postRepo := repository.NewPostRepository(a.Store)
	commentRepo := repository.NewCommentRepository(a.Store)
	sessionRepo := repository.NewSessionRepository(a.Store)

	a.Flags = featureflags.NewManager(cfg.FeatureFlags)
	a.Encoder = media.NewEncoder(cfg.ImageMaxEdge, cfg.ImageMaxUploadSizeMB)

	if captioner == nil {
		captioner = caption.New(caption.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}

	a.Auth = service.NewAuthService(userRepo, sessionRepo,
		service.NewCredentialVerifier(cfg.AuthMode),
		service.AccountDefaults{Avatar: cfg.DefaultAvatar, Bio: cfg.DefaultBio},
	)
	a.Users = service.NewUserService(userRepo, postRepo, cfg.StrictSaves)
	a.Posts = service.NewPostService(postRepo, userRepo,
		service.WithCaptioner(captioner, cfg.CaptionTimeout),
		service.WithFeatureFlags(a.Flags),
	)
	a.Comments = service.NewCommentService(commentRepo)
}

// OpenKV opens the backend named by STORAGE_DRIVER. The redis client is
// returned as well when that driver is selected.
func OpenKV(ctx context.Context, cfg *config.Config) (persistence.KV, *redis.Client, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return persistence.NewMemoryKV(), nil, nil
	case config.DriverRedis:
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return cache.NewRedisKV(client), client, nil
	case config.DriverSQLite, config.DriverPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		return database.NewSQLKV(db), nil, nil
	case config.DriverBadger:
		kv, err := kvstore.Open(kvstore.Config{Path: cfg.BadgerPath, Logger: observability.Logger})
		if err != nil {
			return nil, nil, err
		}
		return kv, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Ready checks the storage backend by reading the users key.
func (a *App) Ready(ctx context.Context) error {
	return a.Storage.Ping(ctx)
}

// Close writes any unsaved state and releases the backend.
func (a *App) Close(ctx context.Context) error {
	flushErr := a.Checkpointer.Flush(ctx)
	if flushErr != nil {
		observability.Logger.ErrorContext(ctx, "final save failed", slog.String("error", flushErr.Error()))
	}
	return errors.Join(flushErr, a.Storage.Close())
}
