package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"rupl/internal/bootstrap"
	"rupl/internal/config"
	"rupl/internal/models"
	"rupl/internal/observability"

	"github.com/spf13/cobra"
)

// cli carries state shared by every subcommand of one invocation.
type cli struct {
	cfg      *config.Config
	driver   string
	jsonOut  bool
	verbose  bool
	bootOpts []bootstrap.Option
}

func newRootCmd(opts ...bootstrap.Option) *cobra.Command {
	c := &cli{bootOpts: opts}

	root := &cobra.Command{
		Use:   "rupl",
		Short: "Photo sharing social graph: API server and command line client",
		Long: `rupl keeps users, posts, likes, saves and comments in one store and
persists it to the configured backend (memory, redis, sqlite, postgres or badger).

Run "rupl serve" for the HTTP API, or use the other commands to act as the
signed in user directly against the store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.driver, "driver", "", "override STORAGE_DRIVER (memory|redis|sqlite|postgres|badger)")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print records as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at info level")

	root.AddCommand(
		c.serveCmd(),
		c.seedCmd(),
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.postCmd(),
		c.likeCmd(),
		c.saveCmd(),
		c.commentCmd(),
		c.feedCmd(),
		c.profileCmd(),
		c.shareCmd(),
		c.captionCmd(),
	)
	return root
}

func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.StorageDriver = c.driver
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg

	// The server logs at info; one-shot commands keep stderr quiet.
	level := slog.LevelWarn
	if c.verbose || cmd.Name() == "serve" {
		level = slog.LevelInfo
	}
	observability.SetLogger(observability.NewLeveledLogger(cfg.Env, os.Stderr, level))
	return nil
}

// withApp assembles the application, runs fn and saves whatever fn changed.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := bootstrap.New(ctx, c.cfg, c.bootOpts...)
	if err != nil {
		return err
	}
	runErr := fn(ctx, app)
	return errors.Join(runErr, app.Close(context.WithoutCancel(ctx)))
}

var errNotSignedIn = errors.New("not signed in, run \"rupl login\" first")

// signedIn returns the session user or errNotSignedIn.
func signedIn(ctx context.Context, app *bootstrap.App) (*models.User, error) {
	user, err := app.Auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errNotSignedIn
	}
	return user, nil
}
