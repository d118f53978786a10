package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rupl/internal/bootstrap"
	"rupl/internal/models"
	"rupl/internal/seed"

	"github.com/spf13/cobra"
)

func (c *cli) seedCmd() *cobra.Command {
	var (
		random bool
		force  bool
		opts   = seed.DefaultOptions
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo data set, or generate a random one",
		Long: `Replace the stored graph with the three demo accounts and their posts, or
with a generated data set when --random is given. Existing data is only
replaced with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				existing, err := app.Users.ListUsers(ctx)
				if err != nil {
					return err
				}
				if len(existing) > 0 && !app.Seeded && !force {
					return errors.New("store already has data, use --force to replace it")
				}

				var snap *models.Snapshot
				if random {
					snap = seed.Generate(time.Now(), opts)
				} else if snap, err = seed.Demo(time.Now()); err != nil {
					return err
				}

				app.Store.Restore(snap)
				app.Checkpointer.MarkDirty()
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users and %d posts into %s storage.\n",
					len(snap.Users), len(snap.Posts), app.Storage.Backend())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&random, "random", false, "generate random data instead of the demo set")
	cmd.Flags().BoolVar(&force, "force", false, "replace existing data")
	cmd.Flags().IntVar(&opts.Users, "users", opts.Users, "generated users")
	cmd.Flags().IntVar(&opts.PostsPerUser, "posts", opts.PostsPerUser, "generated posts per user")
	cmd.Flags().IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "generated comments per post")
	cmd.Flags().Float64Var(&opts.PublicRatio, "public-ratio", opts.PublicRatio, "share of generated posts that are public")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed, 0 for time based")
	return cmd
}
