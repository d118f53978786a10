package main

import (
	"context"
	"fmt"

	"rupl/internal/bootstrap"
	"rupl/internal/models"
	"rupl/internal/service"

	"github.com/spf13/cobra"
)

func (c *cli) feedCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:       "feed [home|public|explore|saved]",
		Short:     "List posts",
		Long:      "List posts most recent first. home shows everything, public and explore only public posts, saved the signed in user's bookmarks.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"home", "public", "explore", "saved"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "home"
			if len(args) == 1 {
				kind = args[0]
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				var (
					posts []models.Post
					err   error
				)
				switch kind {
				case "public":
					posts, err = app.Posts.PublicFeed(ctx)
				case "explore":
					posts, err = app.Posts.Explore(ctx, query)
				case "saved":
					user, uerr := signedIn(ctx, app)
					if uerr != nil {
						return uerr
					}
					posts, err = app.Posts.SavedPosts(ctx, user.ID)
				default:
					posts, err = app.Posts.HomeFeed(ctx, query)
				}
				if err != nil {
					return err
				}
				return c.printPosts(cmd.OutOrStdout(), posts)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by caption or username (home and explore)")
	return cmd
}

func (c *cli) profileCmd() *cobra.Command {
	var update struct {
		username, bio, pic string
	}
	cmd := &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show a profile, or edit your own with flags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				userID := ""
				if len(args) == 1 {
					userID = args[0]
				}

				edits := cmd.Flags().Changed("username") || cmd.Flags().Changed("bio") || cmd.Flags().Changed("pic")
				if userID == "" || edits {
					me, err := signedIn(ctx, app)
					if err != nil {
						return err
					}
					if userID != "" && userID != me.ID {
						return fmt.Errorf("only your own profile can be edited")
					}
					userID = me.ID
				}

				if edits {
					in := profileInput(cmd, userID, update.username, update.bio, update.pic)
					if _, err := app.Users.UpdateProfile(ctx, in); err != nil {
						return err
					}
				}

				profile, err := app.Users.Profile(ctx, userID)
				if err != nil {
					return err
				}
				return c.printProfile(cmd.OutOrStdout(), profile)
			})
		},
	}
	cmd.Flags().StringVar(&update.username, "username", "", "new username")
	cmd.Flags().StringVar(&update.bio, "bio", "", "new bio")
	cmd.Flags().StringVar(&update.pic, "pic", "", "new profile picture URL")
	return cmd
}

// profileInput sets only the fields whose flags were given, so an explicit
// empty --bio clears the bio while an omitted one leaves it alone.
func profileInput(cmd *cobra.Command, userID, username, bio, pic string) service.UpdateProfileInput {
	in := service.UpdateProfileInput{UserID: userID}
	if cmd.Flags().Changed("username") {
		in.Username = &username
	}
	if cmd.Flags().Changed("bio") {
		in.Bio = &bio
	}
	if cmd.Flags().Changed("pic") {
		in.ProfilePic = &pic
	}
	return in
}
