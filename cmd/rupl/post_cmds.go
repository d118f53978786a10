package main

import (
	"context"
	"fmt"
	"strings"

	"rupl/internal/bootstrap"
	"rupl/internal/service"

	"github.com/spf13/cobra"
)

func (c *cli) postCmd() *cobra.Command {
	var (
		caption string
		private bool
		suggest bool
	)
	cmd := &cobra.Command{
		Use:   "post <image>",
		Short: "Publish a post from an image file or URL",
		Long: `Publish a post as the signed in user. Local image files are resized and
re-encoded as WebP; http(s) URLs are stored as given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				user, err := signedIn(ctx, app)
				if err != nil {
					return err
				}
				ref, err := app.Encoder.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				if suggest && strings.TrimSpace(caption) == "" {
					caption = app.Posts.SuggestCaption(ctx, user.ID, ref)
				}
				post, err := app.Posts.CreatePost(ctx, service.CreatePostInput{
					UserID:   user.ID,
					ImageURL: ref,
					Caption:  caption,
					IsPublic: !private,
				})
				if err != nil {
					return err
				}
				return c.printPost(cmd.OutOrStdout(), post)
			})
		},
	}
	cmd.Flags().StringVarP(&caption, "caption", "c", "", "post caption")
	cmd.Flags().BoolVar(&private, "private", false, "hide the post from the public feed")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "ask for a caption when none is given")
	return cmd
}

func (c *cli) likeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post, or unlike it if already liked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				user, err := signedIn(ctx, app)
				if err != nil {
					return err
				}
				post, err := app.Posts.ToggleLike(ctx, args[0], user.ID)
				if err != nil {
					return err
				}
				if c.jsonOut {
					return c.printPost(cmd.OutOrStdout(), post)
				}
				verb := "Unliked"
				if post.LikedBy(user.ID) {
					verb = "Liked"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s post %s (%d likes)\n", verb, post.ID, len(post.Likes))
				return err
			})
		},
	}
}

func (c *cli) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <post-id>",
		Short: "Bookmark a post, or remove the bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				user, err := signedIn(ctx, app)
				if err != nil {
					return err
				}
				user, err = app.Users.ToggleSave(ctx, user.ID, args[0])
				if err != nil {
					return err
				}
				if c.jsonOut {
					return c.printUser(cmd.OutOrStdout(), user)
				}
				verb := "Removed"
				if user.HasSaved(args[0]) {
					verb = "Saved"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s post %s (%d saved)\n", verb, args[0], len(user.Saved))
				return err
			})
		},
	}
}

func (c *cli) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>...",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				user, err := signedIn(ctx, app)
				if err != nil {
					return err
				}
				post, err := app.Comments.AddComment(ctx, service.CreateCommentInput{
					UserID: user.ID,
					PostID: args[0],
					Text:   strings.Join(args[1:], " "),
				})
				if err != nil {
					return err
				}
				if c.jsonOut {
					return c.printPost(cmd.OutOrStdout(), post)
				}
				return printComments(cmd.OutOrStdout(), post.Comments)
			})
		},
	}
}

func (c *cli) shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <post-id> <user-id>",
		Short: "Share a post with another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := signedIn(ctx, app); err != nil {
					return err
				}
				receipt, err := app.Users.ShareToUser(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if c.jsonOut {
					return writeJSON(cmd.OutOrStdout(), receipt)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Shared post %s with @%s\n", receipt.PostID, receipt.TargetUsername)
				return err
			})
		},
	}
}

func (c *cli) captionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "caption <image>",
		Short: "Suggest a caption for an image file or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				var userID string
				if user, err := app.Auth.CurrentUser(ctx); err == nil && user != nil {
					userID = user.ID
				}
				ref, err := app.Encoder.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				caption := app.Posts.SuggestCaption(ctx, userID, ref)
				if c.jsonOut {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"caption": caption})
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), caption)
				return err
			})
		},
	}
}
