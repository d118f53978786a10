package main

import (
	"context"
	"fmt"

	"rupl/internal/bootstrap"
	"rupl/internal/service"

	"github.com/spf13/cobra"
)

func (c *cli) registerCmd() *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in as it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				user, err := app.Auth.Register(ctx, in)
				if err != nil {
					return err
				}
				return c.printUser(cmd.OutOrStdout(), user)
			})
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.Bio, "bio", "", "profile bio")
	cmd.Flags().StringVar(&in.ProfilePic, "pic", "", "profile picture URL")
	cmd.Flags().BoolVar(&in.PrivacyAgreed, "agree", false, "accept the privacy policy")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var in service.LoginInput
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				user, err := app.Auth.Login(ctx, in)
				if err != nil {
					return err
				}
				return c.printUser(cmd.OutOrStdout(), user)
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.Auth.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				user, err := signedIn(ctx, app)
				if err != nil {
					return err
				}
				return c.printUser(cmd.OutOrStdout(), user)
			})
		},
	}
}
