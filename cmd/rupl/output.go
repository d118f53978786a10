package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"rupl/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printUser(w io.Writer, u *models.User) error {
	if c.jsonOut {
		return writeJSON(w, u)
	}
	_, err := fmt.Fprintf(w, "@%s (id %s, %s)\n%s\nfollowers %d  following %d  saved %d\n",
		u.Username, u.ID, u.Email, u.Bio, len(u.Followers), len(u.Following), len(u.Saved))
	return err
}

func (c *cli) printPost(w io.Writer, p *models.Post) error {
	if c.jsonOut {
		return writeJSON(w, p)
	}
	return c.printPosts(w, []models.Post{*p})
}

func (c *cli) printPosts(w io.Writer, posts []models.Post) error {
	if c.jsonOut {
		return writeJSON(w, posts)
	}
	if len(posts) == 0 {
		_, err := fmt.Fprintln(w, "No posts.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tLIKES\tCOMMENTS\tVISIBILITY\tCREATED\tCAPTION")
	for _, p := range posts {
		visibility := "public"
		if !p.IsPublic {
			visibility = "private"
		}
		fmt.Fprintf(tw, "%s\t@%s\t%d\t%d\t%s\t%s\t%s\n",
			p.ID, p.Username, len(p.Likes), len(p.Comments), visibility,
			formatMillis(p.CreatedAt), truncate(p.Caption, 60))
	}
	return tw.Flush()
}

func printComments(w io.Writer, comments []models.Comment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cm := range comments {
		fmt.Fprintf(tw, "@%s\t%s\t%s\n", cm.Username, formatMillis(cm.CreatedAt), cm.Text)
	}
	return tw.Flush()
}

func (c *cli) printProfile(w io.Writer, p *models.Profile) error {
	if c.jsonOut {
		return writeJSON(w, p)
	}
	fmt.Fprintf(w, "@%s (id %s)\n", p.User.Username, p.User.ID)
	if p.User.Bio != "" {
		fmt.Fprintln(w, p.User.Bio)
	}
	fmt.Fprintf(w, "%d posts  %d followers  %d following\n\n", p.Stats.Posts, p.Stats.Followers, p.Stats.Following)
	return c.printPosts(w, p.Posts)
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
