// Command gamesync is a small terminal front end for the sync layer:
// catalog search plus favorites and review management. Configuration
// comes from GAMESYNC_* environment variables; see gamesync.Config.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	gamesync "github.com/gameinfo/gamesync"
)

var userID string

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if os.Getenv("GAMESYNC_DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	root := &cobra.Command{
		Use:           "gamesync",
		Short:         "Search the game catalog and manage favorites and reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&userID, "user", os.Getenv("GAMESYNC_USER"), "acting user id")

	root.AddCommand(searchCmd(), favCmd(), reviewCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newClient(ctx context.Context) (*gamesync.Client, error) {
	return gamesync.NewFromEnv(ctx, gamesync.WithIdentity(gamesync.StaticIdentity(userID)))
}

func searchCmd() *cobra.Command {
	var genre, ordering string
	var pages int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog, paging through results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(ctx) }()

			session := c.StartSearch(args[0], gamesync.Filters{Genre: genre, Ordering: ordering})
			for p := 0; p < pages; p++ {
				page, err := c.LoadNextPage(ctx, session)
				if err != nil {
					return err
				}
				for _, r := range c.Enrich(ctx, page.Items) {
					if r.Err != nil {
						fmt.Fprintf(os.Stderr, "skipped: %v\n", r.Err)
						continue
					}
					printGame(r.Game)
				}
				if !page.HasMore {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&genre, "genre", "", "genre filter")
	cmd.Flags().StringVar(&ordering, "ordering", "", "sort order, e.g. -rating")
	cmd.Flags().IntVar(&pages, "pages", 1, "pages to fetch")
	return cmd
}

func favCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "fav", Short: "Manage favorites"}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <gameId>",
		Short: "Toggle a game in the favorites set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(ctx) }()

			fav, err := c.ToggleFavorite(ctx, args[0])
			if err != nil {
				return err
			}
			if fav {
				fmt.Printf("%s added to favorites\n", args[0])
			} else {
				fmt.Printf("%s removed from favorites\n", args[0])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorited game ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(ctx) }()

			ids, err := c.Favorites(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	})
	return cmd
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "review", Short: "Manage reviews"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <gameId>",
		Short: "List a game's reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(ctx) }()

			reviews, err := c.Reviews(ctx, args[0])
			if err != nil {
				return err
			}
			for _, r := range reviews {
				fmt.Printf("%s  %s  %s\n  %s\n", r.ReviewID, r.AuthorID, r.CreatedAt.Format("2006-01-02"), r.Text)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <gameId> <text...>",
		Short: "Add a review",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(ctx) }()

			r, err := c.AddReview(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Printf("added review %s\n", r.ReviewID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit <gameId> <reviewId> <text...>",
		Short: "Replace the text of your review",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(ctx) }()

			_, err = c.EditReview(ctx, args[0], args[1], strings.Join(args[2:], " "))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <gameId> <reviewId>",
		Short: "Remove a review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(ctx) }()

			return c.RemoveReview(ctx, args[0], args[1])
		},
	})
	return cmd
}

func printGame(g *gamesync.Game) {
	line := g.Name
	if g.Released != nil {
		line += " (" + g.Released.Format("2006") + ")"
	}
	if g.Metacritic != nil {
		line += fmt.Sprintf("  metacritic %d", *g.Metacritic)
	}
	if len(g.Genres) > 0 {
		line += "  [" + strings.Join(g.Genres, ", ") + "]"
	}
	fmt.Printf("%s  %s\n", g.ID, line)
}
