package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
	"github.com/user/dreadscale/internal/taxonomy"
	"github.com/user/dreadscale/internal/utils"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.loadConfig()
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			fmt.Fprintln(out, renderStatusLine("TMDB", cfg.TMDBAPIKey != "", "", colorize))
			fmt.Fprintln(out, renderStatusLine("OMDb", cfg.OMDbAPIKey != "", "", colorize))
			for _, warning := range cfg.Warnings() {
				fmt.Fprintln(out, "  "+warning)
			}
			return nil
		},
	}
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensure(); err != nil {
				return err
			}
			if err := repository.AutoMigrate(ctx.repos.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration complete")
			return nil
		},
	}
}

func newTaxonomyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "taxonomy",
		Short: "List rating categories, subcategories and weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, taxonomyTable(isTerminal(out)))
			return nil
		},
	}
}

func taxonomyTable(fancy bool) string {
	var rows [][]string
	for _, cat := range taxonomy.Categories() {
		for _, sub := range cat.Subcategories {
			rows = append(rows, []string{
				cat.Name,
				model.RatingKey(cat.Key, sub.Key),
				sub.Name,
				strconv.FormatFloat(sub.Weight, 'f', 1, 64),
				taxonomy.WeightLabel(sub.Weight),
			})
		}
	}
	return renderTable(
		[]string{"Category", "Key", "Subcategory", "Weight", "Impact"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		fancy,
	)
}

func newScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <movie-id>...",
		Short: "Show DreadScores for movies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseMovieIDs(args)
			if err != nil {
				return err
			}
			services, err := ctx.ensure()
			if err != nil {
				return err
			}

			scores := services.Ratings.BatchFetchDreadScores(ids)
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				title := ""
				if movie, err := services.Store.Find(id); err == nil && movie != nil {
					title = movie.Title
				}
				score := scores[id]
				count := 0
				if score != nil {
					count = score.TotalRatings
				}
				rows = append(rows, []string{strconv.Itoa(id), title, score.Label(), strconv.Itoa(count)})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "DreadScore", "Ratings"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
				isTerminal(out),
			))
			return nil
		},
	}
}

func newTopCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List rated movies ordered by DreadScore",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := ctx.ensure()
			if err != nil {
				return err
			}

			top := services.Ratings.TopByDreadScore(limit)
			rows := make([][]string, 0, len(top))
			for i, m := range top {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.Itoa(m.ID),
					m.Title,
					strconv.FormatFloat(m.DreadScore, 'f', 1, 64),
					strconv.Itoa(m.TotalRatings),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "ID", "Title", "DreadScore", "Ratings"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight},
				isTerminal(out),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of movies to show")
	return cmd
}

func newImportWatchlistCommand(ctx *commandContext) *cobra.Command {
	var email, file string
	cmd := &cobra.Command{
		Use:   "import-watchlist",
		Short: "Import a watchlist file (text, CSV or HTML) for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("读取文件失败: %w", err)
			}
			entries, err := utils.ParseImport(string(content))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no movies found in %s", file)
			}

			services, err := ctx.ensure()
			if err != nil {
				return err
			}
			user, err := ctx.repos.User.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("no user with email %s", email)
			}

			out := cmd.OutOrStdout()
			result, err := services.Watchlist.Import(cmd.Context(), user.ID, entries, func(done, total int, title string) {
				fmt.Fprintf(out, "[%d/%d] %s\n", done, total, title)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Added: %d  Duplicates: %d  Failed: %d  Processed: %d\n",
				result.SuccessCount, result.DuplicatesSkipped, len(result.FailedMovies), result.TotalProcessed)
			for _, failed := range result.FailedMovies {
				fmt.Fprintf(out, "  not found: %s %s\n", failed.Title, failed.Year)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "user", "u", "", "Email of the account to import into")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Watchlist file path")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the external ratings cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show external ratings cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := ctx.ensure()
			if err != nil {
				return err
			}
			stats, err := services.External.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d (valid %d, expired %d)\n", stats.TotalEntries, stats.ValidEntries, stats.ExpiredEntries)
			fmt.Fprintf(out, "Oldest:  %s\n", formatStamp(stats.OldestEntry))
			fmt.Fprintf(out, "Newest:  %s\n", formatStamp(stats.NewestEntry))
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired and excess external ratings",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := ctx.ensure()
			if err != nil {
				return err
			}
			removed := services.Cleanup.RunOnce()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached ratings\n", removed)
			return nil
		},
	})

	return cacheCmd
}

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	userCmd.AddCommand(&cobra.Command{
		Use:   "promote <email>",
		Short: "Grant administrator access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensure(); err != nil {
				return err
			}
			user, err := ctx.repos.User.FindByEmail(strings.ToLower(strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("no user with email %s", args[0])
			}
			if err := ctx.repos.User.UpdateProfile(user.ID, map[string]interface{}{"role": "admin"}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an administrator\n", user.Email)
			return nil
		},
	})

	return userCmd
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// parseMovieIDs 解析命令行传入的电影 ID，支持空格或逗号分隔
func parseMovieIDs(args []string) ([]int, error) {
	var ids []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid movie id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
