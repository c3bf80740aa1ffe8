package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsFeedRanker/internal/app"
	"NewsFeedRanker/internal/config"
	"NewsFeedRanker/internal/infrastructure/storage"
	"NewsFeedRanker/internal/logging"
)

const configPathEnv = "NEWS_RANKER_CONFIG"

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "newsfeedranker",
		Short:         "Ingest, enrich and rank news feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.configPath != "" {
				if err := os.Setenv(configPathEnv, c.configPath); err != nil {
					return fmt.Errorf("set config path: %w", err)
				}
			}
			c.cfg = config.Load()
			if c.logLevel != "" {
				c.cfg.Logging.Level = c.logLevel
			}
			c.logger = logging.New(c.cfg.Logging.Level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to the YAML config file (overrides "+configPathEnv+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		c.refreshCommand(),
		c.rankCommand(),
		c.serveCommand(),
		c.sourcesCommand(),
		c.seedCommand(),
		c.clearCommand(),
		c.migrateCommand(),
	)

	return root
}

// withApp builds the application for one command and closes it afterwards.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	ctx := cmd.Context()
	application, err := app.New(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			c.logger.Warn("close application", "error", err)
		}
	}()
	return fn(ctx, application)
}

func (c *cli) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one ingestion cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				out := a.Refresh(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				if out.Failed() {
					return out.Err
				}
				return nil
			})
		},
	}
}

func (c *cli) rankCommand() *cobra.Command {
	var (
		maxAgeDays int
		limit      int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print stored articles ordered by rank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxAgeDays <= 0 {
				maxAgeDays = c.cfg.Ranking.MaxAgeDays
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				ranked := a.Ranked(ctx, maxAgeDays)
				if limit > 0 && len(ranked) > limit {
					ranked = ranked[:limit]
				}
				if asJSON {
					return writeRankedJSON(cmd.OutOrStdout(), ranked)
				}
				writeRankedTable(cmd.OutOrStdout(), ranked)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxAgeDays, "max-age-days", 0, "freshness window in days (defaults to ranking.maxAgeDays)")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many articles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled refreshes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				return a.Serve(ctx)
			})
		},
	}
}

func (c *cli) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the configured default sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				added, err := a.Seed(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d of %d sources\n", added, len(c.cfg.Seeds))
				return nil
			})
		},
	}
}

func (c *cli) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				n, err := a.Clear(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d articles\n", n)
				return nil
			})
		},
	}
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.Migrate(c.cfg.Database, c.logger.With("component", "migrate"))
		},
	}
}
