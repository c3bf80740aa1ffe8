package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"NewsFeedRanker/internal/app"
	"NewsFeedRanker/internal/domain"
)

func (c *cli) sourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage feed sources",
	}
	cmd.AddCommand(c.sourcesListCommand(), c.sourcesAddCommand(), c.sourcesStatusCommand())
	return cmd
}

func (c *cli) sourcesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				sources, err := a.Sources().ListSources(ctx)
				if err != nil {
					return err
				}
				writeSourcesTable(cmd.OutOrStdout(), sources)
				return nil
			})
		},
	}
}

func (c *cli) sourcesAddCommand() *cobra.Command {
	var src domain.Source

	cmd := &cobra.Command{
		Use:   "add URL NAME",
		Short: "Register a new feed source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src.URL, src.DisplayName = args[0], args[1]
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				added, err := a.Sources().AddSource(ctx, src)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added source %d: %s\n", added.ID, added.URL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&src.Category, "category", "", "source category")
	cmd.Flags().StringVar(&src.FeedType, "type", domain.FeedTypeRSS, "feed type: rss or html")
	return cmd
}

func (c *cli) sourcesStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "status URL active|inactive",
		Short:     "Activate or deactivate a source",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.SourceActive), string(domain.SourceInactive)},
		RunE: func(cmd *cobra.Command, args []string) error {
			status := domain.SourceStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("%w: status %q", domain.ErrInvalidSource, args[1])
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				if err := a.Sources().SetSourceStatus(ctx, args[0], status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], status)
				return nil
			})
		},
	}
}
