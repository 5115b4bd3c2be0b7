package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/probe"
)

func newLeaderboardCmd(opts *options) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"lb"},
		Short:   "Build and print a list's leaderboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			svc, err := opts.service(ctx)
			if err != nil {
				return err
			}
			snap, rows, err := svc.Standings(ctx, opts.list, top)
			if errors.Is(err, app.ErrListUnavailable) {
				if opts.json {
					_ = writeJSON(cmd.OutOrStdout(), leaderboard.Unavailable())
				}
				return err
			}
			if err != nil {
				return err
			}

			board := snap.Board
			board.Rows = rows
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), board)
			}
			return printBoard(cmd.OutOrStdout(), board)
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 0, "print only the leading rows (0 prints all)")
	return cmd
}

func newLevelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Print a list's levels in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			svc, err := opts.service(ctx)
			if err != nil {
				return err
			}
			levels, err := svc.Levels(ctx, opts.list)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), levels)
			}
			return printLevels(cmd.OutOrStdout(), levels)
		},
	}
}

func newPacksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "packs [name]",
		Short: "Print a list's packs, or the levels of one pack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			svc, err := opts.service(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				levels, err := svc.Pack(ctx, opts.list, args[0])
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), levels)
				}
				return printPackLevels(cmd.OutOrStdout(), levels)
			}

			packs, err := svc.Packs(ctx, opts.list)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), packs)
			}
			return printPacks(cmd.OutOrStdout(), packs)
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	var samples, concurrency int
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify a running server's leaderboard",
		Long: `check fetches the leaderboard of a running tally server and verifies that
rows are sorted by total, positions run from 1 without gaps, no contributor
appears twice ignoring case, and every total is the rounded sum of its
entries. The leading rows are also looked up through /rank and compared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.url == "" {
				return errors.New("check requires --url")
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			rep, err := probe.Run(ctx, probe.Config{
				BaseURL:     opts.url,
				List:        opts.list,
				Timeout:     opts.timeout,
				Samples:     samples,
				Concurrency: concurrency,
			})
			if rep != nil {
				if opts.json {
					_ = writeJSON(cmd.OutOrStdout(), rep)
				} else {
					printReport(cmd.OutOrStdout(), rep)
				}
			}
			if err != nil {
				return fmt.Errorf("check %s: %w", opts.url, err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 10, "leading rows to cross-check through /rank (negative disables)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "concurrent rank lookups")
	return cmd
}
