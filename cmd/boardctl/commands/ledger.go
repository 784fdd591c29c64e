package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kanban-board-api/internal/job"
	"kanban-board-api/internal/ledger"
)

var ledgerOlderThan time.Duration

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and prune the event dedupe ledger",
}

var ledgerPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop dedupe records older than the retention window",
	Long: `Drop dedupe records announced before now minus --older-than.

Defaults to ledger.retention from the config. With the redis backend keys
expire on their own and purge reports zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ctx context.Context, env *environment, l ledger.Ledger) error {
			retention := ledgerOlderThan
			if retention <= 0 {
				retention = env.cfg.Ledger.Retention
			}
			removed, err := job.NewLedgerSweepJob(l, retention, nil, env.logger).Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d records\n", removed)
			return nil
		})
	},
}

var ledgerCheckCmd = &cobra.Command{
	Use:   "check DEDUPE_KEY",
	Short: "Report whether an event was already announced",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ctx context.Context, env *environment, l ledger.Ledger) error {
			seen, err := l.Seen(ctx, args[0])
			if err != nil {
				return err
			}
			if seen {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: announced\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not announced\n", args[0])
			}
			return nil
		})
	},
}

func init() {
	ledgerPurgeCmd.Flags().DurationVar(&ledgerOlderThan, "older-than", 0, "Age cutoff (defaults to ledger.retention)")
	ledgerCmd.AddCommand(ledgerPurgeCmd, ledgerCheckCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func withLedger(cmd *cobra.Command, fn func(ctx context.Context, env *environment, l ledger.Ledger) error) error {
	ctx := cmd.Context()
	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	l, err := ledger.FromConfig(env.cfg.Ledger, env.db, env.rdb)
	if err != nil {
		return err
	}
	return fn(ctx, env, l)
}
