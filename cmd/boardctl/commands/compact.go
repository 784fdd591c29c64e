package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/ordering"
	"kanban-board-api/internal/repository"
	"kanban-board-api/internal/service"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Respace order keys of a column or board",
	Long: `Rewrite the order keys of every sibling in one list so they are evenly spaced.

Run this when the API answers COMPACTION_REQUIRED. Display order is kept and
entity versions are not bumped, so clients holding a version stay valid.

Examples:
  # Respace the cards of one column
  boardctl compact column 6f1c2a9e-...

  # Respace the columns of one board
  boardctl compact board 0b7d44e1-...`,
}

var compactColumnCmd = &cobra.Command{
	Use:   "column COLUMN_ID",
	Short: "Respace the card keys of a column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompact(cmd, args[0], func(ctx context.Context, env *environment, id uuid.UUID) (*dto.CompactionResponse, error) {
			return newCardService(env).CompactColumn(ctx, id)
		})
	},
}

var compactBoardCmd = &cobra.Command{
	Use:   "board BOARD_ID",
	Short: "Respace the column keys of a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompact(cmd, args[0], func(ctx context.Context, env *environment, id uuid.UUID) (*dto.CompactionResponse, error) {
			return newColumnService(env).CompactBoard(ctx, id)
		})
	},
}

func init() {
	compactCmd.AddCommand(compactColumnCmd, compactBoardCmd)
	rootCmd.AddCommand(compactCmd)
}

type compactFunc func(ctx context.Context, env *environment, id uuid.UUID) (*dto.CompactionResponse, error)

func runCompact(cmd *cobra.Command, rawID string, compact compactFunc) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", rawID, err)
	}

	ctx := cmd.Context()
	env, err := openEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	result, err := compact(ctx, env, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: rewrote %d keys\n", result.ParentID, result.Rewritten)
	return nil
}

func allocator(env *environment) *ordering.Allocator {
	return ordering.NewAllocator(ordering.Config{
		MaxKeyLength: env.cfg.Ordering.MaxKeyLength,
		JitterDigits: env.cfg.Ordering.JitterDigits,
	})
}

// Compaction publishes nothing and touches no blobs, so both stay nil
func newCardService(env *environment) service.CardService {
	return service.NewCardService(
		repository.NewColumnRepository(env.db),
		repository.NewCardRepository(env.db),
		allocator(env), nil, nil, nil, env.logger,
	)
}

func newColumnService(env *environment) service.ColumnService {
	return service.NewColumnService(
		repository.NewBoardRepository(env.db),
		repository.NewColumnRepository(env.db),
		repository.NewCardRepository(env.db),
		allocator(env), nil, nil, nil, env.logger,
	)
}
