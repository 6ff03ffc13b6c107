package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/BoardWing/board"
	"github.com/josephgoksu/BoardWing/groomer"
	"github.com/josephgoksu/BoardWing/models"
)

var dumpBoard string

// dumpCmd snapshots a board and writes the diagnostic files without
// applying any grooming rule.
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Snapshot a board into the cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireValidConfig(); err != nil {
			return err
		}
		log := newLogger()
		cfg := groomerConfig()

		var model *models.BoardModel
		switch dumpBoard {
		case "todo":
			model = models.NewBoardModel(cfg.TodoBoardID, groomer.TodoListNames()...)
		case "work":
			if cfg.WorkBoardID == "" {
				return fmt.Errorf("no work board configured")
			}
			model = models.NewBoardModel(cfg.WorkBoardID, groomer.WorkListNames()...)
		default:
			return fmt.Errorf("unknown board %q (expected todo or work)", dumpBoard)
		}

		controller := board.NewController(model, newTrelloClient(log), log).
			WithDirs(cfg.ConfigDir, cfg.CacheDir)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := controller.BuildModel(ctx); err != nil {
			return err
		}
		if err := controller.Dump(); err != nil {
			return err
		}

		fmt.Printf("Board snapshot written to %s (%d requests)\n", cfg.CacheDir, controller.NumRequests())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpBoard, "board", "b", "todo", "board to snapshot: todo or work")
}
