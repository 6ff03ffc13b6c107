package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/BoardWing/groomer"
	"github.com/josephgoksu/BoardWing/trello"
)

var runBoard string

// runCmd executes a single grooming pass.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one grooming pass over the configured boards",
	Long: `Run snapshots the configured boards and applies every grooming rule
once. Without --board it asks which pipeline to run; in a non-interactive
shell it grooms everything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireValidConfig(); err != nil {
			return err
		}
		log := newLogger()

		selection := runBoard
		if selection == "" {
			selection = selectBoardInteractive()
		}
		groomers, err := groomersFor(selection, newTrelloClient(log), log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return newScheduler(log).RunOnce(ctx, groomers...)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runBoard, "board", "b", "", "board pipeline to run: todo, work, or all")
}

// groomersFor resolves a selection to the pipelines it names.
func groomersFor(selection string, client *trello.Client, log *slog.Logger) ([]groomer.Groomer, error) {
	cfg := groomerConfig()
	switch selection {
	case "todo":
		return []groomer.Groomer{groomer.NewTodoGroomer(client, cfg, log)}, nil
	case "work":
		if cfg.WorkBoardID == "" {
			return nil, fmt.Errorf("no work board configured")
		}
		return []groomer.Groomer{groomer.NewWorkGroomer(client, cfg, log)}, nil
	case "all":
		groomers := []groomer.Groomer{groomer.NewTodoGroomer(client, cfg, log)}
		if cfg.WorkBoardID != "" {
			groomers = append(groomers, groomer.NewWorkGroomer(client, cfg, log))
		}
		return groomers, nil
	default:
		return nil, fmt.Errorf("unknown board %q (expected todo, work, or all)", selection)
	}
}

// selectBoardInteractive asks which pipeline to run. When the prompt
// cannot run (no terminal), everything is groomed.
func selectBoardInteractive() string {
	prompt := promptui.Select{
		Label: "Board to groom",
		Items: []string{"all", "todo", "work"},
	}
	_, result, err := prompt.Run()
	if err != nil {
		return "all"
	}
	return result
}
