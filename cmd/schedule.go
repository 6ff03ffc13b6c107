package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// scheduleCmd runs the grooming pipelines on a fixed interval until
// interrupted.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Groom the configured boards periodically",
	Long: `Schedule runs every pipeline immediately and then again on the
configured interval. Overlapping runs are skipped, and a run that
exceeds the configured timeout loses its claim on the next tick.
Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireValidConfig(); err != nil {
			return err
		}
		log := newLogger()

		groomers, err := groomersFor("all", newTrelloClient(log), log)
		if err != nil {
			return err
		}

		interval := time.Duration(GetConfig().Scheduler.IntervalMinutes) * time.Minute
		log.Info("scheduler starting", "interval", interval)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		newScheduler(log).Loop(ctx, interval, groomers...)

		log.Info("scheduler stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
