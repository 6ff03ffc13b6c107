/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/BoardWing/groomer"
	"github.com/josephgoksu/BoardWing/trello"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.2.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boardwing",
	Short: "BoardWing keeps your Trello boards groomed.",
	Long: `BoardWing periodically snapshots your Trello boards and applies grooming
rules to them: parsing due dates out of card titles, spawning cards from
checklist items and linking them back, auto-labeling and auto-linking
related cards, and migrating cards between lists as their due dates
approach.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.boardwing.yaml or ./.boardwing.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// newLogger builds the application logger; --verbose lowers the level
// to debug.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if GetConfig().Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newTrelloClient builds the API client from the loaded configuration.
func newTrelloClient(log *slog.Logger) *trello.Client {
	config := GetConfig()
	return trello.NewClient(config.Trello.Key, config.Trello.Token, log)
}

// groomerConfig maps the loaded configuration onto the groomer package.
func groomerConfig() groomer.Config {
	config := GetConfig()
	return groomer.Config{
		TodoBoardID:    config.Boards.Todo,
		HistoryBoardID: config.Boards.History,
		WorkBoardID:    config.Boards.Work,
		ConfigDir:      config.Dirs.Config,
		CacheDir:       config.Dirs.Cache,
	}
}

// newScheduler builds the run scheduler from the loaded configuration.
func newScheduler(log *slog.Logger) *groomer.Scheduler {
	config := GetConfig()
	timeout := time.Duration(config.Scheduler.TimeoutMinutes) * time.Minute
	return groomer.NewScheduler(config.Scheduler.LockPath, timeout, log)
}
