/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Trello    TrelloConfig    `mapstructure:"trello" validate:"required"`
	Boards    BoardsConfig    `mapstructure:"boards" validate:"required"`
	Dirs      DirsConfig      `mapstructure:"dirs"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// TrelloConfig holds the API credentials
type TrelloConfig struct {
	Key   string `mapstructure:"key" validate:"required,min=1"`
	Token string `mapstructure:"token" validate:"required,min=1"`
}

// BoardsConfig holds the identifiers of the groomed boards. Only the
// main board is mandatory; history import and work grooming switch off
// when their board is not configured.
type BoardsConfig struct {
	Todo    string `mapstructure:"todo" validate:"required,min=1"`
	History string `mapstructure:"history" validate:"omitempty,min=1"`
	Work    string `mapstructure:"work" validate:"omitempty,min=1"`
}

// DirsConfig holds the config and cache directories
type DirsConfig struct {
	Config string `mapstructure:"config" validate:"required,min=1"`
	Cache  string `mapstructure:"cache" validate:"required,min=1"`
}

// SchedulerConfig holds the periodic execution settings
type SchedulerConfig struct {
	IntervalMinutes int    `mapstructure:"intervalMinutes" validate:"omitempty,min=1"`
	TimeoutMinutes  int    `mapstructure:"timeoutMinutes" validate:"omitempty,min=1"`
	LockPath        string `mapstructure:"lockPath"`
}
