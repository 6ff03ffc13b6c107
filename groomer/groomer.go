// Package groomer wires board controllers into grooming pipelines and
// schedules their periodic execution. Each groomer owns one board (or a
// board pair) and runs its rules in a fixed order against a fresh
// snapshot.
package groomer

import "context"

// Groomer is one self-contained grooming pipeline.
type Groomer interface {
	Name() string
	Run(ctx context.Context) error
}

// Config carries the board identifiers and directories a groomer needs.
type Config struct {
	TodoBoardID    string
	HistoryBoardID string
	WorkBoardID    string
	ConfigDir      string
	CacheDir       string
}
