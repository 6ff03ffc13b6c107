package groomer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/josephgoksu/BoardWing/board"
	"github.com/josephgoksu/BoardWing/internal/filters"
	"github.com/josephgoksu/BoardWing/models"
	"github.com/josephgoksu/BoardWing/trello"
)

// workLists are the well-known list name tokens of the work board,
// which runs a shorter ladder than the main board.
var workLists = []string{"inbox", "backlog", "week", "day", "done"}

// WorkListNames returns the well-known list name tokens of the work
// board.
func WorkListNames() []string {
	return append([]string(nil), workLists...)
}

// WorkGroomer grooms the work board: checklist dependencies, title
// date tokens, and the migration ladder, without history import or
// auto-labeling.
type WorkGroomer struct {
	client *trello.Client
	log    *slog.Logger
	cfg    Config
	fs     afero.Fs
	now    func() time.Time
}

// NewWorkGroomer returns the groomer for the work board.
func NewWorkGroomer(client *trello.Client, cfg Config, logger *slog.Logger) *WorkGroomer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkGroomer{
		client: client,
		log:    logger,
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		now:    time.Now,
	}
}

// WithFs swaps the filesystem used for cache files.
func (g *WorkGroomer) WithFs(fs afero.Fs) *WorkGroomer {
	g.fs = fs
	return g
}

// WithClock swaps the time source.
func (g *WorkGroomer) WithClock(now func() time.Time) *WorkGroomer {
	g.now = now
	return g
}

func (g *WorkGroomer) Name() string { return "work" }

// Run executes the work pipeline against a fresh snapshot.
func (g *WorkGroomer) Run(ctx context.Context) error {
	if g.cfg.WorkBoardID == "" {
		g.log.Info("no work board configured, skipping")
		return nil
	}

	model := models.NewBoardModel(g.cfg.WorkBoardID, workLists...)
	controller := board.NewController(model, g.client, g.log).
		WithFs(g.fs).
		WithClock(g.now).
		WithDirs(g.cfg.ConfigDir, g.cfg.CacheDir)

	if err := controller.BuildModel(ctx); err != nil {
		return fmt.Errorf("work groomer: %w", err)
	}

	keywordConfig := controller.LoadConfigObj("auto-label.json")
	for _, labelName := range model.LabelNames() {
		keywords := append([]string{labelName}, stringsFromObj(keywordConfig, labelName)...)
		if err := controller.AddLabelToCardsIfTitleContains(ctx, labelName, keywords); err != nil {
			g.log.Warn("auto-labeling failed", "label", labelName, "error", err)
		}
	}

	if err := controller.UpdateTaskDependencies(ctx, "Tasks", nil); err != nil {
		return fmt.Errorf("work groomer: %w", err)
	}
	if err := controller.MarkCardsDoneIfLinkedCheckItemsDone(ctx); err != nil {
		return fmt.Errorf("work groomer: %w", err)
	}
	if err := controller.ParseDueDatesFromCardNames(ctx); err != nil {
		return fmt.Errorf("work groomer: %w", err)
	}

	now := g.now()
	type migration struct {
		from   []string
		to     string
		filter filters.Filter
	}
	for _, m := range []migration{
		{from: []string{"inbox", "backlog", "week", "day"}, to: "done", filter: filters.IsComplete},
		{from: []string{"inbox", "backlog", "week"}, to: "day", filter: filters.DueToday(now)},
		{from: []string{"inbox", "backlog"}, to: "week", filter: filters.DueThisWeek(now)},
		{from: []string{"inbox"}, to: "backlog", filter: filters.HasDueDate},
	} {
		toList := model.List(m.to)
		if toList == nil || toList.ID == "" {
			continue
		}
		if err := controller.MoveCardsFromToIf(ctx, listIDs(model, m.from), toList.ID, m.filter); err != nil {
			g.log.Warn("migration failed", "to", m.to, "error", err)
		}
	}

	if done := model.List("done"); done != nil && done.ID != "" {
		if err := controller.MarkCardsInListDone(ctx, done.ID); err != nil {
			return fmt.Errorf("work groomer: %w", err)
		}
	}

	g.log.Info("work grooming complete", "requests", controller.NumRequests())
	return nil
}
