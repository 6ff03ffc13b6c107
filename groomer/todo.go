package groomer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/josephgoksu/BoardWing/board"
	"github.com/josephgoksu/BoardWing/internal/dates"
	"github.com/josephgoksu/BoardWing/internal/filters"
	"github.com/josephgoksu/BoardWing/models"
	"github.com/josephgoksu/BoardWing/trello"
)

// todoLists are the well-known list name tokens of the main board.
var todoLists = []string{
	"inbox", "backlog", "month", "week", "tomorrow", "day",
	"done", "pinned", "backburner",
}

// TodoListNames returns the well-known list name tokens of the main
// board, copied so callers cannot reorder the canonical set.
func TodoListNames() []string {
	return append([]string(nil), todoLists...)
}

// backlogStaggerDays spreads backlog due dates so the backlog does not
// dump onto a single day.
const backlogStaggerDays = 7

// recurringLabel marks cards that are recreated on a schedule; their
// copies in history lists are noise and get pruned.
const recurringLabel = "Recurring"

// TodoGroomer grooms the main personal board, pulling finished cards
// from the linked history board for dependency bookkeeping.
type TodoGroomer struct {
	client *trello.Client
	log    *slog.Logger
	cfg    Config
	fs     afero.Fs
	now    func() time.Time
}

// NewTodoGroomer returns the groomer for the main board.
func NewTodoGroomer(client *trello.Client, cfg Config, logger *slog.Logger) *TodoGroomer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoGroomer{
		client: client,
		log:    logger,
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		now:    time.Now,
	}
}

// WithFs swaps the filesystem used for config and cache files.
func (g *TodoGroomer) WithFs(fs afero.Fs) *TodoGroomer {
	g.fs = fs
	return g
}

// WithClock swaps the time source.
func (g *TodoGroomer) WithClock(now func() time.Time) *TodoGroomer {
	g.now = now
	return g
}

func (g *TodoGroomer) Name() string { return "todo" }

// Run executes the full grooming pipeline against a fresh snapshot.
// Order matters: config sync first so later rules see fresh settings,
// dependency linking before due-date work so spawned cards get dated,
// and list migration last so every rule's changes settle into place.
func (g *TodoGroomer) Run(ctx context.Context) error {
	model := models.NewBoardModel(g.cfg.TodoBoardID, todoLists...)
	controller := board.NewController(model, g.client, g.log).
		WithFs(g.fs).
		WithClock(g.now).
		WithDirs(g.cfg.ConfigDir, g.cfg.CacheDir)

	if err := controller.BuildModel(ctx); err != nil {
		return fmt.Errorf("todo groomer: %w", err)
	}

	for file, card := range map[string]string{
		"auto-label.json": "auto-label config",
		"auto-due.json":   "auto-due config",
		"auto-link.json":  "auto-link config",
	} {
		if err := controller.SyncConfigJSONWithCard(ctx, file, card); err != nil {
			g.log.Warn("config sync failed", "file", file, "error", err)
		}
	}

	historyLists, err := g.importHistoryLists(ctx, controller)
	if err != nil {
		g.log.Warn("history import failed", "error", err)
	}

	g.autoLabel(ctx, controller)

	// pinned cards never drive completion propagation
	ignoreLists := append([]*models.List{model.List("pinned")}, historyLists...)
	if err := controller.UpdateTaskDependencies(ctx, "Tasks", ignoreLists); err != nil {
		return fmt.Errorf("todo groomer: %w", err)
	}
	if err := controller.UpdatePrepDependencies(ctx, "Prep", ignoreLists); err != nil {
		return fmt.Errorf("todo groomer: %w", err)
	}
	if err := controller.UpdateFollowupDependencies(ctx, "Followup", ignoreLists); err != nil {
		return fmt.Errorf("todo groomer: %w", err)
	}
	if err := controller.MarkCardsDoneIfLinkedCheckItemsDone(ctx); err != nil {
		return fmt.Errorf("todo groomer: %w", err)
	}

	if err := controller.ParseDueDatesFromCardNames(ctx); err != nil {
		return fmt.Errorf("todo groomer: %w", err)
	}

	g.assignAutoDueDates(ctx, controller)

	ignoreWords := stringsFromObj(controller.LoadConfigObj("auto-link.json"), "ignoreWords")
	if err := controller.AutoLinkRelatedCards(ctx, ignoreWords); err != nil {
		return fmt.Errorf("todo groomer: %w", err)
	}

	g.migrate(ctx, controller)

	if done := model.List("done"); done != nil && done.ID != "" {
		if err := controller.MarkCardsInListDone(ctx, done.ID); err != nil {
			return fmt.Errorf("todo groomer: %w", err)
		}
	}

	for _, list := range historyLists {
		if err := controller.DeleteCardsInListIfLabeled(ctx, list.ID, recurringLabel); err != nil {
			g.log.Warn("history pruning failed", "list", list.Name, "error", err)
		}
	}

	if backburner := model.List("backburner"); backburner != nil && backburner.ID != "" {
		if err := controller.RemoveDueDateFromCardsInList(ctx, backburner.ID); err != nil {
			return fmt.Errorf("todo groomer: %w", err)
		}
	}

	if err := controller.Dump(); err != nil {
		g.log.Warn("diagnostic dump failed", "error", err)
	}

	g.log.Info("todo grooming complete", "requests", controller.NumRequests())
	return nil
}

// importHistoryLists pulls recently archived months from the history
// board into the snapshot so dependency completion and pruning can see
// finished cards.
func (g *TodoGroomer) importHistoryLists(ctx context.Context, controller *board.Controller) ([]*models.List, error) {
	if g.cfg.HistoryBoardID == "" {
		return nil, nil
	}
	historyModel := models.NewBoardModel(g.cfg.HistoryBoardID)
	historyController := board.NewController(historyModel, g.client, g.log).
		WithFs(g.fs).
		WithClock(g.now)
	if err := historyController.BuildModel(ctx); err != nil {
		return nil, err
	}

	now := g.now()
	added, err := historyController.AddListsToModelIfNameMeetsConditions(ctx, []func(models.List) bool{
		func(l models.List) bool { return dates.MatchesMonthYear(l.Name) },
		func(l models.List) bool { return monthYearWithinLastYear(l.Name, now) },
	})
	if err != nil {
		return nil, err
	}

	controller.ImportLists(added, historyModel.Labels)
	return added, nil
}

// autoLabel applies every board label to cards whose titles mention the
// label's name or one of its configured keywords.
func (g *TodoGroomer) autoLabel(ctx context.Context, controller *board.Controller) {
	keywordConfig := controller.LoadConfigObj("auto-label.json")
	for _, labelName := range controller.Model().LabelNames() {
		// work cards are groomed on their own board
		if labelName == "Work" {
			continue
		}
		keywords := append([]string{labelName}, stringsFromObj(keywordConfig, labelName)...)
		if err := controller.AddLabelToCardsIfTitleContains(ctx, labelName, keywords); err != nil {
			g.log.Warn("auto-labeling failed", "label", labelName, "error", err)
		}
	}
}

// assignAutoDueDates runs the two due-date passes: cards freshly moved
// into a slower list get re-dated for that list's horizon, then any
// still-undated card gets its list's default horizon.
func (g *TodoGroomer) assignAutoDueDates(ctx context.Context, controller *board.Controller) {
	horizons, err := g.loadAutoDueHorizons()
	if err != nil {
		g.log.Warn("auto-due config unreadable", "error", err)
		return
	}

	model := controller.Model()
	now := g.now()

	// moved-card pass: a deliberate move to a slower list resets the date
	type demotion struct {
		to      string
		from    []string
		stagger int
	}
	for _, d := range []demotion{
		{to: "backlog", from: []string{"month", "week", "tomorrow", "day"}, stagger: backlogStaggerDays},
		{to: "month", from: []string{"week", "tomorrow", "day"}},
		{to: "week", from: []string{"tomorrow", "day"}},
		{to: "tomorrow", from: []string{"day"}},
	} {
		days, ok := horizons[d.to]
		if !ok {
			continue
		}
		toList := model.List(d.to)
		if toList == nil || toList.ID == "" {
			continue
		}
		moved := filters.MovedFromTo(toList.ID, listIDs(model, d.from), now)
		if err := controller.AssignDueDatesIf(ctx, toList.ID, days, moved, d.stagger); err != nil {
			g.log.Warn("auto-due assignment failed", "list", d.to, "error", err)
		}
	}

	// undated pass: everything else gets the list's default horizon
	for _, name := range []string{"day", "tomorrow", "week", "month", "backlog"} {
		days, ok := horizons[name]
		if !ok {
			continue
		}
		list := model.List(name)
		if list == nil || list.ID == "" {
			continue
		}
		stagger := 0
		if name == "backlog" {
			stagger = backlogStaggerDays
		}
		if err := controller.AssignDueDatesIf(ctx, list.ID, days, filters.Not(filters.HasDueDate), stagger); err != nil {
			g.log.Warn("auto-due assignment failed", "list", name, "error", err)
		}
	}
}

// migrate moves cards down the urgency ladder: finished cards to done,
// then each card to the fastest list its due date justifies.
func (g *TodoGroomer) migrate(ctx context.Context, controller *board.Controller) {
	model := controller.Model()
	now := g.now()

	type migration struct {
		from   []string
		to     string
		filter filters.Filter
	}
	for _, m := range []migration{
		{from: []string{"inbox", "backlog", "month", "week", "tomorrow", "day"}, to: "done", filter: filters.IsComplete},
		{from: []string{"inbox", "backlog", "month", "week", "tomorrow"}, to: "day", filter: filters.DueToday(now)},
		{from: []string{"inbox", "backlog", "month", "week"}, to: "tomorrow", filter: filters.DueWithinTwoDays(now)},
		{from: []string{"inbox", "backlog", "month"}, to: "week", filter: filters.DueThisWeek(now)},
		{from: []string{"inbox", "backlog"}, to: "month", filter: filters.DueThisMonth(now)},
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
}

// loadAutoDueHorizons reads auto-due.json and resolves period
// descriptors into concrete day counts.
func (g *TodoGroomer) loadAutoDueHorizons() (map[string]int, error) {
	data, err := afero.ReadFile(g.fs, filepath.Join(g.cfg.ConfigDir, "auto-due.json"))
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return dates.ResolveAutoDueConfig(raw, g.now())
}

// monthYearWithinLastYear reports whether a "March 2025" style list
// name falls inside the trailing twelve months.
func monthYearWithinLastYear(name string, now time.Time) bool {
	fields := strings.Fields(name)
	if len(fields) != 2 || len(fields[0]) < 3 {
		return false
	}
	monthNum, ok := dates.MonthNumFromAbbrev(fields[0][:3])
	if !ok {
		return false
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return false
	}
	listMonth := time.Date(year, time.Month(monthNum+1), 1, 0, 0, 0, 0, now.Location())
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(-1, 0, 0)
	return !listMonth.Before(cutoff) && !listMonth.After(now)
}

// listIDs resolves well-known list names to their non-empty remote ids.
func listIDs(model *models.BoardModel, names []string) []string {
	var ids []string
	for _, name := range names {
		if list := model.List(name); list != nil && list.ID != "" {
			ids = append(ids, list.ID)
		}
	}
	return ids
}

// stringsFromObj extracts a []string entry from a decoded JSON object.
func stringsFromObj(obj map[string]any, key string) []string {
	items, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
