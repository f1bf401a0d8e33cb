// ABOUTME: Interactive dashboard subcommand
// ABOUTME: Wires coordinator, scheduler and panels into the bubbletea program
package cli

import (
	"context"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/panels"
	"github.com/harperreed/salesdash/scheduler"
	"github.com/harperreed/salesdash/tui"
)

// DashboardCommand runs the terminal dashboard until the user quits.
func DashboardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	noAuto := fs.Bool("no-auto-refresh", false, "Start with auto refresh off")
	interval := fs.Duration("interval", app.Config.RefreshInterval, "Auto refresh interval")
	filterArgs := addFilterFlags(fs)
	_ = fs.Parse(args)

	initial, err := filterArgs.filters()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	filters := tui.NewFilterState(initial)
	bridge := tui.NewBridge()

	cfg := loader.Config{
		Fetcher:  client,
		Cache:    app.Snapshot,
		Renderer: bridge,
		View:     bridge,
		Filters:  filters.Get,
		Logger:   app.Logger.Named("loader"),
	}
	if app.Journal != nil {
		cfg.Recorder = app.Journal
	}
	coord, err := loader.New(cfg)
	if err != nil {
		return err
	}
	defer coord.Close()

	sched := scheduler.New(coord,
		scheduler.WithInterval(*interval),
		scheduler.WithLogger(app.Logger.Named("scheduler")),
	)
	defer sched.Stop()

	dashboardPanels, people := panels.DefaultPanels()
	model := tui.NewModel(tui.Options{
		Context:     ctx,
		Coordinator: coord,
		Scheduler:   sched,
		Dispatcher:  panels.NewDispatcher(app.Logger.Named("panels"), dashboardPanels...),
		People:      people,
		Prober:      client,
		Filters:     filters,
		Endpoint:    client.Endpoint(),
		AutoRefresh: app.Config.AutoRefresh && !*noAuto,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	bridge.Attach(p)

	app.Logger.Info("dashboard started",
		zap.String("endpoint", client.Endpoint()),
		zap.String("filters", initial.Encode()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// filterFlags are the request parameters shared by the one-shot commands.
type filterFlags struct {
	start    *string
	end      *string
	days     *int
	teamLead *string
	person   *string
	group    *string
}

func addFilterFlags(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		start:    fs.String("start", "", "Range start (YYYY-MM-DD); requires --end"),
		end:      fs.String("end", "", "Range end (YYYY-MM-DD); requires --start"),
		days:     fs.Int("days", models.DefaultDays, "Relative window in days; ignored when a range is given"),
		teamLead: fs.String("teamlead", "", "Restrict to one team lead"),
		person:   fs.String("person", "", "Restrict to one salesperson"),
		group:    fs.String("group", "", "Restrict to one group"),
	}
}

func (f filterFlags) filters() (models.Filters, error) {
	var out models.Filters
	switch {
	case *f.start != "" || *f.end != "":
		out.SetDateRange(*f.start, *f.end)
	default:
		out.SetDays(*f.days)
	}
	out.TeamLead = *f.teamLead
	out.Person = *f.person
	out.Group = *f.group
	if err := out.Validate(); err != nil {
		return models.Filters{}, fmt.Errorf("invalid filters: %w", err)
	}
	return out, nil
}
