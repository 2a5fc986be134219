package bootstrap

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	menuservice "mapdirect/internal/modules/contextmenu/service"
	profile "mapdirect/internal/modules/profile/domain"
	routeinadapter "mapdirect/internal/modules/route/adapter/in"
	routeoutadapter "mapdirect/internal/modules/route/adapter/out"
	routeout "mapdirect/internal/modules/route/port/out"
	routeservice "mapdirect/internal/modules/route/service"
	routeusecase "mapdirect/internal/modules/route/usecase"
	waypoint "mapdirect/internal/modules/waypoint/domain"
	"mapdirect/internal/platform/clock"
	"mapdirect/internal/platform/config"
	"mapdirect/internal/platform/id"
	uiapp "mapdirect/internal/ui/app"
	"mapdirect/internal/ui/views/mapview"
)

const sessionLogBuffer = 256

type App struct {
	Config   config.Config
	RouteCLI routeinadapter.CLIHandler

	logger   hclog.Logger
	clock    clock.Clock
	ids      id.Generator
	router   routeout.Router
	log      *routeoutadapter.SQLiteSessionLog
	sessions *routeoutadapter.AsyncSessionLog
}

func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	clk := clock.SystemClock{}
	ids := id.UUID{}

	sessionLog, err := routeoutadapter.NewSQLiteSessionLog(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new session log: %w", err)
	}
	sessions := routeoutadapter.NewAsyncSessionLog(sessionLog, sessionLogBuffer, logger)
	router := routeoutadapter.NewOSRMRouter(cfg.ServiceURLFor, cfg.RequestTimeout, logger)

	routeUC := routeusecase.NewInteractor(router, routeoutadapter.NewOverlaySurface(), sessions, clk, ids, logger)

	return &App{
		Config:   cfg,
		RouteCLI: routeinadapter.NewCLIHandler(routeUC),
		logger:   logger,
		clock:    clk,
		ids:      ids,
		router:   router,
		log:      sessionLog,
		sessions: sessions,
	}, nil
}

// Close flushes pending session records before closing the database.
func (a *App) Close() error {
	var errs []error
	if a.sessions != nil {
		errs = append(errs, a.sessions.Close())
	}
	if a.log != nil {
		errs = append(errs, a.log.Close())
	}
	return errors.Join(errs...)
}

// RunTUI starts one interactive run. The controller, store and viewport
// live for the lifetime of the program.
func RunTUI(app *App) error {
	cfg := app.Config
	runID := app.ids.New()
	logger := app.logger.With("run_id", runID)

	store := waypoint.NewStore()
	selector := profile.NewSelector()
	surface := routeoutadapter.NewOverlaySurface()
	queue := routeoutadapter.NewQueueLauncher()
	controller := routeservice.NewController(store, selector, surface, queue, app.sessions, app.clock, runID, logger)
	controller.SetShowAlternatives(cfg.Alternatives)

	viewport := mapview.NewViewport(
		waypoint.LatLng{Lat: cfg.Center.Lat, Lng: cfg.Center.Lng},
		cfg.Zoom, cfg.MinZoom, cfg.MaxZoom,
	)
	dispatcher := menuservice.NewDispatcher(viewport, store, logger)

	model := uiapp.NewModel(uiapp.Deps{
		Store:        store,
		Selector:     selector,
		Controller:   controller,
		Queue:        queue,
		Router:       app.router,
		Overlay:      surface,
		Viewport:     viewport,
		Dispatcher:   dispatcher,
		Clock:        app.clock,
		DragInterval: cfg.DragInterval,
		Logger:       logger,
	})

	logger.Info("tui start", "service_url", cfg.ServiceURL, "zoom", cfg.Zoom)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := program.Run()
	controller.Close()
	logger.Info("tui stop")
	return errors.Join(runErr, app.Close())
}
