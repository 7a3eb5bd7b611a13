package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanchitsehgal8/SupportPilot/internal/adapter/memory"
	pgdb "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres"
	pgagent "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/agent"
	pgcomment "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/comment"
	pgdirectory "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/directory"
	pgeventbus "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/eventbus"
	pglocker "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/locker"
	pgoracle "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/oracle"
	pgticket "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/ticket"

	"github.com/sanchitsehgal8/SupportPilot/internal/config"

	agentsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/agent"
	analyticssvc "github.com/sanchitsehgal8/SupportPilot/internal/service/analytics"
	assignsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/assignment"
	commentsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/comment"
	ticketsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/ticket"

	"github.com/sanchitsehgal8/SupportPilot/internal/transport"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Pool        *pgxpool.Pool
	Server      *http.Server
	Coordinator *assignsvc.Coordinator
	TicketSvc   *ticketsvc.Service
	AgentSvc    *agentsvc.Service
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies.
func Build(ctx context.Context) (*App, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// ── Database ─────────────────────────────────────────────────────────────
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	pool, err := pgdb.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// ── Adapters ─────────────────────────────────────────────────────────────
	ticketRepo := pgticket.New(pool)
	agentRepo := pgagent.New(pool)
	commentRepo := pgcomment.New(pool)
	directory := pgdirectory.New(pool)
	oracle := pgoracle.New(pool)
	eventBus := pgeventbus.New(pool)
	locker := pglocker.New(pool)
	cache := memory.NewCache()

	// ── Services ─────────────────────────────────────────────────────────────
	coordinator := assignsvc.NewCoordinator(
		directory,
		oracle,
		ticketRepo,
		eventBus,
		locker,
		cfg.Engine,
	)

	ticketSvcInstance := ticketsvc.NewService(ticketRepo, eventBus)
	agentSvcInstance := agentsvc.NewService(agentRepo, eventBus)
	analyticsSvcInstance := analyticssvc.NewService(ticketRepo, agentRepo, oracle, cache)
	commentSvcInstance := commentsvc.NewService(commentRepo, ticketRepo, eventBus)

	// ── Transport ─────────────────────────────────────────────────────────────
	router := transport.NewRouter(
		ctx,
		ticketSvcInstance,
		agentSvcInstance,
		analyticsSvcInstance,
		commentSvcInstance,
		coordinator,
		eventBus,
	)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	slog.Info("application wired", "port", cfg.Server.Port)

	app := &App{
		Pool:        pool,
		Server:      server,
		Coordinator: coordinator,
		TicketSvc:   ticketSvcInstance,
		AgentSvc:    agentSvcInstance,
	}

	// ── Event-Driven Queue Sweeper ────────────────────────────────────────────
	startSweeper(ctx, app, eventBus)

	return app, nil
}
