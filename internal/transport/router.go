package transport

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	porteventbus "github.com/sanchitsehgal8/SupportPilot/internal/port/eventbus"
	agentsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/agent"
	analyticssvc "github.com/sanchitsehgal8/SupportPilot/internal/service/analytics"
	assignsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/assignment"
	commentsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/comment"
	ticketsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/ticket"

	agenthandler "github.com/sanchitsehgal8/SupportPilot/internal/transport/agent"
	analyticshandler "github.com/sanchitsehgal8/SupportPilot/internal/transport/analytics"
	assignmenthandler "github.com/sanchitsehgal8/SupportPilot/internal/transport/assignment"
	commenthandler "github.com/sanchitsehgal8/SupportPilot/internal/transport/comment"
	tickethandler "github.com/sanchitsehgal8/SupportPilot/internal/transport/ticket"
	wshandler "github.com/sanchitsehgal8/SupportPilot/internal/transport/ws"
)

func NewRouter(
	ctx context.Context,
	ticketSvc *ticketsvc.Service,
	agentSvc *agentsvc.Service,
	analyticsSvc *analyticssvc.Service,
	commentSvc *commentsvc.Service,
	coordinator *assignsvc.Coordinator,
	eventBus porteventbus.EventBus,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())

	api := r.Group("/api")

	tickets := api.Group("/tickets")
	tickethandler.Register(tickets, ticketSvc)
	assignmenthandler.Register(tickets, coordinator)
	commenthandler.Register(tickets, commentSvc)

	agenthandler.Register(api.Group("/agents"), agentSvc)
	analyticshandler.Register(api.Group("/analytics"), analyticsSvc)

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	// Bridge: one subscription per domain channel (2 Postgres connections).
	// Events carry their Type, so browser clients filter on their side.
	for _, ch := range []event.Channel{
		event.ChannelTicket,
		event.ChannelAgent,
	} {
		c := ch
		if _, err := eventBus.Subscribe(ctx, c, func(_ context.Context, e event.Event) {
			hub.Broadcast(e)
		}); err != nil {
			slog.Error("failed to subscribe channel to WS hub", "channel", c, "error", err)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
