package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	analyticssvc "github.com/sanchitsehgal8/SupportPilot/internal/service/analytics"
)

func Register(rg *gin.RouterGroup, svc *analyticssvc.Service) {
	rg.GET("/dashboard", dashboard(svc))
	rg.GET("/agents", allAgentsPerformance(svc))
	rg.GET("/agents/:id", agentPerformance(svc))
}

func dashboard(svc *analyticssvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func allAgentsPerformance(svc *analyticssvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		perf, err := svc.AllAgentsPerformance(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, perf)
	}
}

func agentPerformance(svc *analyticssvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		perf, err := svc.AgentPerformance(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, perf)
	}
}
