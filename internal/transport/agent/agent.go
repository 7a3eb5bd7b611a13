package agent

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	agentsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/agent"
)

func Register(rg *gin.RouterGroup, svc *agentsvc.Service) {
	rg.POST("", registerAgent(svc))
	rg.GET("", listAgents(svc))
	rg.GET("/:id", getAgent(svc))
	rg.PATCH("/:id/active", setAgentActive(svc))
}

type registerAgentReq struct {
	Name   string   `json:"name" binding:"required"`
	Email  string   `json:"email" binding:"required"`
	Skills []string `json:"skills"`
}

func registerAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerAgentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		a, err := svc.Register(c.Request.Context(), req.Name, req.Email, req.Skills)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func listAgents(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domainagent.ListFilters

		if v := c.Query("active"); v != "" {
			active := v == "true"
			filters.Active = &active
		}
		if v := c.Query("skill"); v != "" {
			filters.Skill = &v
		}

		agents, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if agents == nil {
			agents = []domainagent.Agent{}
		}
		c.JSON(http.StatusOK, agents)
	}
}

func getAgent(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		a, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

type setActiveReq struct {
	Active *bool `json:"active" binding:"required"`
}

func setAgentActive(svc *agentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req setActiveReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if *req.Active {
			err = svc.Activate(c.Request.Context(), id)
		} else {
			err = svc.Deactivate(c.Request.Context(), id)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
