package assignment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	assignsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/assignment"

	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
)

// Register mounts the assignment endpoints on the tickets group. A queued
// outcome (no eligible agent, retry budget exhausted) is 202, not an error:
// the ticket stays open and the sweeper retries when capacity frees.
func Register(rg *gin.RouterGroup, coord *assignsvc.Coordinator) {
	rg.POST("/:id/assign", assignTicket(coord))
	rg.POST("/:id/reassign", reassignTicket(coord))
	rg.PUT("/:id/assignee", manualAssign(coord))
	rg.DELETE("/:id/assignee", unassignTicket(coord))
}

func assignTicket(coord *assignsvc.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		dec, err := coord.Assign(c.Request.Context(), id)
		respondDecision(c, dec, err)
	}
}

type reassignReq struct {
	ExcludeAgentIDs []uuid.UUID `json:"exclude_agent_ids"`
}

func reassignTicket(coord *assignsvc.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req reassignReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		dec, err := coord.Reassign(c.Request.Context(), id, req.ExcludeAgentIDs)
		respondDecision(c, dec, err)
	}
}

type manualAssignReq struct {
	AgentID uuid.UUID `json:"agent_id" binding:"required"`
}

func manualAssign(coord *assignsvc.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req manualAssignReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		dec, err := coord.ManualAssign(c.Request.Context(), id, req.AgentID)
		if err != nil {
			if errors.Is(err, portticket.ErrCommitConflict) || errors.Is(err, portticket.ErrTicketConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			if errors.Is(err, assignsvc.ErrNotAssignable) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, dec)
	}
}

func unassignTicket(coord *assignsvc.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		if err := coord.Unassign(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func respondDecision(c *gin.Context, dec interface{}, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dec)
	case errors.Is(err, assignsvc.ErrNoEligibleAgent), errors.Is(err, assignsvc.ErrUnassignable):
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "reason": err.Error()})
	case errors.Is(err, assignsvc.ErrNotAssignable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
