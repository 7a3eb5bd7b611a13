package ticket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	ticketsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/ticket"
)

func Register(rg *gin.RouterGroup, svc *ticketsvc.Service) {
	rg.POST("", createTicket(svc))
	rg.GET("", listTickets(svc))
	rg.GET("/:id", getTicket(svc))
	rg.PATCH("/:id/status", updateTicketStatus(svc))
}

type createTicketReq struct {
	CustomerID     uuid.UUID             `json:"customer_id" binding:"required"`
	Title          string                `json:"title" binding:"required"`
	Description    string                `json:"description"`
	Priority       domainticket.Priority `json:"priority"`
	RequiredSkills []string              `json:"required_skills"`
}

func createTicket(svc *ticketsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTicketReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		t, err := svc.Create(c.Request.Context(), req.CustomerID, req.Title, req.Description, req.Priority, req.RequiredSkills)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

func listTickets(svc *ticketsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domainticket.ListFilters

		if v := c.Query("customer_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
				return
			}
			filters.CustomerID = &id
		}
		if v := c.Query("status"); v != "" {
			s := domainticket.Status(v)
			filters.Status = &s
		}
		if v := c.Query("priority"); v != "" {
			p := domainticket.Priority(v)
			filters.Priority = &p
		}
		if v := c.Query("assigned_to"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assigned_to"})
				return
			}
			filters.AssignedTo = &id
		}
		if c.Query("unassigned") == "true" {
			filters.Unassigned = true
		}

		tickets, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if tickets == nil {
			tickets = []domainticket.Ticket{}
		}
		c.JSON(http.StatusOK, tickets)
	}
}

func getTicket(svc *ticketsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		t, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type updateStatusReq struct {
	StatusFrom domainticket.Status `json:"status_from" binding:"required"`
	StatusTo   domainticket.Status `json:"status_to" binding:"required"`
}

func updateTicketStatus(svc *ticketsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req updateStatusReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.UpdateStatus(c.Request.Context(), id, req.StatusFrom, req.StatusTo); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		t, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, t)
	}
}
