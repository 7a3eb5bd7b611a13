package comment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domaincomment "github.com/sanchitsehgal8/SupportPilot/internal/domain/comment"
	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
	commentsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/comment"
)

// Register mounts the comment routes on the tickets group.
func Register(rg *gin.RouterGroup, svc *commentsvc.Service) {
	rg.POST("/:id/comments", addComment(svc))
	rg.GET("/:id/comments", listComments(svc))
}

type addCommentReq struct {
	AuthorID   uuid.UUID                `json:"author_id" binding:"required"`
	AuthorRole domaincomment.AuthorRole `json:"author_role" binding:"required"`
	Body       string                   `json:"body" binding:"required"`
}

func addComment(svc *commentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req addCommentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !req.AuthorRole.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author_role"})
			return
		}

		created, err := svc.Add(c.Request.Context(), ticketID, req.AuthorID, req.AuthorRole, req.Body)
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, created)
		case errors.Is(err, portticket.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, commentsvc.ErrTicketClosed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func listComments(svc *commentsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticketID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		comments, err := svc.ListByTicket(c.Request.Context(), ticketID)
		if err != nil {
			if errors.Is(err, portticket.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if comments == nil {
			comments = []domaincomment.Comment{}
		}
		c.JSON(http.StatusOK, comments)
	}
}
