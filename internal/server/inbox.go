package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	interactiondomain "github.com/smallbiznis/breakeven/internal/interaction/domain"
	"github.com/smallbiznis/breakeven/pkg/db/pagination"
	"github.com/smallbiznis/breakeven/pkg/oid"
)

func (s *Server) ListMessages(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.interactionSvc.ListMessages(c.Request.Context(), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) MarkMessageRead(c *gin.Context) {
	id, err := oid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil || id.IsZero() {
		AbortWithError(c, ErrNotFound)
		return
	}

	if err := s.interactionSvc.MarkMessageRead(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) UnreadMessageCount(c *gin.Context) {
	count, err := s.interactionSvc.UnreadCount(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unread_count": count}})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var req interactiondomain.CustomerQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.interactionSvc.ListCustomers(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
