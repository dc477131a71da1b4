package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	interactiondomain "github.com/smallbiznis/breakeven/internal/interaction/domain"
	"go.uber.org/zap"
)

// SiteCORS lets deployed pages call the ingress directly from the browser.
func SiteCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func visitor(c *gin.Context) interactiondomain.Visitor {
	return interactiondomain.Visitor{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// RenderSite serves the live page for a site and records the visit.
func (s *Server) RenderSite(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	page, _, err := s.websiteSvc.RenderPage(c.Request.Context(), siteID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.interactionSvc.RecordVisit(c.Request.Context(), siteID, interactiondomain.VisitRequest{
		Visitor:  visitor(c),
		Page:     "/",
		Referrer: c.Request.Referer(),
	}); err != nil {
		s.log.Warn("record page visit failed", zap.String("site_id", siteID.String()), zap.Error(err))
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) RecordSiteVisit(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req interactiondomain.VisitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	req.Visitor = visitor(c)
	if req.Referrer == "" {
		req.Referrer = c.Request.Referer()
	}

	if err := s.interactionSvc.RecordVisit(c.Request.Context(), siteID, req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"recorded": true}})
}

func (s *Server) SubmitContact(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req interactiondomain.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Visitor = visitor(c)

	result, err := s.interactionSvc.SubmitContact(c.Request.Context(), siteID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) SubscribeNewsletter(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req interactiondomain.NewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Visitor = visitor(c)

	customer, err := s.interactionSvc.Subscribe(c.Request.Context(), siteID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

func (s *Server) CustomerLogin(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req interactiondomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.interactionSvc.CustomerLogin(c.Request.Context(), siteID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) SubmitFeedback(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req interactiondomain.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Visitor = visitor(c)

	fb, err := s.interactionSvc.SubmitFeedback(c.Request.Context(), siteID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fb})
}

func (s *Server) TrackInteraction(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req interactiondomain.InteractionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	req.Visitor = visitor(c)

	if err := s.interactionSvc.TrackInteraction(c.Request.Context(), siteID, req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"recorded": true}})
}

func (s *Server) ListSiteProducts(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	products, err := s.interactionSvc.ListProducts(c.Request.Context(), siteID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) RecentSiteFeedback(c *gin.Context) {
	siteID, err := siteIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.interactionSvc.RecentFeedback(c.Request.Context(), siteID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
