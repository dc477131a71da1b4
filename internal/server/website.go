package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	interactiondomain "github.com/smallbiznis/breakeven/internal/interaction/domain"
	"github.com/smallbiznis/breakeven/internal/theme"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	"golang.org/x/sync/errgroup"
)

func (s *Server) CreateWebsite(c *gin.Context) {
	var req websitedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.websiteSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) UpdateWebsite(c *gin.Context) {
	var req websitedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.websiteSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) RenameWebsite(c *gin.Context) {
	var req websitedomain.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	view, err := s.websiteSvc.Rename(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

type analyticsResponse struct {
	TotalVisits    int64   `json:"total_visits"`
	UniqueVisitors int64   `json:"unique_visitors"`
	LastVisit      *string `json:"last_visit"`
}

// MyWebsite loads the site and its visit analytics concurrently. An owner
// without a site gets website: null rather than 404.
func (s *Server) MyWebsite(c *gin.Context) {
	var (
		site  *websitedomain.SiteView
		stats *interactiondomain.VisitStats
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		view, err := s.websiteSvc.Get(ctx)
		if errors.Is(err, websitedomain.ErrNotFound) {
			return nil
		}
		site = view
		return err
	})
	g.Go(func() error {
		out, err := s.interactionSvc.Analytics(ctx)
		stats = out
		return err
	})
	if err := g.Wait(); err != nil {
		AbortWithError(c, err)
		return
	}

	analytics := analyticsResponse{}
	if stats != nil {
		analytics.TotalVisits = stats.TotalVisits
		analytics.UniqueVisitors = stats.UniqueVisitors
		if stats.LastVisit != nil {
			last := stats.LastVisit.UTC().Format(time.RFC3339)
			analytics.LastVisit = &last
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"website":   site,
		"analytics": analytics,
	}})
}

func (s *Server) ListDeploys(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	deploys, err := s.websiteSvc.ListDeploys(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": deploys})
}

func (s *Server) ListThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"color_schemes":   theme.Palette(),
		"business_themes": theme.BusinessThemes(),
		"default_scheme":  theme.Default,
	}})
}

func (s *Server) WebsiteBuilderHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"status":             "ok",
		"ai_configured":      s.cfg.AI.APIKey != "",
		"hosting_configured": s.cfg.Hosting.APIKey != "",
		"email_configured":   s.cfg.SMTP.Enabled(),
		"events_configured":  s.cfg.Kafka.Enabled(),
		"archive_configured": s.cfg.Archive.Enabled(),
		"redis_lock_enabled": s.cfg.Redis.Enabled(),
	}})
}
