package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/breakeven/internal/auth/token"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/interaction"
	interactiondomain "github.com/smallbiznis/breakeven/internal/interaction/domain"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	"github.com/smallbiznis/breakeven/internal/observability"
	obslogger "github.com/smallbiznis/breakeven/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/breakeven/internal/observability/metrics"
	obstracing "github.com/smallbiznis/breakeven/internal/observability/tracing"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/internal/qrcode"
	qrdomain "github.com/smallbiznis/breakeven/internal/qrcode/domain"
	"github.com/smallbiznis/breakeven/internal/ratelimit"
	"github.com/smallbiznis/breakeven/internal/website"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	token.Module,
	website.Module,
	qrcode.Module,
	interaction.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	tokens         *token.Manager
	owners         ownerdomain.Service
	websiteSvc     websitedomain.Service
	qrSvc          qrdomain.Service
	interactionSvc interactiondomain.Service
	liveEvents     *liveevents.Hub
	limiter        ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Tokens         *token.Manager
	Owners         ownerdomain.Service
	WebsiteSvc     websitedomain.Service
	QRSvc          qrdomain.Service
	InteractionSvc interactiondomain.Service
	LiveEvents     *liveevents.Hub   `optional:"true"`
	Limiter        ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		tokens:         p.Tokens,
		owners:         p.Owners,
		websiteSvc:     p.WebsiteSvc,
		qrSvc:          p.QRSvc,
		interactionSvc: p.InteractionSvc,
		liveEvents:     p.LiveEvents,
		limiter:        p.Limiter,
	}

	svc.registerAPIRoutes()
	svc.registerSiteRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Website builder --------
	builder := api.Group("/website-builder")
	builder.GET("/themes", s.ListThemes)
	builder.GET("/health", s.WebsiteBuilderHealth)
	builder.POST("/create", s.OwnerAuthRequired(), s.CreateWebsite)
	builder.PUT("/update", s.OwnerAuthRequired(), s.UpdateWebsite)
	builder.POST("/rename", s.OwnerAuthRequired(), s.RenameWebsite)
	builder.GET("/my-website", s.OwnerAuthRequired(), s.MyWebsite)
	builder.GET("/deploys", s.OwnerAuthRequired(), s.ListDeploys)

	// -------- QR code --------
	qr := api.Group("/qr-code")
	qr.POST("/scan", s.RateLimited("qr-scan"), s.RecordQRScan)
	qr.GET("", s.OwnerAuthRequired(), s.GetQRCode)
	qr.POST("/update-url", s.OwnerAuthRequired(), s.UpdateQRTarget)
	qr.DELETE("/override", s.OwnerAuthRequired(), s.ClearQROverride)
	qr.POST("/reset", s.OwnerAuthRequired(), s.ResetQRCounters)
	qr.POST("/generate", s.OwnerAuthRequired(), s.GenerateQRCode)
	qr.GET("/poster", s.OwnerAuthRequired(), s.QRPoster)

	// -------- Live interactions --------
	api.GET("/interactions/live", s.OwnerAuthRequired(), s.StreamInteractions)

	// -------- Inbox --------
	inbox := api.Group("", s.OwnerAuthRequired())
	inbox.GET("/messages", s.ListMessages)
	inbox.GET("/messages/unread-count", s.UnreadMessageCount)
	inbox.PUT("/messages/:id/read", s.MarkMessageRead)
	inbox.GET("/customers", s.ListCustomers)

	// -------- Visit beacon --------
	beacon := api.Group("/website", SiteCORS())
	beacon.OPTIONS("/:id/visit", func(*gin.Context) {})
	beacon.POST("/:id/visit", s.RateLimited("visit"), s.RecordSiteVisit)
}

// registerSiteRoutes wires the callbacks posted by deployed sites. The owner
// is always resolved from :id.
func (s *Server) registerSiteRoutes() {
	site := s.engine.Group("/site/:id", SiteCORS())

	site.GET("", s.RenderSite)
	site.OPTIONS("/*any", func(*gin.Context) {})
	limited := s.RateLimited("site")
	site.POST("/contact", limited, s.SubmitContact)
	site.POST("/newsletter", limited, s.SubscribeNewsletter)
	site.POST("/customers/login", limited, s.CustomerLogin)
	site.POST("/feedback", limited, s.SubmitFeedback)
	site.POST("/track-interaction", limited, s.TrackInteraction)
	site.GET("/products", s.ListSiteProducts)
	site.GET("/feedback/recent", s.RecentSiteFeedback)
}
