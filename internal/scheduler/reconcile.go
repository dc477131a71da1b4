package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/breakeven/internal/events"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	"github.com/smallbiznis/breakeven/internal/locker"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/smallbiznis/breakeven/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

// ReconcileDeploysJob promotes pending deploys once the hosting provider
// reports them as the live, ready deploy of their site.
func (s *Scheduler) ReconcileDeploysJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobReconcileDeploys, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	jobKey := locker.JobKey(JobReconcileDeploys)
	token, ok, err := s.locker.TryLock(ctx, jobKey, s.cfg.JobTimeout)
	if err != nil {
		return err
	}
	if !ok {
		s.logger(ctx).Debug("scheduler.job.skipped", zap.String("job", JobReconcileDeploys), zap.String("reason", "locked"))
		return nil
	}
	defer s.release(ctx, jobKey, token)

	sites, err := s.sites.ListPending(ctx, s.db, s.cfg.BatchSize)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.deploy.list.failed", JobReconcileDeploys, err)
		return err
	}

	var jobErr error
	for _, site := range sites {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		siteCtx := withSiteContext(ctx, site)
		promoted, err := s.reconcileSite(siteCtx, site)
		if err != nil {
			s.logSchedulerError(siteCtx, run, "scheduler.deploy.reconcile.failed", JobReconcileDeploys, err,
				zap.String("provider_site_id", site.ProviderSiteID),
			)
			jobErr = errors.Join(jobErr, err)
			continue
		}
		if promoted {
			run.AddProcessed(1)
		}
	}

	return jobErr
}

// reconcileSite reports whether the site was marked ready. Sites held by an
// in-flight publish are left to that publish.
func (s *Scheduler) reconcileSite(ctx context.Context, site websitedomain.PublishedSite) (bool, error) {
	if site.ProviderSiteID == "" || site.DeployID == "" {
		return false, nil
	}

	key := locker.PublishKey(site.OwnerID.String())
	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.JobTimeout)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	defer s.release(ctx, key, token)

	remote, err := s.hosting.GetSite(ctx, site.ProviderSiteID)
	if err != nil {
		return false, fmt.Errorf("get provider site %s: %w", site.ProviderSiteID, err)
	}

	published := remote.PublishedDeploy
	if published == nil || published.ID != site.DeployID || !published.Ready() {
		return false, nil
	}

	url := remote.CanonicalURL()
	if url == "" {
		url = site.URL
	}
	now := s.clock.Now()
	fields := map[string]any{
		"deploy_state":     websitedomain.DeployReady,
		"status":           websitedomain.StatusDeployed,
		"url":              url,
		"updated_at":       now,
		"last_deployed_at": now,
	}
	if remote.AdminURL != "" {
		fields["admin_url"] = remote.AdminURL
	}
	if err := s.sites.UpdateSite(ctx, s.db, site.OwnerID, site.ID, fields); err != nil {
		return false, err
	}

	if url != site.URL && s.qr != nil {
		if err := s.qr.BindPublished(ctx, site.OwnerID, url); err != nil {
			s.logger(ctx).Warn("rebind qr target failed", zap.String("url", url), zap.Error(err))
		}
	}
	s.announceReady(ctx, site, url, now)
	s.logSiteReconciled(ctx, site, url)
	return true, nil
}

func (s *Scheduler) announceReady(ctx context.Context, site websitedomain.PublishedSite, url string, now time.Time) {
	ctx, correlationID := correlation.EnsureCorrelationID(ctx)

	if s.events != nil {
		if err := s.events.Emit(ctx, events.Event{
			Type:          events.TypeDeployReady,
			OwnerID:       site.OwnerID.String(),
			SiteID:        site.ID.String(),
			CorrelationID: correlationID,
			OccurredAt:    now,
			Data: map[string]any{
				"deploy_id": site.DeployID,
				"url":       url,
			},
		}); err != nil {
			s.logger(ctx).Warn("emit deploy ready event failed", zap.Error(err))
		}
	}

	if s.hub != nil {
		s.hub.Publish(site.OwnerID.String(), liveevents.Event{
			ID:            oid.New().String(),
			Kind:          events.TypeDeployReady,
			SiteID:        site.ID.String(),
			Summary:       "Website is live at " + url,
			CorrelationID: correlationID,
			OccurredAt:    now.Format(time.RFC3339),
		})
	}
}

func (s *Scheduler) release(ctx context.Context, key, token string) {
	if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
		s.logger(ctx).Warn("release lock failed", zap.String("key", key), zap.Error(err))
	}
}
