package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/breakeven/internal/ownercontext"
	"github.com/smallbiznis/breakeven/internal/ratelimit"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"go.uber.org/zap"
)

const (
	contextOwnerIDKey = "owner_id"
	accessTokenParam  = "access_token"
)

// OwnerAuthRequired verifies the bearer token and stores the owner on the
// request context. Browsers cannot set headers on a WebSocket upgrade, so
// the token may also arrive as the access_token query parameter.
func (s *Server) OwnerAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.tokens.Verify(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if _, err := s.owners.Active(c.Request.Context(), claims.OwnerID); err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextOwnerIDKey, claims.OwnerID.String())
		c.Request = c.Request.WithContext(ownercontext.WithOwnerID(c.Request.Context(), claims.OwnerID))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		scheme, value, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		value = strings.TrimSpace(value)
		return value, value != ""
	}
	if value := strings.TrimSpace(c.Query(accessTokenParam)); value != "" {
		return value, true
	}
	return "", false
}

func (s *Server) ownerIDFromContext(c *gin.Context) (oid.ID, bool) {
	return ownercontext.OwnerIDFromContext(c.Request.Context())
}

// RateLimited throttles anonymous callers per scope and client address. The
// scope is the :id path parameter when present, otherwise fallback. Limiter
// failures let the request through.
func (s *Server) RateLimited(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		scope := c.Param("id")
		if scope == "" {
			scope = fallback
		}

		res, err := s.limiter.Allow(c.Request.Context(), ratelimit.SiteKey(scope, c.ClientIP()))
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			}
			AbortWithError(c, ratelimit.ErrLimited)
			return
		}
		c.Next()
	}
}
