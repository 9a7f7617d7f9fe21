package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/services/metrics"
	"github.com/enactus/membership/services/ratelimit"
)

// adminMiddleware lets approved admins through. The stored user is checked too,
// since the role may have been revoked after the token was issued.
func adminMiddleware(svc *member.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if !claims.IsAdmin {
				return errHttpForbidden
			}
			usr, err := getContextUser(ctx, svc, claims)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() && usr.IsApproved() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// rateLimitMiddleware limits the calls per route and caller. It fails open:
// an unreachable limiter is logged and the request goes through.
func rateLimitMiddleware(limiter ratelimit.Limiter, metrics *metricsvc.Metrics, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if limiter == nil {
				return next(ctx)
			}
			caller := ctx.RealIP()
			if claims, err := getContextClaims(ctx); err == nil {
				caller = claims.Subject
			}

			ok, err := limiter.Allow(ctx.Request().Context(), ctx.Path()+":"+caller)
			if err != nil {
				logger.Warn("rate limiter unavailable: "+err.Error(), err)
				return next(ctx)
			}
			if !ok {
				if metrics != nil {
					metrics.RateLimited(ctx.Path())
				}
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
