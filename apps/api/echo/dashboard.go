package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core/dashboard"
)

func registerDashboardAPI(g *echo.Group, jwt, admin echo.MiddlewareFunc, svc *dashboard.Service) {
	g.GET("/dashboard/stats", func(ctx echo.Context) error {
		stats, err := svc.Stats(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "computing dashboard stats")
		}
		return ctx.JSON(http.StatusOK, stats)
	}, jwt, admin)
}
