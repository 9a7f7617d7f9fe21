package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core/agenda"
	"github.com/enactus/membership/core/member"
)

type eventApi struct {
	svc      *agenda.Service
	members  *member.Service
	validate *validator.Validate
}

func registerEventAPI(
	g *echo.Group,
	jwt, admin echo.MiddlewareFunc,
	svc *agenda.Service,
	members *member.Service,
	validate *validator.Validate,
) {
	api := &eventApi{svc: svc, members: members, validate: validate}

	eg := g.Group("/events", jwt)
	eg.GET("", api.list)
	eg.POST("", api.create, admin)
	eg.PUT("/:id", api.update, admin)
	eg.PUT("/:id/status", api.setStatus, admin)
	eg.DELETE("/:id", api.destroy, admin)
}

func (api *eventApi) list(ctx echo.Context) error {
	events, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing events")
	}
	if events == nil {
		events = []agenda.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data agenda.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to agenda.NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	creator, err := getContextUser(ctx, api.members)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	created, err := api.svc.Create(ctx.Request().Context(), creator, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (api *eventApi) update(ctx echo.Context) error {
	var data agenda.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to agenda.UpdateEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) setStatus(ctx echo.Context) error {
	var data agenda.SetStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to agenda.SetStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "setting event status")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
