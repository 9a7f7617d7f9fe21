package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/notify"
)

type attendanceApi struct {
	svc      *attendance.Service
	members  *member.Service
	notifier *notify.Controller
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt, admin echo.MiddlewareFunc,
	svc *attendance.Service,
	members *member.Service,
	notifier *notify.Controller,
	validate *validator.Validate,
) {
	api := &attendanceApi{svc: svc, members: members, notifier: notifier, validate: validate}

	ag := g.Group("/attendance", jwt)
	ag.GET("/absences/me", api.myAbsences)

	ag.GET("/roster", api.roster, admin)
	ag.POST("/bulk", api.commitBulk, admin)
	ag.GET("/absences", api.absences, admin)
	ag.POST("/absences", api.markAbsence, admin)
	ag.PUT("/absences/:id", api.editAbsence, admin)
	ag.DELETE("/absences/:id", api.deleteAbsence, admin)
}

func (api *attendanceApi) roster(ctx echo.Context) error {
	roster, err := api.svc.LoadRoster(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading roster")
	}
	if roster == nil {
		roster = []attendance.RosterEntry{}
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *attendanceApi) commitBulk(ctx echo.Context) error {
	var data attendance.BulkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendance.BulkAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	marker, err := getContextUser(ctx, api.members)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rctx := ctx.Request().Context()
	roster, err := api.svc.Members(rctx)
	if err != nil {
		return errors.Wrap(err, "loading members")
	}
	draft := attendance.NewDraft(roster)
	if err = draft.Apply(data.Marks); err != nil {
		return err
	}

	res, err := api.svc.CommitBulk(rctx, marker, data.MeetingDate, draft)
	if err != nil {
		return errors.Wrap(err, "committing attendance")
	}
	return ctx.JSON(http.StatusCreated, newCommitResponse(res, api.notify(ctx, data.Notify, res)))
}

func (api *attendanceApi) markAbsence(ctx echo.Context) error {
	var data attendance.NewAbsence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendance.NewAbsence")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	marker, err := getContextUser(ctx, api.members)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	res, err := api.svc.MarkSingle(ctx.Request().Context(), marker, data.MemberID, data.MeetingDate, data.Reason)
	if err != nil {
		return errors.Wrap(err, "marking absence")
	}
	return ctx.JSON(http.StatusCreated, newCommitResponse(res, api.notify(ctx, data.Notify, res)))
}

// notify runs after the commit. Its failures are reported, never returned.
func (api *attendanceApi) notify(ctx echo.Context, enabled bool, res attendance.CommitResult) *notify.Report {
	if !enabled {
		return nil
	}
	rep := api.notifier.NotifyAll(ctx.Request().Context(), notify.RecipientsFromAbsences(res.Absences))
	return &rep
}

func (api *attendanceApi) editAbsence(ctx echo.Context) error {
	var data attendance.EditAbsence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendance.EditAbsence")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	editor, err := getContextUser(ctx, api.members)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	abs, err := api.svc.EditAbsence(ctx.Request().Context(), editor, ctx.Param("id"), data.MeetingDate, data.Reason)
	if err != nil {
		return errors.Wrap(err, "editing absence")
	}
	return ctx.JSON(http.StatusOK, abs)
}

func (api *attendanceApi) deleteAbsence(ctx echo.Context) error {
	if err := api.svc.DeleteAbsence(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting absence")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) absences(ctx echo.Context) error {
	absences, err := api.svc.ListAbsences(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing absences")
	}
	return ctx.JSON(http.StatusOK, nonNilAbsences(absences))
}

func (api *attendanceApi) myAbsences(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.members)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	absences, err := api.svc.ListMemberAbsences(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing member absences")
	}
	return ctx.JSON(http.StatusOK, nonNilAbsences(absences))
}

func nonNilAbsences(absences []attendance.Absence) []attendance.Absence {
	if absences == nil {
		return []attendance.Absence{}
	}
	return absences
}
