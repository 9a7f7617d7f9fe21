package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core/notify"
)

const (
	msgMissingFields = "Missing required fields"
	msgNoMembers     = "No members provided to notify"
	msgSendFailed    = "Failed to send email"
	msgHealthy       = "SMTP connection verified successfully ✅"
	msgUnhealthy     = "SMTP connection failed ❌"
)

type emailApi struct {
	notifier *notify.Controller
}

func registerEmailAPI(g *echo.Group, jwt, admin, limit echo.MiddlewareFunc, notifier *notify.Controller) {
	api := &emailApi{notifier: notifier}

	eg := g.Group("/email", jwt, admin, limit)
	eg.POST("/absence-email", api.absenceEmail)
	eg.POST("/agenda-email", api.agendaEmail)
	eg.GET("/email-health", api.health)
}

func (api *emailApi) absenceEmail(ctx echo.Context) error {
	var data AbsenceEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AbsenceEmailRequest")
	}
	data.clean()
	if !data.complete() {
		return ctx.JSON(http.StatusBadRequest, EmailResponse{Message: msgMissingFields})
	}

	rep := api.notifier.NotifyAll(ctx.Request().Context(), []notify.Recipient{{
		Email:       data.MemberEmail,
		Name:        data.MemberName,
		MeetingDate: data.MeetingDate,
		Reason:      data.Reason,
	}})
	out := rep.Outcomes[0]
	if !out.Success {
		return ctx.JSON(http.StatusInternalServerError, EmailResponse{Message: msgSendFailed, Error: out.Error})
	}
	return ctx.JSON(http.StatusOK, EmailResponse{
		Success:   true,
		Message:   "Email sent successfully to " + data.MemberEmail,
		MessageID: out.MessageID,
	})
}

func (api *emailApi) agendaEmail(ctx echo.Context) error {
	var data AgendaEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AgendaEmailRequest")
	}
	data.clean()
	if !data.complete() {
		return ctx.JSON(http.StatusBadRequest, EmailResponse{Message: msgMissingFields})
	}
	if len(data.Members) == 0 {
		return ctx.JSON(http.StatusBadRequest, EmailResponse{Message: msgNoMembers})
	}

	rep := api.notifier.NotifyAgenda(ctx.Request().Context(), data.AgendaNotice, data.Members)
	return ctx.JSON(http.StatusOK, AgendaEmailResponse{
		Success:      true,
		Message:      fmt.Sprintf("Sent %d emails successfully, %d failed", rep.Succeeded, rep.Failed),
		TotalMembers: rep.Total,
		SuccessCount: rep.Succeeded,
		FailCount:    rep.Failed,
		Results:      rep.Outcomes,
	})
}

func (api *emailApi) health(ctx echo.Context) error {
	if err := api.notifier.Verify(ctx.Request().Context()); err != nil {
		return ctx.JSON(http.StatusInternalServerError, EmailResponse{Message: msgUnhealthy, Error: err.Error()})
	}
	return ctx.JSON(http.StatusOK, EmailResponse{Success: true, Message: msgHealthy})
}
