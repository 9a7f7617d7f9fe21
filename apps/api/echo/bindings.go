package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/notify"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string      `json:"token"`
		User  member.User `json:"user"`
	}

	ProfileResponse struct {
		member.User
		ProfileCompletion int `json:"profileCompletion"`
	}

	// CommitResponse reports a recorded attendance, with the absence notices when requested.
	CommitResponse struct {
		Message       string               `json:"message"`
		MeetingDate   string               `json:"meetingDate"`
		Absences      []attendance.Absence `json:"absences"`
		Notifications *notify.Report       `json:"notifications,omitempty"`
	}

	AbsenceEmailRequest struct {
		MemberEmail string `json:"memberEmail"`
		MemberName  string `json:"memberName"`
		MeetingDate string `json:"meetingDate"`
		Reason      string `json:"reason"`
	}

	AgendaEmailRequest struct {
		notify.AgendaNotice
		Members []notify.Recipient `json:"members"`
	}

	EmailResponse struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		MessageID string `json:"messageId,omitempty"`
		Error     string `json:"error,omitempty"`
	}

	AgendaEmailResponse struct {
		Success      bool             `json:"success"`
		Message      string           `json:"message"`
		TotalMembers int              `json:"totalMembers"`
		SuccessCount int              `json:"successCount"`
		FailCount    int              `json:"failCount"`
		Results      []notify.Outcome `json:"results"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func newProfileResponse(usr member.User) ProfileResponse {
	return ProfileResponse{User: usr, ProfileCompletion: usr.ProfileCompletion()}
}

func newCommitResponse(res attendance.CommitResult, rep *notify.Report) CommitResponse {
	absences := res.Absences
	if absences == nil {
		absences = []attendance.Absence{}
	}
	return CommitResponse{
		Message:       res.Message(),
		MeetingDate:   res.MeetingDate,
		Absences:      absences,
		Notifications: rep,
	}
}

func (req *AbsenceEmailRequest) clean() {
	req.MemberEmail = core.CleanString(req.MemberEmail, true /* lower */)
	req.MemberName = core.CleanString(req.MemberName)
	req.MeetingDate = core.CleanString(req.MeetingDate)
	req.Reason = core.CleanString(req.Reason)
}

func (req *AbsenceEmailRequest) complete() bool {
	return req.MemberEmail != "" && req.MemberName != "" && req.MeetingDate != ""
}

func (req *AgendaEmailRequest) clean() {
	req.Title = core.CleanString(req.Title)
	req.Description = core.CleanString(req.Description)
	req.EventDate = core.CleanString(req.EventDate)
	// members without an email stay in the list and are reported as failed
	for i := range req.Members {
		req.Members[i].Email = core.CleanString(req.Members[i].Email, true /* lower */)
		req.Members[i].Name = core.CleanString(req.Members[i].Name)
	}
}

func (req *AgendaEmailRequest) complete() bool {
	return req.Title != "" && req.Description != "" && req.EventDate != ""
}
