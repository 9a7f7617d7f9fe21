package attendance

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

// DefaultReason is stored when an absence is recorded without a reason.
const DefaultReason = "No reason provided"

type Status string

const (
	StatusUnset   Status = "unset"
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnset, StatusPresent, StatusAbsent:
		return true
	}
	return false
}

// Absence records that a member missed a meeting.
// The member fields are a snapshot taken when the absence was marked.
type Absence struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	UserID         string     `bson:"userId" json:"userId"`
	UserName       string     `bson:"userName" json:"userName"`
	UserEmail      string     `bson:"userEmail" json:"userEmail"`
	UserBureauRole string     `bson:"userBureauRole" json:"userBureauRole"`
	MeetingDate    string     `bson:"meetingDate" json:"meetingDate"` // YYYY-MM-DD
	Reason         string     `bson:"reason" json:"reason"`
	MarkedBy       string     `bson:"markedBy" json:"markedBy"`
	MarkedByName   string     `bson:"markedByName" json:"markedByName"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"` // UTC
	UpdatedAt      *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	UpdatedBy      string     `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// RosterEntry is a member with its absence count, computed at read time.
type RosterEntry struct {
	member.User
	AbsenceCount int64 `json:"absenceCount"`
}

// CommitResult lists the absences recorded by one commit, for the notification fan-out.
type CommitResult struct {
	MeetingDate string    `json:"meetingDate"`
	Absences    []Absence `json:"absences"`
}

func (res CommitResult) Message() string {
	return fmt.Sprintf("Successfully saved attendance! %d absence(s) recorded.", len(res.Absences))
}

// BulkAttendance is the payload of a bulk attendance session.
type BulkAttendance struct {
	MeetingDate string          `json:"meetingDate" validate:"required,caldate"`
	Marks       map[string]Mark `json:"marks"`
	Notify      bool            `json:"notify"`
}

func (ba *BulkAttendance) Validate(validate *validator.Validate) error {
	ba.MeetingDate = core.CleanString(ba.MeetingDate)
	return validate.Struct(ba)
}

// NewAbsence is the payload of the one-off "mark absence" flow.
type NewAbsence struct {
	MemberID    string `json:"memberId" validate:"required"`
	MeetingDate string `json:"meetingDate" validate:"required,caldate"`
	Reason      string `json:"reason"`
	Notify      bool   `json:"notify"`
}

func (na *NewAbsence) Validate(validate *validator.Validate) error {
	na.MemberID = core.CleanString(na.MemberID)
	na.MeetingDate = core.CleanString(na.MeetingDate)
	return validate.Struct(na)
}

type EditAbsence struct {
	MeetingDate string `json:"meetingDate" validate:"required,caldate"`
	Reason      string `json:"reason"`
}

func (ea *EditAbsence) Validate(validate *validator.Validate) error {
	ea.MeetingDate = core.CleanString(ea.MeetingDate)
	return validate.Struct(ea)
}

func cleanReason(reason string) string {
	if reason = core.CleanString(reason); reason != "" {
		return reason
	}
	return DefaultReason
}
