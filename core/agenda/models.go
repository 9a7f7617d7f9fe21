package agenda

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/enactus/membership/core"
)

// Event types
const (
	TypeTask    = "task"
	TypeMeeting = "meeting"
	TypeEvent   = "event"
)

// Event statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Event struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Title           string    `bson:"title" json:"title"`
	Description     string    `bson:"description" json:"description"`
	Date            string    `bson:"date" json:"date"`                               // YYYY-MM-DD
	StartTime       string    `bson:"startTime,omitempty" json:"startTime,omitempty"` // HH:MM
	EndTime         string    `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Location        string    `bson:"location,omitempty" json:"location,omitempty"`
	Type            string    `bson:"type" json:"type"`
	Status          string    `bson:"status" json:"status"`
	Priority        string    `bson:"priority" json:"priority"`
	CreatedBy       string    `bson:"createdBy" json:"createdBy"`
	CreatedByName   string    `bson:"createdByName" json:"createdByName"`
	AssignedTo      []string  `bson:"assignedTo" json:"assignedTo"`
	AssignedToNames []string  `bson:"assignedToNames" json:"assignedToNames"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StartsAt is the event date joined with its start time, as accepted by the agenda notice.
func (e Event) StartsAt() string {
	if e.StartTime == "" {
		return e.Date
	}
	return e.Date + "T" + e.StartTime
}

// NewEvent is the payload of an event creation.
type NewEvent struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description"`
	Date        string   `json:"date" validate:"required,caldate"`
	StartTime   string   `json:"startTime" validate:"omitempty,clock"`
	EndTime     string   `json:"endTime" validate:"omitempty,clock"`
	Location    string   `json:"location"`
	Type        string   `json:"type" validate:"required,oneof=task meeting event"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  []string `json:"assignedTo"`
	Notify      bool     `json:"notify"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Date = core.CleanString(ne.Date)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	ne.Location = core.CleanString(ne.Location)
	if ne.Priority == "" {
		ne.Priority = PriorityMedium
	}
	return validate.Struct(ne)
}

type UpdateEvent struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description"`
	Date        string   `json:"date" validate:"required,caldate"`
	StartTime   string   `json:"startTime" validate:"omitempty,clock"`
	EndTime     string   `json:"endTime" validate:"omitempty,clock"`
	Location    string   `json:"location"`
	Type        string   `json:"type" validate:"required,oneof=task meeting event"`
	Priority    string   `json:"priority" validate:"required,oneof=low medium high"`
	AssignedTo  []string `json:"assignedTo"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	ue.Title = core.CleanString(ue.Title)
	ue.Description = core.CleanString(ue.Description)
	ue.Date = core.CleanString(ue.Date)
	ue.StartTime = core.CleanString(ue.StartTime)
	ue.EndTime = core.CleanString(ue.EndTime)
	ue.Location = core.CleanString(ue.Location)
	return validate.Struct(ue)
}

type SetStatus struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress completed cancelled"`
}

func (ss *SetStatus) Validate(validate *validator.Validate) error {
	ss.Status = core.CleanString(ss.Status, true /* lower */)
	return validate.Struct(ss)
}
