package agenda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/notify"
)

var (
	// errors
	ErrNotFound        = core.ErrNotFound
	errUnknownAssignee = errors.New("unknown member")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		UpdateEvent(ctx context.Context, id string, fields core.Fields) (Event, error)
		DeleteEvent(ctx context.Context, id string) error
		// QueryEvents returns every event, earliest date first.
		QueryEvents(ctx context.Context) ([]Event, error)
	}

	MemberSource interface {
		ListApproved(ctx context.Context) ([]member.User, error)
		GetByID(ctx context.Context, id string) (member.User, error)
	}

	Notifier interface {
		NotifyAgenda(ctx context.Context, notice notify.AgendaNotice, recipients []notify.Recipient) notify.Report
	}

	Service struct {
		repo     Repository
		members  MemberSource
		notifier Notifier
		logger   core.Logger
		now      func() time.Time
	}

	// Created is a stored event, with the report of its announcement when one was requested.
	Created struct {
		Event         Event          `json:"event"`
		Notifications *notify.Report `json:"notifications,omitempty"`
	}
)

func NewService(repo Repository, members MemberSource, notifier Notifier, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		members:  members,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (svc *Service) assigneeNames(ctx context.Context, ids []string) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		usr, err := svc.members.GetByID(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				return nil, core.NewValidationError(errUnknownAssignee, core.FieldError{Field: "assignedTo", Error: errUnknownAssignee.Error() + " " + id})
			}
			return nil, errors.Wrap(err, "finding assignee")
		}
		names = append(names, usr.Name())
	}
	return names, nil
}

// Create stores a pending event. When ne.Notify is set, every approved member gets the agenda notice;
// the event stays stored whatever happens to the notifications.
func (svc *Service) Create(ctx context.Context, creator member.User, ne NewEvent) (Created, error) {
	assignedTo := ne.AssignedTo
	if assignedTo == nil {
		assignedTo = []string{}
	}
	names, err := svc.assigneeNames(ctx, assignedTo)
	if err != nil {
		return Created{}, err
	}

	tstamp := svc.now()
	evt, err := svc.repo.CreateEvent(ctx, Event{
		Title:           ne.Title,
		Description:     ne.Description,
		Date:            ne.Date,
		StartTime:       ne.StartTime,
		EndTime:         ne.EndTime,
		Location:        ne.Location,
		Type:            ne.Type,
		Status:          StatusPending,
		Priority:        ne.Priority,
		CreatedBy:       creator.ID,
		CreatedByName:   creator.NameOrEmail(),
		AssignedTo:      assignedTo,
		AssignedToNames: names,
		CreatedAt:       tstamp,
		UpdatedAt:       tstamp,
	})
	if err != nil {
		return Created{}, errors.Wrap(err, "creating event")
	}

	res := Created{Event: evt}
	if ne.Notify && svc.notifier != nil {
		res.Notifications = svc.announce(ctx, evt)
	}
	return res, nil
}

func (svc *Service) announce(ctx context.Context, evt Event) *notify.Report {
	users, err := svc.members.ListApproved(ctx)
	if err != nil {
		svc.logger.Warn("listing members to notify: "+err.Error(), err)
		return nil
	}
	recipients := make([]notify.Recipient, 0, len(users))
	for _, usr := range users {
		if usr.Email != "" {
			recipients = append(recipients, notify.Recipient{Email: usr.Email, Name: usr.Name()})
		}
	}
	notice := notify.AgendaNotice{Title: evt.Title, Description: evt.Description, EventDate: evt.StartsAt()}
	rep := svc.notifier.NotifyAgenda(ctx, notice, recipients)
	return &rep
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) List(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryEvents(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	assignedTo := ue.AssignedTo
	if assignedTo == nil {
		assignedTo = []string{}
	}
	names, err := svc.assigneeNames(ctx, assignedTo)
	if err != nil {
		return Event{}, err
	}
	evt, err := svc.repo.UpdateEvent(ctx, id, core.Fields{
		"title":           ue.Title,
		"description":     ue.Description,
		"date":            ue.Date,
		"startTime":       ue.StartTime,
		"endTime":         ue.EndTime,
		"location":        ue.Location,
		"type":            ue.Type,
		"priority":        ue.Priority,
		"assignedTo":      assignedTo,
		"assignedToNames": names,
		"updatedAt":       svc.now(),
	})
	return evt, errors.Wrap(err, "updating event")
}

func (svc *Service) SetStatus(ctx context.Context, id, status string) (Event, error) {
	evt, err := svc.repo.UpdateEvent(ctx, id, core.Fields{"status": status, "updatedAt": svc.now()})
	return evt, errors.Wrap(err, "setting event status")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.DeleteEvent(ctx, id), "deleting event")
}

// CountInMonth counts the events dated in the given month.
func (svc *Service) CountInMonth(ctx context.Context, year int, month time.Month) (int64, error) {
	events, err := svc.repo.QueryEvents(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying events")
	}
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	var n int64
	for _, evt := range events {
		if strings.HasPrefix(evt.Date, prefix) {
			n++
		}
	}
	return n, nil
}
