package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/enactus/membership/core/member"
)

type (
	MemberCounter interface {
		Count(ctx context.Context, filter member.QueryFilter) (int64, error)
	}

	AbsenceCounter interface {
		CountAbsences(ctx context.Context) (int64, error)
	}

	EventCounter interface {
		CountInMonth(ctx context.Context, year int, month time.Month) (int64, error)
	}

	PostCounter interface {
		Count(ctx context.Context) (int64, error)
	}

	Stats struct {
		TotalMembers     int64 `json:"totalMembers"`
		PendingApprovals int64 `json:"pendingApprovals"`
		TotalAbsences    int64 `json:"totalAbsences"`
		EventsThisMonth  int64 `json:"eventsThisMonth"`
		TotalPosts       int64 `json:"totalPosts"`
	}

	Service struct {
		members  MemberCounter
		absences AbsenceCounter
		events   EventCounter
		posts    PostCounter
		now      func() time.Time
	}
)

func NewService(members MemberCounter, absences AbsenceCounter, events EventCounter, posts PostCounter) *Service {
	return &Service{
		members:  members,
		absences: absences,
		events:   events,
		posts:    posts,
		now:      time.Now,
	}
}

// Stats gathers the admin dashboard counters; any failed count fails the whole call.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error

	if st.TotalMembers, err = svc.members.Count(ctx, member.QueryFilter{Status: member.StatusApproved}); err != nil {
		return Stats{}, errors.Wrap(err, "counting members")
	}
	if st.PendingApprovals, err = svc.members.Count(ctx, member.QueryFilter{Status: member.StatusPending}); err != nil {
		return Stats{}, errors.Wrap(err, "counting pending approvals")
	}
	if st.TotalAbsences, err = svc.absences.CountAbsences(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting absences")
	}
	now := svc.now()
	if st.EventsThisMonth, err = svc.events.CountInMonth(ctx, now.Year(), now.Month()); err != nil {
		return Stats{}, errors.Wrap(err, "counting events")
	}
	if st.TotalPosts, err = svc.posts.Count(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting posts")
	}
	return st, nil
}
