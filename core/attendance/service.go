package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

var (
	// errors
	ErrAbsenceNotFound    = core.ErrNotFound
	ErrNoAbsences         = errors.New("Please mark at least one member as absent")
	errInvalidMeetingDate = errors.New("meeting date must be of the form YYYY-MM-DD")
)

type (
	Repository interface {
		CountAbsences(ctx context.Context, memberID string) (int64, error)
		CountAllAbsences(ctx context.Context) (int64, error)
		InsertAbsence(ctx context.Context, abs Absence) (Absence, error)
		// InsertAbsences writes all records in one atomic batch.
		InsertAbsences(ctx context.Context, abs []Absence) ([]Absence, error)
		GetAbsence(ctx context.Context, id string) (Absence, error)
		UpdateAbsence(ctx context.Context, id string, fields core.Fields) (Absence, error)
		DeleteAbsence(ctx context.Context, id string) error
		// QueryAbsences returns every absence, most recent meeting first.
		QueryAbsences(ctx context.Context) ([]Absence, error)
		QueryMemberAbsences(ctx context.Context, memberID string) ([]Absence, error)
	}

	// MemberSource provides the roster.
	MemberSource interface {
		ListApproved(ctx context.Context) ([]member.User, error)
		GetByID(ctx context.Context, id string) (member.User, error)
	}

	// Observer is told about recorded absences (metrics).
	Observer interface {
		AbsencesRecorded(n int)
	}

	Service struct {
		repo     Repository
		members  MemberSource
		observer Observer
		now      func() time.Time
	}
)

type noopObserver struct{}

func (noopObserver) AbsencesRecorded(int) {}

func NewService(repo Repository, members MemberSource, observer Observer) *Service {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		repo:     repo,
		members:  members,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Members returns the members a bulk session is seeded with.
func (svc *Service) Members(ctx context.Context) ([]member.User, error) {
	users, err := svc.members.ListApproved(ctx)
	return users, errors.Wrap(err, "listing members")
}

// LoadRoster returns every member with a freshly counted absenceCount, most absences first.
// It runs one count query per member.
func (svc *Service) LoadRoster(ctx context.Context) ([]RosterEntry, error) {
	users, err := svc.Members(ctx)
	if err != nil {
		return nil, err
	}

	roster := make([]RosterEntry, 0, len(users))
	for _, usr := range users {
		count, err := svc.repo.CountAbsences(ctx, usr.ID)
		if err != nil {
			return nil, errors.Wrap(err, "counting absences")
		}
		roster = append(roster, RosterEntry{User: usr, AbsenceCount: count})
	}
	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].AbsenceCount != roster[j].AbsenceCount {
			return roster[i].AbsenceCount > roster[j].AbsenceCount
		}
		return roster[i].Name() < roster[j].Name()
	})
	return roster, nil
}

func validMeetingDate(meetingDate string) error {
	if !core.IsCalendarDate(meetingDate) {
		return core.NewValidationError(errInvalidMeetingDate, core.FieldError{Field: "meetingDate", Error: errInvalidMeetingDate.Error()})
	}
	return nil
}

func (svc *Service) newAbsence(marker member.User, usr member.User, meetingDate, reason string, tstamp time.Time) Absence {
	return Absence{
		UserID:         usr.ID,
		UserName:       usr.Name(),
		UserEmail:      usr.Email,
		UserBureauRole: usr.BureauRole,
		MeetingDate:    meetingDate,
		Reason:         cleanReason(reason),
		MarkedBy:       marker.ID,
		MarkedByName:   marker.NameOrEmail(),
		CreatedAt:      tstamp,
	}
}

// CommitBulk records one absence per member marked absent in draft, in a single atomic batch.
// The caller must hold admin rights and should reset the draft once it succeeds.
// Commits are not deduplicated: the same draft committed twice records every absence twice.
func (svc *Service) CommitBulk(ctx context.Context, marker member.User, meetingDate string, draft *Draft) (CommitResult, error) {
	meetingDate = core.CleanString(meetingDate)
	if err := validMeetingDate(meetingDate); err != nil {
		return CommitResult{}, err
	}
	absentees := draft.Absentees()
	if len(absentees) == 0 {
		return CommitResult{}, core.NewValidationError(ErrNoAbsences)
	}

	tstamp := svc.now()
	records := make([]Absence, 0, len(absentees))
	for _, a := range absentees {
		records = append(records, svc.newAbsence(marker, a.Member, meetingDate, a.Reason, tstamp))
	}

	saved, err := svc.repo.InsertAbsences(ctx, records)
	if err != nil {
		return CommitResult{}, errors.Wrap(err, "committing absences")
	}
	svc.observer.AbsencesRecorded(len(saved))
	return CommitResult{MeetingDate: meetingDate, Absences: saved}, nil
}

// MarkSingle records one absence with a single write.
func (svc *Service) MarkSingle(ctx context.Context, marker member.User, memberID, meetingDate, reason string) (CommitResult, error) {
	meetingDate = core.CleanString(meetingDate)
	if err := validMeetingDate(meetingDate); err != nil {
		return CommitResult{}, err
	}
	usr, err := svc.members.GetByID(ctx, memberID)
	if err != nil {
		return CommitResult{}, errors.Wrap(err, "finding member")
	}

	abs, err := svc.repo.InsertAbsence(ctx, svc.newAbsence(marker, usr, meetingDate, reason, svc.now()))
	if err != nil {
		return CommitResult{}, errors.Wrap(err, "recording absence")
	}
	svc.observer.AbsencesRecorded(1)
	return CommitResult{MeetingDate: meetingDate, Absences: []Absence{abs}}, nil
}

// EditAbsence changes the meeting date and reason of an absence; the rest of the record is history.
func (svc *Service) EditAbsence(ctx context.Context, editor member.User, id, meetingDate, reason string) (Absence, error) {
	meetingDate = core.CleanString(meetingDate)
	if err := validMeetingDate(meetingDate); err != nil {
		return Absence{}, err
	}
	abs, err := svc.repo.UpdateAbsence(ctx, id, core.Fields{
		"meetingDate": meetingDate,
		"reason":      cleanReason(reason),
		"updatedAt":   svc.now(),
		"updatedBy":   editor.ID,
	})
	return abs, errors.Wrap(err, "updating absence")
}

// DeleteAbsence hard deletes an absence.
func (svc *Service) DeleteAbsence(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.DeleteAbsence(ctx, id), "deleting absence")
}

func (svc *Service) GetAbsence(ctx context.Context, id string) (Absence, error) {
	return svc.repo.GetAbsence(ctx, id)
}

func (svc *Service) ListAbsences(ctx context.Context) ([]Absence, error) {
	return svc.repo.QueryAbsences(ctx)
}

func (svc *Service) ListMemberAbsences(ctx context.Context, memberID string) ([]Absence, error) {
	return svc.repo.QueryMemberAbsences(ctx, memberID)
}

func (svc *Service) CountAbsences(ctx context.Context) (int64, error) {
	return svc.repo.CountAllAbsences(ctx)
}
