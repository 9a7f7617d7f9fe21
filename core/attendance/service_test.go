package attendance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/member"
	inmemdb "github.com/enactus/membership/storage/database/inmem"
	"github.com/enactus/membership/storage/repos"
	"github.com/enactus/membership/tests"
)

type fixture struct {
	db      *inmemdb.DB
	repo    attendance.Repository
	usrRepo member.Repository
	svc     *attendance.Service
	admin   member.User
	m1, m2  member.User
}

type countingObserver struct{ n int }

func (o *countingObserver) AbsencesRecorded(n int) { o.n += n }

func setup(t *testing.T, observer attendance.Observer) *fixture {
	db := testutil.NewStore(t)
	f := &fixture{
		db:      db,
		repo:    docrepos.NewAbsenceRepository(db),
		usrRepo: docrepos.NewUserRepository(db),
	}
	f.svc = attendance.NewService(f.repo, member.NewService(f.usrRepo), observer)

	f.admin = testutil.CreateUser(t, f.usrRepo, "Admin", "admin@x.com", "", member.RoleAdmin, member.StatusApproved)
	f.m1 = testutil.CreateUser(t, f.usrRepo, "Amira", "a@x.com", "", member.RoleMember, member.StatusApproved)
	f.m2 = testutil.CreateUser(t, f.usrRepo, "Bilel", "b@x.com", "", member.RoleMember, member.StatusApproved)
	return f
}

func (f *fixture) draft(t *testing.T) *attendance.Draft {
	roster, err := f.svc.Members(context.Background())
	require.NoError(t, err)
	return attendance.NewDraft(roster)
}

func (f *fixture) absenceCount(t *testing.T) int64 {
	n, err := f.repo.CountAllAbsences(context.Background())
	require.NoError(t, err)
	return n
}

func TestService_CommitBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("end to end", func(t *testing.T) {
		obs := new(countingObserver)
		f := setup(t, obs)
		d := f.draft(t)
		require.NoError(t, d.MarkStatus(f.m1.ID, attendance.StatusAbsent))
		require.NoError(t, d.SetReason(f.m1.ID, "sick"))
		require.NoError(t, d.MarkStatus(f.m2.ID, attendance.StatusPresent))

		res, err := f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
		require.NoError(t, err)
		require.Len(t, res.Absences, 1)
		abs := res.Absences[0]
		assert.NotEmpty(t, abs.ID)
		assert.Equal(t, f.m1.ID, abs.UserID)
		assert.Equal(t, "Amira", abs.UserName)
		assert.Equal(t, "a@x.com", abs.UserEmail)
		assert.Equal(t, member.DefaultBureauRole, abs.UserBureauRole)
		assert.Equal(t, "2024-03-10", abs.MeetingDate)
		assert.Equal(t, "sick", abs.Reason)
		assert.Equal(t, f.admin.ID, abs.MarkedBy)
		assert.Equal(t, "Admin", abs.MarkedByName)
		assert.Equal(t, "Successfully saved attendance! 1 absence(s) recorded.", res.Message())
		assert.Equal(t, 1, obs.n)

		stored, err := f.repo.GetAbsence(ctx, abs.ID)
		require.NoError(t, err)
		assert.Equal(t, abs, stored)
	})

	t.Run("blank reason is defaulted", func(t *testing.T) {
		f := setup(t, nil)
		d := f.draft(t)
		require.NoError(t, d.MarkStatus(f.m1.ID, attendance.StatusAbsent))
		require.NoError(t, d.SetReason(f.m1.ID, "   "))
		require.NoError(t, d.MarkStatus(f.m2.ID, attendance.StatusAbsent))

		res, err := f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
		require.NoError(t, err)
		require.Len(t, res.Absences, 2)
		for _, abs := range res.Absences {
			assert.Equal(t, attendance.DefaultReason, abs.Reason)
			assert.Equal(t, "No reason provided", abs.Reason)
		}
	})

	t.Run("no absent member", func(t *testing.T) {
		tests := []struct {
			name string
			mark func(f *fixture, d *attendance.Draft)
		}{
			{"all unset", func(f *fixture, d *attendance.Draft) {}},
			{"all present", func(f *fixture, d *attendance.Draft) {
				_ = d.MarkStatus(f.m1.ID, attendance.StatusPresent)
				_ = d.MarkStatus(f.m2.ID, attendance.StatusPresent)
			}},
			{"absent then unset", func(f *fixture, d *attendance.Draft) {
				_ = d.MarkStatus(f.m1.ID, attendance.StatusAbsent)
				_ = d.MarkStatus(f.m1.ID, attendance.StatusUnset)
			}},
			{"reset", func(f *fixture, d *attendance.Draft) {
				_ = d.MarkStatus(f.m1.ID, attendance.StatusAbsent)
				d.Reset()
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := setup(t, nil)
				d := f.draft(t)
				tt.mark(f, d)

				_, err := f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
				require.Error(t, err)
				assert.True(t, core.IsValidation(err))
				assert.Equal(t, attendance.ErrNoAbsences.Error(), err.Error())
				assert.Zero(t, f.absenceCount(t))
			})
		}
	})

	t.Run("malformed meeting date", func(t *testing.T) {
		f := setup(t, nil)
		d := f.draft(t)
		require.NoError(t, d.MarkStatus(f.m1.ID, attendance.StatusAbsent))

		for _, date := range []string{"", "10/03/2024", "2024-02-30", "2024-03-10T10:00:00Z"} {
			_, err := f.svc.CommitBulk(ctx, f.admin, date, d)
			assert.True(t, core.IsValidation(err), date)
		}
		assert.Zero(t, f.absenceCount(t))
	})

	t.Run("batch fault leaves nothing behind", func(t *testing.T) {
		obs := new(countingObserver)
		f := setup(t, obs)
		d := f.draft(t)
		require.NoError(t, d.MarkStatus(f.m1.ID, attendance.StatusAbsent))
		require.NoError(t, d.MarkStatus(f.m2.ID, attendance.StatusAbsent))

		f.db.FailNext(inmemdb.OpBatch, 1)
		_, err := f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
		require.Error(t, err)
		assert.True(t, core.IsDataAccess(err))
		assert.Zero(t, f.absenceCount(t))
		assert.Zero(t, obs.n)

		// the draft is untouched, so the admin can retry
		res, err := f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
		require.NoError(t, err)
		assert.Len(t, res.Absences, 2)
		assert.EqualValues(t, 2, f.absenceCount(t))
	})

	t.Run("rerun duplicates the records", func(t *testing.T) {
		// Commits are not deduplicated: this is current, documented behavior.
		f := setup(t, nil)
		d := f.draft(t)
		require.NoError(t, d.MarkStatus(f.m1.ID, attendance.StatusAbsent))
		require.NoError(t, d.MarkStatus(f.m2.ID, attendance.StatusAbsent))

		_, err := f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
		require.NoError(t, err)
		_, err = f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
		require.NoError(t, err)

		assert.EqualValues(t, 4, f.absenceCount(t))
		absences, err := f.svc.ListMemberAbsences(ctx, f.m1.ID)
		require.NoError(t, err)
		require.Len(t, absences, 2)
		assert.Equal(t, absences[0].MeetingDate, absences[1].MeetingDate)
		assert.NotEqual(t, absences[0].ID, absences[1].ID)
	})
}

func TestService_LoadRoster(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	pending := testutil.CreateUser(t, f.usrRepo, "Pending", "p@x.com", "", member.RoleMember, member.StatusPending)

	roster, err := f.svc.LoadRoster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	for _, e := range roster {
		assert.Zero(t, e.AbsenceCount)
		assert.NotEqual(t, pending.ID, e.ID)
	}
	// no absences: sorted by name
	assert.Equal(t, []string{"Admin", "Amira", "Bilel"}, []string{roster[0].Name(), roster[1].Name(), roster[2].Name()})

	testutil.CreateAbsence(t, f.repo, f.m2, "2024-03-03", "")
	d := f.draft(t)
	require.NoError(t, d.MarkStatus(f.m2.ID, attendance.StatusAbsent))
	require.NoError(t, d.MarkStatus(f.m1.ID, attendance.StatusAbsent))
	_, err = f.svc.CommitBulk(ctx, f.admin, "2024-03-10", d)
	require.NoError(t, err)

	// read after write: counts match the absences collection
	roster, err = f.svc.LoadRoster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, f.m2.ID, roster[0].ID)
	assert.EqualValues(t, 2, roster[0].AbsenceCount)
	assert.Equal(t, f.m1.ID, roster[1].ID)
	assert.EqualValues(t, 1, roster[1].AbsenceCount)
	assert.Equal(t, f.admin.ID, roster[2].ID)
	assert.Zero(t, roster[2].AbsenceCount)

	for _, e := range roster {
		n, err := f.repo.CountAbsences(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, n, e.AbsenceCount)
	}

	t.Run("store down", func(t *testing.T) {
		f.db.FailNext(inmemdb.OpCount, 1)
		_, err := f.svc.LoadRoster(ctx)
		assert.True(t, core.IsDataAccess(err))
	})
}

func TestService_MarkSingle(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)

	res, err := f.svc.MarkSingle(ctx, f.admin, f.m1.ID, "2024-03-10", "")
	require.NoError(t, err)
	require.Len(t, res.Absences, 1)
	assert.Equal(t, "No reason provided", res.Absences[0].Reason)
	assert.EqualValues(t, 1, f.absenceCount(t))

	_, err = f.svc.MarkSingle(ctx, f.admin, "lol", "2024-03-10", "")
	assert.True(t, core.IsNotFound(err))

	_, err = f.svc.MarkSingle(ctx, f.admin, f.m1.ID, "lol", "")
	assert.True(t, core.IsValidation(err))
	assert.EqualValues(t, 1, f.absenceCount(t))
}

func TestService_EditAndDeleteAbsence(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	abs := testutil.CreateAbsence(t, f.repo, f.m1, "2024-03-03", "sick")

	edited, err := f.svc.EditAbsence(ctx, f.admin, abs.ID, "2024-03-04", " ")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", edited.MeetingDate)
	assert.Equal(t, attendance.DefaultReason, edited.Reason)
	assert.Equal(t, f.admin.ID, edited.UpdatedBy)
	require.NotNil(t, edited.UpdatedAt)
	// the snapshot is history
	assert.Equal(t, abs.UserName, edited.UserName)
	assert.Equal(t, abs.CreatedAt, edited.CreatedAt)

	_, err = f.svc.EditAbsence(ctx, f.admin, "lol", "2024-03-04", "")
	assert.True(t, core.IsNotFound(err))
	_, err = f.svc.EditAbsence(ctx, f.admin, abs.ID, "04/03/2024", "")
	assert.True(t, core.IsValidation(err))

	require.NoError(t, f.svc.DeleteAbsence(ctx, abs.ID))
	_, err = f.svc.GetAbsence(ctx, abs.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(f.svc.DeleteAbsence(ctx, abs.ID)))
}

func TestService_ListAbsences(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	a1 := testutil.CreateAbsence(t, f.repo, f.m1, "2024-03-03", "")
	a2 := testutil.CreateAbsence(t, f.repo, f.m2, "2024-03-17", "")
	a3 := testutil.CreateAbsence(t, f.repo, f.m1, "2024-03-10", "")

	absences, err := f.svc.ListAbsences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []attendance.Absence{a2, a3, a1}, absences)

	absences, err = f.svc.ListMemberAbsences(ctx, f.m1.ID)
	require.NoError(t, err)
	assert.Equal(t, []attendance.Absence{a3, a1}, absences)

	n, err := f.svc.CountAbsences(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
