package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enactus/membership/apps/api/echo"
	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/notify"
	inmemdb "github.com/enactus/membership/storage/database/inmem"
	"github.com/enactus/membership/tests"
)

func bulkBody(t *testing.T, date string, notify bool, marks map[string]attendance.Mark) []byte {
	return marchallObj(t, attendance.BulkAttendance{MeetingDate: date, Marks: marks, Notify: notify})
}

func Test_attendanceApi_commitBulk(t *testing.T) {
	tests := []struct {
		name       string
		marks      func(m1, m2 member.User) map[string]attendance.Mark
		date       string
		notify     bool
		failBatch  bool
		failMailTo string
		wantCode   int
		wantErr    interface{}
		wantSent   int
	}{
		{
			name:     "no absentee",
			marks:    func(m1, m2 member.User) map[string]attendance.Mark { return map[string]attendance.Mark{m1.ID: {Status: attendance.StatusPresent}} },
			date:     "2024-03-10",
			wantCode: http.StatusBadRequest,
			wantErr:  httpErr{Error: attendance.ErrNoAbsences.Error()},
		},
		{
			name:     "missing date",
			marks:    func(m1, m2 member.User) map[string]attendance.Mark { return map[string]attendance.Mark{m1.ID: {Status: attendance.StatusAbsent}} },
			wantCode: http.StatusBadRequest,
			wantErr:  map[string]string{"meetingDate": "this field is required"},
		},
		{
			name:     "unknown member",
			marks:    func(m1, m2 member.User) map[string]attendance.Mark { return map[string]attendance.Mark{"lol": {Status: attendance.StatusAbsent}} },
			date:     "2024-03-10",
			wantCode: http.StatusBadRequest,
			wantErr:  map[string]string{"lol": "member is not part of the roster"},
		},
		{
			name:     "invalid status",
			marks:    func(m1, m2 member.User) map[string]attendance.Mark { return map[string]attendance.Mark{m1.ID: {Status: "late"}} },
			date:     "2024-03-10",
			wantCode: http.StatusBadRequest,
			wantErr:  map[string]string{"status": "status must be one of: present, absent, unset"},
		},
		{
			name:      "store failure",
			marks:     func(m1, m2 member.User) map[string]attendance.Mark { return map[string]attendance.Mark{m1.ID: {Status: attendance.StatusAbsent}} },
			date:      "2024-03-10",
			notify:    true,
			failBatch: true,
			wantCode:  http.StatusServiceUnavailable,
			wantErr:   httpErr{Error: "data store unavailable, please retry"},
		},
		{
			name: "saved without notices",
			marks: func(m1, m2 member.User) map[string]attendance.Mark {
				return map[string]attendance.Mark{m1.ID: {Status: attendance.StatusAbsent, Reason: "sick"}, m2.ID: {Status: attendance.StatusAbsent}}
			},
			date:     "2024-03-10",
			wantCode: http.StatusCreated,
		},
		{
			name: "saved and notified",
			marks: func(m1, m2 member.User) map[string]attendance.Mark {
				return map[string]attendance.Mark{m1.ID: {Status: attendance.StatusAbsent, Reason: "sick"}, m2.ID: {Status: attendance.StatusAbsent}}
			},
			date:       "2024-03-10",
			notify:     true,
			failMailTo: "b@enactus.tn",
			wantCode:   http.StatusCreated,
			wantSent:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setup(t)
			admin := app.createUser(t, "Admin", "admin@enactus.tn", member.RoleAdmin)
			m1 := app.createUser(t, "Amira", "a@enactus.tn", member.RoleMember)
			m2 := app.createUser(t, "Bilel", "b@enactus.tn", member.RoleMember)
			if tt.failBatch {
				app.db.FailNext(inmemdb.OpBatch, 1)
			}
			app.mailer.FailFor(tt.failMailTo)

			req := httpTest{
				method:   http.MethodPost,
				path:     "/v1/attendance/bulk",
				token:    app.token(t, admin),
				body:     bulkBody(t, tt.date, tt.notify, tt.marks(m1, m2)),
				wantCode: tt.wantCode,
			}
			if tt.wantErr != nil {
				req.wantData = marchallObj(t, tt.wantErr)
			}
			rec := app.run(t, req)
			checkCodeAndData(t, req, rec)

			n, err := app.absRepo.CountAllAbsences(context.Background())
			require.NoError(t, err)
			assert.Len(t, app.mailer.SentMessages(), tt.wantSent)

			if tt.wantCode != http.StatusCreated {
				// nothing is written, nobody is notified
				assert.Zero(t, n)
				assert.Zero(t, app.mailer.Calls())
				return
			}
			assert.EqualValues(t, 2, n)

			var resp echoapi.CommitResponse
			unmarchall(t, rec, &resp)
			assert.Equal(t, "Successfully saved attendance! 2 absence(s) recorded.", resp.Message)
			assert.Equal(t, "2024-03-10", resp.MeetingDate)
			require.Len(t, resp.Absences, 2)
			reasons := map[string]string{}
			for _, abs := range resp.Absences {
				assert.Equal(t, admin.ID, abs.MarkedBy)
				reasons[abs.UserID] = abs.Reason
			}
			assert.Equal(t, map[string]string{m1.ID: "sick", m2.ID: attendance.DefaultReason}, reasons)

			if !tt.notify {
				assert.Nil(t, resp.Notifications)
				assert.Zero(t, app.mailer.Calls())
				return
			}
			// a failed notice never undoes the commit
			require.NotNil(t, resp.Notifications)
			assert.Equal(t, 2, resp.Notifications.Total)
			assert.Equal(t, 1, resp.Notifications.Succeeded)
			assert.Equal(t, 1, resp.Notifications.Failed)
			for _, out := range resp.Notifications.Outcomes {
				assert.Equal(t, out.Recipient != tt.failMailTo, out.Success)
			}
		})
	}
}

func Test_attendanceApi_commitBulk_rerun(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@enactus.tn", member.RoleAdmin)
	m1 := app.createUser(t, "Amira", "a@enactus.tn", member.RoleMember)

	tt := httpTest{
		method:   http.MethodPost,
		path:     "/v1/attendance/bulk",
		token:    app.token(t, admin),
		body:     bulkBody(t, "2024-03-10", false, map[string]attendance.Mark{m1.ID: {Status: attendance.StatusAbsent}}),
		wantCode: http.StatusCreated,
	}
	checkCodeAndData(t, tt, app.run(t, tt))
	checkCodeAndData(t, tt, app.run(t, tt))

	// commits are not deduplicated
	n, err := app.absRepo.CountAbsences(context.Background(), m1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func Test_attendanceApi_roster(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@enactus.tn", member.RoleAdmin)
	m1 := app.createUser(t, "Amira", "a@enactus.tn", member.RoleMember)
	testutil.CreateUser(t, app.usrRepo, "Bilel", "b@enactus.tn", "", member.RoleMember, member.StatusPending)
	testutil.CreateAbsence(t, app.absRepo, m1, "2024-03-03", "sick")
	testutil.CreateAbsence(t, app.absRepo, m1, "2024-03-10", "travel")

	tests := []httpTest{
		{name: "not admin", token: app.token(t, m1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name:  "roster",
			token: app.token(t, admin),
			wantData: marchallList(t,
				attendance.RosterEntry{User: admin, AbsenceCount: 0},
				attendance.RosterEntry{User: m1, AbsenceCount: 2},
			),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/attendance/roster"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.run(t, tt))
		})
	}
}

func Test_attendanceApi_absences(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@enactus.tn", member.RoleAdmin)
	m1 := app.createUser(t, "Amira", "a@enactus.tn", member.RoleMember)
	m2 := app.createUser(t, "Bilel", "b@enactus.tn", member.RoleMember)
	abs1 := testutil.CreateAbsence(t, app.absRepo, m1, "2024-03-03", "sick")
	abs2 := testutil.CreateAbsence(t, app.absRepo, m2, "2024-03-10", "travel")
	adminToken := app.token(t, admin)

	tests := []httpTest{
		{name: "mine", method: http.MethodGet, path: "/v1/attendance/absences/me", token: app.token(t, m1), wantData: marchallList(t, abs1)},
		{name: "mine: none", method: http.MethodGet, path: "/v1/attendance/absences/me", token: adminToken, wantData: marchallList(t)},
		{name: "list: not admin", method: http.MethodGet, path: "/v1/attendance/absences", token: app.token(t, m1), wantCode: http.StatusForbidden},
		{name: "list", method: http.MethodGet, path: "/v1/attendance/absences", token: adminToken, wantData: marchallList(t, abs2, abs1)},
		{
			name:     "edit: invalid date",
			method:   http.MethodPut,
			path:     "/v1/attendance/absences/" + abs1.ID,
			token:    adminToken,
			body:     marchallObj(t, attendance.EditAbsence{MeetingDate: "10/03/2024"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"meetingDate": "meetingDate must be a date of the form YYYY-MM-DD"}),
		},
		{
			name:     "edit: unknown",
			method:   http.MethodPut,
			path:     "/v1/attendance/absences/lol",
			token:    adminToken,
			body:     marchallObj(t, attendance.EditAbsence{MeetingDate: "2024-03-04"}),
			wantCode: http.StatusNotFound,
		},
		{
			name:   "edit",
			method: http.MethodPut,
			path:   "/v1/attendance/absences/" + abs1.ID,
			token:  adminToken,
			body:   marchallObj(t, attendance.EditAbsence{MeetingDate: "2024-03-04", Reason: " "}),
			extra:  attendance.DefaultReason,
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/attendance/absences/" + abs2.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "delete: gone", method: http.MethodDelete, path: "/v1/attendance/absences/" + abs2.ID, token: adminToken, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := app.run(t, tt)
			checkCodeAndData(t, tt, rec)

			if reason, ok := tt.extra.(string); ok {
				var abs attendance.Absence
				unmarchall(t, rec, &abs)
				assert.Equal(t, "2024-03-04", abs.MeetingDate)
				assert.Equal(t, reason, abs.Reason)
				assert.Equal(t, admin.ID, abs.UpdatedBy)
				assert.NotNil(t, abs.UpdatedAt)
			}
		})
	}
}

func Test_attendanceApi_markAbsence(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin@enactus.tn", member.RoleAdmin)
	m1 := app.createUser(t, "Amira", "a@enactus.tn", member.RoleMember)
	token := app.token(t, admin)

	tests := []httpTest{
		{
			name:     "missing member",
			body:     marchallObj(t, attendance.NewAbsence{MeetingDate: "2024-03-10"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"memberId": "this field is required"}),
		},
		{
			name:     "unknown member",
			body:     marchallObj(t, attendance.NewAbsence{MemberID: "lol", MeetingDate: "2024-03-10"}),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "marked and notified",
			body:     marchallObj(t, attendance.NewAbsence{MemberID: m1.ID, MeetingDate: "2024-03-10", Reason: "sick", Notify: true}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/attendance/absences"
		tt.token = token

		t.Run(tt.name, func(t *testing.T) {
			rec := app.run(t, tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var resp echoapi.CommitResponse
				unmarchall(t, rec, &resp)
				assert.Equal(t, "Successfully saved attendance! 1 absence(s) recorded.", resp.Message)
				require.Len(t, resp.Absences, 1)
				assert.Equal(t, m1.ID, resp.Absences[0].UserID)
				require.NotNil(t, resp.Notifications)
				assert.Equal(t, 1, resp.Notifications.Succeeded)
				assert.Equal(t, notify.StateSent, resp.Notifications.Outcomes[0].State)

				sent := app.mailer.SentMessages()
				require.Len(t, sent, 1)
				assert.Equal(t, "a@enactus.tn", sent[0].Recipient())
				assert.Contains(t, sent[0].TextContent, "sick")
			}
		})
	}
}
