package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/storage/repos"
	"github.com/enactus/membership/tests"
)

var usrRepo member.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	usrRepo = docrepos.NewUserRepository(testutil.NewStore(t))

	// start CLI
	return &commandLine{
		usrSvc: member.NewService(usrRepo),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

type extra struct {
	pwd string
}

func runCLI(t *testing.T, cli *commandLine, tt cliTest) error {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
	args := append([]string{"admin"}, tt.args...)
	return cli.run(args)
}

func getUser(t *testing.T, email string) member.User {
	users, err := usrRepo.FilterUsers(context.Background(), member.QueryFilter{})
	require.NoError(t, err)
	for _, usr := range users {
		if usr.Email == email {
			return usr
		}
	}
	t.Fatalf("getUser(%q): not found", email)
	return member.User{}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "createadmin: no args", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "approve: no args", args: []string{"approve"}, wantErr: errHelp},
		{name: "setrole: no role", args: []string{"setrole", "-email", "a@enactus.tn"}, wantErr: errHelp},
		{name: "setrole: invalid role", args: []string{"setrole", "-email", "a@enactus.tn", "-role", "king"}, wantErr: errHelp},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runCLI(t, cli, tt); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)
	pending := testutil.CreateUser(t, usrRepo, "Bilel", "bilel@enactus.tn", "old-password", member.RoleMember, member.StatusPending)

	tests := []cliTest{
		{name: "email but no password", args: []string{"createadmin", "-email", "admin@enactus.tn"}, wantErr: errHelp},
		{name: "created", args: []string{"createadmin", "-email", " Admin@Enactus.tn", "-name", "Admin"}, extra: extra{pwd: "s3cret-pass"}},
		{name: "promoted", args: []string{"createadmin", "-email", pending.Email}, extra: extra{pwd: "n3w-pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, cli, tt)
			if err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	admin := getUser(t, "admin@enactus.tn")
	assert.Equal(t, "Admin", admin.DisplayName)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsApproved())
	assert.NoError(t, admin.CheckPassword("s3cret-pass"))

	promoted := getUser(t, pending.Email)
	assert.True(t, promoted.IsAdmin())
	assert.True(t, promoted.IsApproved())
	assert.NotNil(t, promoted.ApprovedAt)
	assert.NoError(t, promoted.CheckPassword("n3w-pass"))
}

func Test_commandLine_approveAndSetRole(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Amira", "amira@enactus.tn", "", member.RoleMember, member.StatusPending)

	tests := []cliTest{
		{name: "approve: not found", args: []string{"approve", "-email", "lol@enactus.tn"}, wantErr: core.ErrNotFound},
		{name: "approve", args: []string{"approve", "-email", usr.Email}},
		{name: "setrole: not found", args: []string{"setrole", "-email", "lol@enactus.tn", "-role", "admin"}, wantErr: core.ErrNotFound},
		{name: "setrole", args: []string{"setrole", "-email", usr.Email, "-role", member.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runCLI(t, cli, tt); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	got := getUser(t, usr.Email)
	assert.True(t, got.IsApproved())
	assert.True(t, got.IsAdmin())
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Amira", "amira@enactus.tn", "mdr-mdr-mdr", member.RoleMember, member.StatusApproved)

	tests := []cliTest{
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol"}, extra: extra{pwd: "lol"}, wantErr: core.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lmao-lmao"}},
		{name: "reset with uppercase email", args: []string{"resetpassword", "-email", "AMIRA@enactus.tn"}, extra: extra{pwd: "lol-lol-lol"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, cli, tt)
			if err == nil {
				refreshedUsr := getUser(t, usr.Email)
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				assert.NoError(t, refreshedUsr.CheckPassword(tt.extra.(extra).pwd))
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
