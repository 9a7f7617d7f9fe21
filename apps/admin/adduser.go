package main

import (
	"context"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

// createAdmin creates an approved admin, or promotes and approves the existing user.
func (cli *commandLine) createAdmin(email, name, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, member.NewUser{DisplayName: name, Email: email, Password: pwd}, member.RoleAdmin, member.StatusApproved)
		return err
	}

	if _, err = cli.usrSvc.SetRole(ctx, usr.ID, member.RoleAdmin); err != nil {
		return err
	}
	if !usr.IsApproved() {
		if _, err = cli.usrSvc.Approve(ctx, usr.ID); err != nil {
			return err
		}
	}
	return cli.usrSvc.SetPassword(ctx, usr.ID, pwd)
}

func (cli *commandLine) approve(email string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.Approve(ctx, usr.ID)
	return err
}

func (cli *commandLine) setRole(email, role string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.SetRole(ctx, usr.ID, role)
	return err
}
