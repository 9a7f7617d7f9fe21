package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/enactus/membership/core/member"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc *member.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createadmin -email EMAIL -name NAME - create an approved admin, or promote an existing user")
	fmt.Println("  approve -email EMAIL - approve a pending account")
	fmt.Println("  setrole -email EMAIL -role admin|member - change a user's access role")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminEmail := createAdminCmd.String("email", "", "The admin's email. The password will be prompted next.")
	createAdminName := createAdminCmd.String("name", "", "The admin's display name.")

	approveCmd := flag.NewFlagSet("approve", flag.ContinueOnError)
	approveEmail := approveCmd.String("email", "", "The user's email.")

	setRoleCmd := flag.NewFlagSet("setrole", flag.ContinueOnError)
	setRoleEmail := setRoleCmd.String("email", "", "The user's email.")
	setRoleRole := setRoleCmd.String("role", "", "The new role: admin or member.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAdminEmail == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(createAdminCmd)
		if err != nil {
			return err
		}
		return cli.createAdmin(*createAdminEmail, *createAdminName, pwd)

	case "approve":
		if err := approveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *approveEmail == "" {
			approveCmd.Usage()
			return errHelp
		}
		return cli.approve(*approveEmail)

	case "setrole":
		if err := setRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setRoleEmail == "" || (*setRoleRole != member.RoleAdmin && *setRoleRole != member.RoleMember) {
			setRoleCmd.Usage()
			return errHelp
		}
		return cli.setRole(*setRoleEmail, *setRoleRole)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
