package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) createUser(name, email, pwd, role string) error {
	usr, err := cli.usrSvc.CreateUser(context.Background(), name, email, pwd, role)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s %s <%s>\n", usr.Role, usr.ID, usr.Email)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	return cli.usrSvc.ResetPassword(context.Background(), email, pwd)
}
