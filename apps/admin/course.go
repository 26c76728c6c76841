package main

import (
	"context"
	"fmt"

	"github.com/academia/lms/core"
	emailsvc "github.com/academia/lms/services/email"
)

// cliPrincipal is the identity the CLI acts with.
var cliPrincipal = core.Principal{ID: "admin-cli", Role: core.RoleAdmin}

func (cli *commandLine) approveCourse(id string) error {
	c, err := cli.courseSvc.Approve(context.Background(), cliPrincipal, id)
	if err != nil {
		return err
	}
	fmt.Printf("Approved %q (%s)\n", c.Title, c.ID)
	return nil
}

func (cli *commandLine) sendReminders() error {
	n, err := cli.reminders.SendDeadlineReminders(context.Background(), cli.window)
	if err != nil {
		return err
	}
	emailsvc.Wait()
	fmt.Printf("Sent %d reminder(s)\n", n)
	return nil
}
