package main

import (
	"context"
	"fmt"

	"github.com/attendix/attendix/core/user"
)

// addAdmin creates an organization admin, or updates the admin holding that email.
func (cli *commandLine) addAdmin(ctx context.Context, na user.NewAdmin) error {
	if err := na.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	usr, err := cli.usrSvc.AddAdmin(ctx, na)
	if err != nil {
		return err
	}
	fmt.Printf("admin %s (#%d) of %s is ready\n", usr.Email, usr.ID, usr.OrganizationName)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, rp user.ResetPassword) error {
	if err := rp.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	return cli.usrSvc.ResetPassword(ctx, rp)
}
