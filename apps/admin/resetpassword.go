package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr, err = cli.usrSvc.SetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s reset\n", usr.Email)
	return nil
}

func (cli *commandLine) setActive(ctx context.Context, email string, active bool) error {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr, err = cli.usrSvc.SetActive(ctx, usr, active); err != nil {
		return err
	}
	state := "deactivated"
	if usr.IsActive {
		state = "activated"
	}
	fmt.Fprintf(cli.out, "%s %s\n", usr.Email, state)
	return nil
}
