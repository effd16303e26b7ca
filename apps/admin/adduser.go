package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core/user"
)

// addUser creates an active user.User.
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return cli.checkValid(err)
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	fmt.Fprintf(cli.out, "%s %s created (id: %s)\n", usr.Role, usr.Email, usr.ID)
	return nil
}
