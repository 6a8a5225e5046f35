package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/user"
)

// createAdmin updates or creates an active admin account.
func (cli *commandLine) createAdmin(email, firstName, lastName, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			FirstName: core.CleanString(firstName),
			LastName:  core.CleanString(lastName),
			Email:     email,
		}
	}
	usr.Role = user.RoleAdmin
	usr.Permissions = user.DefaultPermissions(user.RoleAdmin)
	usr.IsActive = true
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
