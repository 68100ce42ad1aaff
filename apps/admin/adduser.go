package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/user"
)

var errInvalidRole = fmt.Errorf("role must be one of %v", user.AllRoles)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, pwd, role string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if !user.IsValidRole(role) {
		return errInvalidRole
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	found := err == nil
	if err != nil && !core.IsNotFound(err) {
		return err
	}

	now := time.Now().UTC()
	if !found {
		usr = user.User{Email: email, CreatedAt: now}
	}
	usr.Name = core.StringOr(name, usr.Name)
	if usr.Name == "" {
		usr.Name = email
	}
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = now
	if usr.IsStudent() {
		usr.Department = core.StringOr(usr.Department, user.DefaultDept)
		usr.Major = core.StringOr(usr.Major, user.DefaultMajor)
		if usr.Level < 1 {
			usr.Level = user.DefaultLevel
		}
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if found {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
