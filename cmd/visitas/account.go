package main

import (
	"github.com/jrsteele09/go-visitas/auth"
	"github.com/jrsteele09/go-visitas/credentials"
	"github.com/jrsteele09/go-visitas/users"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:     "login [username]",
		Short:   "Sign in",
		GroupID: "account",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var username string
			if len(args) == 1 {
				username = args[0]
			}
			username, err := a.valueOr(username, "Username: ")
			if err != nil {
				return err
			}
			if password, err = a.valueOr(password, "Password: "); err != nil {
				return err
			}

			user, err := a.auth.Login(a.context(cmd), username, password)
			if err != nil {
				return err
			}
			a.success("Signed in as %s", user.DisplayName())
			if a.storage == credentials.StorageSession {
				a.warning("session storage is in memory, the login ends with this command; use --storage durable to keep it")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Sign out and forget the stored session",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(a.context(cmd)); err != nil {
				return err
			}
			a.success("Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"me"},
		Short:   "Show the signed in user",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.auth.Bootstrap(a.context(cmd))
			if err != nil {
				return err
			}
			a.printUser(user)
			return nil
		},
	}
}

func (a *app) printUser(user *users.User) {
	a.field("Username", user.Username)
	if user.Name != "" {
		a.field("Name", user.Name)
	}
	a.field("Email", user.Email)
	if user.IsAdmin {
		a.field("Role", "admin")
	} else {
		a.field("Role", "member")
	}
	if !user.DateJoined.IsZero() {
		a.field("Joined", user.DateJoined.Format("2006-01-02"))
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg auth.Registration
	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Create an account and sign in",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if reg.Username, err = a.valueOr(reg.Username, "Username: "); err != nil {
				return err
			}
			if reg.Email, err = a.valueOr(reg.Email, "Email: "); err != nil {
				return err
			}
			if reg.Password, err = a.valueOr(reg.Password, "Password: "); err != nil {
				return err
			}
			user, err := a.auth.Register(a.context(cmd), reg)
			if err != nil {
				return err
			}
			a.success("Account created, signed in as %s", user.DisplayName())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.Username, "username", "", "username")
	f.StringVar(&reg.Email, "email", "", "email address")
	f.StringVar(&reg.Password, "password", "", "password")
	f.StringVar(&reg.Name, "name", "", "display name")
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:     "passwd",
		Short:   "Change your password",
		GroupID: "account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if current, err = a.valueOr(current, "Current password: "); err != nil {
				return err
			}
			if next, err = a.valueOr(next, "New password: "); err != nil {
				return err
			}
			if err := a.auth.ChangePassword(a.context(cmd), current, next); err != nil {
				return err
			}
			a.success("Password changed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}
