package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/apperr"
	"github.com/Thanhdhxd/logbook-app/models"
	"github.com/Thanhdhxd/logbook-app/store"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userDefault  bool
)

// sampleUsers are created by "user seed". Existing emails are skipped.
var sampleUsers = []struct{ name, email, password string }{
	{"Nguyễn Văn A", "admin@logbook.com", "admin123"},
	{"Trần Thị B", "user@logbook.com", "user123"},
	{"Demo User", "demo@example.com", "demo123"},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with a bcrypt-hashed password",
	Example: `  logbookctl user create --name "Nguyễn Văn A" --email a@farm.vn --password s3cret
  logbookctl user create --default --email demo@example.com --password demo123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		u := &models.User{Name: userName, Email: userEmail}
		if userDefault {
			u.ID = e.cfg.DefaultUserID
			if u.Name == "" {
				u.Name = "Demo User"
			}
		}
		if err := createUser(ctx, e.st, u, userPassword, time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s <%s> (%s)\n", u.Name, u.Email, u.ID.Hex())
		return nil
	},
}

var userSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the sample accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		out := cmd.OutOrStdout()
		for _, s := range sampleUsers {
			u := &models.User{Name: s.name, Email: s.email}
			err := createUser(ctx, e.st, u, s.password, time.Now())
			switch {
			case errors.Is(err, apperr.ErrConflict):
				fmt.Fprintf(out, "skip %s: already exists\n", s.email)
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "created %s <%s> password %s\n", s.name, s.email, s.password)
			}
		}
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "login password")
	userCreateCmd.Flags().BoolVar(&userDefault, "default", false, "create the account under DEFAULT_USER_ID")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd, userSeedCmd)
	rootCmd.AddCommand(userCmd)
}

func createUser(ctx context.Context, st store.Users, u *models.User, password string, now time.Time) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Name == "" || u.Email == "" || password == "" {
		return apperr.Invalid("name, email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.CreatedAt = now.UTC().Truncate(time.Millisecond)
	return st.CreateUser(ctx, u)
}
