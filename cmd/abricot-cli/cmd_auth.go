package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := passwordOrPrompt(authPassword)
		if err != nil {
			return err
		}
		sess, err := app.api.Login(cmd.Context(), authEmail, password)
		if err != nil {
			return err
		}
		if err := app.tokens.Save(sess.Token); err != nil {
			return err
		}
		fmt.Printf("Logged in as %s <%s>\n", sess.User.Name, sess.User.Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and store the session token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := passwordOrPrompt(authPassword)
		if err != nil {
			return err
		}
		sess, err := app.api.Register(cmd.Context(), authName, authEmail, password)
		if err != nil {
			return err
		}
		if err := app.tokens.Save(sess.Token); err != nil {
			return err
		}
		fmt.Printf("Welcome %s\n", sess.User.Name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(*cobra.Command, []string) error {
		if err := app.tokens.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the current user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.requireLogin(); err != nil {
			return err
		}
		u, err := app.api.Profile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\nid: %s\n", u.Name, u.Email, u.ID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (prompted when empty)")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "display name")
	_ = registerCmd.MarkFlagRequired("name")
}

func passwordOrPrompt(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Print("Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
