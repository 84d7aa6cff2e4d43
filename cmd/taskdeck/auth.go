package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskdeck/taskdeck/internal/client/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session locally",
	RunE:  runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

var (
	authEmail    string
	authPassword string
	authName     string
)

func init() {
	loginCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "Account password (prompted if omitted)")

	signupCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&authPassword, "password", "", "Account password (prompted if omitted)")
	signupCmd.Flags().StringVar(&authName, "name", "", "Display name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	store, err := session.NewStore()
	if err != nil {
		return err
	}

	state, err := session.NewClient(apiAddr, store).Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	fmt.Printf("Signed in as %s\n", state.User.Email)
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	store, err := session.NewStore()
	if err != nil {
		return err
	}

	state, err := session.NewClient(apiAddr, store).Signup(cmd.Context(), email, password, authName)
	if err != nil {
		return err
	}

	fmt.Printf("Account created, signed in as %s\n", state.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return err
	}

	if err := session.NewClient(apiAddr, store).Logout(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return err
	}

	state, ok := store.Current()
	if !ok {
		fmt.Println("Not signed in. Run `taskdeck login`.")
		return nil
	}

	fmt.Printf("%s (%s)\n", state.User.Email, state.User.ID)
	if state.User.Name != "" {
		fmt.Printf("Name: %s\n", state.User.Name)
	}
	fmt.Printf("Session expires: %s\n", state.ExpiresAt.Format("2006-01-02 15:04"))
	return nil
}

func promptCredentials() (email, password string, err error) {
	email = strings.TrimSpace(authEmail)
	if email == "" {
		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return "", "", readErr
		}
		email = strings.TrimSpace(line)
	}

	password = authPassword
	if password == "" {
		fmt.Print("Password: ")
		raw, readErr := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if readErr != nil {
			return "", "", readErr
		}
		password = string(raw)
	}

	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required")
	}
	return email, password, nil
}
