package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/client/api"
	"github.com/taskdeck/taskdeck/internal/client/controller"
	"github.com/taskdeck/taskdeck/internal/client/session"
	"github.com/taskdeck/taskdeck/internal/client/token"
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "Taskdeck - task list client",
	Long:  `Taskdeck is a client for the taskdeck server: sign in once, then manage your tasks from the command line or the interactive TUI.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var apiAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:8080", "API server address")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(tuiCmd)
}

// buildClients wires the session store, token provider, API client and
// controller for commands that talk to the task API.
func buildClients() (*controller.Controller, *session.Store, *token.Provider, error) {
	store, err := session.NewStore()
	if err != nil {
		return nil, nil, nil, err
	}

	tokens := token.NewProvider(apiAddr, store)
	client := api.NewClient(apiAddr, tokens)
	return controller.New(client), store, tokens, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
