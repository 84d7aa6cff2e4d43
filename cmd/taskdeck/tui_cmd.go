package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/client/session"
	"github.com/taskdeck/taskdeck/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive task view",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctrl, store, tokens, err := buildClients()
	if err != nil {
		return err
	}

	if _, ok := store.Current(); !ok {
		return fmt.Errorf("not signed in, run `taskdeck login` first")
	}

	signOut := func(ctx context.Context) error {
		tokens.ClearCache()
		ctrl.Reset()
		return session.NewClient(apiAddr, store).Logout(ctx)
	}

	return tui.New(ctrl, signOut).Run()
}
