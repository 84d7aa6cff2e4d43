package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/client/controller"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Toggle task completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskRenameCmd = &cobra.Command{
	Use:   "rename [task-id] [title]",
	Short: "Rename a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskRename,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var taskFilter string

func init() {
	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskDoneCmd, taskRenameCmd, taskRmCmd)

	taskListCmd.Flags().StringVar(&taskFilter, "filter", "all", "Filter (all, active, completed)")
}

func runTaskList(cmd *cobra.Command, args []string) error {
	ctrl, _, _, err := buildClients()
	if err != nil {
		return err
	}

	if err := ctrl.Load(cmd.Context()); err != nil {
		return clientErr(ctrl, err)
	}
	ctrl.SetFilter(controller.Filter(taskFilter))

	tasks := ctrl.Visible()
	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tTITLE\tCREATED")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\n",
			t.ID, done, t.Title, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()

	total, completed, active := ctrl.Counts()
	fmt.Printf("\n%d total, %d active, %d completed\n", total, active, completed)
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctrl, _, _, err := buildClients()
	if err != nil {
		return err
	}

	if err := ctrl.Create(cmd.Context(), args[0]); err != nil {
		return clientErr(ctrl, err)
	}

	tasks := ctrl.Tasks()
	if len(tasks) > 0 {
		fmt.Printf("Created task: %s\n", tasks[0].ID)
	}
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	ctrl, _, _, err := buildClients()
	if err != nil {
		return err
	}

	if err := ctrl.Load(cmd.Context()); err != nil {
		return clientErr(ctrl, err)
	}
	if err := ctrl.Toggle(cmd.Context(), args[0]); err != nil {
		return clientErr(ctrl, err)
	}

	fmt.Println("Toggled")
	return nil
}

func runTaskRename(cmd *cobra.Command, args []string) error {
	ctrl, _, _, err := buildClients()
	if err != nil {
		return err
	}

	if err := ctrl.Load(cmd.Context()); err != nil {
		return clientErr(ctrl, err)
	}
	if err := ctrl.Rename(cmd.Context(), args[0], args[1]); err != nil {
		return clientErr(ctrl, err)
	}

	fmt.Println("Renamed")
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	ctrl, _, _, err := buildClients()
	if err != nil {
		return err
	}

	if err := ctrl.Load(cmd.Context()); err != nil {
		return clientErr(ctrl, err)
	}
	if err := ctrl.Remove(cmd.Context(), args[0]); err != nil {
		return clientErr(ctrl, err)
	}

	fmt.Println("Deleted")
	return nil
}

// clientErr prefers the controller's user-facing message and points at
// `taskdeck login` when the credentials are the problem.
func clientErr(ctrl *controller.Controller, err error) error {
	if userErr := ctrl.Err(); userErr != nil {
		if userErr.AuthExpired {
			return fmt.Errorf("%s (run `taskdeck login` to sign in again)", userErr.Message)
		}
		return fmt.Errorf("%s", userErr.Message)
	}
	return err
}
