package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"abricot-ai-api/internal/domain/entity"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Manage tasks",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return app.requireLogin()
	},
}

var tasksListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List the tasks of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProject(cmd, args[0])
		if err != nil {
			return err
		}
		if err := app.tasks.RefreshProject(cmd.Context(), p.ID); err != nil {
			return err
		}
		return printTasks(os.Stdout, app.tasks.Tasks(p.ID))
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <project> <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProject(cmd, args[0])
		if err != nil {
			return err
		}
		if err := app.tasks.Delete(cmd.Context(), p.ID, args[1]); err != nil {
			return err
		}
		fmt.Println("Task deleted")
		return nil
	},
}

var tasksAssignedCmd = &cobra.Command{
	Use:   "assigned",
	Short: "List tasks assigned to me",
	RunE: func(cmd *cobra.Command, _ []string) error {
		me, err := app.api.Profile(cmd.Context())
		if err != nil {
			return err
		}
		if err := app.tasks.RefreshAssigned(cmd.Context(), me.ID); err != nil {
			return err
		}
		return printTasks(os.Stdout, app.tasks.Assigned())
	},
}

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksDeleteCmd, tasksAssignedCmd, tasksGenerateCmd)
}

func printTasks(out io.Writer, tasks []entity.Task) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Title)
	}
	return w.Flush()
}
