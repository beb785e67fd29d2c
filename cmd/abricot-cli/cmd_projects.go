package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"abricot-ai-api/internal/domain/entity"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage projects",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return app.requireLogin()
	},
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.projects.Refresh(cmd.Context()); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tTASKS")
		for _, p := range app.projects.Projects() {
			tasks := 0
			if p.Count != nil {
				tasks = p.Count.Tasks
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", p.ID, p.Name, len(p.Members), tasks)
		}
		return w.Flush()
	},
}

var projectDescription string

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.projects.Create(cmd.Context(), entity.CreateProjectInput{
			Name:        args[0],
			Description: projectDescription,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProject(cmd, args[0])
		if err != nil {
			return err
		}
		if err := app.projects.Delete(cmd.Context(), p.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", p.Name)
		return nil
	},
}

var contributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "Manage project contributors",
}

var contributorsAddCmd = &cobra.Command{
	Use:   "add <project> <email>",
	Short: "Invite a contributor by email",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProject(cmd, args[0])
		if err != nil {
			return err
		}
		if err := app.projects.AddContributor(cmd.Context(), p.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("Added %s to %s\n", args[1], p.Name)
		return nil
	},
}

var contributorsRemoveCmd = &cobra.Command{
	Use:   "remove <project> <user-id>",
	Short: "Remove a contributor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProject(cmd, args[0])
		if err != nil {
			return err
		}
		return app.projects.RemoveContributor(cmd.Context(), p.ID, args[1])
	},
}

func init() {
	projectsCreateCmd.Flags().StringVar(&projectDescription, "description", "", "project description")
	contributorsCmd.AddCommand(contributorsAddCmd, contributorsRemoveCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsDeleteCmd, contributorsCmd)
}

// resolveProject 按 id 或名称查找项目
func resolveProject(cmd *cobra.Command, ref string) (*entity.Project, error) {
	if !app.projects.Loaded() {
		if err := app.projects.Refresh(cmd.Context()); err != nil {
			return nil, err
		}
	}
	p, ok := app.projects.Find(ref)
	if !ok {
		return nil, fmt.Errorf("project %q not found", ref)
	}
	return p, nil
}
