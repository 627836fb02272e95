package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rootie/infrastructure/backend"
)

func graphsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "graphs",
		Aliases: []string{"topics"},
		Short:   "Manage persisted conversation graphs",
	}

	cmd.AddCommand(
		graphsListCmd(),
		graphsNewCmd(),
		graphsDeleteCmd(),
	)
	return cmd
}

func graphsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all conversation graphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := backend.NewClient(backendURL, newLogger())
			graphs, err := client.ListGraphs(cmd.Context())
			if err != nil {
				return err
			}

			if len(graphs) == 0 {
				subtle.Println("No graphs yet. Start one with `rootie chat`.")
				return nil
			}
			for _, graph := range graphs {
				brand.Printf("%s", graph.Title)
				subtle.Printf("  %s  updated %s\n", graph.ID, graph.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func graphsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Create an empty conversation graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := backend.NewClient(backendURL, newLogger())
			summary, err := client.CreateGraph(cmd.Context(), strings.Join(args, " "), "")
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%s)\n", summary.Title, summary.ID)
			return nil
		},
	}
}

func graphsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <graph-id>",
		Short: "Delete a conversation graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := backend.NewClient(backendURL, newLogger())
			if err := client.DeleteGraph(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
