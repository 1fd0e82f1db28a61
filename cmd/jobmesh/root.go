package main

import "github.com/spf13/cobra"

// newRootCmd builds the jobmesh binary's command tree: role selection
// between orchestrate and work (spec §1: "single binary... selected at
// startup").
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobmesh",
		Short: "Two-tier job orchestrator and worker",
	}

	root.AddCommand(newOrchestrateCmd())
	root.AddCommand(newWorkCmd())

	return root
}
