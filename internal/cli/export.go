package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's history as JSON",
		Long:  "Export conversations, messages, memories, homework, risk profile and crisis events for --user.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	user := requireUser()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	e, err := s.ExportUser(cmd.Context(), user)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(e)
}
