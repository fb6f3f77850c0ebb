package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/schemas"
)

var validateCommand = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a canonical résumé document against the bundled JSON schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCommand)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := schemas.ValidateFile(args[0]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
	return err
}
