package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/extract"
)

var extractCommand = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the plain text of a PDF or Word résumé",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCommand)
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := extract.FromFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
