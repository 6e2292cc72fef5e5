package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/documents"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [filename...]",
	Short: "Infer document types from filenames",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			fmt.Printf("%s\t%s\n", documents.Classify(name), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
