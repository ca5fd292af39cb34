package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/core/domain"
)

var categoriesCmd = &cobra.Command{
	Use:         "categories",
	Short:       "Print the category vocabulary",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipGateAnnotation: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		for _, category := range domain.Vocabulary {
			fmt.Fprintln(cmd.OutOrStdout(), category)
		}
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
