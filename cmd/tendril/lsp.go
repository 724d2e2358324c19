package main

import (
	"context"

	"github.com/spf13/cobra"

	lsp "github.com/tendril-lang/tendril/internal/lspserver"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the Tendril language server over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return lsp.NewServer().Run(context.Background())
	},
}
