package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veralex-legal/casebrain/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "casebraind",
		Short: "Casebrain daemon and CLI",
		Long:  "Casebrain daemon for running the document indexing and retrieval API",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IndexCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
