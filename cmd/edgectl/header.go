package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// headerCmd represents the header command
var headerCmd = &cobra.Command{
	Use:   "header",
	Short: "Encode and decode edge context headers",
	Long: `Encode and decode the base64 form of the edge context header.

Subcommands:
  encode    Build a header from flags
  decode    Print the fields of a header`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'header' requires a subcommand (encode, decode)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(headerCmd)
}
